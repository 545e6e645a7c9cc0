package gateway

import (
	"errors"
	"fmt"
)

// Reason - машиночитаемая причина отказа мессенджера.
type Reason string

const (
	ReasonNotFound         Reason = "not_found"
	ReasonPermissionDenied Reason = "permission_denied"
	ReasonRateLimited      Reason = "rate_limited"
	ReasonUnknown          Reason = "unknown"
)

// Error - ошибка вызова шлюза с причиной и исходной ошибкой телеги.
type Error struct {
	Op     string
	Reason Reason
	Err    error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("gateway %s: %s", e.Op, e.Reason)
	}
	return fmt.Sprintf("gateway %s: %s: %v", e.Op, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ReasonOf достаёт причину из цепочки ошибок. Для не-шлюзовых ошибок - Unknown.
func ReasonOf(err error) Reason {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Reason
	}
	return ReasonUnknown
}
