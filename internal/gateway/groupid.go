package gateway

import (
	"fmt"
	"strconv"
	"strings"
)

// Супергруппы в Bot API живут с префиксом -100: id -1001234567890
// соответствует "сырому" 1234567890.
const supergroupOffset int64 = 1_000_000_000_000

// NormalizeGroupID приводит идентификатор группы к каноничному виду Bot API.
// Принимает "-1001234567890", "-12345" (обычная группа) и "1234567890"
// (сырой id супергруппы, без префикса).
func NormalizeGroupID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("group id is empty")
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("group id %q is not a number: %w", raw, err)
	}
	if id == 0 {
		return 0, fmt.Errorf("group id is zero")
	}

	if id > 0 {
		return -(supergroupOffset + id), nil
	}
	return id, nil
}
