package session

import (
	"context"
)

// SyncRecorder уведомляет внешнее хранилище о смене статуса комнаты.
// Вызовы fire-and-forget: реализации логируют ошибки и не мешают
// жизненному циклу чата.
type SyncRecorder interface {
	MarkSessionOngoing(ctx context.Context, groupID int64, inviteLink, topic string, durationMinutes int)
	MarkSessionEnded(ctx context.Context, groupID int64)
	MarkGroupAvailable(ctx context.Context, groupID int64)
}

// NoopSyncRecorder - дефолт: ничего не делает.
type NoopSyncRecorder struct{}

func (NoopSyncRecorder) MarkSessionOngoing(ctx context.Context, groupID int64, inviteLink, topic string, durationMinutes int) {
}
func (NoopSyncRecorder) MarkSessionEnded(ctx context.Context, groupID int64)   {}
func (NoopSyncRecorder) MarkGroupAvailable(ctx context.Context, groupID int64) {}
