package stats

import (
	"context"
	"errors"
	"log/slog"

	"gorm.io/gorm"

	"github.com/kiselevos/lingua_practice_bot/internal/models"
	"github.com/kiselevos/lingua_practice_bot/internal/repositories"
)

// PgRecorder синхронизирует статусы комнат с постгресом.
// Ошибки только логируются: жизненный цикл чата важнее записи в базу.
type PgRecorder struct {
	groupRepo   *repositories.GroupRepo
	sessionRepo *repositories.SessionRepo
}

func NewPgRecorder(gr *repositories.GroupRepo, sr *repositories.SessionRepo) *PgRecorder {
	return &PgRecorder{
		groupRepo:   gr,
		sessionRepo: sr,
	}
}

func (r *PgRecorder) MarkSessionOngoing(ctx context.Context, groupID int64, inviteLink, topic string, durationMinutes int) {
	if _, err := r.sessionRepo.Create(ctx, models.NewPracticeSession(groupID, topic, durationMinutes, inviteLink)); err != nil {
		slog.Error("[DB] create practice session", "chat_id", groupID, "err", err)
	}

	err := r.groupRepo.MarkBusy(ctx, groupID, topic, inviteLink)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Группа ещё не в пуле - регистрируем и пробуем снова.
		if err = r.groupRepo.Upsert(ctx, models.NewGroup(groupID, "")); err == nil {
			err = r.groupRepo.MarkBusy(ctx, groupID, topic, inviteLink)
		}
	}
	if err != nil {
		slog.Error("[DB] mark group busy", "chat_id", groupID, "err", err)
	}
}

func (r *PgRecorder) MarkSessionEnded(ctx context.Context, groupID int64) {
	if err := r.sessionRepo.Finish(ctx, groupID); err != nil {
		slog.Error("[DB] finish practice session", "chat_id", groupID, "err", err)
	}
}

func (r *PgRecorder) MarkGroupAvailable(ctx context.Context, groupID int64) {
	if err := r.groupRepo.MarkAvailable(ctx, groupID); err != nil {
		slog.Error("[DB] mark group available", "chat_id", groupID, "err", err)
	}
}
