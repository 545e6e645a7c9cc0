package repositories

import (
	"context"
	"time"

	"github.com/kiselevos/lingua_practice_bot/internal/db"
	"github.com/kiselevos/lingua_practice_bot/internal/models"
)

type SessionRepo struct {
	DataBase *db.Db
}

func NewSessionRepo(db *db.Db) *SessionRepo {
	return &SessionRepo{
		DataBase: db,
	}
}

// Create закрывает подвисшие активные сессии чата и создаёт новую.
func (repo *SessionRepo) Create(ctx context.Context, session *models.PracticeSession) (*models.PracticeSession, error) {
	repo.DataBase.WithContext(ctx).
		Model(&models.PracticeSession{}).
		Where("chat_id = ? AND is_active = true", session.ChatID).
		Update("is_active", false)

	result := repo.DataBase.WithContext(ctx).Create(session)
	if result.Error != nil {
		return nil, result.Error
	}
	return session, nil
}

func (repo *SessionRepo) GetActive(ctx context.Context, chatID int64) (*models.PracticeSession, error) {
	var session models.PracticeSession
	result := repo.DataBase.WithContext(ctx).
		Where("chat_id = ? AND is_active = true", chatID).
		First(&session)
	if result.Error != nil {
		return nil, result.Error
	}
	return &session, nil
}

// Finish отмечает активную сессию чата завершённой.
func (repo *SessionRepo) Finish(ctx context.Context, chatID int64) error {
	now := time.Now()
	result := repo.DataBase.WithContext(ctx).
		Model(&models.PracticeSession{}).
		Where("chat_id = ? AND is_active = true", chatID).
		Updates(map[string]any{
			"is_active": false,
			"ended_at":  &now,
		})
	return result.Error
}

// CountByChat - сколько всего сессий прошло в группе.
func (repo *SessionRepo) CountByChat(ctx context.Context, chatID int64) (int64, error) {
	var count int64
	result := repo.DataBase.WithContext(ctx).
		Model(&models.PracticeSession{}).
		Where("chat_id = ?", chatID).
		Count(&count)
	return count, result.Error
}
