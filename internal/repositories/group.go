package repositories

import (
	"context"

	"github.com/kiselevos/lingua_practice_bot/internal/db"
	"github.com/kiselevos/lingua_practice_bot/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GroupRepo struct {
	DataBase *db.Db
}

func NewGroupRepo(db *db.Db) *GroupRepo {
	return &GroupRepo{
		DataBase: db,
	}
}

// Upsert регистрирует группу в пуле либо обновляет заголовок.
func (repo *GroupRepo) Upsert(ctx context.Context, group *models.Group) error {
	result := repo.DataBase.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "chat_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "updated_at"}),
		}).
		Create(group)
	return result.Error
}

func (repo *GroupRepo) GetByChatID(ctx context.Context, chatID int64) (*models.Group, error) {
	var group models.Group
	result := repo.DataBase.WithContext(ctx).
		Where("chat_id = ?", chatID).
		First(&group)
	if result.Error != nil {
		return nil, result.Error
	}
	return &group, nil
}

// MarkBusy помечает группу занятой текущей сессией.
func (repo *GroupRepo) MarkBusy(ctx context.Context, chatID int64, topic, inviteLink string) error {
	result := repo.DataBase.WithContext(ctx).
		Model(&models.Group{}).
		Where("chat_id = ?", chatID).
		Updates(map[string]any{
			"is_busy":     true,
			"topic":       topic,
			"invite_link": inviteLink,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MarkAvailable возвращает группу в пул свободных.
func (repo *GroupRepo) MarkAvailable(ctx context.Context, chatID int64) error {
	result := repo.DataBase.WithContext(ctx).
		Model(&models.Group{}).
		Where("chat_id = ?", chatID).
		Updates(map[string]any{
			"is_busy":     false,
			"topic":       "",
			"invite_link": "",
		})
	return result.Error
}

// FindAvailable - любая свободная группа из пула.
func (repo *GroupRepo) FindAvailable(ctx context.Context) (*models.Group, error) {
	var group models.Group
	result := repo.DataBase.WithContext(ctx).
		Where("is_busy = false").
		Order("updated_at asc").
		First(&group)
	if result.Error != nil {
		return nil, result.Error
	}
	return &group, nil
}
