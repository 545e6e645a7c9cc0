package models

import (
	"time"

	"gorm.io/gorm"
)

// PracticeSession - одна проведённая (или идущая) сессия разговорной практики.
type PracticeSession struct {
	gorm.Model
	ChatID          int64      `gorm:"column:chat_id;index"`
	Topic           string     `gorm:"column:topic"`
	DurationMinutes int        `gorm:"column:duration_minutes"`
	InviteLink      string     `gorm:"column:invite_link"`
	StartedAt       time.Time  `gorm:"column:started_at"`
	EndedAt         *time.Time `gorm:"column:ended_at"`
	IsActive        bool       `gorm:"column:is_active"`
}

func NewPracticeSession(chatID int64, topic string, durationMinutes int, inviteLink string) *PracticeSession {
	return &PracticeSession{
		ChatID:          chatID,
		Topic:           topic,
		DurationMinutes: durationMinutes,
		InviteLink:      inviteLink,
		StartedAt:       time.Now(),
		IsActive:        true,
	}
}
