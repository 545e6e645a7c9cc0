package models

import "gorm.io/gorm"

// Group - групповой чат из пула комнат практики.
type Group struct {
	gorm.Model
	ChatID     int64  `gorm:"column:chat_id;uniqueIndex"`
	Title      string `gorm:"column:title"`
	IsBusy     bool   `gorm:"column:is_busy"`
	Topic      string `gorm:"column:topic"`
	InviteLink string `gorm:"column:invite_link"`
}

func NewGroup(chatID int64, title string) *Group {
	return &Group{
		ChatID: chatID,
		Title:  title,
	}
}
