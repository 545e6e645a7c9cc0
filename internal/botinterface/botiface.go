package botinterface

import (
	tb "gopkg.in/telebot.v3"
)

var _ BotInterface = (*tb.Bot)(nil)

// BotInterface - срез telebot.Bot, который нужен хендлерам и мидлварям.
// Выделен, чтобы в тестах подставлять мок.
type BotInterface interface {
	Send(to tb.Recipient, what interface{}, options ...interface{}) (*tb.Message, error)
	Handle(endpoint interface{}, handler tb.HandlerFunc, middlwear ...tb.MiddlewareFunc)
	ChatMemberOf(chat, user tb.Recipient) (*tb.ChatMember, error)
}
