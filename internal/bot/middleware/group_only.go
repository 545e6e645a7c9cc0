package middleware

import (
	messages "github.com/kiselevos/lingua_practice_bot/assets"

	"gopkg.in/telebot.v3"
)

// GroupOnly - Обертка для групповых команд.
func GroupOnly(handler telebot.HandlerFunc) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		chatType := c.Chat().Type
		if chatType != telebot.ChatGroup && chatType != telebot.ChatSuperGroup {
			return c.Send(messages.GroupOnlyCommand)
		}
		return handler(c)
	}
}
