package middleware

import (
	"log/slog"

	messages "github.com/kiselevos/lingua_practice_bot/assets"
	"github.com/kiselevos/lingua_practice_bot/internal/botinterface"

	"gopkg.in/telebot.v3"
)

// OnlyAdmins пускает команду только от админа или владельца группы.
func OnlyAdmins(bot botinterface.BotInterface) func(next telebot.HandlerFunc) telebot.HandlerFunc {
	return func(next telebot.HandlerFunc) telebot.HandlerFunc {
		return func(c telebot.Context) error {
			chat := c.Chat()
			user := c.Sender()

			// Пропускаем приватные чаты
			if chat.Type == telebot.ChatPrivate {
				return next(c)
			}

			member, err := bot.ChatMemberOf(chat, user)
			if err != nil {
				slog.Warn("ChatMemberOf failed", "chat_id", chat.ID, "user_id", user.ID, "err", err)
				return nil
			}

			if member.Role == telebot.Administrator || member.Role == telebot.Creator {
				return next(c)
			}

			return c.Reply(messages.OnlyAdminsCommand)
		}
	}
}
