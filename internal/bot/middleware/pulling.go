package middleware

import (
	"time"

	"gopkg.in/telebot.v3"
)

// DropOldMessages отбрасывает апдейты, скопившиеся за время простоя бота:
// команда /practice недельной давности не должна открывать комнату сейчас.
func DropOldMessages(maxAge time.Duration) *telebot.MiddlewarePoller {
	return telebot.NewMiddlewarePoller(
		&telebot.LongPoller{Timeout: 10 * time.Second},
		func(u *telebot.Update) bool {
			msg := u.Message
			if msg == nil {
				return true
			}
			return time.Since(msg.Time()) <= maxAge
		})
}
