package bot

import (
	"github.com/kiselevos/lingua_practice_bot/internal/bot/middleware"
	"github.com/kiselevos/lingua_practice_bot/internal/botinterface"
	"github.com/kiselevos/lingua_practice_bot/internal/session"

	"gopkg.in/telebot.v3"
)

func InitRouters(bot botinterface.BotInterface, coord *session.Coordinator, events EventPublisher) {
	handlers := NewHandlers(bot, coord, events)
	handlers.Register()
}

// Register вешает команды и события на бота. Вызывается один раз при старте.
func (h *Handlers) Register() {
	onlyAdmins := middleware.OnlyAdmins(h.Bot)

	h.Bot.Handle("/start", h.Start)
	h.Bot.Handle("/help", h.Help)

	h.Bot.Handle("/practice", middleware.GroupOnly(h.StartPractice), onlyAdmins)
	h.Bot.Handle("/stopsession", middleware.GroupOnly(h.StopPractice), onlyAdmins)
	h.Bot.Handle("/remove", middleware.GroupOnly(h.RemoveMember), onlyAdmins)

	h.Bot.Handle(telebot.OnUserJoined, h.OnUserJoined)
	h.Bot.Handle(telebot.OnUserLeft, h.OnUserLeft)
	h.Bot.Handle(telebot.OnVideoChatStarted, h.OnVideoChatStarted)
	h.Bot.Handle(telebot.OnVideoChatEnded, h.OnVideoChatEnded)
	h.Bot.Handle(telebot.OnVideoChatParticipants, h.OnVideoChatParticipants)
}
