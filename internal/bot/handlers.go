package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	messages "github.com/kiselevos/lingua_practice_bot/assets"
	"github.com/kiselevos/lingua_practice_bot/internal/botinterface"
	"github.com/kiselevos/lingua_practice_bot/internal/gateway"
	"github.com/kiselevos/lingua_practice_bot/internal/session"

	"gopkg.in/telebot.v3"
)

// EventPublisher - куда хендлеры складывают события чатов для координатора.
type EventPublisher interface {
	Publish(ev gateway.Event)
}

// Handlers - телеграм-грань координатора: команды и события групп.
type Handlers struct {
	Bot         botinterface.BotInterface
	Coordinator *session.Coordinator
	Events      EventPublisher
}

func NewHandlers(bot botinterface.BotInterface, coord *session.Coordinator, events EventPublisher) *Handlers {
	return &Handlers{
		Bot:         bot,
		Coordinator: coord,
		Events:      events,
	}
}

func (h *Handlers) Start(c telebot.Context) error {
	return c.Send(messages.WelcomeMessage)
}

func (h *Handlers) Help(c telebot.Context) error {
	return c.Send(messages.HelpMessage)
}

// StartPractice - /practice <минуты> <тема>. Открывает комнату в текущей группе.
func (h *Handlers) StartPractice(c telebot.Context) error {
	args := c.Args()
	if len(args) < 2 {
		return c.Send(messages.PracticeUsage)
	}

	durationMinutes, err := strconv.Atoi(args[0])
	if err != nil || durationMinutes <= 0 {
		return c.Send(messages.PracticeUsage)
	}
	topic := strings.Join(args[1:], " ")

	res, err := h.Coordinator.StartSession(context.Background(), c.Chat().ID, topic, durationMinutes)
	if err != nil {
		return h.replyStartError(c, err)
	}

	return c.Send(fmt.Sprintf("🔗 Ссылка для участников:\n%s", res.InviteLink))
}

func (h *Handlers) replyStartError(c telebot.Context, err error) error {
	switch {
	case errors.Is(err, session.ErrSessionActive):
		return c.Send(messages.SessionAlreadyRuns)
	case errors.Is(err, session.ErrInvalidArgument):
		return c.Send(messages.PracticeUsage)
	case gateway.ReasonOf(err) == gateway.ReasonPermissionDenied:
		return c.Send(messages.BotIsNotAdmin)
	default:
		slog.Error("start session failed", "chat_id", c.Chat().ID, "err", err)
		return c.Send(messages.ErrorMessagesForUser)
	}
}

// StopPractice - /stopsession, досрочное завершение.
func (h *Handlers) StopPractice(c telebot.Context) error {
	err := h.Coordinator.StopSession(c.Chat().ID)
	if errors.Is(err, session.ErrNoSession) {
		return c.Send(messages.SessionNotStarted)
	}
	if err != nil {
		slog.Error("stop session failed", "chat_id", c.Chat().ID, "err", err)
		return c.Send(messages.ErrorMessagesForUser)
	}
	return nil
}

// RemoveMember - /remove <@ник или имя>.
func (h *Handlers) RemoveMember(c telebot.Context) error {
	identifier := strings.Join(c.Args(), " ")

	var requestedBy int64
	if c.Sender() != nil {
		requestedBy = c.Sender().ID
	}

	name, err := h.Coordinator.RemoveMember(context.Background(), c.Chat().ID, identifier, requestedBy)
	switch {
	case err == nil:
		return c.Send(fmt.Sprintf(messages.RemovedMember, name))
	case errors.Is(err, session.ErrCannotRemoveOwner):
		return c.Send(messages.CannotRemoveOwner)
	case errors.Is(err, session.ErrCannotRemoveBot):
		return c.Send(messages.CannotRemoveBot)
	case errors.Is(err, session.ErrMemberNotFound):
		return c.Send(messages.MemberNotFound)
	case errors.Is(err, session.ErrInvalidArgument):
		return c.Send(messages.HelpMessage)
	default:
		slog.Error("remove member failed", "chat_id", c.Chat().ID, "err", err)
		return c.Send(messages.ErrorMessagesForUser)
	}
}

// --- события групп -> поток координатора ---

func (h *Handlers) OnUserJoined(c telebot.Context) error {
	msg := c.Message()
	if msg == nil {
		return nil
	}

	users := make([]gateway.User, 0, len(msg.UsersJoined)+1)
	for i := range msg.UsersJoined {
		users = append(users, fromTelebotUser(&msg.UsersJoined[i]))
	}
	if len(users) == 0 && msg.UserJoined != nil {
		users = append(users, fromTelebotUser(msg.UserJoined))
	}

	h.Events.Publish(gateway.Event{
		Kind:    gateway.EventMemberJoined,
		GroupID: c.Chat().ID,
		Users:   users,
	})
	return nil
}

func (h *Handlers) OnUserLeft(c telebot.Context) error {
	ev := gateway.Event{Kind: gateway.EventMemberLeft, GroupID: c.Chat().ID}
	if msg := c.Message(); msg != nil && msg.UserLeft != nil {
		ev.Users = []gateway.User{fromTelebotUser(msg.UserLeft)}
	}
	h.Events.Publish(ev)
	return nil
}

func (h *Handlers) OnVideoChatStarted(c telebot.Context) error {
	h.Events.Publish(gateway.Event{Kind: gateway.EventVoiceChatStarted, GroupID: c.Chat().ID})
	return nil
}

func (h *Handlers) OnVideoChatEnded(c telebot.Context) error {
	h.Events.Publish(gateway.Event{Kind: gateway.EventVoiceChatEnded, GroupID: c.Chat().ID})
	return nil
}

func (h *Handlers) OnVideoChatParticipants(c telebot.Context) error {
	h.Events.Publish(gateway.Event{Kind: gateway.EventVoiceChatInvited, GroupID: c.Chat().ID})
	return nil
}

func fromTelebotUser(u *telebot.User) gateway.User {
	if u == nil {
		return gateway.User{}
	}
	return gateway.User{
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		IsBot:     u.IsBot,
	}
}
