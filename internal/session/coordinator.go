package session

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	messages "github.com/kiselevos/lingua_practice_bot/assets"
	"github.com/kiselevos/lingua_practice_bot/internal/config"
	"github.com/kiselevos/lingua_practice_bot/internal/gateway"
	"github.com/kiselevos/lingua_practice_bot/internal/observability"
)

// Два непрактикующих места в группе: бот и организатор.
const reservedSeats = 2

var (
	ErrNoSession         = fmt.Errorf("no active session")
	ErrSessionActive     = fmt.Errorf("session already active")
	ErrInvalidArgument   = fmt.Errorf("invalid argument")
	ErrMemberNotFound    = fmt.Errorf("member not found")
	ErrCannotRemoveOwner = fmt.Errorf("cannot remove owner")
	ErrCannotRemoveBot   = fmt.Errorf("cannot remove bot")
)

// Coordinator владеет машиной состояний комнаты практики: подготовка группы,
// набор участников, ожидание войс-чата, каскад напоминаний и зачистка.
type Coordinator struct {
	ctx      context.Context
	gw       gateway.Gateway
	recorder SyncRecorder
	store    *Store
	cfg      config.SessionConfig
	metrics  *observability.Metrics

	mu     sync.Mutex
	actors map[int64]*groupActor
}

func NewCoordinator(ctx context.Context, gw gateway.Gateway, recorder SyncRecorder, cfg config.SessionConfig, metrics *observability.Metrics) *Coordinator {
	if recorder == nil {
		recorder = NoopSyncRecorder{}
	}

	return &Coordinator{
		ctx:      ctx,
		gw:       gw,
		recorder: recorder,
		store:    NewStore(),
		cfg:      cfg,
		metrics:  metrics,
		actors:   make(map[int64]*groupActor),
	}
}

// Механизм очереди во избежание data race: вся работа с группой идёт
// через её актора.
func (c *Coordinator) do(groupID int64, fn func() error) error {
	c.mu.Lock()
	a, ok := c.actors[groupID]
	if !ok {
		a = newGroupActor(groupID)
		c.actors[groupID] = a
	}
	c.mu.Unlock()

	reply := make(chan error, 1)
	a.inbox <- actorMsg{fn: fn, reply: reply}
	return <-reply
}

// Чтобы обработчики не тянули store напрямую. Отсутствие записи - не ошибка:
// просроченный таймер или событие опустевшей группы молча игнорируются.
func (c *Coordinator) withSession(groupID int64, fn func(rec *SessionRecord) error) error {
	return c.do(groupID, func() error {
		rec, ok := c.store.Get(groupID)
		if !ok {
			return nil
		}
		return fn(rec)
	})
}

// Run читает поток событий шлюза до отмены контекста. Подписка одна на
// процесс; дальше события разъезжаются по акторам групп.
func (c *Coordinator) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-c.gw.Events():
			if !ok {
				return
			}
			c.dispatch(ev)
		}
	}
}

func (c *Coordinator) dispatch(ev gateway.Event) {
	c.metrics.Event(string(ev.Kind))

	switch ev.Kind {
	case gateway.EventMemberJoined:
		c.handleMemberJoined(ev.GroupID, ev.Users)
	case gateway.EventMemberLeft:
		c.handleMembershipChanged(ev.GroupID)
	case gateway.EventVoiceChatStarted:
		c.handleVoiceChatStarted(ev.GroupID)
	case gateway.EventVoiceChatEnded, gateway.EventVoiceChatInvited:
		slog.Debug("informational chat event", "kind", ev.Kind, "group_id", ev.GroupID)
	default:
		slog.Warn("unknown gateway event", "kind", ev.Kind, "group_id", ev.GroupID)
	}
}

type StartResult struct {
	GroupID    int64
	InviteLink string
}

// StartSession готовит группу и ставит её в режим набора участников.
// Ошибки шлюза на этапе подготовки прерывают создание и уходят вызывающему.
func (c *Coordinator) StartSession(ctx context.Context, groupID int64, topic string, durationMinutes int) (StartResult, error) {
	topic = strings.TrimSpace(topic)
	switch {
	case groupID == 0:
		return StartResult{}, fmt.Errorf("%w: group id is required", ErrInvalidArgument)
	case topic == "":
		return StartResult{}, fmt.Errorf("%w: topic is required", ErrInvalidArgument)
	case durationMinutes <= 0:
		return StartResult{}, fmt.Errorf("%w: duration must be positive", ErrInvalidArgument)
	}

	var result StartResult

	err := c.do(groupID, func() error {
		if _, ok := c.store.Get(groupID); ok {
			return ErrSessionActive
		}

		isAdmin, err := c.gw.VerifyAdmin(groupID)
		if err != nil {
			return fmt.Errorf("verify bot rights: %w", err)
		}
		if !isAdmin {
			return &gateway.Error{Op: "verify_admin", Reason: gateway.ReasonPermissionDenied}
		}

		if err := c.gw.SetTitle(groupID, "🗣 Практика: "+topic); err != nil {
			return fmt.Errorf("set title: %w", err)
		}
		if err := c.gw.SetDescription(groupID, fmt.Sprintf("Идёт сессия разговорной практики: %s (%d мин.)", topic, durationMinutes)); err != nil {
			return fmt.Errorf("set description: %w", err)
		}

		label := fmt.Sprintf("%s #%s", topic, uuid.NewString()[:8])
		expiry := time.Duration(durationMinutes)*time.Minute + c.cfg.VoiceChatDeadline + time.Hour
		invite, err := c.gw.CreateInvite(groupID, label, c.cfg.InviteMemberLimit, expiry)
		if err != nil {
			return fmt.Errorf("create invite: %w", err)
		}

		c.send(groupID, fmt.Sprintf(messages.SessionWelcome, html.EscapeString(topic)))
		c.send(groupID, messages.ModerationNotice)

		rec := NewSessionRecord(groupID, topic, durationMinutes, invite)
		c.store.Put(rec)

		// Страховка от пустой комнаты: если никто так и не зайдёт,
		// событий членства не будет и таймер закроет сессию сам.
		rec.ArmTimer(TimerTermination, c.cfg.TerminationWait, func() {
			c.onTerminationTimer(groupID)
		})

		c.recorder.MarkSessionOngoing(ctx, groupID, invite, topic, durationMinutes)
		c.metrics.SessionStarted()

		slog.Info("session started",
			"group_id", groupID, "topic", topic, "duration_min", durationMinutes)

		result = StartResult{GroupID: groupID, InviteLink: invite}
		return nil
	})

	return result, err
}

// StopSession - ручное досрочное завершение.
func (c *Coordinator) StopSession(groupID int64) error {
	return c.do(groupID, func() error {
		rec, ok := c.store.Get(groupID)
		if !ok {
			return ErrNoSession
		}
		if rec.State() == EndingState || rec.State() == ClosedState {
			return nil
		}
		c.beginEnding(rec)
		return nil
	})
}

// RemoveMember - разовая модераторская команда, от состояния комнаты не
// зависит. Возвращает имя удалённого участника.
func (c *Coordinator) RemoveMember(ctx context.Context, groupID int64, identifier string, requestedBy int64) (string, error) {
	ident := strings.TrimPrefix(strings.TrimSpace(identifier), "@")
	if ident == "" {
		return "", fmt.Errorf("%w: identifier is required", ErrInvalidArgument)
	}

	members, err := c.gw.ListAdmins(groupID)
	if err != nil {
		return "", fmt.Errorf("list members: %w", err)
	}

	for _, m := range members {
		if !strings.EqualFold(m.Username, ident) && !strings.EqualFold(m.FirstName, ident) {
			continue
		}
		if m.IsBot {
			return "", ErrCannotRemoveBot
		}
		if m.IsCreator {
			return "", ErrCannotRemoveOwner
		}

		if err := c.gw.BanThenUnban(groupID, m.ID, c.cfg.RemovalBan); err != nil {
			return "", fmt.Errorf("ban member: %w", err)
		}

		slog.Info("member removed by moderator",
			"group_id", groupID, "user_id", m.ID, "requested_by", requestedBy, "ban_for", c.cfg.RemovalBan)
		return displayName(m.User), nil
	}

	return "", ErrMemberNotFound
}

// --- события членства и войс-чата ---

func (c *Coordinator) handleMemberJoined(groupID int64, users []gateway.User) {
	_ = c.withSession(groupID, func(rec *SessionRecord) error {
		// Каждому новому участнику - модераторские права, чтобы любой мог
		// запускать и останавливать войс-чат.
		for _, u := range users {
			if u.IsBot {
				continue
			}
			if err := c.gw.Promote(groupID, u.ID); err != nil {
				c.metrics.GatewayError("promote", string(gateway.ReasonOf(err)))
				slog.Warn("promote failed", "group_id", groupID, "user_id", u.ID, "err", err)
			}
		}

		if rec.State() == AwaitingParticipantsState {
			c.evaluateParticipants(rec)
		}
		return nil
	})
}

func (c *Coordinator) handleMembershipChanged(groupID int64) {
	_ = c.withSession(groupID, func(rec *SessionRecord) error {
		if rec.State() == AwaitingParticipantsState {
			c.evaluateParticipants(rec)
		}
		return nil
	})
}

func (c *Coordinator) handleVoiceChatStarted(groupID int64) {
	_ = c.withSession(groupID, func(rec *SessionRecord) error {
		if rec.State() != AwaitingVoiceChatState {
			slog.Debug("voice chat event outside awaiting state",
				"group_id", groupID, "state", rec.State())
			return nil
		}

		effective, err := c.effectiveParticipants(groupID)
		if err != nil {
			slog.Error("member count failed on voice chat start", "group_id", groupID, "err", err)
			return nil
		}
		if effective < c.cfg.MinParticipants {
			c.send(groupID, messages.VoiceChatTooFew)
			return nil
		}

		rec.CancelTimer(TimerVoiceDeadline)
		rec.CancelTimer(TimerFinalWarning)
		rec.VoiceChatStarted = true
		SafeTrigger(rec.FSM, EventVoiceChatStarted, "voice chat started")

		c.send(groupID, fmt.Sprintf(messages.VoiceChatConfirmed, rec.DurationMinutes))
		c.armReminderCascade(rec)
		return nil
	})
}

// effectiveParticipants пересчитывается на каждом событии, никогда не
// кэшируется.
func (c *Coordinator) effectiveParticipants(groupID int64) (int, error) {
	count, err := c.gw.MemberCount(groupID)
	if err != nil {
		c.metrics.GatewayError("member_count", string(gateway.ReasonOf(err)))
		return 0, err
	}
	return count - reservedSeats, nil
}

// evaluateParticipants - ветвление набора: хватает людей - зовём в войс-чат,
// не хватает - предупреждаем и взводим отсчёт до закрытия.
func (c *Coordinator) evaluateParticipants(rec *SessionRecord) {
	effective, err := c.effectiveParticipants(rec.GroupID)
	if err != nil {
		// Сорвавшаяся проверка не должна трогать уже взведённые таймеры.
		slog.Error("member count failed", "group_id", rec.GroupID, "err", err)
		return
	}

	if effective >= c.cfg.MinParticipants {
		rec.CancelTimer(TimerTermination)
		SafeTrigger(rec.FSM, EventParticipantsReady, "participants ready")

		c.send(rec.GroupID, fmt.Sprintf(messages.StartVoiceChatPrompt, minutes(c.cfg.VoiceChatDeadline)))

		groupID := rec.GroupID
		rec.ArmTimer(TimerVoiceDeadline, c.cfg.VoiceChatDeadline, func() {
			c.onVoiceDeadline(groupID)
		})
		return
	}

	c.send(rec.GroupID, fmt.Sprintf(messages.NotEnoughParticipants, minutes(c.cfg.TerminationWait)))

	groupID := rec.GroupID
	rec.ArmTimer(TimerTermination, c.cfg.TerminationWait, func() {
		c.onTerminationTimer(groupID)
	})
}

// --- сработавшие таймеры ---

func (c *Coordinator) onTerminationTimer(groupID int64) {
	c.metrics.TimerFired(string(TimerTermination))
	_ = c.withSession(groupID, func(rec *SessionRecord) error {
		rec.CancelTimer(TimerTermination)
		if rec.State() != AwaitingParticipantsState {
			return nil
		}

		effective, err := c.effectiveParticipants(groupID)
		if err == nil && effective >= c.cfg.MinParticipants {
			// Участники успели набраться между событиями - даём шанс.
			c.evaluateParticipants(rec)
			return nil
		}

		slog.Info("terminating: not enough participants", "group_id", groupID)
		c.beginEnding(rec)
		return nil
	})
}

func (c *Coordinator) onVoiceDeadline(groupID int64) {
	c.metrics.TimerFired(string(TimerVoiceDeadline))
	_ = c.withSession(groupID, func(rec *SessionRecord) error {
		rec.CancelTimer(TimerVoiceDeadline)
		if rec.State() != AwaitingVoiceChatState || rec.VoiceChatStarted {
			return nil
		}

		c.send(groupID, messages.VoiceChatFinalWarning)
		rec.ArmTimer(TimerFinalWarning, c.cfg.FinalWarning, func() {
			c.onVoiceFinalTimer(groupID)
		})
		return nil
	})
}

func (c *Coordinator) onVoiceFinalTimer(groupID int64) {
	c.metrics.TimerFired(string(TimerFinalWarning))
	_ = c.withSession(groupID, func(rec *SessionRecord) error {
		rec.CancelTimer(TimerFinalWarning)
		if rec.State() != AwaitingVoiceChatState || rec.VoiceChatStarted {
			return nil
		}

		slog.Info("terminating: voice chat never started", "group_id", groupID)
		c.beginEnding(rec)
		return nil
	})
}

func (c *Coordinator) armReminderCascade(rec *SessionRecord) {
	groupID := rec.GroupID
	total := time.Duration(rec.DurationMinutes) * time.Minute

	for _, mark := range c.cfg.ReminderMarks {
		if mark <= 1 || mark >= rec.DurationMinutes {
			continue
		}
		mark := mark
		rec.ArmTimer(ReminderPurpose(mark), total-time.Duration(mark)*time.Minute, func() {
			c.onReminder(groupID, mark)
		})
	}

	if rec.DurationMinutes > 1 {
		rec.ArmTimer(TimerFinalWarning, total-c.cfg.FinalWarning, func() {
			c.onFinalMinute(groupID)
		})
	}

	rec.ArmTimer(TimerSessionEnd, total, func() {
		c.onSessionEnd(groupID)
	})
}

func (c *Coordinator) onReminder(groupID int64, minutesLeft int) {
	c.metrics.TimerFired(string(ReminderPurpose(minutesLeft)))
	_ = c.withSession(groupID, func(rec *SessionRecord) error {
		rec.CancelTimer(ReminderPurpose(minutesLeft))
		if rec.State() != VoiceChatActiveState {
			return nil
		}
		c.send(groupID, fmt.Sprintf(messages.ReminderMinutesLeft, minutesLeft))
		return nil
	})
}

func (c *Coordinator) onFinalMinute(groupID int64) {
	c.metrics.TimerFired(string(TimerFinalWarning))
	_ = c.withSession(groupID, func(rec *SessionRecord) error {
		rec.CancelTimer(TimerFinalWarning)
		if rec.State() != VoiceChatActiveState {
			return nil
		}
		c.send(groupID, messages.FinalMinuteReminder)
		return nil
	})
}

func (c *Coordinator) onSessionEnd(groupID int64) {
	c.metrics.TimerFired(string(TimerSessionEnd))
	_ = c.withSession(groupID, func(rec *SessionRecord) error {
		if rec.State() != VoiceChatActiveState {
			return nil
		}
		c.beginEnding(rec)
		return nil
	})
}

func (c *Coordinator) onGraceExpired(groupID int64) {
	c.metrics.TimerFired(string(TimerGrace))
	_ = c.withSession(groupID, func(rec *SessionRecord) error {
		c.teardown(rec)
		return nil
	})
}

// --- завершение и зачистка ---

// beginEnding переводит комнату в Ending: гасит все таймеры текущего
// состояния, прощается, собирает список на выселение и взводит grace-паузу.
func (c *Coordinator) beginEnding(rec *SessionRecord) {
	rec.CancelAllTimers()
	if !SafeTrigger(rec.FSM, EventTerminate, "begin ending") {
		return
	}

	c.send(rec.GroupID, messages.ClosingMessage)

	members, err := c.gw.ListAdmins(rec.GroupID)
	if err != nil {
		c.metrics.GatewayError("list_admins", string(gateway.ReasonOf(err)))
		slog.Error("list members for eviction failed", "group_id", rec.GroupID, "err", err)
	}
	rec.evictees = rec.evictees[:0]
	for _, m := range members {
		if m.IsBot || m.IsCreator {
			continue
		}
		rec.evictees = append(rec.evictees, m.ID)
	}

	c.recorder.MarkSessionEnded(c.ctx, rec.GroupID)

	groupID := rec.GroupID
	rec.ArmTimer(TimerGrace, c.cfg.GracePeriod, func() {
		c.onGraceExpired(groupID)
	})

	slog.Info("session ending", "group_id", rec.GroupID, "evictees", len(rec.evictees))
}

// teardown - best-effort: ошибка на одном участнике или шаге не прерывает
// остальные. После зачистки группа возвращается в пул.
func (c *Coordinator) teardown(rec *SessionRecord) {
	rec.CancelAllTimers()

	for _, userID := range rec.evictees {
		if err := c.gw.BanThenUnban(rec.GroupID, userID, 0); err != nil {
			c.metrics.GatewayError("ban_then_unban", string(gateway.ReasonOf(err)))
			slog.Error("evict failed", "group_id", rec.GroupID, "user_id", userID, "err", err)
		}
	}

	if err := c.gw.SetTitle(rec.GroupID, messages.AvailableTitle); err != nil {
		c.metrics.GatewayError("set_title", string(gateway.ReasonOf(err)))
		slog.Error("title reset failed", "group_id", rec.GroupID, "err", err)
	}
	if err := c.gw.SetDescription(rec.GroupID, messages.AvailableDescription); err != nil {
		c.metrics.GatewayError("set_description", string(gateway.ReasonOf(err)))
		slog.Error("description reset failed", "group_id", rec.GroupID, "err", err)
	}

	SafeTrigger(rec.FSM, EventTornDown, "teardown")
	c.store.Delete(rec.GroupID)
	c.recorder.MarkGroupAvailable(c.ctx, rec.GroupID)
	c.metrics.SessionClosed()

	slog.Info("session closed, group returned to pool", "group_id", rec.GroupID)
}

// send - потеря сообщения не должна останавливать машину состояний:
// логируем и едем дальше.
func (c *Coordinator) send(groupID int64, text string) {
	if err := c.gw.Send(groupID, text); err != nil {
		c.metrics.GatewayError("send", string(gateway.ReasonOf(err)))
		slog.Error("send failed", "group_id", groupID, "err", err)
	}
}

// --- снапшоты для HTTP API и тестов ---

type Snapshot struct {
	GroupID          int64
	Topic            string
	DurationMinutes  int
	State            State
	InviteLink       string
	CreatedAt        time.Time
	VoiceChatStarted bool
	PendingTimers    []TimerPurpose
}

func (c *Coordinator) Session(groupID int64) (Snapshot, bool) {
	var (
		snap  Snapshot
		found bool
	)
	_ = c.withSession(groupID, func(rec *SessionRecord) error {
		snap = snapshotOf(rec)
		found = true
		return nil
	})
	return snap, found
}

func (c *Coordinator) Sessions() []Snapshot {
	ids := c.store.GroupIDs()
	out := make([]Snapshot, 0, len(ids))
	for _, id := range ids {
		if snap, ok := c.Session(id); ok {
			out = append(out, snap)
		}
	}
	return out
}

func snapshotOf(rec *SessionRecord) Snapshot {
	return Snapshot{
		GroupID:          rec.GroupID,
		Topic:            rec.Topic,
		DurationMinutes:  rec.DurationMinutes,
		State:            rec.State(),
		InviteLink:       rec.InviteLink,
		CreatedAt:        rec.CreatedAt,
		VoiceChatStarted: rec.VoiceChatStarted,
		PendingTimers:    rec.PendingTimers(),
	}
}

// Как обращаться к участнику: имя в приоритете, потом ник.
func displayName(u gateway.User) string {
	name := strings.TrimSpace(u.FirstName)
	if name != "" {
		return html.EscapeString(name)
	}
	if u.Username != "" {
		return "@" + html.EscapeString(u.Username)
	}
	return "участник"
}

func minutes(d time.Duration) int {
	return int(d.Round(time.Minute) / time.Minute)
}
