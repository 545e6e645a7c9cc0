package session

import (
	"fmt"
	"sort"
	"time"
)

// TimerPurpose - имя отложенного действия. На каждую цель в записи живёт
// максимум один таймер; перевзвод с той же целью гасит предыдущий.
type TimerPurpose string

const (
	TimerTermination   TimerPurpose = "termination_countdown"
	TimerVoiceDeadline TimerPurpose = "voice_chat_deadline"
	TimerFinalWarning  TimerPurpose = "final_warning"
	TimerSessionEnd    TimerPurpose = "session_end"
	TimerGrace         TimerPurpose = "grace_period"
)

func ReminderPurpose(minutesLeft int) TimerPurpose {
	return TimerPurpose(fmt.Sprintf("reminder@%dmin", minutesLeft))
}

// SessionRecord - состояние одной активной комнаты практики.
// Мутируется только из актора своей группы.
type SessionRecord struct {
	GroupID         int64
	Topic           string
	DurationMinutes int
	CreatedAt       time.Time
	InviteLink      string

	FSM              *FSM
	VoiceChatStarted bool

	// Кого выгонять при зачистке. Заполняется на переходе в Ending.
	evictees []int64

	timers map[TimerPurpose]*time.Timer
}

func NewSessionRecord(groupID int64, topic string, durationMinutes int, inviteLink string) *SessionRecord {
	return &SessionRecord{
		GroupID:         groupID,
		Topic:           topic,
		DurationMinutes: durationMinutes,
		CreatedAt:       time.Now(),
		InviteLink:      inviteLink,
		FSM:             NewFSM(),
		timers:          make(map[TimerPurpose]*time.Timer),
	}
}

func (r *SessionRecord) State() State {
	return r.FSM.Current()
}

// ArmTimer взводит таймер под именованную цель, предварительно погасив
// предыдущий таймер той же цели.
func (r *SessionRecord) ArmTimer(purpose TimerPurpose, d time.Duration, fn func()) {
	r.CancelTimer(purpose)
	r.timers[purpose] = time.AfterFunc(d, fn)
}

func (r *SessionRecord) CancelTimer(purpose TimerPurpose) {
	if t, ok := r.timers[purpose]; ok {
		t.Stop()
		delete(r.timers, purpose)
	}
}

func (r *SessionRecord) CancelAllTimers() {
	for purpose, t := range r.timers {
		t.Stop()
		delete(r.timers, purpose)
	}
}

// PendingTimers - отсортированный список взведённых целей.
func (r *SessionRecord) PendingTimers() []TimerPurpose {
	out := make([]TimerPurpose, 0, len(r.timers))
	for purpose := range r.timers {
		out = append(out, purpose)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
