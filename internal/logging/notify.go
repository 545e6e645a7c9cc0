package logging

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	tb "gopkg.in/telebot.v3"
)

const defaultNotifyInterval = 30 * time.Second

// Notifier шлёт алерты админам в личку с троттлингом, чтобы каскад ошибок
// телеги не превратился в каскад уведомлений.
type Notifier struct {
	Bot      *tb.Bot
	AdminIDs []int64

	mu   sync.Mutex
	last time.Time
	min  time.Duration
}

// NewNotifier создаёт нотификатор с минимальным интервалом между
// сообщениями. При minInterval <= 0 берётся дефолт в 30 секунд.
func NewNotifier(b *tb.Bot, admins []int64, minInterval time.Duration) *Notifier {
	if minInterval <= 0 {
		minInterval = defaultNotifyInterval
	}
	return &Notifier{
		Bot:      b,
		AdminIDs: admins,
		min:      minInterval,
	}
}

func (n *Notifier) allow() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if time.Since(n.last) < n.min {
		return false
	}
	n.last = time.Now()
	return true
}

func (n *Notifier) Notify(level slog.Level, msg string, attrs ...any) {
	if n == nil || n.Bot == nil || len(n.AdminIDs) == 0 {
		return
	}
	if !n.allow() {
		return
	}

	text := fmt.Sprintf("🚨 %s: %s", level.String(), msg)
	for i := 0; i+1 < len(attrs); i += 2 {
		text += fmt.Sprintf("\n%v=%v", attrs[i], attrs[i+1])
	}

	_, _ = n.Bot.Send(&tb.User{ID: n.AdminIDs[0]}, text)
}

var (
	notifierMu sync.RWMutex
	globalN    *Notifier
)

func SetNotifier(n *Notifier) {
	notifierMu.Lock()
	globalN = n
	notifierMu.Unlock()
}

func Notify(level slog.Level, msg string, kv ...any) {
	notifierMu.RLock()
	n := globalN
	notifierMu.RUnlock()
	if n != nil {
		n.Notify(level, msg, kv...)
	}
}
