package bot

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kiselevos/lingua_practice_bot/internal/config"
	"github.com/kiselevos/lingua_practice_bot/internal/gateway"
	"github.com/kiselevos/lingua_practice_bot/internal/session"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	tb "gopkg.in/telebot.v3"
)

type MockBot struct {
	mock.Mock
}

func (m *MockBot) Send(to tb.Recipient, what interface{}, options ...interface{}) (*tb.Message, error) {
	args := m.Called(to, what)
	return &tb.Message{}, args.Error(1)
}

func (m *MockBot) Handle(endpoint interface{}, handler tb.HandlerFunc, middlewear ...tb.MiddlewareFunc) {
	m.Called(endpoint, handler)
}

func (m *MockBot) ChatMemberOf(chat, user tb.Recipient) (*tb.ChatMember, error) {
	args := m.Called(chat, user)
	return args.Get(0).(*tb.ChatMember), args.Error(1)
}

type mockContext struct {
	tb.Context
	chat    *tb.Chat
	message *tb.Message
	args    []string
	mockBot *MockBot
}

func (m *mockContext) Chat() *tb.Chat {
	return m.chat
}

func (m *mockContext) Message() *tb.Message {
	return m.message
}

func (m *mockContext) Args() []string {
	return m.args
}

func (m *mockContext) Sender() *tb.User {
	return &tb.User{ID: 2, Username: "owner"}
}

// имитируем успешную отправку
func (m *mockContext) Send(what interface{}, _ ...interface{}) error {
	_, err := m.mockBot.Send(m.chat, what)
	return err
}

// stubGateway - минимальный шлюз для хендлерных тестов: бот всегда админ,
// все вызовы успешны.
type stubGateway struct {
	mu     sync.Mutex
	admin  bool
	invite string
	events chan gateway.Event
}

func newStubGateway() *stubGateway {
	return &stubGateway{
		admin:  true,
		invite: "https://t.me/+stub",
		events: make(chan gateway.Event, 16),
	}
}

func (g *stubGateway) VerifyAdmin(groupID int64) (bool, error) { return g.admin, nil }

func (g *stubGateway) CreateInvite(groupID int64, label string, memberLimit int, expiry time.Duration) (string, error) {
	return g.invite, nil
}

func (g *stubGateway) SetTitle(groupID int64, title string) error      { return nil }
func (g *stubGateway) SetDescription(groupID int64, text string) error { return nil }
func (g *stubGateway) Send(groupID int64, text string) error           { return nil }
func (g *stubGateway) MemberCount(groupID int64) (int, error)          { return 2, nil }

func (g *stubGateway) ListAdmins(groupID int64) ([]gateway.Member, error) {
	return []gateway.Member{
		{User: gateway.User{ID: 1, FirstName: "PracticeBot", IsBot: true}},
		{User: gateway.User{ID: 2, Username: "owner", FirstName: "Оля"}, IsCreator: true},
		{User: gateway.User{ID: 3, Username: "vasya", FirstName: "Вася"}},
	}, nil
}

func (g *stubGateway) Promote(groupID int64, userID int64) error { return nil }

func (g *stubGateway) BanThenUnban(groupID int64, userID int64, banFor time.Duration) error {
	return nil
}

func (g *stubGateway) Events() <-chan gateway.Event { return g.events }

type recordingPublisher struct {
	mu     sync.Mutex
	events []gateway.Event
}

func (p *recordingPublisher) Publish(ev gateway.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *recordingPublisher) last() (gateway.Event, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.events) == 0 {
		return gateway.Event{}, false
	}
	return p.events[len(p.events)-1], true
}

func handlerTestCfg() config.SessionConfig {
	return config.SessionConfig{
		MinParticipants:   2,
		TerminationWait:   time.Hour,
		VoiceChatDeadline: time.Hour,
		FinalWarning:      time.Minute,
		GracePeriod:       time.Hour,
		ReminderMarks:     []int{4, 3, 2},
		RemovalBan:        24 * time.Hour,
		InviteMemberLimit: 10,
	}
}

func setupTestHandlers(t *testing.T) (*MockBot, *Handlers, *stubGateway, *recordingPublisher, *tb.Chat, *mockContext) {
	t.Helper()

	mockBot := new(MockBot)
	gw := newStubGateway()
	pub := &recordingPublisher{}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	coord := session.NewCoordinator(ctx, gw, nil, handlerTestCfg(), nil)
	handlers := NewHandlers(mockBot, coord, pub)

	const testChatID = -1001234567890
	chat := &tb.Chat{ID: testChatID, Type: tb.ChatSuperGroup}
	msg := &tb.Message{Chat: chat}
	mctx := &mockContext{chat: chat, message: msg, mockBot: mockBot}

	return mockBot, handlers, gw, pub, chat, mctx
}

func TestStartAndHelp(t *testing.T) {
	mockBot, handlers, _, _, chat, ctx := setupTestHandlers(t)

	mockBot.On("Send", chat, mock.Anything).Return(&tb.Message{}, nil)

	require.NoError(t, handlers.Start(ctx))
	require.NoError(t, handlers.Help(ctx))

	mockBot.AssertCalled(t, "Send", chat, mock.Anything)
}

func TestStartPractice_Usage(t *testing.T) {
	mockBot, handlers, _, _, chat, ctx := setupTestHandlers(t)

	mockBot.On("Send", chat, mock.MatchedBy(func(msg interface{}) bool {
		text, ok := msg.(string)
		return ok && strings.Contains(text, "/practice")
	})).Return(&tb.Message{}, nil)

	for _, args := range [][]string{nil, {"20"}, {"abc", "Travel"}, {"-5", "Travel"}} {
		ctx.args = args
		require.NoError(t, handlers.StartPractice(ctx))
	}

	mockBot.AssertNumberOfCalls(t, "Send", 4)
}

func TestStartPractice_RepliesWithInvite(t *testing.T) {
	mockBot, handlers, gw, _, chat, ctx := setupTestHandlers(t)
	ctx.args = []string{"20", "Путешествия", "и", "еда"}

	mockBot.On("Send", chat, mock.MatchedBy(func(msg interface{}) bool {
		text, ok := msg.(string)
		return ok && strings.Contains(text, gw.invite)
	})).Return(&tb.Message{}, nil)

	require.NoError(t, handlers.StartPractice(ctx))

	mockBot.AssertExpectations(t)

	snap, ok := handlers.Coordinator.Session(chat.ID)
	require.True(t, ok)
	require.Equal(t, "Путешествия и еда", snap.Topic)
}

func TestStartPractice_AlreadyRuns(t *testing.T) {
	mockBot, handlers, _, _, chat, ctx := setupTestHandlers(t)
	ctx.args = []string{"20", "Travel"}

	mockBot.On("Send", chat, mock.Anything).Return(&tb.Message{}, nil)

	require.NoError(t, handlers.StartPractice(ctx))
	require.NoError(t, handlers.StartPractice(ctx))

	mockBot.AssertCalled(t, "Send", chat, mock.MatchedBy(func(msg interface{}) bool {
		text, ok := msg.(string)
		return ok && strings.Contains(text, "уже идёт")
	}))
}

func TestStartPractice_BotIsNotAdmin(t *testing.T) {
	mockBot, handlers, gw, _, chat, ctx := setupTestHandlers(t)
	gw.admin = false
	ctx.args = []string{"20", "Travel"}

	mockBot.On("Send", chat, mock.MatchedBy(func(msg interface{}) bool {
		text, ok := msg.(string)
		return ok && strings.Contains(text, "администратором")
	})).Return(&tb.Message{}, nil)

	require.NoError(t, handlers.StartPractice(ctx))
	mockBot.AssertExpectations(t)
}

func TestStopPractice_NoSession(t *testing.T) {
	mockBot, handlers, _, _, chat, ctx := setupTestHandlers(t)

	mockBot.On("Send", chat, mock.MatchedBy(func(msg interface{}) bool {
		text, ok := msg.(string)
		return ok && strings.Contains(text, "нет активной сессии")
	})).Return(&tb.Message{}, nil)

	require.NoError(t, handlers.StopPractice(ctx))
	mockBot.AssertExpectations(t)
}

func TestRemoveMember_Replies(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"regular member", []string{"@vasya"}, "Вася"},
		{"owner is protected", []string{"owner"}, "организатора"},
		{"bot is protected", []string{"PracticeBot"}, "не удалю"},
		{"unknown member", []string{"nobody"}, "Не нашёл"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockBot, handlers, _, _, chat, ctx := setupTestHandlers(t)
			ctx.args = tt.args

			mockBot.On("Send", chat, mock.MatchedBy(func(msg interface{}) bool {
				text, ok := msg.(string)
				return ok && strings.Contains(text, tt.want)
			})).Return(&tb.Message{}, nil)

			require.NoError(t, handlers.RemoveMember(ctx))
			mockBot.AssertExpectations(t)
		})
	}
}

func TestMembershipEventsArePublished(t *testing.T) {
	_, handlers, _, pub, chat, ctx := setupTestHandlers(t)

	ctx.message = &tb.Message{
		Chat:        chat,
		UsersJoined: []tb.User{{ID: 42, FirstName: "Маша"}, {ID: 43, FirstName: "Петя"}},
	}
	require.NoError(t, handlers.OnUserJoined(ctx))

	ev, ok := pub.last()
	require.True(t, ok)
	require.Equal(t, gateway.EventMemberJoined, ev.Kind)
	require.Equal(t, chat.ID, ev.GroupID)
	require.Len(t, ev.Users, 2)

	ctx.message = &tb.Message{Chat: chat, UserLeft: &tb.User{ID: 42, FirstName: "Маша"}}
	require.NoError(t, handlers.OnUserLeft(ctx))

	ev, _ = pub.last()
	require.Equal(t, gateway.EventMemberLeft, ev.Kind)
	require.Equal(t, int64(42), ev.Users[0].ID)
}

func TestVoiceChatEventsArePublished(t *testing.T) {
	_, handlers, _, pub, chat, ctx := setupTestHandlers(t)

	require.NoError(t, handlers.OnVideoChatStarted(ctx))
	ev, ok := pub.last()
	require.True(t, ok)
	require.Equal(t, gateway.EventVoiceChatStarted, ev.Kind)
	require.Equal(t, chat.ID, ev.GroupID)

	require.NoError(t, handlers.OnVideoChatEnded(ctx))
	ev, _ = pub.last()
	require.Equal(t, gateway.EventVoiceChatEnded, ev.Kind)
}
