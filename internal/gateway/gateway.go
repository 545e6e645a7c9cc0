package gateway

import "time"

// User - участник чата, как его видит координатор.
type User struct {
	ID        int64
	Username  string
	FirstName string
	IsBot     bool
}

// Member - элемент списка админов группы. Так как бот повышает каждого
// участника до ограниченного админа, этот список и есть список участников.
type Member struct {
	User
	IsCreator bool
}

type EventKind string

const (
	EventMemberJoined     EventKind = "member_joined"
	EventMemberLeft       EventKind = "member_left"
	EventVoiceChatStarted EventKind = "voice_chat_started"
	EventVoiceChatEnded   EventKind = "voice_chat_ended"
	EventVoiceChatInvited EventKind = "voice_chat_participants_invited"
)

// Event - входящее событие чата, привязанное к группе.
type Event struct {
	Kind    EventKind
	GroupID int64
	Users   []User
}

// Gateway - контракт мессенджера, который потребляет координатор.
// Все мутирующие вызовы требуют, чтобы бот был админом группы.
type Gateway interface {
	// VerifyAdmin сообщает, является ли бот администратором группы.
	VerifyAdmin(groupID int64) (bool, error)
	// CreateInvite возвращает ссылку-приглашение.
	CreateInvite(groupID int64, label string, memberLimit int, expiry time.Duration) (string, error)
	SetTitle(groupID int64, title string) error
	SetDescription(groupID int64, text string) error
	// Send отправляет HTML-сообщение в группу.
	Send(groupID int64, text string) error
	MemberCount(groupID int64) (int, error)
	ListAdmins(groupID int64) ([]Member, error)
	// Promote выдаёт участнику фиксированный набор модераторских прав.
	Promote(groupID int64, userID int64) error
	// BanThenUnban при banFor=0 выкидывает участника (бан + мгновенный разбан),
	// иначе банит на указанный срок.
	BanThenUnban(groupID int64, userID int64, banFor time.Duration) error

	// Events - поток входящих событий. Подписка одна на процесс,
	// диспетчеризация по GroupID - на стороне координатора.
	Events() <-chan Event
}
