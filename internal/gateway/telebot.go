package gateway

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	tb "gopkg.in/telebot.v3"
)

var _ Gateway = (*TelebotGateway)(nil)

// moderatorRights - фиксированный набор прав, который получает каждый
// участник комнаты. Это удобство (любой может запустить войс-чат),
// а не граница безопасности.
var moderatorRights = tb.Rights{
	CanManageChat:       true,
	CanManageVideoChats: true,
	CanDeleteMessages:   true,
	CanRestrictMembers:  true,
	CanInviteUsers:      true,
	CanPinMessages:      true,
}

// TelebotGateway - реализация Gateway поверх telebot.
type TelebotGateway struct {
	bot    *tb.Bot
	events chan Event
}

func NewTelebotGateway(b *tb.Bot) *TelebotGateway {
	return &TelebotGateway{
		bot:    b,
		events: make(chan Event, 256),
	}
}

// Publish кладёт событие в поток. При переполненном буфере событие
// отбрасывается: лучше потерять уведомление, чем заблокировать поллер.
func (g *TelebotGateway) Publish(ev Event) {
	select {
	case g.events <- ev:
	default:
		slog.Warn("gateway event dropped, buffer full",
			"kind", ev.Kind, "group_id", ev.GroupID)
	}
}

func (g *TelebotGateway) Events() <-chan Event {
	return g.events
}

func (g *TelebotGateway) VerifyAdmin(groupID int64) (bool, error) {
	member, err := g.bot.ChatMemberOf(chat(groupID), g.bot.Me)
	if err != nil {
		return false, wrapErr("verify_admin", err)
	}
	return member.Role == tb.Administrator || member.Role == tb.Creator, nil
}

func (g *TelebotGateway) CreateInvite(groupID int64, label string, memberLimit int, expiry time.Duration) (string, error) {
	link, err := g.bot.CreateInviteLink(chat(groupID), &tb.ChatInviteLink{
		Name:           label,
		MemberLimit:    memberLimit,
		ExpireUnixtime: time.Now().Add(expiry).Unix(),
	})
	if err != nil {
		return "", wrapErr("create_invite", err)
	}
	return link.InviteLink, nil
}

func (g *TelebotGateway) SetTitle(groupID int64, title string) error {
	if err := g.bot.SetGroupTitle(chat(groupID), title); err != nil {
		return wrapErr("set_title", err)
	}
	return nil
}

func (g *TelebotGateway) SetDescription(groupID int64, text string) error {
	if err := g.bot.SetGroupDescription(chat(groupID), text); err != nil {
		return wrapErr("set_description", err)
	}
	return nil
}

func (g *TelebotGateway) Send(groupID int64, text string) error {
	_, err := g.bot.Send(chat(groupID), text, &tb.SendOptions{ParseMode: tb.ModeHTML})
	if err != nil {
		return wrapErr("send", err)
	}
	return nil
}

func (g *TelebotGateway) MemberCount(groupID int64) (int, error) {
	n, err := g.bot.Len(chat(groupID))
	if err != nil {
		return 0, wrapErr("member_count", err)
	}
	return n, nil
}

func (g *TelebotGateway) ListAdmins(groupID int64) ([]Member, error) {
	admins, err := g.bot.AdminsOf(chat(groupID))
	if err != nil {
		return nil, wrapErr("list_admins", err)
	}

	members := make([]Member, 0, len(admins))
	for _, a := range admins {
		if a.User == nil {
			continue
		}
		members = append(members, Member{
			User: User{
				ID:        a.User.ID,
				Username:  a.User.Username,
				FirstName: a.User.FirstName,
				IsBot:     a.User.IsBot,
			},
			IsCreator: a.Role == tb.Creator,
		})
	}
	return members, nil
}

func (g *TelebotGateway) Promote(groupID int64, userID int64) error {
	member := &tb.ChatMember{
		Rights: moderatorRights,
		User:   &tb.User{ID: userID},
	}
	if err := g.bot.Promote(chat(groupID), member); err != nil {
		return wrapErr("promote", err)
	}
	return nil
}

func (g *TelebotGateway) BanThenUnban(groupID int64, userID int64, banFor time.Duration) error {
	until := tb.Forever()
	if banFor > 0 {
		until = time.Now().Add(banFor).Unix()
	}

	member := &tb.ChatMember{
		User:            &tb.User{ID: userID},
		RestrictedUntil: until,
	}
	if err := g.bot.Ban(chat(groupID), member); err != nil {
		return wrapErr("ban", err)
	}

	// Временный бан телега снимает сама; разбаниваем только при "кике".
	if banFor > 0 {
		return nil
	}
	if err := g.bot.Unban(chat(groupID), &tb.User{ID: userID}); err != nil {
		return wrapErr("unban", err)
	}
	return nil
}

func chat(groupID int64) *tb.Chat {
	return &tb.Chat{ID: groupID}
}

func wrapErr(op string, err error) error {
	return &Error{Op: op, Reason: mapReason(err), Err: err}
}

func mapReason(err error) Reason {
	var flood tb.FloodError
	if errors.As(err, &flood) {
		return ReasonRateLimited
	}

	var tgErr *tb.Error
	if errors.As(err, &tgErr) {
		desc := strings.ToLower(tgErr.Description)
		switch {
		case tgErr.Code == 429:
			return ReasonRateLimited
		case tgErr.Code == 403,
			strings.Contains(desc, "not enough rights"),
			strings.Contains(desc, "chat_admin_required"):
			return ReasonPermissionDenied
		case strings.Contains(desc, "not found"):
			return ReasonNotFound
		}
	}
	return ReasonUnknown
}
