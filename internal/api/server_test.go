package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kiselevos/lingua_practice_bot/internal/config"
	"github.com/kiselevos/lingua_practice_bot/internal/gateway"
	"github.com/kiselevos/lingua_practice_bot/internal/session"
)

type stubGateway struct {
	invite string
	events chan gateway.Event
}

func newStubGateway() *stubGateway {
	return &stubGateway{
		invite: "https://t.me/+stub",
		events: make(chan gateway.Event, 16),
	}
}

func (g *stubGateway) VerifyAdmin(groupID int64) (bool, error) { return true, nil }

func (g *stubGateway) CreateInvite(groupID int64, label string, memberLimit int, expiry time.Duration) (string, error) {
	return g.invite, nil
}

func (g *stubGateway) SetTitle(groupID int64, title string) error      { return nil }
func (g *stubGateway) SetDescription(groupID int64, text string) error { return nil }
func (g *stubGateway) Send(groupID int64, text string) error           { return nil }
func (g *stubGateway) MemberCount(groupID int64) (int, error)          { return 2, nil }

func (g *stubGateway) ListAdmins(groupID int64) ([]gateway.Member, error) {
	return nil, nil
}

func (g *stubGateway) Promote(groupID int64, userID int64) error { return nil }

func (g *stubGateway) BanThenUnban(groupID int64, userID int64, banFor time.Duration) error {
	return nil
}

func (g *stubGateway) Events() <-chan gateway.Event { return g.events }

func apiTestCfg() config.SessionConfig {
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

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	coord := session.NewCoordinator(ctx, newStubGateway(), nil, apiTestCfg(), nil)
	srv := httptest.NewServer(New(coord, nil).Router())
	t.Cleanup(srv.Close)
	return srv
}

func startSessionReq(t *testing.T, srv *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(srv.URL+"/api/sessions", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	return resp
}

func TestAPI_StartSession(t *testing.T) {
	srv := newTestServer(t)

	resp := startSessionReq(t, srv, `{"group_id":"1234567890","topic":"Travel","duration_minutes":20}`)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var got sessionResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Equal(t, int64(-1001234567890), got.GroupID)
	require.Equal(t, "Travel", got.Topic)
	require.Equal(t, "awaiting_participants", got.State)
	require.Equal(t, "https://t.me/+stub", got.InviteLink)
	require.Contains(t, got.PendingTimers, "termination_countdown")
}

func TestAPI_StartSessionValidation(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"bad group id", `{"group_id":"nope","topic":"Travel","duration_minutes":20}`, http.StatusBadRequest},
		{"missing topic", `{"group_id":"1234567890","duration_minutes":20}`, http.StatusBadRequest},
		{"zero duration", `{"group_id":"1234567890","topic":"Travel"}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := startSessionReq(t, srv, tt.body)
			defer resp.Body.Close()
			require.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestAPI_StartSessionConflict(t *testing.T) {
	srv := newTestServer(t)

	resp := startSessionReq(t, srv, `{"group_id":"1234567890","topic":"Travel","duration_minutes":20}`)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = startSessionReq(t, srv, `{"group_id":"1234567890","topic":"Food","duration_minutes":30}`)
	defer resp.Body.Close()
	require.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAPI_ListAndGetSessions(t *testing.T) {
	srv := newTestServer(t)

	resp := startSessionReq(t, srv, `{"group_id":"1234567890","topic":"Travel","duration_minutes":20}`)
	resp.Body.Close()

	resp, err := http.Get(srv.URL + "/api/sessions")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list struct {
		Sessions []sessionResponse `json:"sessions"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Len(t, list.Sessions, 1)

	resp, err = http.Get(srv.URL + "/api/sessions/-1001234567890")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/sessions/-1009999999999")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_StopSession(t *testing.T) {
	srv := newTestServer(t)

	resp := startSessionReq(t, srv, `{"group_id":"1234567890","topic":"Travel","duration_minutes":20}`)
	resp.Body.Close()

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/sessions/-1001234567890", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	req, err = http.NewRequest(http.MethodDelete, srv.URL+"/api/sessions/-1009999999999", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_Healthz(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
