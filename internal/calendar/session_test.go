package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type fakeAuthorizer struct {
	refreshCalls   int
	refreshErr     error
	refreshedToken string
	revokeCalls    int
}

func (a *fakeAuthorizer) Authorize(ctx context.Context) (*Grant, error) {
	return &Grant{
		Token:        Token{AccessToken: "fresh", ExpiresAt: time.Now().Add(time.Hour)},
		RefreshToken: "refresh-1",
		Email:        "user@example.com",
	}, nil
}

func (a *fakeAuthorizer) Refresh(ctx context.Context, refreshToken string) (*Token, error) {
	a.refreshCalls++
	if a.refreshErr != nil {
		return nil, a.refreshErr
	}
	tok := a.refreshedToken
	if tok == "" {
		tok = "refreshed"
	}
	return &Token{AccessToken: tok, ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (a *fakeAuthorizer) Revoke(ctx context.Context, accessToken string) error {
	a.revokeCalls++
	return nil
}

// newAPIServer serves a one-calendar account. Tokens in rejected are answered
// with 401 on every endpoint.
func newAPIServer(t *testing.T, rejected map[string]bool) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if rejected[token] {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch {
		case strings.HasSuffix(r.URL.Path, "/users/me/calendarList"):
			json.NewEncoder(w).Encode(map[string]any{
				"items": []map[string]any{{"id": "primary", "summary": "Personal"}},
			})
		case strings.Contains(r.URL.Path, "/events") && r.Method == http.MethodGet:
			json.NewEncoder(w).Encode(map[string]any{
				"items": []map[string]any{{
					"id":      "ev1",
					"summary": "Standup",
					"start":   map[string]string{"dateTime": "2024-06-10T09:00:00Z"},
					"end":     map[string]string{"dateTime": "2024-06-10T09:15:00Z"},
				}},
			})
		case strings.Contains(r.URL.Path, "/events") && r.Method == http.MethodPost:
			json.NewEncoder(w).Encode(map[string]string{"id": "created1", "htmlLink": "https://cal/created1"})
		default:
			http.NotFound(w, r)
		}
	}))
}

func newTestSession(srvURL string, auth Authorizer) *Session {
	client := &Client{baseURL: srvURL, http: &http.Client{Timeout: 5 * time.Second}}
	return NewSession(nil, client, auth)
}

func TestSyncWithValidToken(t *testing.T) {
	srv := newAPIServer(t, nil)
	defer srv.Close()

	auth := &fakeAuthorizer{}
	s := newTestSession(srv.URL, auth)
	s.connected = true
	s.accessToken = "good"
	s.expiresAt = time.Now().Add(time.Hour)

	if err := s.SyncToday(context.Background()); err != nil {
		t.Fatalf("SyncToday: %v", err)
	}
	if auth.refreshCalls != 0 {
		t.Fatalf("refreshCalls=%d with a valid token, want 0", auth.refreshCalls)
	}
	events := s.Events()
	if len(events) != 1 || events[0].Summary != "Standup" {
		t.Fatalf("events=%v, want the one synced event", events)
	}
	if s.LastSyncDate() == "" {
		t.Fatal("sync should stamp lastSyncDate")
	}
	if s.State() != StateValid {
		t.Fatalf("state=%s, want %s", s.State(), StateValid)
	}
}

func TestSyncRefreshesExpiredTokenOnce(t *testing.T) {
	srv := newAPIServer(t, nil)
	defer srv.Close()

	auth := &fakeAuthorizer{}
	s := newTestSession(srv.URL, auth)
	s.connected = true
	s.accessToken = "stale"
	s.expiresAt = time.Now().Add(30 * time.Second) // inside the validity buffer
	s.refreshToken = "refresh-1"

	if err := s.SyncToday(context.Background()); err != nil {
		t.Fatalf("SyncToday: %v", err)
	}
	if auth.refreshCalls != 1 {
		t.Fatalf("refreshCalls=%d, want exactly 1", auth.refreshCalls)
	}
	if s.accessToken != "refreshed" {
		t.Fatalf("accessToken=%q after refresh, want the refreshed one", s.accessToken)
	}
}

func TestSyncRefreshesOnServerRejectionOnce(t *testing.T) {
	// Server disagrees with local expiry bookkeeping: the token looks valid
	// locally but every request with it gets a 401.
	srv := newAPIServer(t, map[string]bool{"revoked-server-side": true})
	defer srv.Close()

	auth := &fakeAuthorizer{refreshedToken: "good-again"}
	s := newTestSession(srv.URL, auth)
	s.connected = true
	s.accessToken = "revoked-server-side"
	s.expiresAt = time.Now().Add(time.Hour)
	s.refreshToken = "refresh-1"

	if err := s.SyncToday(context.Background()); err != nil {
		t.Fatalf("SyncToday: %v", err)
	}
	if auth.refreshCalls != 1 {
		t.Fatalf("refreshCalls=%d, want 1", auth.refreshCalls)
	}
	if len(s.Events()) != 1 {
		t.Fatal("the retried call should have synced events")
	}
}

func TestSyncNeverRefreshesTwice(t *testing.T) {
	// Even the refreshed token is rejected; the call must fail with the
	// reconnect error after exactly one refresh, never loop.
	srv := newAPIServer(t, map[string]bool{"stale": true, "refreshed": true})
	defer srv.Close()

	auth := &fakeAuthorizer{}
	s := newTestSession(srv.URL, auth)
	s.connected = true
	s.accessToken = "stale"
	s.expiresAt = time.Now().Add(time.Hour)
	s.refreshToken = "refresh-1"

	err := s.SyncToday(context.Background())
	if !errors.Is(err, ErrReconnectRequired) {
		t.Fatalf("err=%v, want ErrReconnectRequired", err)
	}
	if auth.refreshCalls != 1 {
		t.Fatalf("refreshCalls=%d, want exactly 1", auth.refreshCalls)
	}
	if s.State() != StateError {
		t.Fatalf("state=%s after exhausted refresh, want %s", s.State(), StateError)
	}
	if s.Connected() {
		t.Fatal("session should demote to disconnected")
	}
}

func TestSyncFailedRefreshRequiresReconnect(t *testing.T) {
	srv := newAPIServer(t, nil)
	defer srv.Close()

	auth := &fakeAuthorizer{refreshErr: errors.New("invalid_grant")}
	s := newTestSession(srv.URL, auth)
	s.connected = true
	s.accessToken = "stale"
	s.expiresAt = time.Now().Add(-time.Minute)
	s.refreshToken = "refresh-1"

	err := s.SyncToday(context.Background())
	if !errors.Is(err, ErrReconnectRequired) {
		t.Fatalf("err=%v, want ErrReconnectRequired", err)
	}
	if s.State() != StateError {
		t.Fatalf("state=%s, want %s", s.State(), StateError)
	}
}

func TestSyncNeverConnectedIsNoop(t *testing.T) {
	auth := &fakeAuthorizer{}
	s := newTestSession("http://invalid.local", auth)

	if err := s.SyncToday(context.Background()); err != nil {
		t.Fatalf("SyncToday on a never-connected session=%v, want nil no-op", err)
	}
	if auth.refreshCalls != 0 {
		t.Fatal("no-op sync must not refresh")
	}
}

func TestPushTaskRequiresConnection(t *testing.T) {
	s := newTestSession("http://invalid.local", &fakeAuthorizer{})
	_, err := s.PushTask(context.Background(), "write report", time.Now(), time.Now().Add(time.Hour))
	if !errors.Is(err, ErrNotConnected) {
		t.Fatalf("err=%v, want ErrNotConnected", err)
	}
}

func TestPushTaskCreatesEvent(t *testing.T) {
	srv := newAPIServer(t, nil)
	defer srv.Close()

	s := newTestSession(srv.URL, &fakeAuthorizer{})
	s.connected = true
	s.accessToken = "good"
	s.expiresAt = time.Now().Add(time.Hour)

	created, err := s.PushTask(context.Background(), "write report", time.Now(), time.Now().Add(30*time.Minute))
	if err != nil {
		t.Fatalf("PushTask: %v", err)
	}
	if created.ID != "created1" {
		t.Fatalf("created=%+v, want the server's event", created)
	}
}

func TestDisconnectClearsEverything(t *testing.T) {
	auth := &fakeAuthorizer{}
	s := newTestSession("http://invalid.local", auth)
	s.connected = true
	s.accessToken = "good"
	s.expiresAt = time.Now().Add(time.Hour)
	s.refreshToken = "refresh-1"
	s.email = "user@example.com"
	s.events = []Event{{ID: "ev1"}}

	if err := s.Disconnect(context.Background()); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}
	if auth.revokeCalls != 1 {
		t.Fatalf("revokeCalls=%d, want 1", auth.revokeCalls)
	}
	if s.Connected() || s.Email() != "" || len(s.Events()) != 0 {
		t.Fatal("disconnect should clear all session state")
	}
	if s.State() != StateDisconnected {
		t.Fatalf("state=%s, want %s", s.State(), StateDisconnected)
	}
}

func TestTokenValidBuffer(t *testing.T) {
	s := NewSession(nil, NewClient(), &fakeAuthorizer{})
	s.accessToken = "tok"

	s.expiresAt = time.Now().Add(2 * time.Minute)
	if !s.TokenValid() {
		t.Fatal("token 2min from expiry should be valid")
	}
	s.expiresAt = time.Now().Add(30 * time.Second)
	if s.TokenValid() {
		t.Fatal("token inside the 60s buffer should be treated as expired")
	}
	s.accessToken = ""
	if s.TokenValid() {
		t.Fatal("missing token is never valid")
	}
}
