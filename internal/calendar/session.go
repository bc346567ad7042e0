package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/realQhimself/dopamine-app/internal/dateutil"
	applog "github.com/realQhimself/dopamine-app/internal/log"
	"github.com/realQhimself/dopamine-app/internal/storage"
)

// tokenSlack is how long before expiry a token is already treated as invalid.
const tokenSlack = 60 * time.Second

// ErrReconnectRequired means the silent-refresh path is exhausted and only an
// interactive reconnect can recover the session.
var ErrReconnectRequired = errors.New("calendar: session expired, reconnect required")

// ErrNotConnected is returned by operations that need an established session.
var ErrNotConnected = errors.New("calendar: not connected")

type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateValid        State = "connected-valid"
	StateExpired      State = "connected-expired"
	StateError        State = "error"
)

const sessionDocVersion = 1

// sessionDoc is the persisted slice of the session: connection, token and
// identity. The live event list and the transient syncing flag stay in memory
// only.
type sessionDoc struct {
	Version      int        `json:"version"`
	Connected    bool       `json:"connected"`
	AccessToken  string     `json:"accessToken,omitempty"`
	ExpiresAt    *time.Time `json:"tokenExpiresAt,omitempty"`
	RefreshToken string     `json:"refreshToken,omitempty"`
	Email        string     `json:"userEmail,omitempty"`
	LastSyncDate string     `json:"lastSyncDate,omitempty"`
}

// Session owns the calendar OAuth token lifecycle and today's synced events.
// Every operation that needs a token funnels through withValidToken, which
// performs at most one silent refresh per call.
type Session struct {
	mu     sync.Mutex
	docs   *storage.DocRepo
	client *Client
	auth   Authorizer
	now    func() time.Time

	connected    bool
	connecting   bool
	accessToken  string
	expiresAt    time.Time
	refreshToken string
	email        string
	lastSyncDate string

	events  []Event
	syncing bool
	lastErr string
}

func NewSession(docs *storage.DocRepo, client *Client, auth Authorizer) *Session {
	return &Session{docs: docs, client: client, auth: auth, now: time.Now}
}

func (s *Session) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.docs == nil {
		return nil
	}
	doc, err := s.docs.Get(ctx, storage.DocCalendar)
	if err != nil {
		return err
	}
	if doc == nil {
		return nil
	}
	var d sessionDoc
	if err := json.Unmarshal(doc.Data, &d); err != nil {
		return fmt.Errorf("decode calendar document: %w", err)
	}
	s.connected = d.Connected
	s.accessToken = d.AccessToken
	if d.ExpiresAt != nil {
		s.expiresAt = *d.ExpiresAt
	}
	s.refreshToken = d.RefreshToken
	s.email = d.Email
	s.lastSyncDate = d.LastSyncDate
	return nil
}

func (s *Session) save(ctx context.Context) error {
	if s.docs == nil {
		return nil
	}
	d := sessionDoc{
		Version:      sessionDocVersion,
		Connected:    s.connected,
		AccessToken:  s.accessToken,
		RefreshToken: s.refreshToken,
		Email:        s.email,
		LastSyncDate: s.lastSyncDate,
	}
	if !s.expiresAt.IsZero() {
		t := s.expiresAt
		d.ExpiresAt = &t
	}
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode calendar document: %w", err)
	}
	return s.docs.Put(ctx, storage.DocCalendar, sessionDocVersion, data)
}

// Connect runs the interactive consent flow and, on success, performs an
// immediate sync. On failure the session stays disconnected with the error
// recorded.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	s.connecting = true
	s.lastErr = ""
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.connecting = false
		s.mu.Unlock()
	}()

	grant, err := s.auth.Authorize(ctx)
	if err != nil {
		s.mu.Lock()
		s.lastErr = err.Error()
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.connected = true
	s.accessToken = grant.AccessToken
	s.expiresAt = grant.ExpiresAt
	if grant.RefreshToken != "" {
		s.refreshToken = grant.RefreshToken
	}
	s.email = grant.Email
	saveErr := s.save(ctx)
	s.mu.Unlock()
	if saveErr != nil {
		return saveErr
	}

	if err := s.SyncToday(ctx); err != nil {
		applog.Warn("initial calendar sync failed", "err", err)
	}
	return nil
}

// Disconnect revokes the token if present and clears all session and event
// state unconditionally.
func (s *Session) Disconnect(ctx context.Context) error {
	s.mu.Lock()
	token := s.accessToken
	s.mu.Unlock()

	if token != "" {
		if err := s.auth.Revoke(ctx, token); err != nil {
			applog.Warn("token revoke failed", "err", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	s.accessToken = ""
	s.expiresAt = time.Time{}
	s.refreshToken = ""
	s.email = ""
	s.lastSyncDate = ""
	s.events = nil
	s.lastErr = ""
	return s.save(ctx)
}

// SyncToday fetches today's events. A session that was never connected is a
// no-op. An expired token triggers exactly one silent refresh; if the token
// still fails afterwards the session drops to the error state.
func (s *Session) SyncToday(ctx context.Context) error {
	s.mu.Lock()
	if !s.connected && s.accessToken == "" {
		s.mu.Unlock()
		return nil
	}
	s.syncing = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.syncing = false
		s.mu.Unlock()
	}()

	err := s.withValidToken(ctx, func(token string) error {
		events, err := s.client.ListTodayEvents(ctx, token, s.now())
		if err != nil {
			return err
		}
		s.mu.Lock()
		s.events = events
		s.lastSyncDate = dateutil.DayString(s.now())
		saveErr := s.save(ctx)
		s.mu.Unlock()
		return saveErr
	})
	if err != nil {
		s.mu.Lock()
		s.lastErr = err.Error()
		s.mu.Unlock()
		return err
	}
	s.mu.Lock()
	s.lastErr = ""
	s.mu.Unlock()
	return nil
}

// PushTask creates a calendar event from a task's text and time window, under
// the same validity/refresh contract as SyncToday.
func (s *Session) PushTask(ctx context.Context, text string, start, end time.Time) (*CreatedEvent, error) {
	s.mu.Lock()
	if !s.connected {
		s.mu.Unlock()
		return nil, ErrNotConnected
	}
	s.mu.Unlock()

	var created *CreatedEvent
	err := s.withValidToken(ctx, func(token string) error {
		ev, err := s.client.CreateEvent(ctx, token, EventInput{
			Summary: text,
			Start:   start,
			End:     end,
		})
		if err != nil {
			return err
		}
		created = ev
		return nil
	})
	if err != nil {
		s.mu.Lock()
		s.lastErr = err.Error()
		s.mu.Unlock()
		return nil, err
	}
	return created, nil
}

// withValidToken runs op with a valid bearer token, refreshing silently when
// the token is absent or within tokenSlack of expiry. The refresh budget is
// exactly one per call: the loop shape makes the termination guarantee
// structural rather than relying on mutated state.
func (s *Session) withValidToken(ctx context.Context, op func(token string) error) error {
	refreshed := false
	for {
		if !s.TokenValid() {
			if refreshed {
				s.demote(ctx)
				return ErrReconnectRequired
			}
			if err := s.refresh(ctx); err != nil {
				s.demote(ctx)
				return fmt.Errorf("%w: %s", ErrReconnectRequired, err)
			}
			refreshed = true
		}

		s.mu.Lock()
		token := s.accessToken
		s.mu.Unlock()

		err := op(token)
		if errors.Is(err, ErrTokenExpired) {
			// The API disagreed with our expiry bookkeeping; force the
			// refresh branch. At most once per call.
			s.mu.Lock()
			s.expiresAt = time.Time{}
			s.mu.Unlock()
			continue
		}
		return err
	}
}

// TokenValid reports whether the access token is present and at least
// tokenSlack away from expiry.
func (s *Session) TokenValid() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.accessToken == "" || s.expiresAt.IsZero() {
		return false
	}
	return s.now().Before(s.expiresAt.Add(-tokenSlack))
}

func (s *Session) refresh(ctx context.Context) error {
	s.mu.Lock()
	refreshToken := s.refreshToken
	s.mu.Unlock()

	tok, err := s.auth.Refresh(ctx, refreshToken)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = tok.AccessToken
	s.expiresAt = tok.ExpiresAt
	return s.save(ctx)
}

// demote drops the session into the reconnect-required error state.
func (s *Session) demote(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	s.accessToken = ""
	s.expiresAt = time.Time{}
	s.lastErr = "session expired, reconnect calendar"
	if err := s.save(ctx); err != nil {
		applog.Error("persist demoted session", err)
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.connecting:
		return StateConnecting
	case !s.connected && s.lastErr != "":
		return StateError
	case !s.connected:
		return StateDisconnected
	}
	if s.accessToken != "" && !s.expiresAt.IsZero() && s.now().Before(s.expiresAt.Add(-tokenSlack)) {
		return StateValid
	}
	return StateExpired
}

// Events returns the most recently synced events.
func (s *Session) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *Session) Email() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.email
}

func (s *Session) LastSyncDate() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSyncDate
}

func (s *Session) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}
