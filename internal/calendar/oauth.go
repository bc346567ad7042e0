package calendar

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	applog "github.com/realQhimself/dopamine-app/internal/log"
)

const (
	authEndpoint     = "https://accounts.google.com/o/oauth2/v2/auth"
	tokenEndpoint    = "https://oauth2.googleapis.com/token"
	revokeEndpoint   = "https://oauth2.googleapis.com/revoke"
	userinfoEndpoint = "https://www.googleapis.com/oauth2/v2/userinfo"

	oauthScopes = "https://www.googleapis.com/auth/calendar.events https://www.googleapis.com/auth/calendar.readonly https://www.googleapis.com/auth/userinfo.email"
)

// ErrNotConfigured is a configuration error: the OAuth client id is missing.
// Not retryable without operator action.
var ErrNotConfigured = errors.New("calendar: google client id not configured")

// Token is a short-lived bearer credential.
type Token struct {
	AccessToken string
	ExpiresAt   time.Time
}

// Grant is the result of an interactive consent: a token plus the durable
// refresh token and the account identity.
type Grant struct {
	Token
	RefreshToken string
	Email        string
}

// Authorizer abstracts the OAuth flows so the session manager (and its tests)
// never depend on a browser.
type Authorizer interface {
	// Authorize runs the interactive consent flow.
	Authorize(ctx context.Context) (*Grant, error)
	// Refresh silently exchanges a refresh token for a fresh access token.
	Refresh(ctx context.Context, refreshToken string) (*Token, error)
	// Revoke invalidates an access token.
	Revoke(ctx context.Context, accessToken string) error
}

// GoogleAuthorizer implements Authorizer against Google's OAuth endpoints
// using the loopback-redirect flow.
type GoogleAuthorizer struct {
	clientID     string
	clientSecret string
	http         *http.Client
}

func NewGoogleAuthorizer(clientID, clientSecret string) *GoogleAuthorizer {
	return &GoogleAuthorizer{
		clientID:     clientID,
		clientSecret: clientSecret,
		http:         &http.Client{Timeout: 30 * time.Second},
	}
}

func (a *GoogleAuthorizer) Authorize(ctx context.Context) (*Grant, error) {
	if a.clientID == "" {
		return nil, ErrNotConfigured
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("start loopback listener: %w", err)
	}
	defer ln.Close()
	redirectURI := "http://" + ln.Addr().String()

	state, err := randomState()
	if err != nil {
		return nil, err
	}

	authURL := authEndpoint + "?" + url.Values{
		"client_id":     {a.clientID},
		"redirect_uri":  {redirectURI},
		"response_type": {"code"},
		"scope":         {oauthScopes},
		"state":         {state},
		"access_type":   {"offline"},
		"prompt":        {"consent"},
	}.Encode()

	applog.Info("calendar consent required", "url", authURL)
	fmt.Printf("Open this URL to connect your calendar:\n\n  %s\n\n", authURL)

	code, err := waitForCode(ctx, ln, state)
	if err != nil {
		return nil, err
	}

	tok, err := a.exchange(ctx, url.Values{
		"client_id":     {a.clientID},
		"client_secret": {a.clientSecret},
		"code":          {code},
		"grant_type":    {"authorization_code"},
		"redirect_uri":  {redirectURI},
	})
	if err != nil {
		return nil, err
	}

	email, err := a.fetchEmail(ctx, tok.accessToken())
	if err != nil {
		// Email is display-only, keep the grant.
		applog.Warn("fetch account email failed", "err", err)
	}

	return &Grant{
		Token:        tok.token(),
		RefreshToken: tok.RefreshToken,
		Email:        email,
	}, nil
}

func (a *GoogleAuthorizer) Refresh(ctx context.Context, refreshToken string) (*Token, error) {
	if a.clientID == "" {
		return nil, ErrNotConfigured
	}
	if refreshToken == "" {
		return nil, errors.New("calendar: no refresh token")
	}
	tok, err := a.exchange(ctx, url.Values{
		"client_id":     {a.clientID},
		"client_secret": {a.clientSecret},
		"refresh_token": {refreshToken},
		"grant_type":    {"refresh_token"},
	})
	if err != nil {
		return nil, err
	}
	t := tok.token()
	return &t, nil
}

func (a *GoogleAuthorizer) Revoke(ctx context.Context, accessToken string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, revokeEndpoint, strings.NewReader(url.Values{"token": {accessToken}}.Encode()))
	if err != nil {
		return fmt.Errorf("create revoke request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.http.Do(req)
	if err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	resp.Body.Close()
	return nil
}

type tokenResponse struct {
	Access       string `json:"access_token"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
}

func (t tokenResponse) accessToken() string { return t.Access }

func (t tokenResponse) token() Token {
	expires := t.ExpiresIn
	if expires <= 0 {
		expires = 3600
	}
	return Token{
		AccessToken: t.Access,
		ExpiresAt:   time.Now().Add(time.Duration(expires) * time.Second),
	}
}

func (a *GoogleAuthorizer) exchange(ctx context.Context, form url.Values) (*tokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token endpoint: status %d", resp.StatusCode)
	}
	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	if tok.Access == "" {
		return nil, errors.New("token endpoint: empty access token")
	}
	return &tok, nil
}

func (a *GoogleAuthorizer) fetchEmail(ctx context.Context, accessToken string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, userinfoEndpoint, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := a.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("userinfo: status %d", resp.StatusCode)
	}
	var user struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return "", err
	}
	return user.Email, nil
}

// waitForCode serves a single loopback redirect and returns the auth code.
func waitForCode(ctx context.Context, ln net.Listener, wantState string) (string, error) {
	type result struct {
		code string
		err  error
	}
	ch := make(chan result, 1)

	srv := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if q.Get("state") != wantState {
				http.Error(w, "state mismatch", http.StatusBadRequest)
				ch <- result{err: errors.New("oauth state mismatch")}
				return
			}
			if errParam := q.Get("error"); errParam != "" {
				http.Error(w, "consent denied", http.StatusBadRequest)
				ch <- result{err: fmt.Errorf("oauth error: %s", errParam)}
				return
			}
			fmt.Fprintln(w, "Calendar connected. You can close this tab.")
			ch <- result{code: q.Get("code")}
		}),
	}
	go func() { _ = srv.Serve(ln) }()
	defer srv.Close()

	select {
	case r := <-ch:
		return r.code, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func randomState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
