package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"
)

const (
	apiBase         = "https://www.googleapis.com/calendar/v3"
	maxEventsPerCal = 50
)

// ErrTokenExpired distinguishes a 401 from other API failures; the session
// manager reacts to it with a silent refresh.
var ErrTokenExpired = errors.New("calendar: token expired")

// Event is an external-origin, read-only calendar record. Start/End are
// RFC3339 timestamps, or bare dates for all-day events.
type Event struct {
	ID            string `json:"id"`
	Summary       string `json:"summary"`
	Start         string `json:"start"`
	End           string `json:"end"`
	AllDay        bool   `json:"allDay"`
	CalendarName  string `json:"calendarName"`
	CalendarColor string `json:"calendarColor"`
}

// StartTime parses the event start for ordering and duration math.
func (e Event) StartTime() time.Time {
	if t, err := time.Parse(time.RFC3339, e.Start); err == nil {
		return t
	}
	t, _ := time.ParseInLocation("2006-01-02", e.Start, time.Local)
	return t
}

// EndTime parses the event end; zero when absent or malformed.
func (e Event) EndTime() time.Time {
	if t, err := time.Parse(time.RFC3339, e.End); err == nil {
		return t
	}
	t, _ := time.ParseInLocation("2006-01-02", e.End, time.Local)
	return t
}

// DurationMinutes returns the event length in minutes, 0 for all-day events.
func (e Event) DurationMinutes() int {
	if e.AllDay {
		return 0
	}
	d := e.EndTime().Sub(e.StartTime())
	if d <= 0 {
		return 0
	}
	return int(d.Minutes())
}

type EventInput struct {
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
}

type CreatedEvent struct {
	ID       string `json:"id"`
	HTMLLink string `json:"htmlLink"`
}

// Client talks to the Google Calendar REST API with a caller-supplied bearer
// token. It holds no session state.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient() *Client {
	return &Client{
		baseURL: apiBase,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

type calendarListResponse struct {
	Items []struct {
		ID              string `json:"id"`
		Summary         string `json:"summary"`
		BackgroundColor string `json:"backgroundColor"`
	} `json:"items"`
}

type eventsResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Summary string `json:"summary"`
		Status  string `json:"status"`
		Start   struct {
			DateTime string `json:"dateTime"`
			Date     string `json:"date"`
		} `json:"start"`
		End struct {
			DateTime string `json:"dateTime"`
			Date     string `json:"date"`
		} `json:"end"`
	} `json:"items"`
}

// ListTodayEvents fetches today's events from every calendar the account can
// see, merged and time-sorted. Recurring events arrive pre-expanded and
// cancelled instances are dropped. A single unreadable calendar is skipped
// rather than failing the whole sync.
func (c *Client) ListTodayEvents(ctx context.Context, token string, now time.Time) ([]Event, error) {
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	endOfDay := startOfDay.Add(24 * time.Hour)

	var calList calendarListResponse
	if err := c.get(ctx, token, c.baseURL+"/users/me/calendarList", &calList); err != nil {
		return nil, err
	}

	var all []Event
	for _, cal := range calList.Items {
		params := url.Values{
			"timeMin":      {startOfDay.Format(time.RFC3339)},
			"timeMax":      {endOfDay.Format(time.RFC3339)},
			"singleEvents": {"true"},
			"orderBy":      {"startTime"},
			"maxResults":   {fmt.Sprint(maxEventsPerCal)},
		}
		u := fmt.Sprintf("%s/calendars/%s/events?%s", c.baseURL, url.PathEscape(cal.ID), params.Encode())

		var resp eventsResponse
		if err := c.get(ctx, token, u, &resp); err != nil {
			if errors.Is(err, ErrTokenExpired) {
				return nil, err
			}
			continue
		}

		color := cal.BackgroundColor
		if color == "" {
			color = "#3b82f6"
		}
		for _, item := range resp.Items {
			if item.Status == "cancelled" {
				continue
			}
			allDay := item.Start.Date != ""
			summary := item.Summary
			if summary == "" {
				summary = "(No title)"
			}
			all = append(all, Event{
				ID:            item.ID,
				Summary:       summary,
				Start:         firstNonEmpty(item.Start.DateTime, item.Start.Date),
				End:           firstNonEmpty(item.End.DateTime, item.End.Date),
				AllDay:        allDay,
				CalendarName:  cal.Summary,
				CalendarColor: color,
			})
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].StartTime().Before(all[j].StartTime())
	})
	return all, nil
}

// CreateEvent creates an event on the account's primary calendar.
func (c *Client) CreateEvent(ctx context.Context, token string, in EventInput) (*CreatedEvent, error) {
	body, err := json.Marshal(map[string]any{
		"summary":     in.Summary,
		"description": in.Description,
		"start":       map[string]string{"dateTime": in.Start.Format(time.RFC3339)},
		"end":         map[string]string{"dateTime": in.End.Format(time.RFC3339)},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/calendars/primary/events", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrTokenExpired
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("create event: status %d", resp.StatusCode)
	}

	var created CreatedEvent
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, fmt.Errorf("decode created event: %w", err)
	}
	return &created, nil
}

func (c *Client) get(ctx context.Context, token, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("calendar api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrTokenExpired
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("calendar api: status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode calendar response: %w", err)
	}
	return nil
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
