package coach

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/realQhimself/dopamine-app/internal/calendar"
	"github.com/realQhimself/dopamine-app/internal/engine"
)

// newModelServer replies to every generateContent call with the given text
// and records the last request body.
func newModelServer(t *testing.T, reply string) (*httptest.Server, *generateRequest) {
	t.Helper()
	var last generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&last); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{"parts": []map[string]string{{"text": reply}}},
			}},
		})
	}))
	return srv, &last
}

func newTestClient(srvURL string) *Client {
	return &Client{
		apiKey:  "test-key",
		model:   defaultModel,
		baseURL: srvURL,
		http:    &http.Client{Timeout: 5 * time.Second},
		now:     time.Now,
	}
}

func TestSendMessagePrefixesSnapshotOntoFirstTurn(t *testing.T) {
	srv, last := newModelServer(t, "You've got this!")
	defer srv.Close()
	c := newTestClient(srv.URL)

	snap := &Snapshot{
		Tasks:  []engine.Task{{Text: "water plants", Category: engine.CategoryRoutine, EstimatedMinutes: 2, Essential: true}},
		XP:     120,
		Level:  engine.LevelForXP(120),
		Streak: 4,
		Energy: engine.EnergyLow,
	}
	messages := []Message{
		{Role: RoleUser, Content: "I'm overwhelmed"},
		{Role: RoleAssistant, Content: "Let's shrink the day."},
		{Role: RoleUser, Content: "ok how"},
	}

	reply, err := c.SendMessage(context.Background(), messages, snap)
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if reply != "You've got this!" {
		t.Fatalf("reply=%q", reply)
	}

	if last.SystemInstruction == nil || !strings.Contains(last.SystemInstruction.Parts[0].Text, "Spark") {
		t.Fatal("system instruction should carry the persona")
	}
	if len(last.Contents) != 3 {
		t.Fatalf("contents=%d, want 3 turns", len(last.Contents))
	}

	first := last.Contents[0].Parts[0].Text
	if !strings.HasPrefix(first, "[Current app state]") {
		t.Fatalf("first turn should start with the state block, got %q", first[:40])
	}
	if !strings.Contains(first, "4-day streak") || !strings.Contains(first, "water plants") {
		t.Fatal("state block should include streak and tasks")
	}
	if !strings.HasSuffix(first, "I'm overwhelmed") {
		t.Fatal("the user's text should follow the state block")
	}
	// Later turns stay untouched, with assistant mapped to the model role.
	if last.Contents[1].Role != "model" || last.Contents[1].Parts[0].Text != "Let's shrink the day." {
		t.Fatalf("second turn=%+v", last.Contents[1])
	}
	if last.Contents[2].Parts[0].Text != "ok how" {
		t.Fatal("later user turns must not gain a state block")
	}
}

func TestSendMessageSnapshotSurvivesTrimmedHistory(t *testing.T) {
	srv, last := newModelServer(t, "Still here.")
	defer srv.Close()
	c := newTestClient(srv.URL)

	snap := &Snapshot{XP: 120, Level: engine.LevelForXP(120), Streak: 4, Energy: engine.EnergyLow}
	// An assistant turn first, as the transcript cap leaves it after trimming.
	messages := []Message{
		{Role: RoleAssistant, Content: "Deep breath."},
		{Role: RoleUser, Content: "what now"},
	}

	if _, err := c.SendMessage(context.Background(), messages, snap); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if got := last.Contents[0].Parts[0].Text; got != "Deep breath." {
		t.Fatalf("assistant turn=%q, want it untouched", got)
	}
	second := last.Contents[1].Parts[0].Text
	if !strings.HasPrefix(second, "[Current app state]") {
		t.Fatalf("first user turn should carry the state block, got %q", second)
	}
	if !strings.HasSuffix(second, "what now") {
		t.Fatal("the user's text should follow the state block")
	}
}

func TestSendMessageNoAPIKey(t *testing.T) {
	c := NewClient("")
	_, err := c.SendMessage(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, nil)
	if !errors.Is(err, ErrNoAPIKey) {
		t.Fatalf("err=%v, want ErrNoAPIKey", err)
	}
}

func TestFilterActionableEventsParsesIDs(t *testing.T) {
	srv, _ := newModelServer(t, "```json\n[\"e1\",\"e3\"]\n```")
	defer srv.Close()
	c := newTestClient(srv.URL)

	events := []calendar.Event{{ID: "e1"}, {ID: "e2"}, {ID: "e3"}}
	ids, err := c.FilterActionableEvents(context.Background(), events)
	if err != nil {
		t.Fatalf("FilterActionableEvents: %v", err)
	}
	if len(ids) != 2 || ids[0] != "e1" || ids[1] != "e3" {
		t.Fatalf("ids=%v, want [e1 e3]", ids)
	}
}

func TestFilterActionableEventsFallsBackToAll(t *testing.T) {
	srv, _ := newModelServer(t, "Sure! The actionable ones are the standup and the review.")
	defer srv.Close()
	c := newTestClient(srv.URL)

	events := []calendar.Event{{ID: "e1"}, {ID: "e2"}}
	ids, err := c.FilterActionableEvents(context.Background(), events)
	if err != nil {
		t.Fatalf("FilterActionableEvents: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("ids=%v, want every event id on a malformed reply", ids)
	}
}

func TestFilterActionableEventsEmptyInput(t *testing.T) {
	c := NewClient("key")
	ids, err := c.FilterActionableEvents(context.Background(), nil)
	if err != nil || ids != nil {
		t.Fatalf("empty input=(%v, %v), want (nil, nil) without an API call", ids, err)
	}
}

func TestSuggestTimeSlot(t *testing.T) {
	srv, last := newModelServer(t, "Try 10:30, right after standup.")
	defer srv.Close()
	c := newTestClient(srv.URL)

	events := []calendar.Event{{ID: "e1", Summary: "Standup", Start: "2024-06-10T09:00:00Z", End: "2024-06-10T09:15:00Z"}}
	got, err := c.SuggestTimeSlot(context.Background(), "write report", 45, events)
	if err != nil {
		t.Fatalf("SuggestTimeSlot: %v", err)
	}
	if got != "Try 10:30, right after standup." {
		t.Fatalf("suggestion=%q", got)
	}
	prompt := last.Contents[0].Parts[0].Text
	if !strings.Contains(prompt, `"write report"`) || !strings.Contains(prompt, "45 minutes") {
		t.Fatal("prompt should carry the task text and duration")
	}
	if !strings.Contains(prompt, "Standup") {
		t.Fatal("prompt should list today's calendar")
	}
}

func TestGenerateSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"code":429,"message":"quota"}}`))
	}))
	defer srv.Close()
	c := newTestClient(srv.URL)

	_, err := c.SendMessage(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, nil)
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Fatalf("err=%v, want a status error", err)
	}
}
