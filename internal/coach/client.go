package coach

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/realQhimself/dopamine-app/internal/calendar"
	"github.com/realQhimself/dopamine-app/internal/engine"
)

const (
	defaultModel   = "gemini-2.0-flash"
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	requestTimeout = 60 * time.Second
)

// ErrNoAPIKey means the coach is not configured.
var ErrNoAPIKey = errors.New("coach: gemini api key not set")

const systemPrompt = `You are Spark, a warm and encouraging ADHD coach built into a dopamine-friendly task app.

Your personality:
- Supportive, warm, and understanding, never clinical or preachy
- You celebrate small wins enthusiastically
- You keep responses SHORT (2-3 sentences max for quick replies)
- For reflections and summaries you can be longer (up to a paragraph)
- You use casual, friendly language

What you know:
- The user has ADHD and benefits from dopamine-driven motivation
- You can see their tasks, calendar events, XP, level, streak, and energy level
- MVD mode = "Minimum Viable Day", only essential tasks, for low-energy days

What you can do:
- Suggest which calendar events are worth importing as tasks
- Recommend optimal time slots for tasks based on their calendar
- Detect signs of overwhelm (too many tasks, low energy, broken streaks) and suggest MVD mode
- Give evening reflections summarizing the day's accomplishments
- Help prioritize and break down tasks
- Provide encouragement when the user is struggling

Rules:
- Never diagnose or give medical advice
- If the user seems in crisis, gently suggest professional support
- Match the user's energy: if they seem tired, be gentle; if they're hyped, match it
- Always ground your suggestions in the actual data you see (tasks, calendar, XP, etc.)`

// Snapshot is the slice of app state handed to the model alongside a chat
// turn.
type Snapshot struct {
	Tasks   []engine.Task
	Events  []calendar.Event
	XP      int
	Level   engine.Level
	Streak  int
	Energy  engine.EnergyLevel
	MVDMode bool
}

// Client talks to the Gemini generateContent API.
type Client struct {
	apiKey  string
	model   string
	baseURL string
	http    *http.Client
	now     func() time.Time
}

func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		model:   defaultModel,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: requestTimeout},
		now:     time.Now,
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type generateRequest struct {
	SystemInstruction *geminiContent  `json:"system_instruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// SendMessage sends the full conversation; the app snapshot is prefixed to
// the first user turn so the model sees current state without a tool call.
// The trim can leave an assistant turn first, so the prefix goes on the first
// user turn wherever it sits.
func (c *Client) SendMessage(ctx context.Context, messages []Message, snap *Snapshot) (string, error) {
	firstUser := -1
	for i, m := range messages {
		if m.Role == RoleUser {
			firstUser = i
			break
		}
	}

	contents := make([]geminiContent, 0, len(messages))
	for i, m := range messages {
		text := m.Content
		if i == firstUser && snap != nil {
			text = formatSnapshot(snap) + text
		}
		role := "user"
		if m.Role == RoleAssistant {
			role = "model"
		}
		contents = append(contents, geminiContent{Role: role, Parts: []geminiPart{{Text: text}}})
	}
	return c.generate(ctx, contents)
}

// FilterActionableEvents asks the model which events are worth importing as
// tasks. On any parse failure every event id is returned, so a flaky model
// reply degrades to "import everything" rather than dropping events.
func (c *Client) FilterActionableEvents(ctx context.Context, events []calendar.Event) ([]string, error) {
	if len(events) == 0 {
		return nil, nil
	}

	var b strings.Builder
	for i, ev := range events {
		fmt.Fprintf(&b, "%d. [id=%s] %q (%s)\n", i, ev.ID, ev.Summary, eventTimeLabel(ev))
	}

	prompt := fmt.Sprintf(`Here are today's calendar events. Return ONLY a JSON array of event IDs that represent actionable tasks the user should prepare for or complete. Filter OUT passive/automatic events like lunch breaks, commute, travel time, "busy" blocks, and all-day background events.

Events:
%s
Respond with ONLY valid JSON, an array of id strings, e.g. ["id1","id2"]. No explanation.`, b.String())

	raw, err := c.generate(ctx, []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}})
	if err != nil {
		return nil, err
	}

	if ids, ok := parseIDList(raw); ok {
		return ids, nil
	}
	all := make([]string, len(events))
	for i, ev := range events {
		all[i] = ev.ID
	}
	return all, nil
}

// SuggestTimeSlot asks for a scheduling suggestion for a task given today's
// calendar.
func (c *Client) SuggestTimeSlot(ctx context.Context, taskText string, durationMin int, events []calendar.Event) (string, error) {
	nowStr := c.now().Format("15:04")

	var b strings.Builder
	for _, ev := range events {
		fmt.Fprintf(&b, "- %s (%s)\n", ev.Summary, eventTimeLabel(ev))
	}
	cal := b.String()
	if cal == "" {
		cal = "(no events)\n"
	}

	prompt := fmt.Sprintf(`It's currently %s. The user wants to schedule %q which takes about %d minutes.

Today's calendar:
%s
Suggest the best time slot for this task. Consider:
- Finding gaps between calendar events
- Not scheduling over existing events
- Considering that it's already %s
- ADHD-friendly advice (e.g., pair with a break, body-doubling suggestion)

Keep your response to 2-3 sentences.`, nowStr, taskText, durationMin, cal, nowStr)

	return c.generate(ctx, []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}})
}

func (c *Client) generate(ctx context.Context, contents []geminiContent) (string, error) {
	if c.apiKey == "" {
		return "", ErrNoAPIKey
	}

	body, err := json.Marshal(generateRequest{
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: systemPrompt}}},
		Contents:          contents,
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	u := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini api: status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var out generateResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("gemini api: %s", out.Error.Message)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("gemini api: empty response")
	}
	text := out.Candidates[0].Content.Parts[0].Text
	if text == "" {
		return "", errors.New("gemini api: empty response")
	}
	return text, nil
}

func formatSnapshot(s *Snapshot) string {
	var b strings.Builder

	energy := "not set"
	if s.Energy != "" {
		energy = string(s.Energy)
	}
	mvd := "OFF"
	if s.MVDMode {
		mvd = "ON"
	}
	fmt.Fprintf(&b, "[Current app state]\nLevel %d %q | %d XP | %d-day streak | Energy: %s | MVD mode: %s\n\nToday's tasks:\n",
		s.Level.Level, s.Level.Title, s.XP, s.Streak, energy, mvd)

	if len(s.Tasks) == 0 {
		b.WriteString("(none)\n")
	}
	for _, t := range s.Tasks {
		mark := " "
		if t.Completed {
			mark = "x"
		}
		fmt.Fprintf(&b, "- [%s] %s (%s, %dmin", mark, t.Text, t.Category, t.EstimatedMinutes)
		if t.Essential {
			b.WriteString(", MVD")
		}
		b.WriteString(")\n")
	}

	b.WriteString("\nCalendar events:\n")
	if len(s.Events) == 0 {
		b.WriteString("(none)\n")
	}
	for _, ev := range s.Events {
		fmt.Fprintf(&b, "- %s (%s)\n", ev.Summary, eventTimeLabel(ev))
	}

	b.WriteString("\nUser message: ")
	return b.String()
}

func eventTimeLabel(ev calendar.Event) string {
	if ev.AllDay {
		return "all day"
	}
	return ev.StartTime().Format("15:04") + " - " + ev.EndTime().Format("15:04")
}

// parseIDList extracts a JSON string array from a model reply, tolerating
// markdown code fences around the payload.
func parseIDList(raw string) ([]string, bool) {
	cleaned := strings.ReplaceAll(raw, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)

	var ids []string
	if err := json.Unmarshal([]byte(cleaned), &ids); err != nil {
		return nil, false
	}
	return ids, true
}
