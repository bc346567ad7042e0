package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/realQhimself/dopamine-app/internal/dateutil"
	"github.com/realQhimself/dopamine-app/internal/storage"
)

// Task is one unit of work.
type Task struct {
	ID               string      `json:"id"`
	Text             string      `json:"text"`
	Completed        bool        `json:"completed"`
	CompletedAt      *time.Time  `json:"completedAt"`
	Category         Category    `json:"category"`
	Energy           EnergyLevel `json:"energyLevel"`
	EstimatedMinutes int         `json:"estimatedMinutes"`
	Essential        bool        `json:"isMVD"`
	QuickWin         bool        `json:"isQuickWin"`
	XPReward         int         `json:"xpReward"`
	Recurring        bool        `json:"recurring"`
	Streak           int         `json:"streak"`
	BestStreak       int         `json:"bestStreak"`
	LastCompleted    string      `json:"lastCompletedDate,omitempty"`
	CompletedDates   []string    `json:"completedDates"`
	CreatedAt        time.Time   `json:"createdAt"`
	SortOrder        int         `json:"sortOrder"`
}

type AddTaskInput struct {
	Text             string
	Category         Category
	Energy           EnergyLevel
	EstimatedMinutes int
	Essential        bool
	XPReward         int
	Recurring        bool
}

// UpdateTaskInput is a partial update; nil fields are left untouched.
type UpdateTaskInput struct {
	Text             *string
	Category         *Category
	Energy           *EnergyLevel
	EstimatedMinutes *int
	Essential        *bool
	XPReward         *int
	Recurring        *bool
}

// ToggleResult reports the XP delta of a toggle (negative on un-complete)
// and whether every currently visible task is complete afterwards.
type ToggleResult struct {
	XPEarned int
	AllDone  bool
}

type DayProgress struct {
	Done    int
	Total   int
	Percent int
}

const taskDocVersion = 1

type taskDoc struct {
	Version       int         `json:"version"`
	Tasks         []Task      `json:"tasks"`
	TodayEnergy   EnergyLevel `json:"todayEnergy,omitempty"`
	MVDMode       bool        `json:"mvdMode"`
	LastResetDate string      `json:"lastResetDate,omitempty"`
}

// TaskStore owns the task collection and its filtering rules. It is an
// explicit state container: callers construct one per database (or per test)
// and pass it around, nothing is ambient.
type TaskStore struct {
	docs *storage.DocRepo
	now  func() time.Time

	tasks         []Task
	todayEnergy   EnergyLevel
	mvdMode       bool
	lastResetDate string
}

// NewTaskStore creates a store backed by docs. A nil docs keeps state
// in memory only, which tests use.
func NewTaskStore(docs *storage.DocRepo) *TaskStore {
	return &TaskStore{docs: docs, now: time.Now}
}

// Load hydrates the store from its persisted document, if any.
func (s *TaskStore) Load(ctx context.Context) error {
	if s.docs == nil {
		return nil
	}
	doc, err := s.docs.Get(ctx, storage.DocTasks)
	if err != nil {
		return err
	}
	if doc == nil {
		return nil
	}
	var d taskDoc
	if err := json.Unmarshal(doc.Data, &d); err != nil {
		return fmt.Errorf("decode tasks document: %w", err)
	}
	s.tasks = d.Tasks
	s.todayEnergy = d.TodayEnergy
	s.mvdMode = d.MVDMode
	s.lastResetDate = d.LastResetDate
	return nil
}

func (s *TaskStore) save(ctx context.Context) error {
	if s.docs == nil {
		return nil
	}
	data, err := json.Marshal(taskDoc{
		Version:       taskDocVersion,
		Tasks:         s.tasks,
		TodayEnergy:   s.todayEnergy,
		MVDMode:       s.mvdMode,
		LastResetDate: s.lastResetDate,
	})
	if err != nil {
		return fmt.Errorf("encode tasks document: %w", err)
	}
	return s.docs.Put(ctx, storage.DocTasks, taskDocVersion, data)
}

// Add appends a task. Text is trimmed but otherwise unvalidated; duplicates
// are allowed. Quick-win status is derived from the duration and caps the
// reward.
func (s *TaskStore) Add(ctx context.Context, in AddTaskInput) (*Task, error) {
	quickWin := IsQuickWin(in.EstimatedMinutes)
	cat := in.Category
	if !cat.IsValid() {
		cat = DefaultCategory
	}
	energy := in.Energy
	if !energy.IsValid() {
		energy = DefaultEnergy
	}

	t := Task{
		ID:               dateutil.NewID(),
		Text:             strings.TrimSpace(in.Text),
		Category:         cat,
		Energy:           energy,
		EstimatedMinutes: in.EstimatedMinutes,
		Essential:        in.Essential,
		QuickWin:         quickWin,
		XPReward:         ClampReward(in.XPReward, quickWin),
		Recurring:        in.Recurring,
		CompletedDates:   []string{},
		CreatedAt:        s.now(),
		SortOrder:        len(s.tasks),
	}
	s.tasks = append(s.tasks, t)
	if err := s.save(ctx); err != nil {
		return nil, err
	}
	return &t, nil
}

// Toggle flips a task's completion state. An unknown id is a harmless no-op.
//
// Completing awards the task's reward and advances its per-task streak unless
// it was already completed earlier today. The completion date history gains at
// most one entry per calendar day no matter how often the task is re-toggled.
// Un-completing returns the negative reward so the caller can retract XP, but
// never rolls back streaks or history.
func (s *TaskStore) Toggle(ctx context.Context, id string) (ToggleResult, error) {
	idx := s.indexOf(id)
	if idx < 0 {
		return ToggleResult{}, nil
	}

	t := &s.tasks[idx]
	now := s.now()
	today := dateutil.DayString(now)
	var xp int

	if !t.Completed {
		xp = t.XPReward
		completedToday := t.LastCompleted == today
		if !completedToday {
			t.Streak++
			if t.Streak > t.BestStreak {
				t.BestStreak = t.Streak
			}
		}
		if n := len(t.CompletedDates); n == 0 || t.CompletedDates[n-1] != today {
			t.CompletedDates = append(t.CompletedDates, today)
		}
		t.Completed = true
		t.CompletedAt = &now
		t.LastCompleted = today
	} else {
		xp = -t.XPReward
		t.Completed = false
		t.CompletedAt = nil
	}

	if err := s.save(ctx); err != nil {
		return ToggleResult{}, err
	}

	visible := s.Visible()
	allDone := len(visible) > 0
	for _, v := range visible {
		if !v.Completed {
			allDone = false
			break
		}
	}
	return ToggleResult{XPEarned: xp, AllDone: allDone}, nil
}

// CompletedToday reports whether any task was completed today. Undoing a
// completion does not erase it here: LastCompleted is history, not state.
func (s *TaskStore) CompletedToday() bool {
	today := dateutil.DayString(s.now())
	for _, t := range s.tasks {
		if t.LastCompleted == today {
			return true
		}
	}
	return false
}

// Delete removes a task permanently. Unknown ids are ignored.
func (s *TaskStore) Delete(ctx context.Context, id string) error {
	idx := s.indexOf(id)
	if idx < 0 {
		return nil
	}
	s.tasks = append(s.tasks[:idx], s.tasks[idx+1:]...)
	return s.save(ctx)
}

// Update applies a partial update. Quick-win status and the reward cap are
// re-derived when duration or reward change. Unknown ids are ignored.
func (s *TaskStore) Update(ctx context.Context, id string, in UpdateTaskInput) error {
	idx := s.indexOf(id)
	if idx < 0 {
		return nil
	}
	t := &s.tasks[idx]
	if in.Text != nil {
		t.Text = strings.TrimSpace(*in.Text)
	}
	if in.Category != nil && in.Category.IsValid() {
		t.Category = *in.Category
	}
	if in.Energy != nil && in.Energy.IsValid() {
		t.Energy = *in.Energy
	}
	if in.EstimatedMinutes != nil {
		t.EstimatedMinutes = *in.EstimatedMinutes
	}
	if in.Essential != nil {
		t.Essential = *in.Essential
	}
	if in.XPReward != nil {
		t.XPReward = *in.XPReward
	}
	if in.Recurring != nil {
		t.Recurring = *in.Recurring
	}
	t.QuickWin = IsQuickWin(t.EstimatedMinutes)
	t.XPReward = ClampReward(t.XPReward, t.QuickWin)
	return s.save(ctx)
}

// SetEnergy records today's energy check-in. Invalid levels are ignored.
func (s *TaskStore) SetEnergy(ctx context.Context, level EnergyLevel) error {
	if !level.IsValid() {
		return nil
	}
	s.todayEnergy = level
	return s.save(ctx)
}

// ToggleMVD flips minimum-viable-day mode and returns the new state.
func (s *TaskStore) ToggleMVD(ctx context.Context) (bool, error) {
	s.mvdMode = !s.mvdMode
	if err := s.save(ctx); err != nil {
		return s.mvdMode, err
	}
	return s.mvdMode, nil
}

// ResetDailyIfNeeded runs the once-per-calendar-day rollover: clears the
// energy check-in and MVD mode, and flips recurring completed tasks back to
// incomplete (history and streak counters untouched). Idempotent within a
// day; returns whether a reset actually ran.
func (s *TaskStore) ResetDailyIfNeeded(ctx context.Context) (bool, error) {
	today := dateutil.DayString(s.now())
	if s.lastResetDate == today {
		return false, nil
	}
	s.lastResetDate = today
	s.todayEnergy = ""
	s.mvdMode = false
	for i := range s.tasks {
		if s.tasks[i].Recurring && s.tasks[i].Completed {
			s.tasks[i].Completed = false
			s.tasks[i].CompletedAt = nil
		}
	}
	if err := s.save(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// Visible returns the filtered, sorted task list: essential-only in MVD mode,
// no high-energy tasks on a low-energy day, incomplete before complete
// (stable), then ascending sort order.
func (s *TaskStore) Visible() []Task {
	var filtered []Task
	for _, t := range s.tasks {
		if s.mvdMode {
			if !t.Essential {
				continue
			}
		} else if s.todayEnergy == EnergyLow && t.Energy == EnergyHigh {
			continue
		}
		filtered = append(filtered, t)
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		if filtered[i].Completed != filtered[j].Completed {
			return !filtered[i].Completed
		}
		return filtered[i].SortOrder < filtered[j].SortOrder
	})
	return filtered
}

// All returns every task in insertion order.
func (s *TaskStore) All() []Task {
	out := make([]Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Get returns the task with the given id, or nil.
func (s *TaskStore) Get(id string) *Task {
	idx := s.indexOf(id)
	if idx < 0 {
		return nil
	}
	t := s.tasks[idx]
	return &t
}

// QuickWins returns incomplete quick-win tasks.
func (s *TaskStore) QuickWins() []Task {
	var out []Task
	for _, t := range s.tasks {
		if t.QuickWin && !t.Completed {
			out = append(out, t)
		}
	}
	return out
}

// TodayProgress summarizes completion across the visible set.
func (s *TaskStore) TodayProgress() DayProgress {
	visible := s.Visible()
	done := 0
	for _, t := range visible {
		if t.Completed {
			done++
		}
	}
	total := len(visible)
	pct := 0
	if total > 0 {
		pct = int(float64(done)/float64(total)*100 + 0.5)
	}
	return DayProgress{Done: done, Total: total, Percent: pct}
}

// MVDTimeEstimate sums the remaining minutes of incomplete essential tasks.
func (s *TaskStore) MVDTimeEstimate() int {
	sum := 0
	for _, t := range s.tasks {
		if t.Essential && !t.Completed {
			sum += t.EstimatedMinutes
		}
	}
	return sum
}

func (s *TaskStore) Energy() EnergyLevel { return s.todayEnergy }
func (s *TaskStore) MVDMode() bool       { return s.mvdMode }
func (s *TaskStore) Count() int          { return len(s.tasks) }

func (s *TaskStore) indexOf(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}
