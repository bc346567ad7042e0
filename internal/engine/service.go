package engine

import (
	"context"
	"database/sql"
	"time"

	"github.com/realQhimself/dopamine-app/internal/dateutil"
	"github.com/realQhimself/dopamine-app/internal/storage"
)

// Service composes the stores and runs the cross-store control flow. Stores
// never reach into each other; this is the only place where a task toggle
// turns into XP, day records and celebration events.
type Service struct {
	docs *storage.DocRepo
	now  func() time.Time

	Tasks    *TaskStore
	Progress *ProgressStore
	Settings *SettingsStore
	Events   *Sequencer
}

func NewService(db *sql.DB) *Service {
	return newService(storage.NewDocRepo(db))
}

// NewMemoryService builds a service with no persistence. Tests use it for
// rules-engine behavior that doesn't involve the database.
func NewMemoryService() *Service {
	return newService(nil)
}

func newService(docs *storage.DocRepo) *Service {
	return &Service{
		docs:     docs,
		now:      time.Now,
		Tasks:    NewTaskStore(docs),
		Progress: NewProgressStore(docs),
		Settings: NewSettingsStore(docs),
		Events:   NewSequencer(),
	}
}

// DocRepo exposes the underlying document store (export/import needs it).
func (s *Service) DocRepo() *storage.DocRepo { return s.docs }

// Load hydrates every store, seeds starter tasks on first run, and performs
// the daily rollover. Safe to call at every startup.
func (s *Service) Load(ctx context.Context) error {
	if err := s.Tasks.Load(ctx); err != nil {
		return err
	}
	if err := s.Progress.Load(ctx); err != nil {
		return err
	}
	if err := s.Settings.Load(ctx); err != nil {
		return err
	}

	if !s.Settings.OnboardingComplete() && s.Tasks.Count() == 0 {
		for _, in := range StarterTasks {
			if _, err := s.Tasks.Add(ctx, in); err != nil {
				return err
			}
		}
		if err := s.Settings.CompleteOnboarding(ctx); err != nil {
			return err
		}
	}

	if _, err := s.Tasks.ResetDailyIfNeeded(ctx); err != nil {
		return err
	}
	return nil
}

// ToggleOutcome reports everything a caller needs to render a toggle:
// the raw XP delta, any bonus XP awarded on top, and the celebration events
// that were enqueued.
type ToggleOutcome struct {
	TaskID   string
	XPEarned int
	BonusXP  int
	AllDone  bool
	Events   []Event
}

// ToggleTask flips a task and runs the full gameplay loop around it:
// XP award or retraction, level-up detection, all-done / MVD-complete
// bonuses, the day record upsert, and streak-milestone bonuses. All emitted
// events go through the sequencer in order.
func (s *Service) ToggleTask(ctx context.Context, id string) (*ToggleOutcome, error) {
	today := dateutil.DayString(s.now())
	hadCompletionToday := s.Tasks.CompletedToday()

	res, err := s.Tasks.Toggle(ctx, id)
	if err != nil {
		return nil, err
	}
	out := &ToggleOutcome{TaskID: id, XPEarned: res.XPEarned, AllDone: res.AllDone}
	if res.XPEarned == 0 {
		return out, nil
	}

	if res.XPEarned < 0 {
		// Undo retracts XP silently: no events and no demotion announcement.
		// The day record follows the retraction so its XP stays the day's net.
		if _, err := s.Progress.AddXP(ctx, res.XPEarned); err != nil {
			return nil, err
		}
		prog := s.Tasks.TodayProgress()
		rec := DayRecord{
			Date:           today,
			TasksCompleted: prog.Done,
			TotalTasks:     prog.Total,
			XPEarned:       s.Progress.TodayXP() + res.XPEarned,
			Energy:         s.Tasks.Energy(),
			WasMVD:         s.Tasks.MVDMode(),
		}
		if err := s.Progress.RecordDay(ctx, rec); err != nil {
			return nil, err
		}
		return out, nil
	}

	var events []Event
	events = append(events, Event{Kind: EventTaskComplete, XP: res.XPEarned})

	levelEvents, err := s.Progress.AddXP(ctx, res.XPEarned)
	if err != nil {
		return nil, err
	}
	events = append(events, levelEvents...)
	dayXP := res.XPEarned

	if res.AllDone {
		bonus := XPAllTasksDone
		kind := EventAllTasksDone
		if s.Tasks.MVDMode() {
			bonus = XPMVDComplete
			kind = EventMVDComplete
		}
		out.BonusXP = bonus
		events = append(events, Event{Kind: kind, XP: bonus})
		levelEvents, err = s.Progress.AddXP(ctx, bonus)
		if err != nil {
			return nil, err
		}
		events = append(events, levelEvents...)
		dayXP += bonus
	}

	prog := s.Tasks.TodayProgress()
	rec := DayRecord{
		Date:           today,
		TasksCompleted: prog.Done,
		TotalTasks:     prog.Total,
		XPEarned:       s.Progress.TodayXP() + dayXP,
		Energy:         s.Tasks.Energy(),
		WasMVD:         s.Tasks.MVDMode(),
	}
	if err := s.Progress.RecordDay(ctx, rec); err != nil {
		return nil, err
	}

	// Streak milestones fire at most once per day, when today gains its
	// first completion.
	if !hadCompletionToday && prog.Done > 0 {
		streak := s.Progress.CurrentStreak()
		if bonus, ok := StreakMilestones[streak]; ok {
			events = append(events, Event{Kind: EventStreakMilestone, Count: streak, XP: bonus})
			levelEvents, err = s.Progress.AddXP(ctx, bonus)
			if err != nil {
				return nil, err
			}
			events = append(events, levelEvents...)
			rec.XPEarned += bonus
			if err := s.Progress.RecordDay(ctx, rec); err != nil {
				return nil, err
			}
		}
	}

	s.Events.Enqueue(events...)
	out.Events = events
	return out, nil
}

// setClock is a test hook that pins time across the composed stores.
func (s *Service) setClock(now func() time.Time) {
	s.now = now
	s.Tasks.now = now
	s.Progress.now = now
}
