package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/realQhimself/dopamine-app/internal/dateutil"
	"github.com/realQhimself/dopamine-app/internal/storage"
)

// DayRecord is one calendar day's aggregate outcome, keyed uniquely by date.
type DayRecord struct {
	Date           string      `json:"date"`
	TasksCompleted int         `json:"tasksCompleted"`
	TotalTasks     int         `json:"totalTasks"`
	XPEarned       int         `json:"xpEarned"`
	Energy         EnergyLevel `json:"energyLevel,omitempty"`
	WasMVD         bool        `json:"wasMVD"`
}

// HistoryLimit caps the retained day history; the oldest entries are evicted
// first.
const HistoryLimit = 365

const progressDocVersion = 1

type progressDoc struct {
	Version       int         `json:"version"`
	TotalXP       int         `json:"totalXP"`
	DayHistory    []DayRecord `json:"dayHistory"`
	StreakFreezes int         `json:"streakFreezes"`
}

// ProgressStore owns cumulative XP, the level derived from it, and streak
// computation over the day history.
type ProgressStore struct {
	docs *storage.DocRepo
	now  func() time.Time

	totalXP       int
	dayHistory    []DayRecord
	streakFreezes int
}

func NewProgressStore(docs *storage.DocRepo) *ProgressStore {
	return &ProgressStore{docs: docs, now: time.Now, streakFreezes: 1}
}

func (s *ProgressStore) Load(ctx context.Context) error {
	if s.docs == nil {
		return nil
	}
	doc, err := s.docs.Get(ctx, storage.DocProgress)
	if err != nil {
		return err
	}
	if doc == nil {
		return nil
	}
	var d progressDoc
	if err := json.Unmarshal(doc.Data, &d); err != nil {
		return fmt.Errorf("decode progress document: %w", err)
	}
	s.totalXP = d.TotalXP
	s.dayHistory = d.DayHistory
	s.streakFreezes = d.StreakFreezes
	return nil
}

func (s *ProgressStore) save(ctx context.Context) error {
	if s.docs == nil {
		return nil
	}
	data, err := json.Marshal(progressDoc{
		Version:       progressDocVersion,
		TotalXP:       s.totalXP,
		DayHistory:    s.dayHistory,
		StreakFreezes: s.streakFreezes,
	})
	if err != nil {
		return fmt.Errorf("encode progress document: %w", err)
	}
	return s.docs.Put(ctx, storage.DocProgress, progressDocVersion, data)
}

// AddXP applies a (possibly negative) XP delta and returns a level-up event
// when the derived level strictly increases. Crossing a threshold downward is
// silent: losing XP never announces a demotion.
func (s *ProgressStore) AddXP(ctx context.Context, amount int) ([]Event, error) {
	before := LevelForXP(s.totalXP)
	s.totalXP += amount
	after := LevelForXP(s.totalXP)

	var events []Event
	if after.Level > before.Level {
		events = append(events, Event{Kind: EventLevelUp, Level: after})
	}
	if err := s.save(ctx); err != nil {
		return nil, err
	}
	return events, nil
}

// RecordDay upserts the record for its date and enforces the retention cap.
func (s *ProgressStore) RecordDay(ctx context.Context, rec DayRecord) error {
	replaced := false
	for i := range s.dayHistory {
		if s.dayHistory[i].Date == rec.Date {
			s.dayHistory[i] = rec
			replaced = true
			break
		}
	}
	if !replaced {
		s.dayHistory = append(s.dayHistory, rec)
	}
	if n := len(s.dayHistory); n > HistoryLimit {
		s.dayHistory = s.dayHistory[n-HistoryLimit:]
	}
	return s.save(ctx)
}

func (s *ProgressStore) TotalXP() int { return s.totalXP }

func (s *ProgressStore) CurrentLevel() Level {
	return LevelForXP(s.totalXP)
}

func (s *ProgressStore) NextLevel() (Level, bool) {
	return NextLevelAfter(s.CurrentLevel())
}

// LevelProgress returns the fraction in [0,1] of progress toward the next
// level, or 1 at the top of the ladder.
func (s *ProgressStore) LevelProgress() float64 {
	current := s.CurrentLevel()
	next, ok := NextLevelAfter(current)
	if !ok {
		return 1
	}
	span := float64(next.XPRequired - current.XPRequired)
	progress := float64(s.totalXP-current.XPRequired) / span
	if progress > 1 {
		return 1
	}
	if progress < 0 {
		return 0
	}
	return progress
}

// CurrentStreak walks backward day-by-day counting consecutive days with at
// least one completion. A today with no completions yet doesn't break the
// chain: the walk simply starts from yesterday, since the user may not have
// acted today.
func (s *ProgressStore) CurrentStreak() int {
	if len(s.dayHistory) == 0 {
		return 0
	}
	check := dateutil.DayString(s.now())
	if rec := s.recordFor(check); rec == nil || rec.TasksCompleted == 0 {
		check = dateutil.PreviousDay(check)
	}

	streak := 0
	for {
		rec := s.recordFor(check)
		if rec == nil || rec.TasksCompleted == 0 {
			return streak
		}
		streak++
		check = dateutil.PreviousDay(check)
	}
}

// BestStreak scans the full history in date order tracking the longest run of
// consecutive days with completions. A zero-completion day resets the run; a
// gap of more than one calendar day restarts it at 1.
func (s *ProgressStore) BestStreak() int {
	history := make([]DayRecord, len(s.dayHistory))
	copy(history, s.dayHistory)
	sort.Slice(history, func(i, j int) bool { return history[i].Date < history[j].Date })

	best, run := 0, 0
	lastDate := ""
	for _, rec := range history {
		if rec.TasksCompleted == 0 {
			run = 0
			continue
		}
		if lastDate != "" && dateutil.DaysBetween(lastDate, rec.Date) == 1 {
			run++
		} else {
			run = 1
		}
		if run > best {
			best = run
		}
		lastDate = rec.Date
	}
	return best
}

// TodayXP returns the XP recorded for today, or 0.
func (s *ProgressStore) TodayXP() int {
	if rec := s.recordFor(dateutil.DayString(s.now())); rec != nil {
		return rec.XPEarned
	}
	return 0
}

// TodayRecord returns today's day record, or nil.
func (s *ProgressStore) TodayRecord() *DayRecord {
	return s.recordFor(dateutil.DayString(s.now()))
}

// History returns a copy of the retained day records.
func (s *ProgressStore) History() []DayRecord {
	out := make([]DayRecord, len(s.dayHistory))
	copy(out, s.dayHistory)
	return out
}

func (s *ProgressStore) StreakFreezes() int { return s.streakFreezes }

func (s *ProgressStore) recordFor(date string) *DayRecord {
	for i := range s.dayHistory {
		if s.dayHistory[i].Date == date {
			return &s.dayHistory[i]
		}
	}
	return nil
}
