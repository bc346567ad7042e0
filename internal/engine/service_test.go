package engine

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/realQhimself/dopamine-app/internal/storage"
)

func newTestService(t *testing.T) (*Service, func()) {
	t.Helper()
	ctx := context.Background()

	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")
	db, err := storage.Open(ctx, path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	svc := NewService(db)
	cleanup := func() {
		_ = db.Close()
	}
	return svc, cleanup
}

func TestToggleAwardsXPAndEnqueuesEvent(t *testing.T) {
	ctx := context.Background()
	svc := NewMemoryService()

	task, _ := svc.Tasks.Add(ctx, AddTaskInput{Text: "inbox zero", EstimatedMinutes: 20})
	svc.Tasks.Add(ctx, AddTaskInput{Text: "water plants", EstimatedMinutes: 5})
	out, err := svc.ToggleTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("ToggleTask: %v", err)
	}
	if out.XPEarned != XPTaskComplete {
		t.Fatalf("XPEarned=%d, want %d", out.XPEarned, XPTaskComplete)
	}
	if svc.Progress.TotalXP() != XPTaskComplete {
		t.Fatalf("TotalXP=%d, want %d", svc.Progress.TotalXP(), XPTaskComplete)
	}

	cur := svc.Events.Current()
	if cur == nil || cur.Kind != EventTaskComplete || cur.XP != XPTaskComplete {
		t.Fatalf("current event=%v, want task_complete with XP", cur)
	}

	rec := svc.Progress.TodayRecord()
	if rec == nil || rec.TasksCompleted != 1 || rec.XPEarned != XPTaskComplete {
		t.Fatalf("today record=%+v, want 1 task / %d XP", rec, XPTaskComplete)
	}
}

func TestToggleUndoRetractsXPSilently(t *testing.T) {
	ctx := context.Background()
	svc := NewMemoryService()

	task, _ := svc.Tasks.Add(ctx, AddTaskInput{Text: "dishes", EstimatedMinutes: 15})
	svc.Tasks.Add(ctx, AddTaskInput{Text: "laundry", EstimatedMinutes: 30})
	svc.ToggleTask(ctx, task.ID)
	svc.Events.Drain()

	out, err := svc.ToggleTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("ToggleTask: %v", err)
	}
	if out.XPEarned != -XPTaskComplete {
		t.Fatalf("undo XPEarned=%d, want %d", out.XPEarned, -XPTaskComplete)
	}
	if svc.Progress.TotalXP() != 0 {
		t.Fatalf("TotalXP=%d after undo, want 0", svc.Progress.TotalXP())
	}
	if len(out.Events) != 0 || svc.Events.Current() != nil {
		t.Fatal("undo must not emit celebration events")
	}
	// The day record nets out; task-level completion history does not.
	rec := svc.Progress.TodayRecord()
	if rec == nil || rec.XPEarned != 0 || rec.TasksCompleted != 0 {
		t.Fatalf("today record=%+v after undo, want 0 XP / 0 completed", rec)
	}
	if got := svc.Tasks.Get(task.ID); got == nil || len(got.CompletedDates) != 1 {
		t.Fatalf("completion history=%+v, want today retained", got)
	}
}

func TestToggleCycleKeepsDayRecordNet(t *testing.T) {
	ctx := context.Background()
	svc := NewMemoryService()

	task, _ := svc.Tasks.Add(ctx, AddTaskInput{Text: "dishes", EstimatedMinutes: 15})
	svc.Tasks.Add(ctx, AddTaskInput{Text: "laundry", EstimatedMinutes: 30})

	svc.ToggleTask(ctx, task.ID)
	svc.ToggleTask(ctx, task.ID)
	svc.ToggleTask(ctx, task.ID)

	if svc.Progress.TotalXP() != XPTaskComplete {
		t.Fatalf("TotalXP=%d, want %d", svc.Progress.TotalXP(), XPTaskComplete)
	}
	rec := svc.Progress.TodayRecord()
	if rec == nil || rec.XPEarned != XPTaskComplete {
		t.Fatalf("today record=%+v, want net %d XP", rec, XPTaskComplete)
	}
	if rec.TasksCompleted != 1 {
		t.Fatalf("TasksCompleted=%d, want 1", rec.TasksCompleted)
	}
}

func TestAllTasksDoneBonus(t *testing.T) {
	ctx := context.Background()
	svc := NewMemoryService()

	a, _ := svc.Tasks.Add(ctx, AddTaskInput{Text: "a", EstimatedMinutes: 10})
	b, _ := svc.Tasks.Add(ctx, AddTaskInput{Text: "b", EstimatedMinutes: 10})

	out, _ := svc.ToggleTask(ctx, a.ID)
	if out.AllDone || out.BonusXP != 0 {
		t.Fatalf("first toggle outcome=%+v, want no bonus yet", out)
	}

	out, _ = svc.ToggleTask(ctx, b.ID)
	if !out.AllDone {
		t.Fatal("completing the last visible task should report AllDone")
	}
	if out.BonusXP != XPAllTasksDone {
		t.Fatalf("BonusXP=%d, want %d", out.BonusXP, XPAllTasksDone)
	}
	want := 2*XPTaskComplete + XPAllTasksDone
	if svc.Progress.TotalXP() != want {
		t.Fatalf("TotalXP=%d, want %d", svc.Progress.TotalXP(), want)
	}

	var sawBonus bool
	for _, ev := range svc.Events.Drain() {
		if ev.Kind == EventAllTasksDone {
			sawBonus = true
		}
	}
	if !sawBonus {
		t.Fatal("expected an all_tasks_done event")
	}
}

func TestMVDCompleteBonus(t *testing.T) {
	ctx := context.Background()
	svc := NewMemoryService()

	essential, _ := svc.Tasks.Add(ctx, AddTaskInput{Text: "meds", EstimatedMinutes: 1, Essential: true})
	svc.Tasks.Add(ctx, AddTaskInput{Text: "stretch goal", EstimatedMinutes: 60})
	svc.Tasks.ToggleMVD(ctx)

	out, err := svc.ToggleTask(ctx, essential.ID)
	if err != nil {
		t.Fatalf("ToggleTask: %v", err)
	}
	if !out.AllDone {
		t.Fatal("MVD mode: completing all essentials should report AllDone")
	}
	if out.BonusXP != XPMVDComplete {
		t.Fatalf("BonusXP=%d, want the MVD bonus %d", out.BonusXP, XPMVDComplete)
	}

	var sawMVD bool
	for _, ev := range svc.Events.Drain() {
		if ev.Kind == EventMVDComplete {
			sawMVD = true
		}
	}
	if !sawMVD {
		t.Fatal("expected an mvd_complete event")
	}
}

func TestStreakMilestoneFiresOncePerDay(t *testing.T) {
	ctx := context.Background()
	svc := NewMemoryService()
	svc.setClock(fixedClock(time.Date(2024, 6, 12, 9, 0, 0, 0, time.Local)))

	// Two consecutive prior days put today's completion at a 3-day streak.
	svc.Progress.RecordDay(ctx, DayRecord{Date: "2024-06-10", TasksCompleted: 1})
	svc.Progress.RecordDay(ctx, DayRecord{Date: "2024-06-11", TasksCompleted: 2})

	a, _ := svc.Tasks.Add(ctx, AddTaskInput{Text: "a", EstimatedMinutes: 10})
	b, _ := svc.Tasks.Add(ctx, AddTaskInput{Text: "b", EstimatedMinutes: 10})
	c, _ := svc.Tasks.Add(ctx, AddTaskInput{Text: "c", EstimatedMinutes: 10})

	out, err := svc.ToggleTask(ctx, a.ID)
	if err != nil {
		t.Fatalf("ToggleTask: %v", err)
	}
	var milestone *Event
	for i := range out.Events {
		if out.Events[i].Kind == EventStreakMilestone {
			milestone = &out.Events[i]
		}
	}
	if milestone == nil || milestone.Count != 3 {
		t.Fatalf("events=%v, want a 3-day streak milestone", out.Events)
	}
	if svc.Progress.TotalXP() != XPTaskComplete+StreakMilestones[3] {
		t.Fatalf("TotalXP=%d, want task XP plus the milestone bonus", svc.Progress.TotalXP())
	}

	// Later completions the same day must not re-fire the milestone.
	out, _ = svc.ToggleTask(ctx, b.ID)
	for _, ev := range out.Events {
		if ev.Kind == EventStreakMilestone {
			t.Fatal("milestone fired twice in one day")
		}
	}
	out, _ = svc.ToggleTask(ctx, c.ID)
	for _, ev := range out.Events {
		if ev.Kind == EventStreakMilestone {
			t.Fatal("milestone fired twice in one day")
		}
	}

	// Undoing and redoing a completion must not re-fire it either.
	svc.ToggleTask(ctx, a.ID)
	out, _ = svc.ToggleTask(ctx, a.ID)
	for _, ev := range out.Events {
		if ev.Kind == EventStreakMilestone {
			t.Fatal("milestone fired again after an undo")
		}
	}
}

func TestLoadSeedsOnceAndPersists(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "seed.db")

	db, err := storage.Open(ctx, path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	svc := NewService(db)
	if err := svc.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if svc.Tasks.Count() != len(StarterTasks) {
		t.Fatalf("seeded %d tasks, want %d", svc.Tasks.Count(), len(StarterTasks))
	}
	if !svc.Settings.OnboardingComplete() {
		t.Fatal("seeding should complete onboarding")
	}
	first := svc.Tasks.All()[0]
	svc.ToggleTask(ctx, first.ID)
	db.Close()

	// Reopen: no re-seed, state intact.
	db, err = storage.Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen db: %v", err)
	}
	defer db.Close()
	svc2 := NewService(db)
	if err := svc2.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if svc2.Tasks.Count() != len(StarterTasks) {
		t.Fatalf("after reopen count=%d, want %d (no re-seed)", svc2.Tasks.Count(), len(StarterTasks))
	}
	if !svc2.Tasks.Get(first.ID).Completed {
		t.Fatal("completion should survive a restart")
	}
	if svc2.Progress.TotalXP() != first.XPReward {
		t.Fatalf("TotalXP=%d after reopen, want %d", svc2.Progress.TotalXP(), first.XPReward)
	}
}

func TestDailyResetOnLoad(t *testing.T) {
	svc, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	day1 := time.Date(2024, 6, 10, 9, 0, 0, 0, time.Local)
	svc.setClock(fixedClock(day1))
	if err := svc.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	svc.Tasks.SetEnergy(ctx, EnergyHigh)

	svc.setClock(fixedClock(day1.AddDate(0, 0, 1)))
	if err := svc.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if svc.Tasks.Energy() != "" {
		t.Fatalf("energy=%q after next-day load, want cleared", svc.Tasks.Energy())
	}
}
