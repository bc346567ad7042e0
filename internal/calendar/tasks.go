package calendar

import (
	"fmt"
	"time"

	"github.com/realQhimself/dopamine-app/internal/engine"
)

// TaskIDPrefix marks a task as derived from a calendar event. Such tasks are
// read-only overlays: they never persist and never earn XP.
const TaskIDPrefix = "gcal-"

// IsCalendarTask reports whether a task id belongs to a calendar-derived task.
func IsCalendarTask(id string) bool {
	return len(id) >= len(TaskIDPrefix) && id[:len(TaskIDPrefix)] == TaskIDPrefix
}

// TasksFromEvents projects synced events into display-only tasks. Negative
// sort order keeps them above user tasks in any ordered view, and they are
// non-essential so minimum-day mode hides them.
func TasksFromEvents(events []Event) []engine.Task {
	tasks := make([]engine.Task, 0, len(events))
	for i, ev := range events {
		text := ev.Summary
		if text == "" {
			text = "(untitled event)"
		}
		if !ev.AllDay {
			text = fmt.Sprintf("%s (%s)", text, ev.StartTime().Format("15:04"))
		}
		minutes := ev.DurationMinutes()
		if ev.AllDay {
			minutes = 0
		}
		tasks = append(tasks, engine.Task{
			ID:               TaskIDPrefix + ev.ID,
			Text:             text,
			Category:         engine.CategoryCalendar,
			Energy:           engine.DefaultEnergy,
			EstimatedMinutes: minutes,
			Essential:        false,
			XPReward:         0,
			CreatedAt:        ev.StartTime(),
			SortOrder:        -len(events) + i,
		})
	}
	return tasks
}

// EventWindow returns the start and end times to use when pushing a task to
// the calendar. Tasks with no estimate get a 30 minute block.
func EventWindow(start time.Time, estimatedMinutes int) (time.Time, time.Time) {
	if estimatedMinutes <= 0 {
		estimatedMinutes = 30
	}
	return start, start.Add(time.Duration(estimatedMinutes) * time.Minute)
}
