package engine

type EventKind string

const (
	EventTaskComplete    EventKind = "task_complete"
	EventAllTasksDone    EventKind = "all_tasks_done"
	EventStreakMilestone EventKind = "streak_milestone"
	EventLevelUp         EventKind = "level_up"
	EventMVDComplete     EventKind = "mvd_complete"
)

// Event is a transient gameplay milestone queued for sequential display.
// Which payload fields are meaningful depends on Kind: XP for task_complete,
// Count for streak_milestone, Level for level_up.
type Event struct {
	Kind  EventKind
	XP    int
	Count int
	Level Level
}

// Sequencer serializes celebration display: events queue in arrival order and
// surface one at a time. Nothing is persisted; an undismissed queue is lost
// when the process exits.
type Sequencer struct {
	queue   []Event
	current *Event
}

func NewSequencer() *Sequencer {
	return &Sequencer{}
}

// Enqueue appends events, preserving order. A nil-effect call (no events) is
// fine.
func (s *Sequencer) Enqueue(events ...Event) {
	s.queue = append(s.queue, events...)
}

// Current returns the event being displayed, surfacing the next queued event
// if none is active. Returns nil when the queue is drained.
func (s *Sequencer) Current() *Event {
	if s.current == nil && len(s.queue) > 0 {
		e := s.queue[0]
		s.queue = s.queue[1:]
		s.current = &e
	}
	return s.current
}

// Dismiss clears the current slot so the next queued event can surface.
func (s *Sequencer) Dismiss() {
	s.current = nil
}

// Pending returns the number of queued events not yet surfaced.
func (s *Sequencer) Pending() int {
	return len(s.queue)
}

// Drain dismisses through every remaining event and returns them in display
// order. Used by one-shot CLI commands that print celebrations inline.
func (s *Sequencer) Drain() []Event {
	var out []Event
	for {
		e := s.Current()
		if e == nil {
			return out
		}
		out = append(out, *e)
		s.Dismiss()
	}
}
