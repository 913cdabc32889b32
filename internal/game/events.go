package game

import (
	"time"
)

// EventType discriminates game events.
type EventType string

const (
	EventGameStarted   EventType = "game-started"
	EventStoryReady    EventType = "story-ready"
	EventQuestionAsked EventType = "question-asked"
	EventAnswerGiven   EventType = "answer-given"
	EventStateChanged  EventType = "state-changed"
	EventGameEnded     EventType = "game-ended"
	EventError         EventType = "error"
	EventIntervention  EventType = "intervention-applied"
	EventLogLine       EventType = "log-line"
)

// Event is a notification published by the orchestrator. Events are
// ephemeral: they are handed to each subscriber once, in publish order, and
// never persisted.
type Event struct {
	Type      EventType
	Payload   map[string]any
	Timestamp time.Time
	Message   string
}

// Observer receives game events. Handlers run synchronously on the
// publishing goroutine and must not mutate payload contents.
type Observer interface {
	OnEvent(Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Event)

// OnEvent calls f(ev).
func (f ObserverFunc) OnEvent(ev Event) { f(ev) }
