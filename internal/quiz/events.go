package quiz

import (
	"context"

	"taqneeq-quiz/internal/models"
)

// EventKind names a lifecycle event.
type EventKind string

const (
	EventStarted       EventKind = "started"
	EventQuestionReady EventKind = "questionReady"
	EventCompleted     EventKind = "completed"
	EventFailed        EventKind = "failed"
	EventOffline       EventKind = "offline"
)

// Event carries the snapshot taken at the moment the event fired.
type Event struct {
	Kind     EventKind
	Snapshot Snapshot
}

// Observer receives lifecycle events synchronously, outside the controller's lock.
type Observer interface {
	OnEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) OnEvent(e Event) { f(e) }

type nopObserver struct{}

func (nopObserver) OnEvent(Event) {}

// Commander is the command surface handed to presentation code.
type Commander interface {
	Start(ctx context.Context) error
	SubmitAnswer(ctx context.Context, answer models.Answer) error
	Restart(ctx context.Context, autoStart bool) error
}

// Session is a Commander whose state can be read back.
type Session interface {
	Commander
	Snapshot() Snapshot
}
