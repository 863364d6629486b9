package infrastructure

import (
	"fmt"

	"reflector/events"
)

const (
	// StreamName is the JetStream stream holding every published event
	StreamName = "reflect_events"

	// StreamSubjects matches every subject the mapper produces
	StreamSubjects = "reflect.>"
)

// EventSubjectMapper maps bus events to NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// MapEventToSubject returns reflect.games.<type> for game events and reflect.users.<type> otherwise
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	if _, ok := event.(events.GameEvent); ok {
		return fmt.Sprintf("reflect.games.%s", event.Type())
	}
	return fmt.Sprintf("reflect.users.%s", event.Type())
}
