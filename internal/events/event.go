package events

import (
	"context"
	"time"
)

// EventType names what happened; it is also the suffix of the kafka topic.
type EventType string

const (
	EventTypeSessionLogged    EventType = "session.logged"
	EventTypeMasteryLeveledUp EventType = "mastery.leveled_up"
)

const (
	defaultTopicPrefix = "calispro."
	headerEventType    = "event_type"
)

func (et EventType) String() string {
	return string(et)
}

func (et EventType) IsValid() bool {
	switch et {
	case EventTypeSessionLogged, EventTypeMasteryLeveledUp:
		return true
	default:
		return false
	}
}

type Event struct {
	Type       EventType `json:"type"`
	UserID     string    `json:"userId"`
	OccurredAt time.Time `json:"occurredAt"`
	Payload    any       `json:"payload"`
}

type SessionLogged struct {
	HistoryID   string `json:"historyId"`
	SessionType string `json:"sessionType"`
	XPGained    int    `json:"xpGained"`
	Duration    int    `json:"durationActual"`
}

type MasteryLeveledUp struct {
	Skill    string `json:"skill"`
	NewLevel int    `json:"newLevel"`
	Points   int    `json:"currentPoints"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Noop drops every event. Used when no brokers are configured.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                         { return nil }
