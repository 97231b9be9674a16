package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ava-labs/mqlibrary/pkg/keywords"
	"github.com/ava-labs/mqlibrary/pkg/mq"
)

// Status values of an Event.
const (
	StatusPass = "PASS"
	StatusFail = "FAIL"
)

// Event is the JSON record of one keyword call.
type Event struct {
	Time       time.Time `json:"time"`
	Instance   string    `json:"instance,omitempty"`
	Keyword    string    `json:"keyword"`
	Alias      string    `json:"alias,omitempty"`
	Status     string    `json:"status"`
	DurationMS int64     `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
	Reason     int32     `json:"reason,omitempty"` // MQ reason code of a failed call
}

// NewEvent builds the event for call, finished at now.
func NewEvent(call keywords.Call, instance string, now time.Time) Event {
	ev := Event{
		Time:       now.UTC(),
		Instance:   instance,
		Keyword:    call.Keyword,
		Alias:      call.Alias,
		Status:     StatusPass,
		DurationMS: call.Duration.Milliseconds(),
	}
	if call.Err != nil {
		ev.Status = StatusFail
		ev.Error = call.Err.Error()
		if rc, ok := mq.ReasonOf(call.Err); ok {
			ev.Reason = int32(rc)
		}
	}
	return ev
}

// Key is the partitioning key of the event. Events of one alias stay ordered.
func (e Event) Key() []byte {
	if e.Alias == "" {
		return nil
	}
	return []byte(e.Alias)
}

// Marshal encodes the event as JSON.
func (e Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher delivers events to a backend.
type Publisher interface {
	// Publish delivers one event. Implementations may block until the backend
	// confirms delivery.
	Publish(ctx context.Context, ev Event) error

	// Close releases the publisher. Canceling ctx may drop in-flight events.
	Close(ctx context.Context)
}

// NopPublisher discards every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close(context.Context)                {}
