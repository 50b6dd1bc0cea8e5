// Package events carries the "something changed, refetch" signal from the
// persistence gateway to connected dashboards.
package events

import (
	"context"
	"time"

	"github.com/gofrs/uuid"
)

type Kind string

const (
	KindTasks    Kind = "tasks"
	KindProjects Kind = "projects"
)

type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

type Event struct {
	Kind   Kind      `json:"kind"`
	Action Action    `json:"action"`
	ID     uuid.UUID `json:"id"`
	At     time.Time `json:"at"`
}

func NewEvent(kind Kind, action Action, id uuid.UUID) Event {
	return Event{Kind: kind, Action: action, ID: id, At: time.Now().UTC()}
}

// Broker fans events out to every live subscriber. Delivery is best effort:
// a subscriber that falls behind misses events rather than blocking Publish.
type Broker interface {
	Publish(ctx context.Context, event Event) error
	// Subscribe returns a channel of events and a function that ends the
	// subscription. The channel is closed once the subscription ends, either
	// through the returned function or when ctx is done.
	Subscribe(ctx context.Context) (<-chan Event, func())
	Close() error
}

const subscriberBuffer = 16
