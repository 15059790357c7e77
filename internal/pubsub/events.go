// Package pubsub fans workflow state out to any number of listeners.
package pubsub

import (
	"context"
	"time"
)

// EventType names what changed.
type EventType string

const (
	CatalogLoaded          EventType = "catalog.loaded"
	SelectionChanged       EventType = "selection.changed"
	RecommendationsUpdated EventType = "recommendations.updated"
	StateError             EventType = "state.error"
	PhaseChanged           EventType = "phase.changed"
)

// Event is a published payload with its type and publish time.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}

// Subscriber hands out subscription channels.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}
