// Package ui provides the Bubble Tea TUI for filmpick.
package ui

import (
	"github.com/abelbrown/filmpick/internal/controller"
	"github.com/abelbrown/filmpick/internal/pubsub"
)

// WorkflowUpdate carries a snapshot published by the workflow.
type WorkflowUpdate struct {
	Type     pubsub.EventType
	Snapshot controller.Snapshot
}

// ActionDone is sent when a workflow call issued by the UI returns.
type ActionDone struct {
	Op  string // "load" or "recommend"
	Err error
}

// pulseTick advances the recommendations highlight. Seq ties the tick to
// the pulse that scheduled it so an old animation cannot extend a new one.
type pulseTick struct {
	Seq int
}
