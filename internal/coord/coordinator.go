// Package coord bridges the workflow into a running Bubble Tea program.
package coord

import (
	"context"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/abelbrown/filmpick/internal/controller"
	"github.com/abelbrown/filmpick/internal/logging"
	"github.com/abelbrown/filmpick/internal/pubsub"
	"github.com/abelbrown/filmpick/internal/ui"
)

// loadTimeout bounds the initial catalog load.
const loadTimeout = 30 * time.Second

// workflow is the part of the controller the coordinator drives.
type workflow interface {
	pubsub.Subscriber[controller.Snapshot]
	LoadCatalog(ctx context.Context) error
}

// sender delivers messages into the program. *tea.Program satisfies it.
type sender interface {
	Send(msg tea.Msg)
}

// Coordinator forwards workflow snapshots to the program and performs the
// initial catalog load.
// Uses context cancellation as the ONLY stop mechanism.
type Coordinator struct {
	wf  workflow
	log *log.Logger
	wg  sync.WaitGroup
}

// New creates a Coordinator for wf.
func New(wf workflow) *Coordinator {
	return &Coordinator{wf: wf, log: logging.WithPrefix("coord")}
}

// Start runs the coordinator in the background. Call with a cancellable
// context.
func (c *Coordinator) Start(ctx context.Context, program sender) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		_ = c.Run(ctx, program)
	}()
}

// Wait blocks until the background goroutine exits.
// Call after canceling the context passed to Start.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// Run subscribes to the workflow, triggers the first catalog load and
// forwards every snapshot as a ui.WorkflowUpdate until ctx is done or the
// workflow closes. It never fails: load errors reach the UI through the
// snapshot.
func (c *Coordinator) Run(ctx context.Context, program sender) error {
	// Subscribe before loading so the load's own transitions are delivered.
	events := c.wf.Subscribe(ctx)

	var g errgroup.Group
	g.Go(func() error {
		c.forward(ctx, events, program)
		return nil
	})
	g.Go(func() error {
		c.initialLoad(ctx, program)
		return nil // never fail the group
	})
	return g.Wait()
}

func (c *Coordinator) forward(ctx context.Context, events <-chan pubsub.Event[controller.Snapshot], program sender) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if program != nil {
				program.Send(ui.WorkflowUpdate{Type: ev.Type, Snapshot: ev.Payload})
			}
		}
	}
}

func (c *Coordinator) initialLoad(ctx context.Context, program sender) {
	loadCtx, cancel := context.WithTimeout(ctx, loadTimeout)
	defer cancel()

	err := c.wf.LoadCatalog(loadCtx)
	switch {
	case err == nil:
	case controller.IsBusy(err):
		c.log.Debug("initial load skipped, a load is already running")
	case ctx.Err() != nil:
		return
	default:
		c.log.Warn("initial catalog load failed", "err", err)
	}

	// Handle nil program gracefully for testing
	if program != nil {
		program.Send(ui.ActionDone{Op: "load", Err: err})
	}
}
