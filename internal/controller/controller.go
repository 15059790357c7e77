// Package controller implements filmpick's selection workflow.
//
// The Workflow owns every piece of mutable workflow state: the catalog, the
// selection, the current recommendations, the loading flags, and the error
// surface. Nothing else holds references into it; readers get copies through
// Snapshot or through the snapshot stream returned by Subscribe.
//
// # State machine
//
//	Idle -> LoadingCatalog -> CatalogReady <-> Selecting
//	                                 Selecting -> LoadingRecommendations -> RecommendationsReady
//
// An error overlay can attach to any phase. It is replaced by the next
// user-initiated action.
//
// # Concurrency
//
// Workflow is safe for concurrent use. Remote calls run outside the lock, so
// toggling and clearing stay responsive while a request is in flight.
//
// At most one catalog load and one recommendation request run at a time; a
// second trigger returns ErrBusy. Every LoadCatalog starts a new session and
// every selection mutation bumps a revision. A response is applied only if the
// session and revision it was issued under are still current; anything else
// is dropped as stale.
package controller

import (
	"context"
	"errors"

	"github.com/abelbrown/filmpick/internal/film"
)

// User-facing messages attached to Snapshot.Err.
const (
	MsgCatalogLoad    = "could not load films"
	MsgEmptySelection = "select at least one film first"
	MsgRecommendation = "could not get recommendations"
)

var (
	// ErrBusy is returned when the same kind of request is already in flight.
	ErrBusy = errors.New("request already in progress")

	// ErrEmptySelection is returned by RequestRecommendations when nothing is
	// selected. No request is made.
	ErrEmptySelection = errors.New(MsgEmptySelection)

	// ErrStale is returned when a response arrived after the state it was
	// issued for had moved on. The response was discarded.
	ErrStale = errors.New("response superseded")
)

// CatalogSource fetches a batch of random films.
type CatalogSource interface {
	Fetch(ctx context.Context, limit int) ([]film.Film, error)
}

// Recommender ranks films for a selection.
type Recommender interface {
	Recommend(ctx context.Context, titles []string, topN int) ([]film.Film, error)
}

// Phase is the workflow's position in the state machine.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoadingCatalog
	PhaseCatalogReady
	PhaseSelecting
	PhaseLoadingRecommendations
	PhaseRecommendationsReady
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoadingCatalog:
		return "loading-catalog"
	case PhaseCatalogReady:
		return "catalog-ready"
	case PhaseSelecting:
		return "selecting"
	case PhaseLoadingRecommendations:
		return "loading-recommendations"
	case PhaseRecommendationsReady:
		return "recommendations-ready"
	default:
		return "unknown"
	}
}

// ErrKind classifies the error currently attached to the workflow.
type ErrKind string

const (
	ErrKindNone           ErrKind = ""
	ErrKindCapacity       ErrKind = "capacity"
	ErrKindEmptySelection ErrKind = "empty-selection"
	ErrKindCatalogLoad    ErrKind = "catalog-load"
	ErrKindRecommendation ErrKind = "recommendation"
)

// Snapshot is a read-only copy of the workflow state.
type Snapshot struct {
	Phase           Phase
	Films           []film.Film
	Selected        []string // insertion order
	MaxSelected     int
	Recommendations []film.Film
	Loading         bool
	LoadingCatalog  bool
	LoadingRecs     bool
	Err             string
	ErrKind         ErrKind
	Session         uint64
}

// IsSelected reports whether title is in the selection.
func (s Snapshot) IsSelected(title string) bool {
	for _, t := range s.Selected {
		if t == title {
			return true
		}
	}
	return false
}

// CanRequest reports whether a recommendation request would be sent now.
func (s Snapshot) CanRequest() bool {
	return len(s.Selected) > 0 && !s.Loading
}
