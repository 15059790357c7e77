package controller

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/abelbrown/filmpick/internal/film"
	"github.com/abelbrown/filmpick/internal/logging"
	"github.com/abelbrown/filmpick/internal/otel"
	"github.com/abelbrown/filmpick/internal/pubsub"
	"github.com/abelbrown/filmpick/internal/selection"
)

// Config bounds the workflow. Zero fields take the defaults.
type Config struct {
	CatalogLimit int // films per catalog batch; default 30
	MaxSelected  int // selection capacity; default 10
	TopN         int // recommendations requested; default 10
}

// DefaultConfig returns the standard limits.
func DefaultConfig() Config {
	return Config{CatalogLimit: 30, MaxSelected: selection.DefaultMax, TopN: 10}
}

// Option customizes a Workflow.
type Option func(*Workflow)

// WithLogger sets the diagnostic logger.
func WithLogger(l *log.Logger) Option {
	return func(w *Workflow) { w.log = l }
}

// WithEvents sets the event log.
func WithEvents(e *otel.Logger) Option {
	return func(w *Workflow) { w.events = e }
}

// WithBroker publishes snapshots on b instead of a private broker.
func WithBroker(b *pubsub.Broker[Snapshot]) Option {
	return func(w *Workflow) { w.broker = b }
}

// Workflow is the selection and recommendation state machine.
type Workflow struct {
	catalog     CatalogSource
	recommender Recommender
	cfg         Config
	broker      *pubsub.Broker[Snapshot]
	log         *log.Logger
	events      *otel.Logger

	mu             sync.Mutex
	phase          Phase
	films          []film.Film
	sel            *selection.Set
	recs           []film.Film
	loadingCatalog bool
	loadingRecs    bool
	errMsg         string
	errKind        ErrKind
	session        uint64 // bumped by every LoadCatalog
	revision       uint64 // bumped by every selection mutation
}

// New creates a Workflow in the Idle phase.
func New(catalog CatalogSource, recommender Recommender, cfg Config, opts ...Option) *Workflow {
	def := DefaultConfig()
	if cfg.CatalogLimit <= 0 {
		cfg.CatalogLimit = def.CatalogLimit
	}
	if cfg.MaxSelected <= 0 {
		cfg.MaxSelected = def.MaxSelected
	}
	if cfg.TopN <= 0 {
		cfg.TopN = def.TopN
	}

	w := &Workflow{
		catalog:     catalog,
		recommender: recommender,
		cfg:         cfg,
		phase:       PhaseIdle,
		films:       []film.Film{},
		sel:         selection.New(cfg.MaxSelected),
		recs:        []film.Film{},
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.broker == nil {
		w.broker = pubsub.NewBroker[Snapshot]()
	}
	if w.log == nil {
		w.log = logging.WithPrefix("workflow")
	}
	return w
}

// Config returns the effective limits.
func (w *Workflow) Config() Config {
	return w.cfg
}

// LoadCatalog fetches a new catalog batch. On completion the catalog is
// replaced and the selection, recommendations and error are cleared. A failed
// fetch leaves an empty catalog plus an error message; the fetch error is also
// returned. Returns ErrBusy if a load is already running.
func (w *Workflow) LoadCatalog(ctx context.Context) error {
	w.mu.Lock()
	if w.loadingCatalog {
		w.mu.Unlock()
		return ErrBusy
	}
	// Only one load runs at a time, so the session cannot move before the
	// response is applied.
	w.session++
	gen := w.session
	w.loadingCatalog = true
	w.phase = PhaseLoadingCatalog
	w.clearErrorLocked()
	w.publishLocked(pubsub.PhaseChanged)
	w.mu.Unlock()

	start := time.Now()
	films, err := w.catalog.Fetch(ctx, w.cfg.CatalogLimit)

	w.mu.Lock()
	defer w.mu.Unlock()

	w.loadingCatalog = false
	w.films = film.CloneAll(films)
	w.sel.Clear()
	w.revision++
	w.recs = []film.Film{}
	w.phase = PhaseCatalogReady

	if err != nil {
		w.films = []film.Film{}
		w.setErrorLocked(ErrKindCatalogLoad, MsgCatalogLoad)
		w.log.Error("catalog load failed", "err", err, "gen", gen, "dur", time.Since(start))
		w.publishLocked(pubsub.StateError)
		return err
	}

	w.log.Info("catalog loaded", "films", len(w.films), "gen", gen)
	w.publishLocked(pubsub.CatalogLoaded)
	return nil
}

// ToggleSelect adds title to the selection or removes it. Any current
// recommendations and error are cleared first. At capacity the selection is
// left unchanged and the capacity error is both attached and returned.
func (w *Workflow) ToggleSelect(title string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.recs = []film.Film{}
	w.clearErrorLocked()

	added, err := w.sel.Toggle(title)
	if err != nil {
		// The selection is unchanged, so an in-flight request stays valid
		// and keeps its phase.
		if !w.loadingRecs {
			w.settlePhaseLocked()
		}
		w.setErrorLocked(ErrKindCapacity, err.Error())
		w.events.Emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindSelectionCapacity, Comp: "controller", Gen: w.session, Title: title, Count: w.sel.Max()})
		w.publishLocked(pubsub.StateError)
		return err
	}

	w.revision++
	w.settlePhaseLocked()
	w.events.Emit(otel.Event{
		Level: otel.LevelDebug, Kind: otel.KindSelectionToggle, Comp: "controller",
		Gen: w.session, Title: title, Count: w.sel.Len(),
		Extra: map[string]any{"added": added},
	})
	w.publishLocked(pubsub.SelectionChanged)
	return nil
}

// RequestRecommendations asks the recommender about the current selection.
// With an empty selection it attaches an error and returns ErrEmptySelection
// without making a request. Returns ErrBusy while a catalog load or another
// recommendation request is running, and ErrStale if the selection or
// session changed before the response arrived.
func (w *Workflow) RequestRecommendations(ctx context.Context) error {
	w.mu.Lock()
	if w.loadingRecs || w.loadingCatalog {
		w.mu.Unlock()
		return ErrBusy
	}
	if w.sel.Len() == 0 {
		w.setErrorLocked(ErrKindEmptySelection, MsgEmptySelection)
		w.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindSelectionEmpty, Comp: "controller", Gen: w.session})
		w.publishLocked(pubsub.StateError)
		w.mu.Unlock()
		return ErrEmptySelection
	}
	gen, rev := w.session, w.revision
	titles := w.sel.Titles()
	w.loadingRecs = true
	w.phase = PhaseLoadingRecommendations
	w.clearErrorLocked()
	w.publishLocked(pubsub.PhaseChanged)
	w.mu.Unlock()

	start := time.Now()
	recs, err := w.recommender.Recommend(ctx, titles, w.cfg.TopN)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.loadingRecs = false

	if gen != w.session || rev != w.revision {
		w.log.Debug("dropping stale recommendations", "gen", gen, "session", w.session, "rev", rev, "revision", w.revision)
		w.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindRecommendStale, Comp: "controller", Gen: gen, Count: len(recs), Dur: time.Since(start)})
		w.publishLocked(pubsub.PhaseChanged)
		return ErrStale
	}

	if err != nil {
		w.recs = []film.Film{}
		w.phase = PhaseSelecting
		w.setErrorLocked(ErrKindRecommendation, MsgRecommendation)
		w.log.Error("recommendation request failed", "err", err, "selected", len(titles))
		w.publishLocked(pubsub.StateError)
		return err
	}

	w.recs = film.CloneAll(recs)
	w.phase = PhaseRecommendationsReady
	w.log.Info("recommendations updated", "count", len(w.recs), "selected", len(titles))
	w.publishLocked(pubsub.RecommendationsUpdated)
	return nil
}

// ClearSelection empties the selection and recommendations and clears any
// error. The catalog is untouched. An in-flight recommendation request
// becomes stale.
func (w *Workflow) ClearSelection() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.sel.Clear()
	w.revision++
	w.recs = []film.Film{}
	w.clearErrorLocked()
	w.settlePhaseLocked()
	w.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindSelectionClear, Comp: "controller", Gen: w.session})
	w.publishLocked(pubsub.SelectionChanged)
}

// Snapshot returns a copy of the current state.
func (w *Workflow) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshotLocked()
}

// Subscribe streams a snapshot after every state change until ctx is done.
func (w *Workflow) Subscribe(ctx context.Context) <-chan pubsub.Event[Snapshot] {
	return w.broker.Subscribe(ctx)
}

// Close ends every subscription.
func (w *Workflow) Close() {
	w.broker.Close()
}

func (w *Workflow) snapshotLocked() Snapshot {
	return Snapshot{
		Phase:           w.phase,
		Films:           film.CloneAll(w.films),
		Selected:        w.sel.Titles(),
		MaxSelected:     w.sel.Max(),
		Recommendations: film.CloneAll(w.recs),
		Loading:         w.loadingCatalog || w.loadingRecs,
		LoadingCatalog:  w.loadingCatalog,
		LoadingRecs:     w.loadingRecs,
		Err:             w.errMsg,
		ErrKind:         w.errKind,
		Session:         w.session,
	}
}

func (w *Workflow) publishLocked(t pubsub.EventType) {
	w.broker.Publish(t, w.snapshotLocked())
}

// settlePhaseLocked moves to the ready phase matching the selection after a
// selection mutation. A running catalog load keeps its phase. A running
// recommendation request does not, since the mutation has made it stale.
func (w *Workflow) settlePhaseLocked() {
	switch {
	case w.loadingCatalog:
	case w.sel.Len() == 0 && w.session == 0:
		w.phase = PhaseIdle
	case w.sel.Len() > 0:
		w.phase = PhaseSelecting
	default:
		w.phase = PhaseCatalogReady
	}
}

func (w *Workflow) setErrorLocked(kind ErrKind, msg string) {
	w.errKind = kind
	w.errMsg = msg
}

func (w *Workflow) clearErrorLocked() {
	w.errKind = ErrKindNone
	w.errMsg = ""
}

// IsBusy reports whether err is ErrBusy.
func IsBusy(err error) bool {
	return errors.Is(err, ErrBusy)
}
