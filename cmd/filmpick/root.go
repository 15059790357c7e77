package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/abelbrown/filmpick/internal/config"
	"github.com/abelbrown/filmpick/internal/controller"
	"github.com/abelbrown/filmpick/internal/coord"
	"github.com/abelbrown/filmpick/internal/fetch"
	"github.com/abelbrown/filmpick/internal/logging"
	"github.com/abelbrown/filmpick/internal/otel"
	"github.com/abelbrown/filmpick/internal/ui"
)

// ringSize is how many recent events the debug overlay can show.
const ringSize = 512

// options holds the persistent flags shared by every command.
type options struct {
	configPath  string
	baseURL     string
	limit       int
	maxSelected int
	topN        int
	debug       bool
	events      bool
}

func newRootCmd() *cobra.Command {
	o := &options{}
	root := &cobra.Command{
		Use:   "filmpick",
		Short: "Pick films you like and get recommendations",
		Long: `filmpick shows a random batch of films from the recommendation backend.
Select up to ten you like and ask for a ranked list of similar films.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(cmd, o)
		},
	}

	o.bind(root.PersistentFlags())

	root.AddCommand(newRandomCmd(o), newRecommendCmd(o), newEventsCmd(o))
	return root
}

func (o *options) bind(flags *pflag.FlagSet) {
	flags.StringVarP(&o.configPath, "config", "c", "",
		"config file (default: ~/.filmpick/config.yaml)")
	flags.StringVar(&o.baseURL, "base-url", "",
		"backend base URL (overrides API_BASE_URL)")
	flags.IntVar(&o.limit, "limit", 0, "films per catalog batch")
	flags.IntVar(&o.maxSelected, "max-selected", 0, "maximum number of selected films")
	flags.IntVar(&o.topN, "top-n", 0, "number of recommendations to request")
	flags.BoolVar(&o.debug, "debug", false, "log at debug level")
	flags.BoolVar(&o.events, "events", false, "write the JSONL event log")
}

// overrides maps the flags the user actually set onto config keys.
func (o *options) overrides(cmd *cobra.Command) map[string]any {
	flags := cmd.Flags()
	ov := make(map[string]any)
	if flags.Changed("base-url") {
		ov["api.base_url"] = o.baseURL
	}
	if flags.Changed("limit") {
		ov["workflow.catalog_limit"] = o.limit
	}
	if flags.Changed("max-selected") {
		ov["workflow.max_selected"] = o.maxSelected
	}
	if flags.Changed("top-n") {
		ov["workflow.top_n"] = o.topN
	}
	if o.debug {
		ov["log.level"] = "debug"
	}
	if flags.Changed("events") {
		ov["log.events"] = o.events
	}
	return ov
}

// setup loads the configuration and starts file logging. The returned
// cleanup closes the log file.
func setup(cmd *cobra.Command, o *options) (*config.Config, func(), error) {
	cfg, err := config.Load(config.LoadOptions{Path: o.configPath, Overrides: o.overrides(cmd)})
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {}
	if err := logging.Init(cfg.Log.Dir, cfg.Log.Level); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: logging disabled: %v\n", err)
	} else {
		cleanup = logging.Close
	}

	if cfg.API.BaseURL == "" {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning: no backend base URL configured (set API_BASE_URL or --base-url)")
		logging.Warn("backend base URL is empty")
	}
	return cfg, cleanup, nil
}

// openEvents returns the event logger. Without --events it only feeds ring.
func openEvents(cfg *config.Config, ring *otel.RingBuffer) (*otel.Logger, func(), error) {
	if !cfg.Log.Events {
		l := otel.NewNullLogger()
		l.SetRingBuffer(ring)
		return l, l.Close, nil
	}

	f, err := os.OpenFile(cfg.Log.EventsPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open event log: %w", err)
	}
	l := otel.NewLogger(f)
	l.SetRingBuffer(ring)
	return l, func() {
		l.Close()
		f.Close()
	}, nil
}

func newClient(cfg *config.Config, events *otel.Logger) *fetch.Client {
	return fetch.NewClient(fetch.Options{
		BaseURL:           cfg.API.BaseURL,
		Timeout:           cfg.API.Timeout,
		RequestsPerSecond: cfg.API.RequestsPerSecond,
		Burst:             cfg.API.Burst,
		BreakerFailures:   cfg.API.BreakerFailures,
		BreakerCooldown:   cfg.API.BreakerCooldown,
		Logger:            logging.WithPrefix("fetch"),
		Events:            events,
	})
}

func newWorkflow(cfg *config.Config, events *otel.Logger) *controller.Workflow {
	client := newClient(cfg, events)
	return controller.New(
		fetch.NewCatalogLoader(client, cfg.API.CatalogPaths...),
		fetch.NewRecommendationClient(client, cfg.API.RecommendPath),
		controller.Config{
			CatalogLimit: cfg.Workflow.CatalogLimit,
			MaxSelected:  cfg.Workflow.MaxSelected,
			TopN:         cfg.Workflow.TopN,
		},
		controller.WithLogger(logging.WithPrefix("controller")),
		controller.WithEvents(events),
	)
}

func runApp(cmd *cobra.Command, o *options) error {
	cfg, cleanup, err := setup(cmd, o)
	if err != nil {
		return err
	}
	defer cleanup()

	// Query the terminal background before the program owns stdin, otherwise
	// the OSC 11 reply can leak into the input loop.
	_ = lipgloss.HasDarkBackground()

	ring := otel.NewRingBuffer(ringSize)
	events, closeEvents, err := openEvents(cfg, ring)
	if err != nil {
		return err
	}
	defer closeEvents()
	events.Info(otel.KindStartup, "main", "filmpick "+version)

	wf := newWorkflow(cfg, events)
	defer wf.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	app := ui.NewAppWithConfig(ui.AppConfig{
		Context:  ctx,
		Workflow: wf,
		Obs:      ui.ObsConfig{Ring: ring, Events: events},
	})
	program := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	coordinator := coord.New(wf)
	coordinator.Start(ctx, program)

	// Run UI (blocks until quit)
	_, err = program.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		events.Error(otel.KindError, "main", err)
		err = fmt.Errorf("running program: %w", err)
	} else {
		err = nil
	}

	// Graceful shutdown
	cancel()
	coordinator.Wait()
	events.Info(otel.KindShutdown, "main", "filmpick exiting")
	return err
}

// printf writes to w, ignoring errors the way fmt.Printf callers do.
func printf(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, format, args...)
}
