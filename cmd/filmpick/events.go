package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/abelbrown/filmpick/internal/config"
	"github.com/abelbrown/filmpick/internal/otel"
)

// followPoll is how often follow mode checks for new lines.
const followPoll = 100 * time.Millisecond

// eventFilter selects which event log lines are shown.
type eventFilter struct {
	kind  string
	level string
	comp  string
	gen   uint64
}

// levelRank returns a numeric rank for filtering (higher = more severe).
func levelRank(level otel.Level) int {
	switch level {
	case otel.LevelInfo:
		return 1
	case otel.LevelWarn:
		return 2
	case otel.LevelError:
		return 3
	default:
		return 0
	}
}

func (f eventFilter) match(ev otel.Event) bool {
	if f.kind != "" && !strings.HasPrefix(string(ev.Kind), f.kind) {
		return false
	}
	if f.level != "" && levelRank(ev.Level) < levelRank(otel.Level(f.level)) {
		return false
	}
	if f.comp != "" && ev.Comp != f.comp {
		return false
	}
	if f.gen != 0 && ev.Gen != f.gen {
		return false
	}
	return true
}

func newEventsCmd(o *options) *cobra.Command {
	var (
		tail    int
		follow  bool
		rawJSON bool
		path    string
		filter  eventFilter
	)
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show the JSONL event log",
		Long: `Show recent lines of the event log written with --events.
Filters combine: --kind catalog --level warn shows catalog warnings and errors.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				cfg, err := config.Load(config.LoadOptions{Path: o.configPath, Overrides: o.overrides(cmd)})
				if err != nil {
					return err
				}
				path = cfg.Log.EventsPath
			}

			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("event log not found at %s (run filmpick --events first): %w", path, err)
			}
			defer f.Close()

			out := cmd.OutOrStdout()
			format := func(l parsedLine) string {
				if rawJSON {
					return string(l.raw)
				}
				return formatEvent(l.ev)
			}

			lines, err := readTailLines(f, tail, filter.match)
			if err != nil {
				return err
			}
			for _, l := range lines {
				printf(out, "%s\n", format(l))
			}
			if !follow {
				return nil
			}
			return followLines(cmd.Context(), f, filter.match, func(l parsedLine) {
				printf(out, "%s\n", format(l))
			})
		},
	}

	flags := cmd.Flags()
	flags.IntVarP(&tail, "tail", "n", 50, "number of recent lines to show")
	flags.BoolVarP(&follow, "follow", "f", false, "keep printing new lines (like tail -f)")
	flags.StringVar(&filter.kind, "kind", "", "filter by event kind prefix (e.g. 'catalog')")
	flags.StringVar(&filter.level, "level", "", "minimum level: debug, info, warn, error")
	flags.StringVar(&filter.comp, "comp", "", "filter by component name")
	flags.Uint64Var(&filter.gen, "gen", 0, "filter by catalog generation")
	flags.BoolVar(&rawJSON, "json", false, "output raw JSON lines")
	flags.StringVar(&path, "file", "", "event log path (default: log.events_path from config)")
	return cmd
}

func formatEvent(ev otel.Event) string {
	ts := ev.Time.Format("15:04:05.000")
	lvl := strings.ToUpper(string(ev.Level))
	if lvl == "" {
		lvl = "?"
	}

	parts := []string{fmt.Sprintf("%s %-5s [%-10s] %-20s", ts, lvl, ev.Comp, ev.Kind)}
	if ev.Msg != "" {
		parts = append(parts, ev.Msg)
	}
	if ev.DurMs > 0 {
		parts = append(parts, fmt.Sprintf("(%.*fms)", durPrecision(ev.DurMs), ev.DurMs))
	}
	if ev.Count > 0 {
		parts = append(parts, fmt.Sprintf("n=%d", ev.Count))
	}
	if ev.Endpoint != "" {
		parts = append(parts, "endpoint="+ev.Endpoint)
	}
	if ev.Title != "" {
		parts = append(parts, fmt.Sprintf("title=%q", ev.Title))
	}
	if ev.Gen != 0 {
		parts = append(parts, fmt.Sprintf("gen=%d", ev.Gen))
	}
	if ev.Err != "" {
		parts = append(parts, "err="+ev.Err)
	}
	return strings.Join(parts, " ")
}

type parsedLine struct {
	ev  otel.Event
	raw []byte
}

func parseLine(raw []byte) (parsedLine, bool) {
	raw = trimLine(raw)
	if len(raw) == 0 {
		return parsedLine{}, false
	}
	var ev otel.Event
	if json.Unmarshal(raw, &ev) != nil {
		return parsedLine{}, false
	}
	// Copy raw since scanners reuse their buffer.
	return parsedLine{ev: ev, raw: append([]byte(nil), raw...)}, true
}

// readTailLines returns the last n lines of r that parse and match.
// Unparseable lines are skipped.
func readTailLines(r io.Reader, n int, match func(otel.Event) bool) ([]parsedLine, error) {
	scanner := bufio.NewScanner(r)
	// Allow large lines (some events may have big Extra maps)
	scanner.Buffer(make([]byte, 0, 64*1024), 256*1024)

	var ring []parsedLine
	if n > 0 {
		ring = make([]parsedLine, 0, n)
	}
	for scanner.Scan() {
		l, ok := parseLine(scanner.Bytes())
		if !ok || !match(l.ev) {
			continue
		}
		if n <= 0 {
			continue
		}
		if len(ring) < n {
			ring = append(ring, l)
		} else {
			copy(ring, ring[1:])
			ring[n-1] = l
		}
	}
	return ring, scanner.Err()
}

// followLines polls r for appended lines until ctx is done.
func followLines(ctx context.Context, r io.Reader, match func(otel.Event) bool, emit func(parsedLine)) error {
	reader := bufio.NewReader(r)
	var partial []byte
	for {
		chunk, err := reader.ReadBytes('\n')
		partial = append(partial, chunk...)
		if err == io.EOF {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(followPoll):
			}
			continue
		}
		if err != nil {
			return err
		}
		if l, ok := parseLine(partial); ok && match(l.ev) {
			emit(l)
		}
		partial = partial[:0]
	}
}

func trimLine(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}

func durPrecision(ms float64) int {
	if ms >= 100 {
		return 0
	}
	if ms >= 1 {
		return 1
	}
	return 2
}
