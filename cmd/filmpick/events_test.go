package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abelbrown/filmpick/internal/otel"
)

func writeEventLog(t *testing.T, events ...otel.Event) string {
	t.Helper()
	var buf bytes.Buffer
	for _, ev := range events {
		data, err := json.Marshal(ev)
		require.NoError(t, err)
		buf.Write(data)
		buf.WriteByte('\n')
	}
	buf.WriteString("not json\n\n")
	path := filepath.Join(t.TempDir(), "events.jsonl")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	return path
}

var sampleEvents = []otel.Event{
	{Time: time.Now(), Level: otel.LevelInfo, Kind: otel.KindCatalogStart, Comp: "fetch", Gen: 1},
	{Time: time.Now(), Level: otel.LevelDebug, Kind: otel.KindCatalogFallback, Comp: "fetch", Endpoint: "/films/random", Gen: 1},
	{Time: time.Now(), Level: otel.LevelInfo, Kind: otel.KindCatalogComplete, Comp: "fetch", Count: 30, Dur: 42 * time.Millisecond, Gen: 1},
	{Time: time.Now(), Level: otel.LevelInfo, Kind: otel.KindSelectionToggle, Comp: "controller", Title: "Alien", Gen: 1},
	{Time: time.Now(), Level: otel.LevelError, Kind: otel.KindRecommendError, Comp: "fetch", Err: "HTTP 500", Gen: 2},
}

func TestEventsCommandFormatsLines(t *testing.T) {
	isolate(t)
	path := writeEventLog(t, sampleEvents...)

	out, _, err := execute(t, "events", "--file", path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, len(sampleEvents), "unparseable lines are skipped")
	assert.Contains(t, lines[1], "endpoint=/films/random")
	assert.Contains(t, lines[2], "n=30")
	assert.Contains(t, lines[2], "(42.0ms)")
	assert.Contains(t, lines[3], `title="Alien"`)
	assert.Contains(t, lines[4], "ERROR")
	assert.Contains(t, lines[4], "err=HTTP 500")
}

func TestEventsCommandFilters(t *testing.T) {
	isolate(t)
	path := writeEventLog(t, sampleEvents...)

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"kind prefix", []string{"--kind", "catalog"}, 3},
		{"min level", []string{"--level", "info"}, 4},
		{"component", []string{"--comp", "controller"}, 1},
		{"generation", []string{"--gen", "2"}, 1},
		{"tail", []string{"--tail", "2"}, 2},
		{"combined", []string{"--kind", "catalog", "--level", "info"}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"events", "--file", path}, tt.args...)
			out, _, err := execute(t, args...)
			require.NoError(t, err)
			assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), tt.want)
		})
	}
}

func TestEventsCommandRawJSON(t *testing.T) {
	isolate(t)
	path := writeEventLog(t, sampleEvents[0])

	out, _, err := execute(t, "events", "--file", path, "--json")
	require.NoError(t, err)

	var ev otel.Event
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(out)), &ev))
	assert.Equal(t, otel.KindCatalogStart, ev.Kind)
}

func TestEventsCommandMissingFile(t *testing.T) {
	isolate(t)

	_, _, err := execute(t, "events", "--file", filepath.Join(t.TempDir(), "missing.jsonl"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "event log not found")
}

func TestFollowLinesPicksUpAppends(t *testing.T) {
	path := writeEventLog(t)
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var got []otel.EventKind
	done := make(chan error, 1)
	go func() {
		done <- followLines(ctx, f, eventFilter{kind: "recommend"}.match, func(l parsedLine) {
			mu.Lock()
			got = append(got, l.ev.Kind)
			mu.Unlock()
		})
	}()

	w, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	for _, ev := range sampleEvents {
		data, err := json.Marshal(ev)
		require.NoError(t, err)
		_, err = w.Write(append(data, '\n'))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("followLines did not stop after cancel")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []otel.EventKind{otel.KindRecommendError}, got)
}
