package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/abelbrown/filmpick/internal/film"
	"github.com/abelbrown/filmpick/internal/otel"
)

// ErrCatalogLoad is matched by every error CatalogLoader.Fetch returns.
var ErrCatalogLoad = errors.New("catalog load failed")

// DefaultCatalogPaths are tried in order; a 404 moves on to the next one.
var DefaultCatalogPaths = []string{"/films/random", "/random_films"}

// CatalogLoader fetches a batch of random films.
type CatalogLoader struct {
	client *Client
	paths  []string
}

// NewCatalogLoader creates a loader that tries paths in order. With no
// paths, DefaultCatalogPaths is used.
func NewCatalogLoader(c *Client, paths ...string) *CatalogLoader {
	if len(paths) == 0 {
		paths = DefaultCatalogPaths
	}
	return &CatalogLoader{client: c, paths: append([]string{}, paths...)}
}

// Fetch asks for limit random films. Candidate paths are tried in order
// while the backend answers 404; the fallback is silent. Any other failure,
// or 404 from every candidate, returns an empty slice and an error wrapping
// ErrCatalogLoad. A well-formed payload that is not an array yields an empty
// catalog and no error.
func (l *CatalogLoader) Fetch(ctx context.Context, limit int) ([]film.Film, error) {
	start := time.Now()
	query := url.Values{"limit": {strconv.Itoa(limit)}}

	var lastErr error
	for i, path := range l.paths {
		l.client.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindCatalogStart, Comp: "fetch", Endpoint: path, Count: limit})

		resp, err := l.client.do(ctx, http.MethodGet, path, query, nil)
		if err != nil {
			if IsNotFound(err) && i < len(l.paths)-1 {
				l.client.log.Debug("catalog endpoint not found, trying next", "path", path, "next", l.paths[i+1])
				l.client.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindCatalogFallback, Comp: "fetch", Endpoint: path, Msg: l.paths[i+1]})
				lastErr = err
				continue
			}
			return l.fail(path, err)
		}

		films, err := l.decode(path, resp.body)
		if err != nil {
			return l.fail(path, err)
		}
		l.client.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindCatalogComplete, Comp: "fetch", Endpoint: path, Count: len(films), Dur: time.Since(start)})
		return films, nil
	}

	if lastErr == nil {
		lastErr = errors.New("no catalog endpoints configured")
	}
	return l.fail("", lastErr)
}

func (l *CatalogLoader) decode(path string, body []byte) ([]film.Film, error) {
	if !json.Valid(body) {
		return nil, fmt.Errorf("malformed payload from %s", path)
	}
	if !film.IsArray(body) {
		l.client.log.Warn("catalog payload is not an array, treating as empty", "path", path)
		l.client.events.Emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindCatalogMalformed, Comp: "fetch", Endpoint: path})
		return []film.Film{}, nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	films, rejected := film.DecodeRecords(raw)
	for _, r := range rejected {
		l.client.log.Warn("dropping catalog record", "path", path, "index", r.Index, "err", r.Err)
	}
	return films, nil
}

func (l *CatalogLoader) fail(path string, err error) ([]film.Film, error) {
	l.client.log.Error("catalog load failed", "path", path, "err", err)
	l.client.events.Emit(otel.Event{Level: otel.LevelError, Kind: otel.KindCatalogError, Comp: "fetch", Endpoint: path, Err: err.Error()})
	return []film.Film{}, fmt.Errorf("%w: %w", ErrCatalogLoad, err)
}
