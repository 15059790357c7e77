package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/abelbrown/filmpick/internal/film"
	"github.com/abelbrown/filmpick/internal/otel"
)

// ErrRecommendation is matched by every error RecommendationClient returns.
var ErrRecommendation = errors.New("recommendation request failed")

// DefaultRecommendPath is the recommendation endpoint.
const DefaultRecommendPath = "/recommend"

// RecommendationClient submits a selection and returns the ranked films.
type RecommendationClient struct {
	client *Client
	path   string
}

// NewRecommendationClient creates a client posting to path
// (DefaultRecommendPath when empty).
func NewRecommendationClient(c *Client, path string) *RecommendationClient {
	if path == "" {
		path = DefaultRecommendPath
	}
	return &RecommendationClient{client: c, path: path}
}

type recommendRequest struct {
	LikedTitles []string `json:"liked_titles"`
	TopN        int      `json:"top_n"`
}

type recommendResponse struct {
	Recommendations json.RawMessage `json:"recommendations"`
}

// Recommend posts the liked titles and returns at most topN films in the
// backend's order. The caller guarantees titles is non-empty. Every failure,
// including a missing or non-array "recommendations" field, yields an empty
// slice and an error wrapping ErrRecommendation.
func (r *RecommendationClient) Recommend(ctx context.Context, titles []string, topN int) ([]film.Film, error) {
	start := time.Now()
	r.client.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindRecommendStart, Comp: "fetch", Endpoint: r.path, Count: len(titles)})

	body := recommendRequest{LikedTitles: append([]string{}, titles...), TopN: topN}
	resp, err := r.client.do(ctx, http.MethodPost, r.path, nil, body)
	if err != nil {
		return r.fail(err)
	}

	films, err := r.decode(resp.body)
	if err != nil {
		return r.fail(err)
	}
	if topN > 0 && len(films) > topN {
		films = films[:topN]
	}
	r.client.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindRecommendComplete, Comp: "fetch", Endpoint: r.path, Count: len(films), Dur: time.Since(start)})
	return films, nil
}

func (r *RecommendationClient) decode(body []byte) ([]film.Film, error) {
	if !json.Valid(body) {
		return nil, errors.New("malformed payload")
	}
	var out recommendResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("parse recommendations: %w", err)
	}
	if !film.IsArray(out.Recommendations) {
		return nil, errors.New(`response has no "recommendations" array`)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(out.Recommendations, &raw); err != nil {
		return nil, fmt.Errorf("parse recommendations: %w", err)
	}
	films, rejected := film.DecodeRecords(raw)
	for _, rj := range rejected {
		r.client.log.Warn("dropping recommendation record", "index", rj.Index, "err", rj.Err)
	}
	return films, nil
}

func (r *RecommendationClient) fail(err error) ([]film.Film, error) {
	r.client.log.Error("recommendation request failed", "path", r.path, "err", err)
	r.client.events.Emit(otel.Event{Level: otel.LevelError, Kind: otel.KindRecommendError, Comp: "fetch", Endpoint: r.path, Err: err.Error()})
	return []film.Film{}, fmt.Errorf("%w: %w", ErrRecommendation, err)
}
