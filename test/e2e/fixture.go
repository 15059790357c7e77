package e2e

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
)

// fixtureBackend is a deterministic recommendation backend. It only serves
// the legacy catalog path so every start exercises the endpoint fallback.
type fixtureBackend struct {
	*httptest.Server

	mu    sync.Mutex
	liked [][]string
}

func newFixtureBackend() *fixtureBackend {
	b := &fixtureBackend{}
	r := chi.NewRouter()
	r.Get("/random_films", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `[
			{"title":"Alien","year":1979,"rating":8.5,"director":"Ridley Scott","actors":["Sigourney Weaver","Tom Skerritt"]},
			{"title":"Heat","year":1995,"rating":8.3},
			{"title":"Ran","year":1985}
		]`)
	})
	r.Post("/recommend", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			LikedTitles []string `json:"liked_titles"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		b.mu.Lock()
		b.liked = append(b.liked, body.LikedTitles)
		b.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"recommendations":[{"title":"Tampopo","year":1985},{"title":"Stalker"}]}`)
	})
	b.Server = httptest.NewServer(r)
	return b
}

// requests returns the liked titles of every recommendation request so far.
func (b *fixtureBackend) requests() [][]string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([][]string, len(b.liked))
	copy(out, b.liked)
	return out
}
