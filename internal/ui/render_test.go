package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/filmpick/internal/film"
)

func none(string) bool { return false }

func TestRenderCatalogEmpty(t *testing.T) {
	got := RenderCatalog(nil, none, 0, 80, 20)
	if !strings.Contains(got, "No films loaded") {
		t.Errorf("empty catalog should render a hint, got %q", got)
	}
}

func TestRenderCatalogSkipsAbsentFields(t *testing.T) {
	rating := 7.44
	zero := 0
	films := []film.Film{
		{Title: "Bare"},
		{Title: "Rated", Rating: &rating},
		{Title: "Year Zero", Year: &zero},
	}

	got := RenderCatalog(films, none, -1, 80, 20)
	lines := strings.Split(got, "\n")

	if strings.Contains(lines[1], "★") || strings.TrimSpace(lines[1]) != "" {
		t.Errorf("film without metadata should have an empty meta line, got %q", lines[1])
	}
	if !strings.Contains(lines[3], "★ 7.4") {
		t.Errorf("rating should be rounded to one decimal, got %q", lines[3])
	}
	if !strings.Contains(lines[5], "0") {
		t.Errorf("a present zero year is still rendered, got %q", lines[5])
	}
}

func TestRenderCatalogMarksSelection(t *testing.T) {
	films := []film.Film{{Title: "A"}, {Title: "B"}}
	isSelected := func(title string) bool { return title == "B" }

	got := RenderCatalog(films, isSelected, 0, 80, 20)
	lines := strings.Split(got, "\n")
	if !strings.Contains(lines[0], "[ ] A") {
		t.Errorf("A should be unmarked, got %q", lines[0])
	}
	if !strings.Contains(lines[2], "[✓] B") {
		t.Errorf("B should be marked, got %q", lines[2])
	}
}

func TestRenderCatalogShowsThreeLeadActors(t *testing.T) {
	films := []film.Film{{Title: "A", Actors: []string{"One", "Two", "Three", "Four"}}}
	got := RenderCatalog(films, none, 0, 120, 20)
	if !strings.Contains(got, "One, Two, Three") {
		t.Errorf("expected three lead actors, got %q", got)
	}
	if strings.Contains(got, "Four") {
		t.Errorf("fourth actor should not be shown, got %q", got)
	}
}

func TestRenderCatalogScrollsToCursor(t *testing.T) {
	var films []film.Film
	for _, title := range []string{"F0", "F1", "F2", "F3", "F4", "F5"} {
		films = append(films, film.Film{Title: title})
	}
	// Height 4 fits two films.
	got := RenderCatalog(films, none, 5, 80, 4)
	if strings.Contains(got, "F3") || !strings.Contains(got, "F4") || !strings.Contains(got, "F5") {
		t.Errorf("expected F4 and F5 visible, got %q", got)
	}
}

func TestRenderRecommendationsEmptyStates(t *testing.T) {
	tests := []struct {
		loading, canRequest bool
		want                string
	}{
		{loading: true, want: "Asking for recommendations"},
		{canRequest: true, want: "Press 'g'"},
		{want: "Select films you like"},
	}
	for _, tt := range tests {
		got := RenderRecommendations(nil, 0, 60, 10, tt.loading, tt.canRequest)
		if !strings.Contains(got, tt.want) {
			t.Errorf("loading=%v canRequest=%v: got %q, want %q", tt.loading, tt.canRequest, got, tt.want)
		}
	}
}

func TestRenderRecommendationsKeepsBackendOrder(t *testing.T) {
	recs := []film.Film{{Title: "Zeta"}, {Title: "Alpha"}}
	got := RenderRecommendations(recs, -1, 60, 10, false, true)
	if strings.Index(got, "Zeta") > strings.Index(got, "Alpha") {
		t.Errorf("recommendations must not be re-sorted, got %q", got)
	}
	if !strings.Contains(got, " 1. Zeta") || !strings.Contains(got, " 2. Alpha") {
		t.Errorf("expected ranks, got %q", got)
	}
}

func TestRenderHeaderCounter(t *testing.T) {
	got := RenderHeader(3, 10, "", 60)
	if !strings.Contains(got, "Selected: 3/10") {
		t.Errorf("header should show counter, got %q", got)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"truncate me", 6, "trunc…"},
		{"日本語タイトル", 4, "日…"},
		{"日本", 3, "日…"},
		{"日本", 4, "日本"},
		{"x", 0, ""},
		{"xy", 1, "…"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestWideTitlesFitThePane(t *testing.T) {
	wide := film.Film{Title: "千と千尋の神隠し千と千尋の神隠し"}

	for _, width := range []int{14, 15, 30} {
		if got := lipgloss.Width(renderFilmTitle(wide, true, true, width)); got > width {
			t.Errorf("catalog title at width %d rendered %d cells", width, got)
		}
		recs := RenderRecommendations([]film.Film{wide}, 0, width, 4, false, true)
		for _, line := range strings.Split(recs, "\n") {
			if got := lipgloss.Width(line); got > width {
				t.Errorf("recommendation line at width %d rendered %d cells: %q", width, got, line)
			}
		}
	}
}

func TestRenderFilmMetaFitsWidth(t *testing.T) {
	year := 2001
	director := "宮崎駿 (Hayao Miyazaki)"
	f := film.Film{Title: "Spirited Away", Year: &year, Director: &director, Actors: []string{"柊瑠美", "入野自由", "夏木マリ"}}

	got := renderFilmMeta(f, 24)
	if w := lipgloss.Width(got); w > 24 {
		t.Errorf("meta line rendered %d cells, want <= 24: %q", w, got)
	}
	if !strings.Contains(got, "…") {
		t.Errorf("truncated meta line should end with an ellipsis, got %q", got)
	}
	if !strings.Contains(got, "2001") {
		t.Errorf("truncation should keep the leading year, got %q", got)
	}
}

func TestCalcScrollOffset(t *testing.T) {
	if got := calcScrollOffset(2, 5); got != 0 {
		t.Errorf("cursor within first page: got %d", got)
	}
	if got := calcScrollOffset(7, 5); got != 3 {
		t.Errorf("cursor past first page: got %d", got)
	}
	if got := calcScrollOffset(-1, 5); got != 0 {
		t.Errorf("unfocused pane: got %d", got)
	}
}
