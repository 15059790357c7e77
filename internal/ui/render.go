package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"

	"github.com/abelbrown/filmpick/internal/film"
)

// linesPerFilm is how many rows a catalog entry takes: title, then meta.
const linesPerFilm = 2

// leadActors is how many actors a catalog entry shows.
const leadActors = 3

// RenderCatalog renders the catalog list with selection marks. Each film
// takes two lines: the title row and a meta row (year, rating, director,
// lead actors). cursor < 0 means the pane is not focused.
func RenderCatalog(films []film.Film, isSelected func(string) bool, cursor, width, height int) string {
	if len(films) == 0 {
		return HelpStyle.Render("No films loaded. Press 'r' to fetch a new batch.")
	}

	visible := height / linesPerFilm
	if visible < 1 {
		visible = 1
	}
	offset := calcScrollOffset(cursor, visible)

	var b strings.Builder
	for i := offset; i < len(films) && i < offset+visible; i++ {
		f := films[i]
		b.WriteString(renderFilmTitle(f, isSelected(f.Title), i == cursor, width))
		b.WriteString("\n")
		b.WriteString(renderFilmMeta(f, width))
		b.WriteString("\n")
	}
	return b.String()
}

// RenderRecommendations renders the ranked recommendation list. Order is the
// backend's and is never re-sorted.
func RenderRecommendations(recs []film.Film, cursor, width, height int, loading bool, canRequest bool) string {
	if len(recs) == 0 {
		switch {
		case loading:
			return HelpStyle.Render("Asking for recommendations...")
		case canRequest:
			return HelpStyle.Render("Press 'g' to get recommendations.")
		default:
			return HelpStyle.Render("Select films you like, then press 'g'.")
		}
	}

	visible := height / linesPerFilm
	if visible < 1 {
		visible = 1
	}
	offset := calcScrollOffset(cursor, visible)

	var b strings.Builder
	for i := offset; i < len(recs) && i < offset+visible; i++ {
		f := recs[i]
		rank := fmt.Sprintf("%2d. ", i+1)
		title := truncate(f.Title, width-runewidth.StringWidth(rank))
		line := rank + title
		if i == cursor {
			b.WriteString(CursorItem.Render(line))
		} else {
			b.WriteString(NormalItem.Render(line))
		}
		b.WriteString("\n")
		b.WriteString(renderFilmMeta(f, width))
		b.WriteString("\n")
	}
	return b.String()
}

func renderFilmTitle(f film.Film, selected, atCursor bool, width int) string {
	mark := UnselectedMark.Render("[ ]")
	if selected {
		mark = SelectedMark.Render("[✓]")
	}
	title := truncate(f.Title, width-4)
	if atCursor {
		return mark + " " + CursorItem.Render(title)
	}
	return mark + " " + NormalItem.Render(title)
}

// renderFilmMeta renders year, rating, director and lead actors. Absent
// fields are skipped rather than shown as blanks.
func renderFilmMeta(f film.Film, width int) string {
	var parts []string
	if y := f.YearLabel(); y != "" {
		parts = append(parts, MetaItem.Render(y))
	}
	if r := f.RatingLabel(); r != "" {
		parts = append(parts, RatingStyle.Render(r))
	}
	if d := f.DirectorName(); d != "" {
		parts = append(parts, MetaItem.Render(d))
	}
	if actors := f.LeadActors(leadActors); len(actors) > 0 {
		parts = append(parts, MetaItem.Render(strings.Join(actors, ", ")))
	}
	if len(parts) == 0 {
		return ""
	}
	line := "    " + strings.Join(parts, MetaItem.Render(" · "))
	if width > 0 {
		line = ansi.Truncate(line, width, "…")
	}
	return line
}

// calcScrollOffset returns the first visible index that keeps cursor on
// screen.
func calcScrollOffset(cursor, visible int) int {
	if cursor < 0 || cursor < visible {
		return 0
	}
	return cursor - visible + 1
}

// RenderHeader renders the title line with the selection counter and an
// optional spinner.
func RenderHeader(selected, capacity int, spinner string, width int) string {
	counterStyle := Counter
	if selected >= capacity {
		counterStyle = CounterFull
	}
	left := Header.Render("filmpick")
	if spinner != "" {
		left += " " + spinner
	}
	right := counterStyle.Render(fmt.Sprintf("Selected: %d/%d", selected, capacity))

	padding := width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}
	return left + strings.Repeat(" ", padding) + right
}

// RenderStatusBar renders the bottom status bar with key hints and counts.
func RenderStatusBar(films, recs int, width int, loading bool, notice string) string {
	var left string
	switch {
	case notice != "":
		left = " " + notice + " "
	case loading:
		left = " Loading... "
	default:
		left = fmt.Sprintf(" %d films · %d recs ", films, recs)
	}

	keys := []string{
		StatusBarKey.Render("space") + StatusBarText.Render(":select"),
		StatusBarKey.Render("g") + StatusBarText.Render(":recommend"),
		StatusBarKey.Render("r") + StatusBarText.Render(":new films"),
		StatusBarKey.Render("c") + StatusBarText.Render(":clear"),
		StatusBarKey.Render("?") + StatusBarText.Render(":help"),
		StatusBarKey.Render("q") + StatusBarText.Render(":quit"),
	}
	keyHints := strings.Join(keys, " ")

	padding := width - lipgloss.Width(left) - lipgloss.Width(keyHints)
	if padding < 0 {
		padding = 0
	}
	return StatusBar.Width(width).Render(left + strings.Repeat(" ", padding) + keyHints)
}

// truncate shortens s to at most n terminal cells, marking the cut with "…".
func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	return runewidth.Truncate(s, n, "…")
}
