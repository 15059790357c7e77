// Package film defines the Film record exchanged with the recommendation
// backend and the display helpers the presentation layer renders it with.
//
// Optional fields are pointers (or nil slices) so that an absent field can be
// told apart from a present zero value. Absent fields are never rendered.
package film

import (
	"fmt"
	"regexp"
	"strings"
)

// Film is a single catalog or recommendation entry. Title is the key within
// a catalog batch.
type Film struct {
	Title       string   `json:"title" validate:"required"`
	Year        *int     `json:"year,omitempty"`
	Rating      *float64 `json:"rating,omitempty"`
	Director    *string  `json:"director,omitempty"`
	Description *string  `json:"description,omitempty"`
	Actors      []string `json:"actors,omitempty"`
	Country     []string `json:"country,omitempty"`
}

// Clone returns a deep copy of f. Nil slices and pointers stay nil.
func (f Film) Clone() Film {
	c := Film{Title: f.Title}
	if f.Year != nil {
		y := *f.Year
		c.Year = &y
	}
	if f.Rating != nil {
		r := *f.Rating
		c.Rating = &r
	}
	if f.Director != nil {
		d := *f.Director
		c.Director = &d
	}
	if f.Description != nil {
		d := *f.Description
		c.Description = &d
	}
	if f.Actors != nil {
		c.Actors = append([]string{}, f.Actors...)
	}
	if f.Country != nil {
		c.Country = append([]string{}, f.Country...)
	}
	return c
}

// CloneAll deep-copies a slice of films. A nil input yields an empty,
// non-nil slice so snapshots never carry nil catalogs.
func CloneAll(films []Film) []Film {
	out := make([]Film, len(films))
	for i, f := range films {
		out[i] = f.Clone()
	}
	return out
}

// lineBreakRe matches a line break together with the whitespace around it.
var lineBreakRe = regexp.MustCompile(`\s*\n\s*`)

// NormalizedDescription returns the description on a single line: every
// line break (and the whitespace hugging it) becomes one space.
// Returns "" when the description is absent.
func (f Film) NormalizedDescription() string {
	if f.Description == nil {
		return ""
	}
	return strings.TrimSpace(lineBreakRe.ReplaceAllString(*f.Description, " "))
}

// RatingLabel renders the rating rounded to one decimal, e.g. "★ 8.7".
func (f Film) RatingLabel() string {
	if f.Rating == nil {
		return ""
	}
	return fmt.Sprintf("★ %.1f", *f.Rating)
}

// YearLabel renders the release year, or "" when absent.
func (f Film) YearLabel() string {
	if f.Year == nil {
		return ""
	}
	return fmt.Sprintf("%d", *f.Year)
}

// DirectorName returns the director, or "" when absent.
func (f Film) DirectorName() string {
	if f.Director == nil {
		return ""
	}
	return strings.TrimSpace(*f.Director)
}

// MetaParts returns the present parts of year, rating and director, in
// that order. Empty strings are skipped.
func (f Film) MetaParts() []string {
	var parts []string
	for _, p := range []string{f.YearLabel(), f.RatingLabel(), f.DirectorName()} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// Countries joins the production countries with ", ".
func (f Film) Countries() string {
	return strings.Join(f.Country, ", ")
}

// LeadActors returns at most n actors from the front of the cast list.
func (f Film) LeadActors(n int) []string {
	if n <= 0 || len(f.Actors) == 0 {
		return nil
	}
	if n > len(f.Actors) {
		n = len(f.Actors)
	}
	return append([]string{}, f.Actors[:n]...)
}

// Titles extracts the titles of films in order.
func Titles(films []Film) []string {
	out := make([]string, len(films))
	for i, f := range films {
		out[i] = f.Title
	}
	return out
}
