// Package selection holds the bounded, ordered set of film titles a user has
// picked from the current catalog.
//
// The set never holds duplicates and never grows past its maximum. It is not
// safe for concurrent use; the workflow controller owns it and serializes
// access.
package selection

import (
	"errors"
	"fmt"
)

// DefaultMax is the selection bound used when none is configured.
const DefaultMax = 10

// ErrCapacityExceeded is matched (via errors.Is) by every *CapacityError.
var ErrCapacityExceeded = errors.New("capacity exceeded")

// CapacityError is returned by Toggle when adding a title would push the set
// past its maximum. The set is left unchanged.
type CapacityError struct {
	Max int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("capacity exceeded (%d)", e.Max)
}

// Is lets errors.Is(err, ErrCapacityExceeded) match.
func (e *CapacityError) Is(target error) bool {
	return target == ErrCapacityExceeded
}

// Set is an insertion-ordered set of titles bounded at Max.
type Set struct {
	titles []string
	max    int
}

// New creates an empty set bounded at max. Non-positive values fall back to
// DefaultMax.
func New(max int) *Set {
	if max <= 0 {
		max = DefaultMax
	}
	return &Set{max: max}
}

// Toggle flips membership of title. Removing always succeeds. Adding to a
// full set returns a *CapacityError and leaves the set untouched; otherwise
// the title is appended. added reports whether title is a member afterwards.
func (s *Set) Toggle(title string) (added bool, err error) {
	if i := s.index(title); i >= 0 {
		s.titles = append(s.titles[:i], s.titles[i+1:]...)
		return false, nil
	}
	if len(s.titles) >= s.max {
		return false, &CapacityError{Max: s.max}
	}
	s.titles = append(s.titles, title)
	return true, nil
}

// Clear empties the set.
func (s *Set) Clear() {
	s.titles = nil
}

// Contains reports whether title is selected.
func (s *Set) Contains(title string) bool {
	return s.index(title) >= 0
}

// Len returns the number of selected titles.
func (s *Set) Len() int {
	return len(s.titles)
}

// Max returns the configured bound.
func (s *Set) Max() int {
	return s.max
}

// Titles returns a copy of the selected titles in insertion order.
func (s *Set) Titles() []string {
	return append([]string{}, s.titles...)
}

func (s *Set) index(title string) int {
	for i, t := range s.titles {
		if t == title {
			return i
		}
	}
	return -1
}
