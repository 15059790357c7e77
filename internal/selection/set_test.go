package selection

import (
	"errors"
	"fmt"
	"slices"
	"testing"

	"pgregory.net/rapid"
)

func TestToggle(t *testing.T) {
	tests := []struct {
		name      string
		max       int
		start     []string
		toggle    string
		wantAdded bool
		wantErr   bool
		expected  []string
	}{
		{
			name:      "adds to empty set",
			max:       3,
			toggle:    "A",
			wantAdded: true,
			expected:  []string{"A"},
		},
		{
			name:     "removes existing member",
			max:      3,
			start:    []string{"A", "B", "C"},
			toggle:   "B",
			expected: []string{"A", "C"},
		},
		{
			name:     "removing from a full set always succeeds",
			max:      2,
			start:    []string{"A", "B"},
			toggle:   "A",
			expected: []string{"B"},
		},
		{
			name:     "full set rejects new title",
			max:      2,
			start:    []string{"A", "B"},
			toggle:   "C",
			wantErr:  true,
			expected: []string{"A", "B"},
		},
		{
			name:      "appends preserving insertion order",
			max:       3,
			start:     []string{"B", "A"},
			toggle:    "C",
			wantAdded: true,
			expected:  []string{"B", "A", "C"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(tt.max)
			for _, title := range tt.start {
				if _, err := s.Toggle(title); err != nil {
					t.Fatalf("seed toggle %q: %v", title, err)
				}
			}

			added, err := s.Toggle(tt.toggle)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Toggle(%q) err = %v, wantErr %v", tt.toggle, err, tt.wantErr)
			}
			if added != tt.wantAdded {
				t.Errorf("Toggle(%q) added = %v, want %v", tt.toggle, added, tt.wantAdded)
			}
			if got := s.Titles(); !slices.Equal(got, tt.expected) {
				t.Errorf("Titles() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCapacityErrorMessage(t *testing.T) {
	s := New(10)
	for i := 0; i < 10; i++ {
		if _, err := s.Toggle(fmt.Sprintf("film-%d", i)); err != nil {
			t.Fatalf("unexpected error filling set: %v", err)
		}
	}

	_, err := s.Toggle("X")
	if err == nil {
		t.Fatal("expected capacity error")
	}
	if err.Error() != "capacity exceeded (10)" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Error("error should match ErrCapacityExceeded")
	}
	var ce *CapacityError
	if !errors.As(err, &ce) || ce.Max != 10 {
		t.Errorf("expected *CapacityError with Max=10, got %#v", err)
	}
	if s.Contains("X") || s.Len() != 10 {
		t.Error("set must be unchanged after capacity error")
	}
}

func TestNewDefaultsMax(t *testing.T) {
	if got := New(0).Max(); got != DefaultMax {
		t.Errorf("New(0).Max() = %d, want %d", got, DefaultMax)
	}
	if got := New(-3).Max(); got != DefaultMax {
		t.Errorf("New(-3).Max() = %d, want %d", got, DefaultMax)
	}
}

func TestClear(t *testing.T) {
	s := New(3)
	s.Toggle("A")
	s.Toggle("B")
	s.Clear()
	if s.Len() != 0 || s.Contains("A") {
		t.Errorf("Clear left %v", s.Titles())
	}
}

func TestTitlesReturnsCopy(t *testing.T) {
	s := New(3)
	s.Toggle("A")
	got := s.Titles()
	got[0] = "mutated"
	if !s.Contains("A") {
		t.Error("mutating Titles() result must not affect the set")
	}
}

// titleGen draws from a small alphabet so toggles collide often.
var titleGen = rapid.SampledFrom([]string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K", "L"})

func TestPropertyBoundedAndUnique(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		max := rapid.IntRange(1, 6).Draw(t, "max")
		s := New(max)
		ops := rapid.SliceOf(titleGen).Draw(t, "ops")

		for _, title := range ops {
			_, err := s.Toggle(title)
			if err != nil && !errors.Is(err, ErrCapacityExceeded) {
				t.Fatalf("unexpected error: %v", err)
			}
			titles := s.Titles()
			if len(titles) > max {
				t.Fatalf("size %d exceeds max %d", len(titles), max)
			}
			seen := make(map[string]bool, len(titles))
			for _, tt := range titles {
				if seen[tt] {
					t.Fatalf("duplicate %q in %v", tt, titles)
				}
				seen[tt] = true
			}
		}
	})
}

func TestPropertyDoubleToggleRestores(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		max := rapid.IntRange(1, 6).Draw(t, "max")
		s := New(max)
		for _, title := range rapid.SliceOf(titleGen).Draw(t, "seed") {
			_, _ = s.Toggle(title)
		}
		before := s.Titles()
		title := titleGen.Draw(t, "title")

		_, err1 := s.Toggle(title)
		_, err2 := s.Toggle(title)

		if err1 != nil {
			// Capacity refusal leaves the set unchanged, and so does the retry.
			if err2 == nil {
				t.Fatalf("second toggle succeeded after capacity refusal")
			}
			if !slices.Equal(before, s.Titles()) {
				t.Fatalf("set changed after capacity refusals: %v -> %v", before, s.Titles())
			}
			return
		}
		if err2 != nil {
			t.Fatalf("second toggle failed: %v", err2)
		}
		got := s.Titles()
		if slices.Contains(before, title) {
			// remove then append: membership restored, order moves title to the end
			if !sameMembers(before, got) {
				t.Fatalf("membership not restored: %v -> %v", before, got)
			}
			return
		}
		if !slices.Equal(before, got) {
			t.Fatalf("double toggle changed set: %v -> %v", before, got)
		}
	})
}

func sameMembers(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := slices.Clone(a)
	bs := slices.Clone(b)
	slices.Sort(as)
	slices.Sort(bs)
	return slices.Equal(as, bs)
}
