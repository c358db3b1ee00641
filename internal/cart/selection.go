package cart

import (
	"sync"

	"github.com/shopspring/decimal"
)

// Selection tracks which cart lines are checked for checkout
type Selection struct {
	mu       sync.RWMutex
	selected map[string]struct{}
}

// NewSelection creates an empty selection
func NewSelection(ids ...string) *Selection {
	s := &Selection{selected: make(map[string]struct{})}
	for _, id := range ids {
		s.selected[id] = struct{}{}
	}
	return s
}

// Toggle flips one line
func (s *Selection) Toggle(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.selected[id]; ok {
		delete(s.selected, id)
		return
	}
	s.selected[id] = struct{}{}
}

// ToggleAll selects every line unless all are already selected, in which
// case it clears the selection.
func (s *Selection) ToggleAll(lines []Line) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := len(lines) > 0
	for _, l := range lines {
		if _, ok := s.selected[l.ID]; !ok {
			all = false
			break
		}
	}

	s.selected = make(map[string]struct{})
	if all {
		return
	}
	for _, l := range lines {
		s.selected[l.ID] = struct{}{}
	}
}

// IsSelected reports whether the line is checked
func (s *Selection) IsSelected(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.selected[id]
	return ok
}

// Len returns the number of distinct checked ids
func (s *Selection) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.selected)
}

// Selected returns the checked lines in list order
func (s *Selection) Selected(lines []Line) []Line {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Line, 0, len(s.selected))
	for _, l := range lines {
		if _, ok := s.selected[l.ID]; ok {
			out = append(out, l)
		}
	}
	return out
}

// Total sums the checked lines
func (s *Selection) Total(lines []Line) decimal.Decimal {
	return Total(s.Selected(lines))
}
