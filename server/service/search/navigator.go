package search

import (
	"slices"
	"sync"
)

// Navigator remembers the id list of the most recent search so a single
// record view can step to its neighbours.
type Navigator struct {
	mu  sync.RWMutex
	ids []int
}

// NewNavigator creates an empty navigator.
func NewNavigator() *Navigator {
	return &Navigator{}
}

// SetMostRecentSearchIDs replaces the remembered list.
func (n *Navigator) SetMostRecentSearchIDs(ids []int) {
	n.mu.Lock()
	n.ids = slices.Clone(ids)
	n.mu.Unlock()
}

// MostRecentSearchIDs returns a copy of the remembered list.
func (n *Navigator) MostRecentSearchIDs() []int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return slices.Clone(n.ids)
}

// Next returns the id after id, if any.
func (n *Navigator) Next(id int) (int, bool) {
	return n.step(id, 1)
}

// Previous returns the id before id, if any.
func (n *Navigator) Previous(id int) (int, bool) {
	return n.step(id, -1)
}

func (n *Navigator) step(id, delta int) (int, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	idx := slices.Index(n.ids, id)
	if idx < 0 {
		return 0, false
	}
	target := idx + delta
	if target < 0 || target >= len(n.ids) {
		return 0, false
	}
	return n.ids[target], true
}
