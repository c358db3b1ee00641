// Package state holds the observable application state of a client
// session. Each cell has one writer; everyone else reads through a View.
package state

import "sync"

// Cell is an observable value
type Cell[T any] struct {
	mu        sync.RWMutex
	value     T
	nextID    int
	listeners map[int]func(T)
}

// NewCell creates a cell holding initial
func NewCell[T any](initial T) *Cell[T] {
	return &Cell[T]{value: initial, listeners: make(map[int]func(T))}
}

// Get returns the current value
func (c *Cell[T]) Get() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

// Set replaces the value and notifies subscribers
func (c *Cell[T]) Set(v T) {
	c.mu.Lock()
	c.value = v
	listeners := c.snapshot()
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(v)
	}
}

// Update applies fn to the current value atomically and notifies subscribers
func (c *Cell[T]) Update(fn func(T) T) T {
	c.mu.Lock()
	c.value = fn(c.value)
	v := c.value
	listeners := c.snapshot()
	c.mu.Unlock()

	for _, l := range listeners {
		l(v)
	}
	return v
}

// TryUpdate runs fn under the cell's lock and stores its result. When fn
// fails the value is left as it was. Writers that persist the value inside
// fn use this so the cell changes in the same order as the durable copy.
func (c *Cell[T]) TryUpdate(fn func(T) (T, error)) (T, error) {
	c.mu.Lock()
	v, err := fn(c.value)
	if err != nil {
		c.mu.Unlock()
		var zero T
		return zero, err
	}
	c.value = v
	listeners := c.snapshot()
	c.mu.Unlock()

	for _, l := range listeners {
		l(v)
	}
	return v, nil
}

// Subscribe registers fn for every later change. The returned func removes it.
func (c *Cell[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextID
	c.nextID++
	c.listeners[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

// View returns a read-only handle on the cell
func (c *Cell[T]) View() View[T] {
	return View[T]{cell: c}
}

func (c *Cell[T]) snapshot() []func(T) {
	out := make([]func(T), 0, len(c.listeners))
	for i := 0; i < c.nextID; i++ {
		if fn, ok := c.listeners[i]; ok {
			out = append(out, fn)
		}
	}
	return out
}

// View is the read side of a Cell
type View[T any] struct {
	cell *Cell[T]
}

// Get returns the current value
func (v View[T]) Get() T {
	return v.cell.Get()
}

// Subscribe registers fn for every later change
func (v View[T]) Subscribe(fn func(T)) func() {
	return v.cell.Subscribe(fn)
}
