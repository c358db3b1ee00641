package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var errDown = errors.New("backend down")

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newManager() (*Manager, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	m := NewManager(Settings{MaxFailures: 3, OpenTimeout: 10 * time.Second, HalfOpenSuccesses: 2})
	m.SetClock(clock.Now)
	return m, clock
}

func fail() error    { return errDown }
func succeed() error { return nil }

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	m, _ := newManager()
	cb := m.GetOrCreate("items")

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, cb.Call(fail, nil), errDown)
	}
	assert.Equal(t, StateOpen, cb.State())

	called := false
	err := cb.Call(func() error {
		called = true
		return nil
	}, nil)
	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, called)
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	m, _ := newManager()
	cb := m.GetOrCreate("items")

	_ = cb.Call(fail, nil)
	_ = cb.Call(fail, nil)
	_ = cb.Call(succeed, nil)
	_ = cb.Call(fail, nil)
	_ = cb.Call(fail, nil)

	assert.Equal(t, StateClosed, cb.State())
}

func TestBreaker_IgnoresUncountedErrors(t *testing.T) {
	m, _ := newManager()
	cb := m.GetOrCreate("orders")
	never := func(error) bool { return false }

	for i := 0; i < 5; i++ {
		_ = cb.Call(fail, never)
	}
	assert.Equal(t, StateClosed, cb.State())
}

func TestBreaker_HalfOpenRecovery(t *testing.T) {
	m, clock := newManager()
	cb := m.GetOrCreate("likes")
	for i := 0; i < 3; i++ {
		_ = cb.Call(fail, nil)
	}

	clock.Advance(11 * time.Second)
	assert.NoError(t, cb.Call(succeed, nil))
	assert.Equal(t, StateHalfOpen, cb.State())

	assert.NoError(t, cb.Call(succeed, nil))
	assert.Equal(t, StateClosed, cb.State())
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	m, clock := newManager()
	cb := m.GetOrCreate("likes")
	for i := 0; i < 3; i++ {
		_ = cb.Call(fail, nil)
	}

	clock.Advance(11 * time.Second)
	assert.ErrorIs(t, cb.Call(fail, nil), errDown)
	assert.Equal(t, StateOpen, cb.State())
}

func TestManager_GetOrCreateReturnsSameBreaker(t *testing.T) {
	m, _ := newManager()
	assert.Same(t, m.GetOrCreate("a"), m.GetOrCreate("a"))
	assert.Len(t, m.AllStats(), 1)
}
