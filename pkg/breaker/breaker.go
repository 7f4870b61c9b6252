package breaker

import (
	"errors"
	"sync"
	"time"
)

type state uint8

const (
	closed state = iota + 1
	open
	halfOpen
)

var ErrOpen = errors.New("circuit breaker is open")

type CircuitBreaker interface {
	Call(fn func() error) error
	Reset()
}

// circuitBreaker tracks a sliding window of call outcomes. It opens once the
// failure share of the window reaches the threshold, rejects calls while open,
// and after the cool-down lets calls through half-open until enough of them
// succeed in a row.
type circuitBreaker struct {
	mu sync.Mutex

	st           state
	windowSize   int
	coolDown     time.Duration
	threshold    float64
	recoverAfter int

	window        []bool
	pos           int
	successCount  int
	lastOpenedAt  time.Time
}

func New(windowSize int, coolDown time.Duration, threshold float64, recoverAfter int) CircuitBreaker {
	return &circuitBreaker{
		st:           closed,
		windowSize:   windowSize,
		coolDown:     coolDown,
		threshold:    threshold,
		window:       make([]bool, windowSize),
		recoverAfter: recoverAfter,
	}
}

func (cb *circuitBreaker) Call(fn func() error) error {
	cb.mu.Lock()
	if cb.st == open {
		if time.Since(cb.lastOpenedAt) > cb.coolDown {
			cb.st = halfOpen
			cb.successCount = 0
		} else {
			cb.mu.Unlock()
			return ErrOpen
		}
	}
	cb.mu.Unlock()

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.window[cb.pos] = err != nil
	cb.pos = (cb.pos + 1) % cb.windowSize

	if cb.st == halfOpen {
		if err != nil {
			cb.st = open
			cb.successCount = 0
			cb.lastOpenedAt = time.Now()
		} else {
			cb.successCount++
			if cb.successCount > cb.recoverAfter {
				cb.Reset()
			}
		}
		return err
	}

	fails := 0
	for _, failed := range cb.window {
		if failed {
			fails++
		}
	}
	if float64(fails)/float64(cb.windowSize) >= cb.threshold {
		cb.st = open
		cb.successCount = 0
		cb.lastOpenedAt = time.Now()
	}

	return err
}

func (cb *circuitBreaker) Reset() {
	for i := range cb.window {
		cb.window[i] = false
	}
	cb.successCount = 0
	cb.pos = 0
	cb.st = closed
}
