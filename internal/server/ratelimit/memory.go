package ratelimit

import (
	"context"
	"sync"
	"time"
)

const sweepInterval = 5 * time.Minute

type counter struct {
	count int
	ends  time.Time
}

// Memory keeps counters in process memory. Expired windows are swept in
// the background until Close.
type Memory struct {
	mu       sync.Mutex
	counters map[string]counter
	now      func() time.Time
	done     chan struct{}
	once     sync.Once
}

func NewMemory() *Memory {
	m := &Memory{
		counters: make(map[string]counter),
		now:      time.Now,
		done:     make(chan struct{}),
	}
	go m.sweepLoop()
	return m
}

func (m *Memory) Allow(_ context.Context, key string, limit int, window time.Duration) Decision {
	if limit <= 0 {
		return Decision{Allowed: true}
	}
	if window <= 0 {
		window = time.Minute
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	c, ok := m.counters[key]
	if !ok || !now.Before(c.ends) {
		c = counter{ends: now.Add(window)}
	}
	// refused attempts are not counted, so a blocked client is freed when
	// the window it filled ends
	if c.count >= limit {
		return Decision{Allowed: false, Count: c.count, WindowEnd: c.ends}
	}
	c.count++
	m.counters[key] = c

	return Decision{Allowed: true, Count: c.count, WindowEnd: c.ends}
}

func (m *Memory) sweepLoop() {
	t := time.NewTicker(sweepInterval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			m.sweep()
		case <-m.done:
			return
		}
	}
}

func (m *Memory) sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for k, c := range m.counters {
		if !now.Before(c.ends) {
			delete(m.counters, k)
		}
	}
}

// Close stops the sweeper. It is safe to call more than once.
func (m *Memory) Close() error {
	m.once.Do(func() { close(m.done) })
	return nil
}
