package activity

import (
	"sync"
	"time"
)

// Recorder accumulates activity counters.
type Recorder struct {
	mu    sync.RWMutex
	stats Stats
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		stats: Stats{MessagesByRoom: make(map[string]int)},
	}
}

func (r *Recorder) roomCreated(at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.RoomsCreated++
	r.touch(at)
}

func (r *Recorder) joined(at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.Joins++
	r.touch(at)
}

func (r *Recorder) left(at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.Leaves++
	r.touch(at)
}

func (r *Recorder) messageSent(room string, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.Messages++
	r.stats.MessagesByRoom[room]++
	r.touch(at)
}

// touch keeps the latest timestamp; events may be delivered out of order.
func (r *Recorder) touch(at time.Time) {
	if at.After(r.stats.LastActivity) {
		r.stats.LastActivity = at
	}
}

// Snapshot returns a copy of the current counters.
func (r *Recorder) Snapshot() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := r.stats
	s.MessagesByRoom = make(map[string]int, len(r.stats.MessagesByRoom))
	for room, n := range r.stats.MessagesByRoom {
		s.MessagesByRoom[room] = n
	}
	return s
}
