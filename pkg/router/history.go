package router

import (
	"sync"
	"time"
)

const defaultHistorySize = 1000

// Record describes one processed instruction.
type Record struct {
	Text   string
	State  State
	Action Action
	Err    error
	Time   time.Time
}

// History keeps the most recent records up to a fixed size.
type History struct {
	mu      sync.RWMutex
	records []Record
	max     int
}

// NewHistory creates a history holding at most max records. Non-positive
// max uses the default of 1000.
func NewHistory(max int) *History {
	if max <= 0 {
		max = defaultHistorySize
	}
	return &History{max: max}
}

// Add appends a record, dropping the oldest when full.
func (h *History) Add(rec Record) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.records = append(h.records, rec)
	if len(h.records) > h.max {
		h.records = h.records[len(h.records)-h.max:]
	}
}

// All returns a copy of every record, oldest first.
func (h *History) All() []Record {
	h.mu.RLock()
	defer h.mu.RUnlock()

	result := make([]Record, len(h.records))
	copy(result, h.records)
	return result
}

// LastN returns the last n records, oldest first.
func (h *History) LastN(n int) []Record {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n = min(n, len(h.records))
	if n <= 0 {
		return []Record{}
	}

	result := make([]Record, n)
	copy(result, h.records[len(h.records)-n:])
	return result
}

// Len returns the number of records held.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.records)
}

// Clear drops every record.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = nil
}
