package notification

import (
	"strconv"
	"sync"
	"time"
)

// DefaultCapacity is how many entries the feed keeps.
const DefaultCapacity = 200

// Entry is one line of the admin activity feed.
type Entry struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	OrderID   string    `json:"order_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Feed is a bounded, newest-last activity log safe for concurrent use.
type Feed struct {
	mu       sync.RWMutex
	entries  []Entry
	capacity int
	seq      uint64
}

// NewFeed creates a feed holding at most capacity entries.
func NewFeed(capacity int) *Feed {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Feed{
		entries:  make([]Entry, 0, capacity),
		capacity: capacity,
	}
}

// Add appends an entry, dropping the oldest when full.
func (f *Feed) Add(e Entry) Entry {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.seq++
	if e.ID == "" {
		e.ID = "act_" + strconv.FormatUint(f.seq, 10)
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	if len(f.entries) == f.capacity {
		copy(f.entries, f.entries[1:])
		f.entries = f.entries[:len(f.entries)-1]
	}
	f.entries = append(f.entries, e)
	return e
}

// Latest returns up to limit entries, newest first. limit <= 0 returns everything.
func (f *Feed) Latest(limit int) []Entry {
	f.mu.RLock()
	defer f.mu.RUnlock()

	n := len(f.entries)
	if limit <= 0 || limit > n {
		limit = n
	}
	result := make([]Entry, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		result = append(result, f.entries[i])
	}
	return result
}

// Len returns the number of stored entries.
func (f *Feed) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.entries)
}
