// Package activity keeps the bounded, user-visible activity log.
package activity

import (
	"sync"
	"time"
)

// Severity classifies an activity entry.
type Severity int

const (
	Info Severity = iota
	Success
	Warning
	Error
)

// String returns the lowercase name used for styling and diagnostics.
func (s Severity) String() string {
	switch s {
	case Success:
		return "success"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "info"
	}
}

// DefaultCapacity is the maximum number of entries kept.
const DefaultCapacity = 100

const clearedMessage = "activity log cleared"

// Entry is a single immutable log line.
type Entry struct {
	Timestamp time.Time
	Message   string
	Severity  Severity
}

// Buffer is an append-only FIFO of entries capped at a fixed capacity.
// The zero value is ready to use with DefaultCapacity.
type Buffer struct {
	mu       sync.Mutex
	entries  []Entry
	capacity int
	now      func() time.Time
}

// NewBuffer returns a buffer holding at most capacity entries. Non-positive
// capacities use DefaultCapacity.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{capacity: capacity}
}

// Append records message and returns the stored entry. When the buffer is
// full the oldest entry is evicted first.
func (b *Buffer) Append(message string, severity Severity) Entry {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.appendLocked(message, severity)
}

// Clear drops every entry and records a single informational entry
// announcing the clear, which is returned.
func (b *Buffer) Clear() Entry {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = b.entries[:0]
	return b.appendLocked(clearedMessage, Info)
}

// Entries returns a copy of the entries, oldest first.
func (b *Buffer) Entries() []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.entries) == 0 {
		return nil
	}
	dup := make([]Entry, len(b.entries))
	copy(dup, b.entries)
	return dup
}

// Size reports the number of stored entries.
func (b *Buffer) Size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// Capacity reports the maximum number of stored entries.
func (b *Buffer) Capacity() int {
	if b.capacity <= 0 {
		return DefaultCapacity
	}
	return b.capacity
}

func (b *Buffer) appendLocked(message string, severity Severity) Entry {
	now := time.Now
	if b.now != nil {
		now = b.now
	}
	entry := Entry{Timestamp: now(), Message: message, Severity: severity}
	if len(b.entries) >= b.Capacity() {
		// Shift in place so the backing array does not grow without bound.
		copy(b.entries, b.entries[1:])
		b.entries = b.entries[:len(b.entries)-1]
	}
	b.entries = append(b.entries, entry)
	return entry
}
