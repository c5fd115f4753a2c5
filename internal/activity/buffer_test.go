package activity

import (
	"fmt"
	"testing"
	"time"
)

func TestBuffer_AppendNeverExceedsCapacity(t *testing.T) {
	var b Buffer

	for i := 0; i < 250; i++ {
		b.Append(fmt.Sprintf("entry %d", i), Info)
		if b.Size() > DefaultCapacity {
			t.Fatalf("after %d appends Size() = %d, want <= %d", i+1, b.Size(), DefaultCapacity)
		}

		entries := b.Entries()
		// Oldest surviving entry sits right after the last evicted one.
		wantOldest := 0
		if i+1 > DefaultCapacity {
			wantOldest = i + 1 - DefaultCapacity
		}
		if got := entries[0].Message; got != fmt.Sprintf("entry %d", wantOldest) {
			t.Fatalf("after %d appends oldest = %q, want entry %d", i+1, got, wantOldest)
		}
		if got := entries[len(entries)-1].Message; got != fmt.Sprintf("entry %d", i) {
			t.Fatalf("after %d appends newest = %q, want entry %d", i+1, got, i)
		}
	}
}

func TestBuffer_CustomCapacity(t *testing.T) {
	b := NewBuffer(3)
	for _, msg := range []string{"a", "b", "c", "d", "e"} {
		b.Append(msg, Warning)
	}
	entries := b.Entries()
	if len(entries) != 3 {
		t.Fatalf("len(entries) = %d, want 3", len(entries))
	}
	for i, want := range []string{"c", "d", "e"} {
		if entries[i].Message != want {
			t.Fatalf("entries[%d] = %q, want %q", i, entries[i].Message, want)
		}
	}
}

func TestBuffer_ClearLeavesAnnouncement(t *testing.T) {
	var b Buffer
	b.Append("one", Info)
	b.Append("two", Error)

	entry := b.Clear()
	if entry.Severity != Info || entry.Message != clearedMessage {
		t.Fatalf("Clear() = %#v, want info %q", entry, clearedMessage)
	}
	entries := b.Entries()
	if len(entries) != 1 || entries[0].Message != clearedMessage {
		t.Fatalf("entries after clear = %#v, want single announcement", entries)
	}
}

func TestBuffer_EntriesIsACopy(t *testing.T) {
	var b Buffer
	b.Append("original", Info)

	entries := b.Entries()
	entries[0].Message = "mutated"

	if got := b.Entries()[0].Message; got != "original" {
		t.Fatalf("stored message = %q, want original", got)
	}
}

func TestBuffer_StampsEntries(t *testing.T) {
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	b := &Buffer{now: func() time.Time { return fixed }}

	entry := b.Append("tick", Success)
	if !entry.Timestamp.Equal(fixed) {
		t.Fatalf("Timestamp = %v, want %v", entry.Timestamp, fixed)
	}
}

func TestSeverity_String(t *testing.T) {
	tests := map[Severity]string{
		Info:         "info",
		Success:      "success",
		Warning:      "warning",
		Error:        "error",
		Severity(42): "info",
	}
	for sev, want := range tests {
		if got := sev.String(); got != want {
			t.Errorf("Severity(%d).String() = %q, want %q", int(sev), got, want)
		}
	}
}
