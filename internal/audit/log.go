package audit

import (
	"sort"
	"sync"
	"time"
)

// Status classifies an audit log entry.
type Status string

const (
	StatusAttempting     Status = "ATTEMPTING"
	StatusSuccess        Status = "SUCCESS"
	StatusFailed         Status = "FAILED"
	StatusAccountCreated Status = "ACCOUNT_CREATED"
	StatusAccountLoaded  Status = "ACCOUNT_LOADED"
	StatusLogout         Status = "LOGOUT"
)

// Entry is one authentication event.
type Entry struct {
	Timestamp   time.Time
	AccountName string
	Status      Status
}

// Log is the process-wide, time-ordered record of authentication events.
// Entries are keyed by timestamp: a second entry with the exact same
// timestamp overwrites the first. The log is append-only from the callers'
// point of view and is never evicted; it lives for the life of the process.
type Log struct {
	mu      sync.RWMutex
	entries map[time.Time]Entry
}

// NewLog creates an empty audit log.
func NewLog() *Log {
	return &Log{entries: make(map[time.Time]Entry)}
}

// AddEntry records an event. The insert is unconditional; an entry already
// stored under the same timestamp is replaced.
func (l *Log) AddEntry(accountName string, timestamp time.Time, status Status) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[timestamp] = Entry{
		Timestamp:   timestamp,
		AccountName: accountName,
		Status:      status,
	}
}

// EntriesInRange returns entries with start <= timestamp <= end, ascending
// by timestamp.
func (l *Log) EntriesInRange(start, end time.Time) []Entry {
	l.mu.RLock()
	var result []Entry
	for ts, entry := range l.entries {
		if !ts.Before(start) && !ts.After(end) {
			result = append(result, entry)
		}
	}
	l.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp.Before(result[j].Timestamp)
	})
	return result
}

// Entries returns every recorded event, ascending by timestamp.
func (l *Log) Entries() []Entry {
	l.mu.RLock()
	result := make([]Entry, 0, len(l.entries))
	for _, entry := range l.entries {
		result = append(result, entry)
	}
	l.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp.Before(result[j].Timestamp)
	})
	return result
}

// FailureCount returns the number of FAILED entries in the inclusive range.
func (l *Log) FailureCount(start, end time.Time) int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	count := 0
	for ts, entry := range l.entries {
		if entry.Status == StatusFailed && !ts.Before(start) && !ts.After(end) {
			count++
		}
	}
	return count
}
