package service

import (
	"sync"
	"time"

	"kioskpanel/internal/models"
)

// DefaultHistorySize is how many past actions the panel keeps in memory.
const DefaultHistorySize = 100

// Journal holds the last action record plus a short in-memory history of
// previous ones. Every write replaces the last action; the last writer wins.
type Journal struct {
	mu         sync.RWMutex
	last       models.LastAction
	entries    []models.LastAction
	maxEntries int
	now        func() time.Time
}

func NewJournal(maxEntries int) *Journal {
	j := &Journal{
		entries:    make([]models.LastAction, 0, maxEntries),
		maxEntries: maxEntries,
		now:        time.Now,
	}
	j.last = models.LastAction{
		Message:   "Ready",
		Timestamp: epoch(j.now()),
		Success:   true,
	}
	return j
}

func (j *Journal) Record(message string, success bool) models.LastAction {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.last = models.LastAction{
		Message:   message,
		Timestamp: epoch(j.now()),
		Success:   success,
	}

	j.entries = append(j.entries, j.last)
	if len(j.entries) > j.maxEntries {
		j.entries = j.entries[len(j.entries)-j.maxEntries:]
	}
	return j.last
}

func (j *Journal) Last() models.LastAction {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.last
}

// Recent returns up to n records, oldest first.
func (j *Journal) Recent(n int) []models.LastAction {
	j.mu.RLock()
	defer j.mu.RUnlock()

	if n <= 0 || len(j.entries) == 0 {
		return []models.LastAction{}
	}

	start := 0
	if len(j.entries) > n {
		start = len(j.entries) - n
	}

	result := make([]models.LastAction, len(j.entries[start:]))
	copy(result, j.entries[start:])
	return result
}

func epoch(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
