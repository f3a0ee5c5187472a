// Package index remembers which calendar event holds each agenda item.
//
// Keys are agenda item keys: "YYYY-MM-DD/task" for recurring tasks and the
// task ID for one-time tasks. Every entry also records the day its event
// sits on, so the events of one day can be found without asking the
// calendar.
package index

import (
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"sync"
)

const indexFile = "events.json"

type Entry struct {
	EventID string `json:"event_id"`
	Day     string `json:"day"`
}

type EventIndex struct {
	Path    string
	mu      sync.RWMutex
	entries map[string]Entry
	dirty   bool
}

// NewEventIndex loads the index kept in dir, or starts an empty one.
func NewEventIndex(dir string) (*EventIndex, error) {
	idx := &EventIndex{
		Path:    filepath.Join(dir, indexFile),
		entries: make(map[string]Entry),
	}

	data, err := os.ReadFile(idx.Path)
	if os.IsNotExist(err) {
		return idx, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &idx.entries); err != nil {
		return nil, err
	}
	return idx, nil
}

// Save writes the index when it changed since it was loaded.
func (idx *EventIndex) Save() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if !idx.dirty {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(idx.Path), 0700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(idx.entries, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(idx.Path, data, 0600); err != nil {
		return err
	}
	idx.dirty = false
	return nil
}

// Get returns the event ID stored for key, or "".
func (idx *EventIndex) Get(key string) string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.entries[key].EventID
}

func (idx *EventIndex) Set(key, day, eventID string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	e := Entry{EventID: eventID, Day: day}
	if idx.entries[key] != e {
		idx.entries[key] = e
		idx.dirty = true
	}
}

func (idx *EventIndex) Remove(key string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if _, ok := idx.entries[key]; ok {
		delete(idx.entries, key)
		idx.dirty = true
	}
}

// Keys returns the sorted keys whose event sits on day (YYYY-MM-DD).
func (idx *EventIndex) Keys(day string) []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	var keys []string
	for k, e := range idx.entries {
		if e.Day == day {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys
}
