// Package overdue tracks exported agenda events that were still incomplete
// when pushed, so they can be reconciled once their day has closed.
package overdue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

const tableFile = "pending_events.json"

type Entry struct {
	EventID string    `json:"event_id"`
	Task    string    `json:"task"`
	Summary string    `json:"summary"`
	Day     time.Time `json:"day"`
	// OneTimeID is set when the event belongs to a one-time task.
	OneTimeID string `json:"one_time_id,omitempty"`
}

type Table struct {
	Entries map[string]Entry `json:"entries"`
	Path    string           `json:"-"`
	dirty   bool
}

func NewTable(dir string) (*Table, error) {
	t := &Table{
		Path:    filepath.Join(dir, tableFile),
		Entries: make(map[string]Entry),
	}

	if _, err := os.Stat(t.Path); err == nil {
		if err := t.Load(); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *Table) Load() error {
	f, err := os.Open(t.Path)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewDecoder(f).Decode(t)
}

func (t *Table) Save() error {
	if !t.dirty {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(t.Path), 0700); err != nil {
		return err
	}

	f, err := os.Create(t.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	err = encoder.Encode(t)
	if err == nil {
		t.dirty = false
	}
	return err
}

// Update tracks an incomplete event and forgets a complete one.
func (t *Table) Update(key string, e Entry, done bool) {
	if done || e.EventID == "" {
		t.Remove(key)
		return
	}
	if old, exists := t.Entries[key]; !exists || old != e {
		t.Entries[key] = e
		t.dirty = true
	}
}

func (t *Table) Remove(key string) {
	if _, exists := t.Entries[key]; exists {
		delete(t.Entries, key)
		t.dirty = true
	}
}

// Sweep returns the entries whose day is before today and removes them.
func (t *Table) Sweep(today time.Time) map[string]Entry {
	swept := make(map[string]Entry)
	for key, entry := range t.Entries {
		if entry.Day.Before(today) {
			swept[key] = entry
			delete(t.Entries, key)
			t.dirty = true
		}
	}
	return swept
}
