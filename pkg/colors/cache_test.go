package colors

import (
	"fmt"
	"testing"
	"time"
)

func TestColorIDStable(t *testing.T) {
	c, err := NewColorCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewColorCache failed: %v", err)
	}
	first := c.ColorID("daily")
	if first != "1" {
		t.Errorf("Expected first color 1, got %s", first)
	}
	if c.ColorID("weekly") != "2" {
		t.Error("Expected second group to get color 2")
	}
	if c.ColorID("daily") != first {
		t.Error("Expected a group to keep its color")
	}
	if c.ColorID("") != NoGroupColor {
		t.Error("Expected the no-group color for an empty name")
	}
}

func TestColorEvictsLeastRecentlyUsed(t *testing.T) {
	c, err := NewColorCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewColorCache failed: %v", err)
	}
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	for i := 0; i < paletteSize; i++ {
		c.ColorID(fmt.Sprintf("g%d", i))
	}
	// g0 becomes the most recent, so g1 is the oldest.
	c.ColorID("g0")
	got := c.ColorID("new")
	if got != "2" {
		t.Errorf("Expected g1's color 2 to be recycled, got %s", got)
	}
	if _, ok := c.Groups["g1"]; ok {
		t.Error("Expected g1 to be evicted")
	}
}

func TestColorCachePersists(t *testing.T) {
	dir := t.TempDir()
	c, err := NewColorCache(dir)
	if err != nil {
		t.Fatalf("NewColorCache failed: %v", err)
	}
	c.ColorID("daily")
	c.ColorID("gym")
	if err := c.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	reloaded, err := NewColorCache(dir)
	if err != nil {
		t.Fatalf("NewColorCache failed: %v", err)
	}
	if reloaded.ColorID("gym") != "2" {
		t.Errorf("Expected gym to keep color 2, got %s", reloaded.ColorID("gym"))
	}
}
