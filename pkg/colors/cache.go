package colors

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/harrisonrobin/schedule/pkg/log"
)

type GroupState struct {
	ColorID      string    `json:"color_id"`
	LastModified time.Time `json:"last_modified"`
}

// ColorCache gives each group a calendar color. When the eleven event
// colors are taken, the least recently used group gives up its color.
type ColorCache struct {
	Path   string
	Groups map[string]*GroupState `json:"groups"`
	dirty  bool
	now    func() time.Time
}

const (
	cacheFile = "group_colors.json"

	// NoGroupColor is used for one-time tasks.
	NoGroupColor = "8"
	paletteSize  = 11
)

func NewColorCache(dir string) (*ColorCache, error) {
	cache := &ColorCache{
		Path:   filepath.Join(dir, cacheFile),
		Groups: make(map[string]*GroupState),
		now:    time.Now,
	}

	if _, err := os.Stat(cache.Path); err == nil {
		if err := cache.Load(); err != nil {
			return nil, err
		}
	}
	return cache, nil
}

func (c *ColorCache) Load() error {
	f, err := os.Open(c.Path)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewDecoder(f).Decode(&c.Groups)
}

func (c *ColorCache) Save() error {
	if !c.dirty {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(c.Path), 0700); err != nil {
		log.Error().Err(err).Msg("error creating color cache directory")
		return err
	}

	f, err := os.Create(c.Path)
	if err != nil {
		log.Error().Err(err).Msg("error creating color cache file")
		return err
	}
	defer f.Close()
	err = json.NewEncoder(f).Encode(c.Groups)
	if err == nil {
		c.dirty = false
	}
	return err
}

// ColorID returns the color of a group and marks it as recently used.
func (c *ColorCache) ColorID(group string) string {
	if group == "" {
		return NoGroupColor
	}

	if state, exists := c.Groups[group]; exists {
		state.LastModified = c.now()
		c.dirty = true
		return state.ColorID
	}
	return c.assignColor(group)
}

func (c *ColorCache) assignColor(group string) string {
	used := make(map[string]bool)
	for _, s := range c.Groups {
		used[s.ColorID] = true
	}

	for i := 1; i <= paletteSize; i++ {
		id := strconv.Itoa(i)
		if !used[id] {
			c.Groups[group] = &GroupState{ColorID: id, LastModified: c.now()}
			c.dirty = true
			return id
		}
	}

	var oldest string
	var oldestTime time.Time
	for g, s := range c.Groups {
		if oldest == "" || s.LastModified.Before(oldestTime) {
			oldest, oldestTime = g, s.LastModified
		}
	}

	recycled := c.Groups[oldest].ColorID
	delete(c.Groups, oldest)
	log.Debug().Str("group", group).Str("evicted", oldest).Str("color", recycled).Msg("recycled group color")

	c.Groups[group] = &GroupState{ColorID: recycled, LastModified: c.now()}
	c.dirty = true
	return recycled
}
