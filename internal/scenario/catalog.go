package scenario

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"sync"
)

// Catalog holds the loaded scenario set. Reads are concurrent; Refresh is
// the only writer and swaps the whole slice under the lock, so readers see
// either the old catalog or the new one, never a mix.
type Catalog struct {
	path string

	mu    sync.RWMutex
	items []Scenario
}

// NewCatalog loads the catalog from path. A missing file is not an error
// and yields an empty catalog; invalid content is.
func NewCatalog(path string) (*Catalog, error) {
	items, err := loadFile(path)
	if err != nil {
		return nil, err
	}
	return &Catalog{path: path, items: items}, nil
}

// Refresh re-reads the source and atomically replaces the in-memory set.
// On error the previous catalog stays in place.
func (c *Catalog) Refresh() error {
	items, err := loadFile(c.path)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.items = items
	c.mu.Unlock()
	return nil
}

func (c *Catalog) Path() string { return c.path }

func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// All returns independent copies of every scenario in load order.
func (c *Catalog) All() []Scenario {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Scenario, len(c.items))
	for i, s := range c.items {
		out[i] = s.Clone()
	}
	return out
}

// PickOne returns a uniformly random scenario, or the fallback when the
// catalog is empty.
func (c *Catalog) PickOne() Scenario {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.items) == 0 {
		return Fallback()
	}
	return c.items[rand.Intn(len(c.items))].Clone()
}

// PickAt returns the scenario at idx modulo the catalog size. Any integer
// is valid, including negative and oversized values.
func (c *Catalog) PickAt(idx int) Scenario {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.items) == 0 {
		return Fallback()
	}
	return c.items[floorMod(idx, len(c.items))].Clone()
}

// FindByID does a linear scan and returns a copy of the matching scenario.
func (c *Catalog) FindByID(id string) (Scenario, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, s := range c.items {
		if s.ID == id {
			return s.Clone(), true
		}
	}
	return Scenario{}, false
}

// PickUniqueSet draws exactly n scenarios without replacement, reshuffling
// the full pool each time it runs dry, so an id repeats only after every
// other id has appeared. A fixed seed over a fixed catalog reproduces the
// exact same sequence.
func (c *Catalog) PickUniqueSet(n int, seed int64) []Scenario {
	if n <= 0 {
		return []Scenario{}
	}
	c.mu.RLock()
	pool := make([]Scenario, len(c.items))
	copy(pool, c.items)
	c.mu.RUnlock()

	if len(pool) == 0 {
		out := make([]Scenario, n)
		for i := range out {
			out[i] = Fallback()
		}
		return out
	}

	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	out := make([]Scenario, 0, n)
	for len(out) < n {
		take := n - len(out)
		if take > len(pool) {
			take = len(pool)
		}
		for _, s := range pool[:take] {
			out = append(out, s.Clone())
		}
		rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	}
	return out
}

// loadFile reads and validates the scenarios file. All validation failures
// abort the load with enough context (path, index, id) to fix the source.
func loadFile(path string) ([]Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Scenario{}, nil
		}
		return nil, fmt.Errorf("read scenarios file %s: %w", path, err)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse scenarios file %s: expected a JSON array of objects: %w", path, err)
	}

	items := make([]Scenario, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for i, elem := range raw {
		var obj map[string]any
		if err := json.Unmarshal(elem, &obj); err != nil {
			return nil, fmt.Errorf("%s: scenario at index %d is not an object", path, i)
		}
		id, _ := obj["id"].(string)
		if id == "" {
			// "name" is accepted as a legacy alias for "id".
			id, _ = obj["name"].(string)
		}
		if id == "" {
			return nil, fmt.Errorf("%s: scenario at index %d missing a valid \"id\" string", path, i)
		}
		if seen[id] {
			return nil, fmt.Errorf("%s: duplicate scenario id %q", path, id)
		}
		seen[id] = true
		prompt, _ := obj["prompt"].(string)
		if prompt == "" {
			return nil, fmt.Errorf("%s: scenario %q missing a valid \"prompt\" string", path, id)
		}
		hint, _ := obj["hint"].(string)

		delete(obj, "id")
		delete(obj, "name")
		delete(obj, "prompt")
		delete(obj, "hint")
		var extra map[string]any
		if len(obj) > 0 {
			extra = obj
		}
		items = append(items, Scenario{ID: id, Prompt: prompt, Hint: hint, Extra: extra})
	}
	return items, nil
}

// floorMod is a modulo that is non-negative for any input.
func floorMod(a, n int) int {
	m := a % n
	if m < 0 {
		m += n
	}
	return m
}
