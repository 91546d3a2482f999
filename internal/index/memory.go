package index

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/MrSnakeDoc/geoinv/internal/domain"
)

// State selects layers by availability.
type State string

const (
	StateAny       State = ""
	StateAvailable State = "available"
	StateMissing   State = "missing"
	StateRemoved   State = "removed"
)

// ParseState validates a state filter. The empty string matches every layer.
func ParseState(s string) (State, error) {
	switch st := State(strings.ToLower(strings.TrimSpace(s))); st {
	case StateAny, StateAvailable, StateMissing, StateRemoved:
		return st, nil
	default:
		return "", fmt.Errorf("unknown state %q", s)
	}
}

// Filter narrows a layer listing. Zero values match everything.
type Filter struct {
	Server string
	State  State
}

func (f Filter) match(l domain.Layer) bool {
	if f.Server != "" && l.Server != f.Server {
		return false
	}
	switch f.State {
	case StateAvailable:
		return l.Available()
	case StateRemoved:
		return !l.Available() && l.RemovedOn != nil
	case StateMissing:
		return !l.Available() && l.RemovedOn == nil
	default:
		return true
	}
}

// MemoryIndex serves the latest inventory and run summary to the HTTP API.
// It is filled after every run and, at startup, from the Redis mirror.
type MemoryIndex struct {
	mu         sync.RWMutex
	layers     domain.Inventory // persisted order
	byKey      map[domain.LayerKey]int
	directory  domain.Directory
	lastRun    *domain.RunSummary
	ready      bool      // a run completed in this process
	lastReload time.Time // Timestamp of last inventory update
	source     string    // "run" or "redis"
}

// NewMemoryIndex creates an empty index
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		byKey: make(map[domain.LayerKey]int),
	}
}

// UpdateInventory replaces all layers in the index
func (idx *MemoryIndex) UpdateInventory(inv domain.Inventory, source string) {
	layers := make(domain.Inventory, len(inv))
	copy(layers, inv)
	layers.Sort()

	byKey := make(map[domain.LayerKey]int, len(layers))
	for i, l := range layers {
		byKey[l.Key()] = i
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.layers = layers
	idx.byKey = byKey
	idx.lastReload = time.Now()
	idx.source = source
}

// UpdateDirectory stores the directory as written by the last run
func (idx *MemoryIndex) UpdateDirectory(dir domain.Directory) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.directory = dir.Clone()
}

// SetLastRun records the summary of a run completed by this process and
// marks the index ready
func (idx *MemoryIndex) SetLastRun(s domain.RunSummary) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.lastRun = &s
	idx.ready = true
}

// SetMirroredRun records a summary read back from the mirror. It never
// overrides a local run and leaves readiness unchanged.
func (idx *MemoryIndex) SetMirroredRun(s domain.RunSummary) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.ready {
		return
	}
	idx.lastRun = &s
}

// Ready reports whether a run completed since startup
func (idx *MemoryIndex) Ready() bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.ready
}

// GetLayer retrieves a layer by identity
func (idx *MemoryIndex) GetLayer(k domain.LayerKey) (domain.Layer, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	i, ok := idx.byKey[k]
	if !ok {
		return domain.Layer{}, false
	}
	return idx.layers[i], true
}

// Layers returns the layers matching f, in persisted order
func (idx *MemoryIndex) Layers(f Filter) []domain.Layer {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	out := make([]domain.Layer, 0, len(idx.layers))
	for _, l := range idx.layers {
		if f.match(l) {
			out = append(out, l)
		}
	}
	return out
}

// Count returns the number of layers in the index
func (idx *MemoryIndex) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return len(idx.layers)
}

// Counts classifies the indexed layers by state
func (idx *MemoryIndex) Counts() domain.InventoryCounts {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.layers.Counts()
}

// Directory returns a copy of the last known directory
func (idx *MemoryIndex) Directory() domain.Directory {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.directory.Clone()
}

// LastRun returns the last run summary, nil before the first run
func (idx *MemoryIndex) LastRun() *domain.RunSummary {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.lastRun == nil {
		return nil
	}
	s := *idx.lastRun
	return &s
}

// GetLastReload returns the timestamp of the last inventory update and its source
func (idx *MemoryIndex) GetLastReload() (time.Time, string) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.lastReload, idx.source
}
