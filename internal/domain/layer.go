package domain

import (
	"sort"
	"strings"
)

// LayerKey identifies a layer on a server. Both parts are case-sensitive.
type LayerKey struct {
	Server string `json:"server"`
	Name   string `json:"name"`
}

func (k LayerKey) String() string {
	return k.Server + "/" + k.Name
}

func compareKeys(a, b LayerKey) int {
	if c := strings.Compare(a.Server, b.Server); c != 0 {
		return c
	}
	return strings.Compare(a.Name, b.Name)
}

// BBox is a geographic extent in the layer's advertised lon/lat bounds.
type BBox struct {
	West  float64 `json:"west"`
	East  float64 `json:"east"`
	South float64 `json:"south"`
	North float64 `json:"north"`
}

// Layer is one dataset published by one server.
//
// It is the canonical record of the inventory, independent of the
// capabilities documents it was parsed from and of the CSV it is stored in.
type Layer struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	Server string `json:"server"`
	Name   string `json:"name"`

	// ─────────────────────────────
	// Observed attributes
	// (always overwritten by the latest snapshot)
	// ─────────────────────────────

	Title string `json:"title"`

	// Description is nil when the server publishes none or a known placeholder.
	Description *string `json:"description"`

	// EPSG is the coordinate reference system code, 0 when unknown.
	EPSG int `json:"epsg"`

	BBox BBox `json:"bbox"`

	// WMS and WFS report whether the service listed the layer in the latest run.
	WMS bool `json:"wms"`
	WFS bool `json:"wfs"`

	// ─────────────────────────────
	// Temporal attributes
	// (owned by Reconcile, never set by a snapshot)
	// ─────────────────────────────

	FirstSeen *Date `json:"first_seen"`
	RemovedOn *Date `json:"removed_on"`
}

// Key returns the identity of l.
func (l Layer) Key() LayerKey {
	return LayerKey{Server: l.Server, Name: l.Name}
}

// Available reports whether any service listed the layer in the latest run.
func (l Layer) Available() bool {
	return l.WMS || l.WFS
}

// markAvailable sets the flag for svc.
func (l *Layer) markAvailable(svc Service) {
	switch svc {
	case ServiceWMS:
		l.WMS = true
	case ServiceWFS:
		l.WFS = true
	}
}

// Inventory is the historical record of every layer ever seen.
type Inventory []Layer

// Index maps each layer by key. If keys repeat, the last record wins.
func (inv Inventory) Index() map[LayerKey]Layer {
	idx := make(map[LayerKey]Layer, len(inv))
	for _, l := range inv {
		idx[l.Key()] = l
	}
	return idx
}

// Servers returns every server_id that appears in the inventory.
func (inv Inventory) Servers() StringSet {
	set := make(StringSet)
	for _, l := range inv {
		set.Add(l.Server)
	}
	return set
}

// Sort orders the inventory by first_seen (nulls first), then server, then name.
// This is the persisted order and keeps version-control diffs stable.
func (inv Inventory) Sort() {
	sort.SliceStable(inv, func(i, j int) bool {
		if c := CompareNullable(inv[i].FirstSeen, inv[j].FirstSeen); c != 0 {
			return c < 0
		}
		return compareKeys(inv[i].Key(), inv[j].Key()) < 0
	})
}

// Snapshot is the set of layers observed during a single run.
// Identity is unique: a layer found by both services is one record with both flags set.
type Snapshot struct {
	layers map[LayerKey]Layer
}

// NewSnapshot creates an empty snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{layers: make(map[LayerKey]Layer)}
}

// Observe records that svc listed l. The first observation of a key provides the
// attributes; later observations only add their service flag.
func (s *Snapshot) Observe(l Layer, svc Service) {
	k := l.Key()
	if existing, ok := s.layers[k]; ok {
		existing.markAvailable(svc)
		s.layers[k] = existing
		return
	}
	l.WMS, l.WFS = false, false
	l.markAvailable(svc)
	l.FirstSeen, l.RemovedOn = nil, nil
	s.layers[k] = l
}

// Get returns the layer stored under k.
func (s *Snapshot) Get(k LayerKey) (Layer, bool) {
	l, ok := s.layers[k]
	return l, ok
}

// Len returns the number of distinct layers.
func (s *Snapshot) Len() int {
	return len(s.layers)
}

// Keys returns the identity set of the snapshot.
func (s *Snapshot) Keys() KeySet {
	keys := make(KeySet, len(s.layers))
	for k := range s.layers {
		keys.Add(k)
	}
	return keys
}

// Layers returns the snapshot records ordered by key.
func (s *Snapshot) Layers() []Layer {
	out := make([]Layer, 0, len(s.layers))
	for _, k := range s.Keys().Sorted() {
		out = append(out, s.layers[k])
	}
	return out
}
