package domain

import (
	"testing"
)

func strPtr(s string) *string { return &s }

func mustDate(t *testing.T, s string) *Date {
	t.Helper()
	d, err := ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q) error = %v", s, err)
	}
	return &d
}

func findLayer(t *testing.T, inv Inventory, server, name string) Layer {
	t.Helper()
	for _, l := range inv {
		if l.Server == server && l.Name == name {
			return l
		}
	}
	t.Fatalf("layer %s/%s not found in inventory", server, name)
	return Layer{}
}

func snapshotOf(layers ...Layer) *Snapshot {
	s := NewSnapshot()
	for _, l := range layers {
		if l.WMS {
			s.Observe(l, ServiceWMS)
		}
		if l.WFS {
			s.Observe(l, ServiceWFS)
		}
	}
	return s
}

func TestReconcile_PresentKeepsFirstSeen(t *testing.T) {
	first := mustDate(t, "2024-03-01")
	historical := Inventory{
		{Server: "IGM", Name: "limites", Title: "old", EPSG: 4326, WMS: true, FirstSeen: first},
	}
	snap := snapshotOf(Layer{Server: "IGM", Name: "limites", Title: "new", EPSG: 32719, WFS: true})
	dir := Directory{{Name: "IGM", WMS: true, WFS: true}}

	for _, run := range []string{"2024-05-10", "2025-01-01", "2030-12-31"} {
		t.Run(run, func(t *testing.T) {
			res := Reconcile(snap, historical, nil, dir, *mustDate(t, run))
			got := findLayer(t, res.Inventory, "IGM", "limites")

			if !EqualNullable(got.FirstSeen, first) {
				t.Errorf("FirstSeen = %v, want %v", got.FirstSeen, first)
			}
			if got.Title != "new" || got.EPSG != 32719 {
				t.Errorf("attributes not taken from snapshot: %+v", got)
			}
			if got.WMS || !got.WFS {
				t.Errorf("flags = wms:%v wfs:%v, want wms:false wfs:true", got.WMS, got.WFS)
			}
			if res.Stats.Present != 1 {
				t.Errorf("Stats.Present = %d, want 1", res.Stats.Present)
			}
		})
	}
}

func TestReconcile_PresentIsIdempotent(t *testing.T) {
	historical := Inventory{
		{Server: "A", Name: "x", WMS: true, FirstSeen: mustDate(t, "2024-01-01")},
		{Server: "A", Name: "y", WMS: true},
	}
	snap := snapshotOf(
		Layer{Server: "A", Name: "x", WMS: true},
		Layer{Server: "A", Name: "y", WMS: true},
	)
	dir := Directory{{Name: "A", WMS: true}}
	runDate := *mustDate(t, "2024-06-01")

	first := Reconcile(snap, historical, nil, dir, runDate)
	second := Reconcile(snap, first.Inventory, nil, dir, runDate)

	if len(first.Inventory) != len(second.Inventory) {
		t.Fatalf("inventory size changed: %d -> %d", len(first.Inventory), len(second.Inventory))
	}
	for i := range first.Inventory {
		a, b := first.Inventory[i], second.Inventory[i]
		if a.Key() != b.Key() || !EqualNullable(a.FirstSeen, b.FirstSeen) || !EqualNullable(a.RemovedOn, b.RemovedOn) {
			t.Errorf("row %d differs: %+v vs %+v", i, a, b)
		}
	}
}

func TestReconcile_NewLayerDating(t *testing.T) {
	historical := Inventory{
		{Server: "KNOWN", Name: "old", WMS: true, FirstSeen: mustDate(t, "2024-01-01")},
	}
	snap := snapshotOf(
		Layer{Server: "KNOWN", Name: "old", WMS: true},
		Layer{Server: "KNOWN", Name: "fresh", WMS: true},
		Layer{Server: "BRANDNEW", Name: "first", WFS: true},
	)
	dir := Directory{{Name: "KNOWN", WMS: true}, {Name: "BRANDNEW", WFS: true}}
	runDate := mustDate(t, "2024-07-15")

	res := Reconcile(snap, historical, nil, dir, *runDate)

	tests := []struct {
		name   string
		server string
		layer  string
		want   *Date
	}{
		{name: "new layer on known server is dated", server: "KNOWN", layer: "fresh", want: runDate},
		{name: "new layer on unseen server stays null", server: "BRANDNEW", layer: "first", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := findLayer(t, res.Inventory, tt.server, tt.layer)
			if !EqualNullable(got.FirstSeen, tt.want) {
				t.Errorf("FirstSeen = %v, want %v", got.FirstSeen, tt.want)
			}
			if got.RemovedOn != nil {
				t.Errorf("RemovedOn = %v, want nil", got.RemovedOn)
			}
		})
	}

	if res.Stats.Added != 1 || res.Stats.AddedUndated != 1 {
		t.Errorf("Stats = %+v, want Added=1 AddedUndated=1", res.Stats)
	}
}

func TestReconcile_EmptyHistoryLeavesEverythingUndated(t *testing.T) {
	snap := snapshotOf(
		Layer{Server: "A", Name: "x", WMS: true},
		Layer{Server: "B", Name: "y", WFS: true},
	)
	res := Reconcile(snap, nil, nil, Directory{{Name: "A"}, {Name: "B"}}, *mustDate(t, "2024-01-01"))

	if len(res.Inventory) != 2 {
		t.Fatalf("len(Inventory) = %d, want 2", len(res.Inventory))
	}
	for _, l := range res.Inventory {
		if l.FirstSeen != nil {
			t.Errorf("%s FirstSeen = %v, want nil", l.Key(), l.FirstSeen)
		}
	}
}

func TestReconcile_MissingLayers(t *testing.T) {
	runDate := mustDate(t, "2024-08-01")

	tests := []struct {
		name        string
		events      []Event
		directory   Directory
		prevRemoved *Date
		wantRemoved *Date
	}{
		{
			name:        "reachable and listed is removed",
			events:      []Event{{Server: "S", Service: ServiceWMS, Kind: EventOK}},
			directory:   Directory{{Name: "S", WMS: true}},
			wantRemoved: runDate,
		},
		{
			name:        "server with error keeps null",
			events:      []Event{{Server: "S", Service: ServiceWFS, Kind: EventError, Detail: "timeout"}},
			directory:   Directory{{Name: "S", WMS: true, WFS: true}},
			wantRemoved: nil,
		},
		{
			name:        "server with error keeps previous date",
			events:      []Event{{Server: "S", Service: ServiceWMS, Kind: EventError}},
			directory:   Directory{{Name: "S", WMS: true}},
			prevRemoved: mustDate(t, "2024-02-02"),
			wantRemoved: mustDate(t, "2024-02-02"),
		},
		{
			name:        "server dropped from directory keeps null",
			events:      nil,
			directory:   Directory{{Name: "OTHER", WMS: true}},
			wantRemoved: nil,
		},
		{
			name:        "error on another server does not suppress",
			events:      []Event{{Server: "OTHER", Service: ServiceWMS, Kind: EventError}},
			directory:   Directory{{Name: "S", WMS: true}, {Name: "OTHER", WMS: true}},
			wantRemoved: runDate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			historical := Inventory{{
				Server: "S", Name: "gone", Title: "Gone",
				Description: strPtr("kept"),
				WMS:         true, WFS: true,
				FirstSeen: mustDate(t, "2024-01-01"),
				RemovedOn: tt.prevRemoved,
			}}

			res := Reconcile(NewSnapshot(), historical, tt.events, tt.directory, *runDate)
			got := findLayer(t, res.Inventory, "S", "gone")

			if got.WMS || got.WFS {
				t.Errorf("flags = wms:%v wfs:%v, want both false", got.WMS, got.WFS)
			}
			if !EqualNullable(got.RemovedOn, tt.wantRemoved) {
				t.Errorf("RemovedOn = %v, want %v", got.RemovedOn, tt.wantRemoved)
			}
			if got.Title != "Gone" || got.Description == nil || *got.Description != "kept" {
				t.Errorf("historical attributes not preserved: %+v", got)
			}
			if historical[0].RemovedOn != tt.prevRemoved || !historical[0].WMS {
				t.Error("historical input was mutated")
			}
		})
	}
}

func TestReconcile_ReappearedLayerClearsRemoval(t *testing.T) {
	historical := Inventory{{
		Server: "S", Name: "back", FirstSeen: mustDate(t, "2023-05-05"),
		RemovedOn: mustDate(t, "2024-01-10"),
	}}
	snap := snapshotOf(Layer{Server: "S", Name: "back", WMS: true})

	res := Reconcile(snap, historical, nil, Directory{{Name: "S", WMS: true}}, *mustDate(t, "2024-03-01"))
	got := findLayer(t, res.Inventory, "S", "back")

	if got.RemovedOn != nil {
		t.Errorf("RemovedOn = %v, want nil after reappearance", got.RemovedOn)
	}
	if !EqualNullable(got.FirstSeen, mustDate(t, "2023-05-05")) {
		t.Errorf("FirstSeen = %v, want 2023-05-05", got.FirstSeen)
	}
	if res.Stats.Reappeared != 1 {
		t.Errorf("Stats.Reappeared = %d, want 1", res.Stats.Reappeared)
	}
}

func TestReconcile_OutputIsSortedAndUnique(t *testing.T) {
	historical := Inventory{
		{Server: "B", Name: "b1", FirstSeen: mustDate(t, "2024-02-01")},
		{Server: "A", Name: "a1", FirstSeen: mustDate(t, "2024-01-01")},
		{Server: "A", Name: "a0"},
	}
	snap := snapshotOf(
		Layer{Server: "A", Name: "a1", WMS: true},
		Layer{Server: "A", Name: "a2", WMS: true},
		Layer{Server: "B", Name: "b1", WMS: true},
	)
	res := Reconcile(snap, historical, nil, Directory{{Name: "A"}, {Name: "B"}}, *mustDate(t, "2024-03-01"))

	want := []LayerKey{
		{Server: "A", Name: "a0"},
		{Server: "A", Name: "a1"},
		{Server: "B", Name: "b1"},
		{Server: "A", Name: "a2"},
	}
	if len(res.Inventory) != len(want) {
		t.Fatalf("len(Inventory) = %d, want %d", len(res.Inventory), len(want))
	}
	for i, k := range want {
		if res.Inventory[i].Key() != k {
			t.Errorf("Inventory[%d] = %s, want %s", i, res.Inventory[i].Key(), k)
		}
	}
}

func TestSnapshotObserveMergesServices(t *testing.T) {
	s := NewSnapshot()
	s.Observe(Layer{Server: "S", Name: "x", Title: "from wms", FirstSeen: &Date{2020, 1, 1}}, ServiceWMS)
	s.Observe(Layer{Server: "S", Name: "x", Title: "from wfs"}, ServiceWFS)

	if s.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", s.Len())
	}
	got, _ := s.Get(LayerKey{Server: "S", Name: "x"})
	if !got.WMS || !got.WFS {
		t.Errorf("flags = wms:%v wfs:%v, want both true", got.WMS, got.WFS)
	}
	if got.Title != "from wms" {
		t.Errorf("Title = %q, want first observation to win", got.Title)
	}
	if got.FirstSeen != nil {
		t.Error("snapshot layers must not carry dates")
	}
}

func TestPartition(t *testing.T) {
	cur := KeySet{}
	hist := KeySet{}
	cur.Add(LayerKey{"A", "new"})
	cur.Add(LayerKey{"A", "both"})
	hist.Add(LayerKey{"A", "both"})
	hist.Add(LayerKey{"A", "gone"})
	hist.Add(LayerKey{"a", "both"}) // keys are case-sensitive

	added, present, missing := Partition(cur, hist)

	if len(added) != 1 || added[0] != (LayerKey{"A", "new"}) {
		t.Errorf("added = %v", added)
	}
	if len(present) != 1 || present[0] != (LayerKey{"A", "both"}) {
		t.Errorf("present = %v", present)
	}
	if len(missing) != 2 {
		t.Errorf("missing = %v, want 2 keys", missing)
	}
}
