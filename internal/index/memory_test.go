package index

import (
	"sync"
	"testing"

	"github.com/MrSnakeDoc/geoinv/internal/domain"
)

func sampleInventory() domain.Inventory {
	removed := &domain.Date{Year: 2024, Month: 9, Day: 20}
	return domain.Inventory{
		{Server: "B", Name: "b1", WMS: true},
		{Server: "A", Name: "a1", WFS: true},
		{Server: "A", Name: "a2"},
		{Server: "A", Name: "a3", RemovedOn: removed},
		{Server: "B", Name: "b2", RemovedOn: removed},
	}
}

func TestNewMemoryIndex(t *testing.T) {
	index := NewMemoryIndex()
	if index == nil {
		t.Fatal("NewMemoryIndex() returned nil")
	}
	if index.Count() != 0 {
		t.Errorf("NewMemoryIndex() should start empty, got %d layers", index.Count())
	}
	if index.LastRun() != nil {
		t.Error("NewMemoryIndex() should have no last run")
	}
}

func TestUpdateInventoryOverwrites(t *testing.T) {
	index := NewMemoryIndex()
	index.UpdateInventory(sampleInventory(), "run")
	index.UpdateInventory(domain.Inventory{{Server: "C", Name: "c1", WMS: true}}, "redis")

	if index.Count() != 1 {
		t.Errorf("Count() = %d, want 1", index.Count())
	}
	if _, ok := index.GetLayer(domain.LayerKey{Server: "A", Name: "a1"}); ok {
		t.Error("old layers should be gone")
	}
	if _, source := index.GetLastReload(); source != "redis" {
		t.Errorf("source = %q, want redis", source)
	}
}

func TestLayersFilter(t *testing.T) {
	index := NewMemoryIndex()
	index.UpdateInventory(sampleInventory(), "run")

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"all", Filter{}, []string{"a1", "a2", "a3", "b1", "b2"}},
		{"server", Filter{Server: "A"}, []string{"a1", "a2", "a3"}},
		{"available", Filter{State: StateAvailable}, []string{"a1", "b1"}},
		{"missing", Filter{State: StateMissing}, []string{"a2"}},
		{"removed on B", Filter{Server: "B", State: StateRemoved}, []string{"b2"}},
		{"unknown server", Filter{Server: "Z"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := index.Layers(tt.filter)
			if len(got) != len(tt.want) {
				t.Fatalf("Layers() returned %d layers, want %d", len(got), len(tt.want))
			}
			for i, name := range tt.want {
				if got[i].Name != name {
					t.Errorf("Layers()[%d] = %s, want %s", i, got[i].Name, name)
				}
			}
		})
	}
}

func TestCounts(t *testing.T) {
	index := NewMemoryIndex()
	index.UpdateInventory(sampleInventory(), "run")

	c := index.Counts()
	if c.Available != 2 || c.Missing != 1 || c.Removed != 2 {
		t.Errorf("Counts() = %+v", c)
	}
}

func TestParseState(t *testing.T) {
	for _, s := range []string{"", "available", "MISSING", " removed "} {
		if _, err := ParseState(s); err != nil {
			t.Errorf("ParseState(%q) error = %v", s, err)
		}
	}
	if _, err := ParseState("deleted"); err == nil {
		t.Error("ParseState(deleted) should fail")
	}
}

func TestLastRunIsCopied(t *testing.T) {
	index := NewMemoryIndex()
	index.SetLastRun(domain.RunSummary{Errors: 1})

	s := index.LastRun()
	s.Errors = 99
	if index.LastRun().Errors != 1 {
		t.Error("LastRun() should return a copy")
	}
}

func TestConcurrentAccess(t *testing.T) {
	index := NewMemoryIndex()
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			index.UpdateInventory(sampleInventory(), "run")
			index.UpdateDirectory(domain.Directory{{Name: "A", OWS: "https://a/ows", WMS: true}})
		}()
		go func() {
			defer wg.Done()
			_ = index.Layers(Filter{State: StateAvailable})
			_ = index.Counts()
			_ = index.Directory()
		}()
	}

	wg.Wait()
	if index.Count() != 5 {
		t.Errorf("Count() = %d, want 5", index.Count())
	}
}

func TestReadiness(t *testing.T) {
	index := NewMemoryIndex()
	index.SetMirroredRun(domain.RunSummary{Errors: 3})
	if index.Ready() {
		t.Error("a mirrored run should not make the index ready")
	}
	if index.LastRun() == nil || index.LastRun().Errors != 3 {
		t.Errorf("LastRun() = %+v, want the mirrored summary", index.LastRun())
	}

	index.SetLastRun(domain.RunSummary{Errors: 1})
	if !index.Ready() {
		t.Error("Ready() = false after SetLastRun")
	}

	index.SetMirroredRun(domain.RunSummary{Errors: 7})
	if index.LastRun().Errors != 1 {
		t.Error("a mirrored run should not override a local one")
	}
}
