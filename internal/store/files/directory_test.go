package files

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MrSnakeDoc/geoinv/internal/domain"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func TestDirectoryStoreLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "directorio.json")
	writeFile(t, path, `[
  // re-enabled by hand after the migration
  {"nombre": "GeoBolivia", "ows": "https://geo.gob.bo/geoserver/ows", "wms": true, "wfs": true},
  /* still broken */
  {"nombre": "IGM", "ows": " https://igm.example/ows ", "wms": true, "wfs": false,},
]`)

	dir, err := NewDirectoryStore(path).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(dir) != 2 {
		t.Fatalf("len(dir) = %d, want 2", len(dir))
	}
	if dir[0].Name != "GeoBolivia" || !dir[0].WMS || !dir[0].WFS {
		t.Errorf("dir[0] = %+v", dir[0])
	}
	if dir[1].OWS != "https://igm.example/ows" || dir[1].WFS {
		t.Errorf("dir[1] = %+v", dir[1])
	}
}

func TestDirectoryStoreLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", `{{`},
		{"missing nombre", `[{"ows": "https://a/ows", "wms": true}]`},
		{"missing ows", `[{"nombre": "A", "wms": true}]`},
		{"wrong type", `[{"nombre": "A", "ows": "https://a/ows", "wms": "yes"}]`},
		{"duplicate", `[{"nombre": "A", "ows": "https://a/ows"}, {"nombre": "A", "ows": "https://b/ows"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "directorio.json")
			writeFile(t, path, tt.content)
			if _, err := NewDirectoryStore(path).Load(); err == nil {
				t.Error("Load() should fail")
			}
		})
	}

	if _, err := NewDirectoryStore(filepath.Join(t.TempDir(), "missing.json")).Load(); err == nil {
		t.Error("Load() of a missing directory should fail")
	}
}

func TestDirectoryStoreSaveKeepsExtraKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "directorio.json")
	writeFile(t, path, `[{"nombre": "Ríos & Cuencas", "ows": "https://a/ows", "wms": true, "wfs": true, "contacto": "sig@a.bo"}]`)

	store := NewDirectoryStore(path)
	dir, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	dir[0].WFS = false
	if err := store.Save(dir); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	want := `[
  {
    "nombre": "Ríos & Cuencas",
    "ows": "https://a/ows",
    "wms": true,
    "wfs": false,
    "contacto": "sig@a.bo"
  }
]
`
	if string(data) != want {
		t.Errorf("saved directory =\n%s\nwant\n%s", data, want)
	}

	reloaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load() after Save() error = %v", err)
	}
	if reloaded[0].WFS || !reloaded[0].WMS {
		t.Errorf("reloaded = %+v", reloaded[0])
	}
}

func TestDirectoryStoreSaveNewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "directorio.json")
	dir := domain.Directory{{Name: "A", OWS: "https://a/ows", WMS: true}}

	if err := NewDirectoryStore(path).Save(dir); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), `"wfs": false`) {
		t.Errorf("saved directory = %s", data)
	}
}
