package files

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/MrSnakeDoc/geoinv/internal/domain"
)

var inventoryHeader = []string{
	"geoserver", "nombre", "titulo", "descripcion", "epsg",
	"min_x", "max_x", "min_y", "max_y",
	"wms", "wfs", "fecha_encontrado", "fecha_removido",
}

// InventoryStore reads and writes the historical inventory CSV.
//
// Rows are written sorted by (fecha_encontrado nulls first, geoserver, nombre)
// with %.6f coordinates, YYYY-MM-DD dates and True/False flags so successive
// versions diff cleanly.
type InventoryStore struct {
	path string
}

func NewInventoryStore(path string) *InventoryStore {
	return &InventoryStore{path: path}
}

func (s *InventoryStore) Path() string { return s.path }

// Load reads the inventory. A missing file is an empty inventory.
func (s *InventoryStore) Load() (domain.Inventory, error) {
	t, err := readCSV(s.path, []string{"geoserver", "nombre"})
	if err != nil || t == nil {
		return nil, err
	}

	inv := make(domain.Inventory, 0, len(t.rows))
	for i, row := range t.rows {
		l, err := parseLayer(t, row)
		if err != nil {
			// +2: header line and 1-based numbering
			return nil, fmt.Errorf("%s line %d: %w", s.path, i+2, err)
		}
		inv = append(inv, l)
	}
	return inv, nil
}

// Save writes inv sorted; inv itself is not reordered.
func (s *InventoryStore) Save(inv domain.Inventory) error {
	sorted := make(domain.Inventory, len(inv))
	copy(sorted, inv)
	sorted.Sort()

	rows := make([][]string, 0, len(sorted))
	for _, l := range sorted {
		rows = append(rows, formatLayer(l))
	}
	return writeAtomic(s.path, func(w io.Writer) error {
		return writeCSV(w, inventoryHeader, rows)
	})
}

func parseLayer(t *csvTable, row []string) (domain.Layer, error) {
	l := domain.Layer{
		Server: t.get(row, "geoserver"),
		Name:   t.get(row, "nombre"),
		Title:  t.get(row, "titulo"),
	}
	if l.Server == "" || l.Name == "" {
		return l, fmt.Errorf("empty geoserver or nombre")
	}
	if d := t.get(row, "descripcion"); d != "" {
		l.Description = &d
	}

	var err error
	if l.EPSG, err = parseInt(t.get(row, "epsg")); err != nil {
		return l, fmt.Errorf("epsg: %w", err)
	}
	coords := []struct {
		col string
		dst *float64
	}{
		{"min_x", &l.BBox.West},
		{"max_x", &l.BBox.East},
		{"min_y", &l.BBox.South},
		{"max_y", &l.BBox.North},
	}
	for _, c := range coords {
		if *c.dst, err = parseFloat(t.get(row, c.col)); err != nil {
			return l, fmt.Errorf("%s: %w", c.col, err)
		}
	}
	if l.WMS, err = parseBool(t.get(row, "wms")); err != nil {
		return l, fmt.Errorf("wms: %w", err)
	}
	if l.WFS, err = parseBool(t.get(row, "wfs")); err != nil {
		return l, fmt.Errorf("wfs: %w", err)
	}
	if l.FirstSeen, err = parseNullableDate(t.get(row, "fecha_encontrado")); err != nil {
		return l, fmt.Errorf("fecha_encontrado: %w", err)
	}
	if l.RemovedOn, err = parseNullableDate(t.get(row, "fecha_removido")); err != nil {
		return l, fmt.Errorf("fecha_removido: %w", err)
	}
	return l, nil
}

func formatLayer(l domain.Layer) []string {
	desc := ""
	if l.Description != nil {
		desc = *l.Description
	}
	return []string{
		l.Server,
		l.Name,
		l.Title,
		desc,
		strconv.Itoa(l.EPSG),
		formatFloat(l.BBox.West),
		formatFloat(l.BBox.East),
		formatFloat(l.BBox.South),
		formatFloat(l.BBox.North),
		formatBool(l.WMS),
		formatBool(l.WFS),
		formatNullableDate(l.FirstSeen),
		formatNullableDate(l.RemovedOn),
	}
}

// parseInt accepts "4326" and the "4326.0" pandas writes for integer columns with gaps.
func parseInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	if i, err := strconv.Atoi(s); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", s)
	}
	return int(f), nil
}

func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return f, nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 6, 64)
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "true", "1":
		return true, nil
	case "false", "0", "":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean %q", s)
	}
}

func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// parseNullableDate reads YYYY-MM-DD, tolerating a trailing time part.
func parseNullableDate(s string) (*domain.Date, error) {
	if s == "" || strings.EqualFold(s, "nan") || strings.EqualFold(s, "nat") {
		return nil, nil
	}
	if len(s) > len(domain.DateLayout) {
		s = s[:len(domain.DateLayout)]
	}
	d, err := domain.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func formatNullableDate(d *domain.Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}
