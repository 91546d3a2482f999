package ows

import (
	"strconv"
	"strings"

	"github.com/MrSnakeDoc/geoinv/internal/domain"
)

// Mapper converts capabilities records to domain layers.
type Mapper struct {
	rules Rules
}

// NewMapper creates a mapper applying rules.
func NewMapper(rules Rules) *Mapper {
	return &Mapper{rules: rules}
}

// MapLayers converts the records advertised by server, dropping unnamed and
// sample layers. Service flags and dates are left unset; the snapshot owns them.
func (m *Mapper) MapLayers(server string, records []Record) []domain.Layer {
	layers := make([]domain.Layer, 0, len(records))
	for _, r := range records {
		name := strings.TrimSpace(r.Name)
		if name == "" || m.rules.IsSample(name) {
			continue
		}
		layers = append(layers, domain.Layer{
			Server:      server,
			Name:        name,
			Title:       strings.TrimSpace(r.Title),
			Description: m.rules.Description(r.Abstract),
			EPSG:        ParseEPSG(r.CRS),
			BBox: domain.BBox{
				West:  parseCoord(r.Bounds[0]),
				East:  parseCoord(r.Bounds[1]),
				South: parseCoord(r.Bounds[2]),
				North: parseCoord(r.Bounds[3]),
			},
		})
	}
	return layers
}

// ParseEPSG picks the first reference system mentioning EPSG and returns the
// integer after its last separator, e.g. "EPSG:4326" or
// "urn:ogc:def:crs:EPSG::32719". Unparseable values give 0.
func ParseEPSG(crs []string) int {
	for _, c := range crs {
		if !strings.Contains(strings.ToUpper(c), "EPSG") {
			continue
		}
		c = strings.TrimSpace(c)
		if i := strings.LastIndexAny(c, ":#"); i >= 0 {
			c = c[i+1:]
		}
		code, err := strconv.Atoi(c)
		if err != nil {
			return 0
		}
		return code
	}
	return 0
}

func parseCoord(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}
