package redis

import (
	"testing"

	"github.com/MrSnakeDoc/geoinv/internal/domain"
)

func TestLayerKey(t *testing.T) {
	tests := []struct {
		key  domain.LayerKey
		want string
	}{
		{domain.LayerKey{Server: "GeoBolivia", Name: "rios"}, "geoinv:layer:GeoBolivia:rios"},
		{domain.LayerKey{Server: "IGM", Name: "geonode:limites"}, "geoinv:layer:IGM:geonode:limites"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := LayerKey(tt.key); got != tt.want {
				t.Errorf("LayerKey() = %s, want %s", got, tt.want)
			}
			if got := LayerKeyFromID(LayerID(tt.key)); got != tt.want {
				t.Errorf("LayerKeyFromID(LayerID()) = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestLayerIDDistinguishesColonPlacement(t *testing.T) {
	tests := []struct {
		a, b domain.LayerKey
	}{
		{domain.LayerKey{Server: "A:B", Name: "c"}, domain.LayerKey{Server: "A", Name: "B:c"}},
		{domain.LayerKey{Server: "A%3AB", Name: "c"}, domain.LayerKey{Server: "A:B", Name: "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.a.Server+"|"+tt.b.Server, func(t *testing.T) {
			if LayerID(tt.a) == LayerID(tt.b) {
				t.Errorf("LayerID(%v) == LayerID(%v) = %s", tt.a, tt.b, LayerID(tt.a))
			}
		})
	}

	if got := LayerID(domain.LayerKey{Server: "A:B", Name: "c"}); got != "A%3AB:c" {
		t.Errorf("LayerID() = %s, want A%%3AB:c", got)
	}
}

func TestNewStoreDefaultsEventsCap(t *testing.T) {
	if s := NewStore(nil, 0); s.eventsCap != DefaultEventsCap {
		t.Errorf("eventsCap = %d, want %d", s.eventsCap, DefaultEventsCap)
	}
	if s := NewStore(nil, 50); s.eventsCap != 50 {
		t.Errorf("eventsCap = %d, want 50", s.eventsCap)
	}
}
