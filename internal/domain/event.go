package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Service is an OGC service a server may publish layers through.
type Service string

const (
	ServiceWMS Service = "wms"
	ServiceWFS Service = "wfs"
)

// Services lists the supported services in query order.
var Services = []Service{ServiceWMS, ServiceWFS}

// ParseService validates a service name.
func ParseService(s string) (Service, error) {
	switch Service(strings.ToLower(strings.TrimSpace(s))) {
	case ServiceWMS:
		return ServiceWMS, nil
	case ServiceWFS:
		return ServiceWFS, nil
	default:
		return "", fmt.Errorf("unknown service %q", s)
	}
}

// EventKind classifies an outcome event. Values are the persisted vocabulary.
type EventKind string

const (
	EventOK              EventKind = "ok"
	EventError           EventKind = "error"
	EventServiceDisabled EventKind = "servicio_deshabilitado"
)

// ParseEventKind validates a persisted event kind.
func ParseEventKind(s string) (EventKind, error) {
	switch k := EventKind(strings.TrimSpace(s)); k {
	case EventOK, EventError, EventServiceDisabled:
		return k, nil
	default:
		return "", fmt.Errorf("unknown event kind %q", s)
	}
}

// Pair is a (server, service) combination, the unit the breaker acts on.
type Pair struct {
	Server  string  `json:"server"`
	Service Service `json:"service"`
}

func (p Pair) String() string {
	return p.Server + "/" + string(p.Service)
}

// Event is one entry of the health log.
//
// Detail is the latency for ok, the error message for error and the
// justification for servicio_deshabilitado.
type Event struct {
	Time    time.Time `json:"time"`
	Server  string    `json:"server"`
	Service Service   `json:"service"`
	Kind    EventKind `json:"kind"`
	Detail  string    `json:"detail"`
}

// Pair returns the (server, service) the event belongs to.
func (e Event) Pair() Pair {
	return Pair{Server: e.Server, Service: e.Service}
}

// SortEvents orders events by (time, server, service). Ties keep their order.
func SortEvents(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if !a.Time.Equal(b.Time) {
			return a.Time.Before(b.Time)
		}
		if a.Server != b.Server {
			return a.Server < b.Server
		}
		return a.Service < b.Service
	})
}

// ServersWithErrors returns every server that logged at least one error event.
func ServersWithErrors(events []Event) StringSet {
	set := make(StringSet)
	for _, e := range events {
		if e.Kind == EventError {
			set.Add(e.Server)
		}
	}
	return set
}

// SortPairs orders pairs by server then service.
func SortPairs(pairs []Pair) {
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Server != pairs[j].Server {
			return pairs[i].Server < pairs[j].Server
		}
		return pairs[i].Service < pairs[j].Service
	})
}
