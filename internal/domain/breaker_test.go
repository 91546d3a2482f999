package domain

import (
	"testing"
	"time"
)

var laPaz = time.FixedZone("-04", -4*60*60)

// eventsOnDays returns one event per day going back from now, starting today.
func eventsOnDays(now time.Time, days int, server string, svc Service, kind EventKind) []Event {
	events := make([]Event, 0, days)
	for i := 0; i < days; i++ {
		events = append(events, Event{
			Time:    now.AddDate(0, 0, -i),
			Server:  server,
			Service: svc,
			Kind:    kind,
			Detail:  "x",
		})
	}
	return events
}

func TestFindChronicFailures_Threshold(t *testing.T) {
	now := time.Date(2024, 9, 20, 6, 0, 0, 0, laPaz)

	tests := []struct {
		name string
		log  []Event
		want []Pair
	}{
		{
			name: "ten errors in window disable",
			log:  eventsOnDays(now, 10, "S", ServiceWFS, EventError),
			want: []Pair{{Server: "S", Service: ServiceWFS}},
		},
		{
			name: "nine errors do not",
			log:  eventsOnDays(now, 9, "S", ServiceWFS, EventError),
			want: nil,
		},
		{
			name: "ok events never count",
			log: append(
				eventsOnDays(now, 9, "S", ServiceWFS, EventError),
				eventsOnDays(now, 5, "S", ServiceWFS, EventOK)...,
			),
			want: nil,
		},
		{
			name: "disabled events never count",
			log: append(
				eventsOnDays(now, 9, "S", ServiceWMS, EventError),
				Event{Time: now, Server: "S", Service: ServiceWMS, Kind: EventServiceDisabled},
			),
			want: nil,
		},
		{
			name: "errors are counted per pair",
			log: append(
				eventsOnDays(now, 5, "S", ServiceWMS, EventError),
				eventsOnDays(now, 5, "S", ServiceWFS, EventError)...,
			),
			want: nil,
		},
		{
			name: "errors before the window are ignored",
			log: append(
				eventsOnDays(now, 9, "S", ServiceWMS, EventError),
				Event{Time: now.AddDate(0, 0, -11), Server: "S", Service: ServiceWMS, Kind: EventError},
			),
			want: nil,
		},
		{
			name: "window start day is inclusive",
			log: append(
				eventsOnDays(now, 9, "S", ServiceWMS, EventError),
				Event{Time: now.AddDate(0, 0, -10), Server: "S", Service: ServiceWMS, Kind: EventError},
			),
			want: []Pair{{Server: "S", Service: ServiceWMS}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FindChronicFailures(tt.log, now, DefaultWindowDays, DefaultThreshold)
			if len(got) != len(tt.want) {
				t.Fatalf("FindChronicFailures() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("FindChronicFailures()[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestFindChronicFailures_UsesRunTimezoneForDays(t *testing.T) {
	now := time.Date(2024, 9, 20, 6, 0, 0, 0, laPaz)
	// 2024-09-10 02:00 UTC is still 2024-09-09 in La Paz, one day before the window.
	early := Event{
		Time:    time.Date(2024, 9, 10, 2, 0, 0, 0, time.UTC),
		Server:  "S",
		Service: ServiceWMS,
		Kind:    EventError,
	}
	log := append(eventsOnDays(now, 9, "S", ServiceWMS, EventError), early)

	if got := FindChronicFailures(log, now, 10, 10); len(got) != 0 {
		t.Errorf("FindChronicFailures() = %v, want none", got)
	}
}

func TestApplyBreaker(t *testing.T) {
	at := time.Date(2024, 9, 20, 6, 15, 0, 0, laPaz)
	dir := Directory{
		{Name: "IGM", OWS: "https://igm.example/ows", WMS: true, WFS: true},
		{Name: "OFF", OWS: "https://off.example/ows", WMS: true, WFS: false},
	}
	chronic := []Pair{
		{Server: "IGM", Service: ServiceWFS},
		{Server: "OFF", Service: ServiceWFS},  // already disabled
		{Server: "GONE", Service: ServiceWMS}, // not in directory
	}

	updated, events := ApplyBreaker(dir, chronic, at, 10)

	if !dir[0].WFS {
		t.Error("input directory was mutated")
	}
	igm, _ := updated.Find("IGM")
	if igm.WFS || !igm.WMS {
		t.Errorf("IGM = %+v, want wms:true wfs:false", igm)
	}
	if len(events) != 1 {
		t.Fatalf("len(events) = %d, want 1", len(events))
	}
	e := events[0]
	if e.Kind != EventServiceDisabled || e.Server != "IGM" || e.Service != ServiceWFS {
		t.Errorf("event = %+v", e)
	}
	if !e.Time.Equal(at) {
		t.Errorf("event time = %v, want %v", e.Time, at)
	}
	if e.Detail != "after 10 days of errors" {
		t.Errorf("event detail = %q", e.Detail)
	}
}

func TestBreakerScenario_IGM(t *testing.T) {
	now := time.Date(2024, 9, 20, 6, 15, 0, 0, laPaz)
	dir := Directory{{Name: "IGM", OWS: "https://igm.example/ows", WMS: true, WFS: true}}

	// nine errors on the nine previous days
	var history []Event
	for i := 1; i <= 9; i++ {
		history = append(history, Event{
			Time: now.AddDate(0, 0, -i), Server: "IGM", Service: ServiceWFS,
			Kind: EventError, Detail: "network error",
		})
	}
	run := []Event{
		{Time: now, Server: "IGM", Service: ServiceWMS, Kind: EventOK, Detail: "0.420 seconds"},
		{Time: now, Server: "IGM", Service: ServiceWFS, Kind: EventError, Detail: "network error"},
	}

	log := RecordRun(history, run)
	if len(log) != 11 {
		t.Fatalf("len(log) = %d, want 11", len(log))
	}

	chronic := FindChronicFailures(log, now, 10, 10)
	updated, breakerEvents := ApplyBreaker(dir, chronic, now, 10)
	log = RecordRun(log, breakerEvents)

	igm, _ := updated.Find("IGM")
	if igm.WFS {
		t.Error("IGM wfs should be disabled")
	}
	if !igm.WMS {
		t.Error("IGM wms should stay enabled")
	}

	// Same-minute events sort by server then service, so IGM/wms ok stays last.
	var disabled []Event
	for _, e := range log {
		if e.Kind == EventServiceDisabled {
			disabled = append(disabled, e)
		}
	}
	if len(disabled) != 1 {
		t.Fatalf("log holds %d servicio_deshabilitado events, want 1", len(disabled))
	}
	if d := disabled[0]; d.Pair() != (Pair{"IGM", ServiceWFS}) || !d.Time.Equal(now) || d.Detail != BreakerDetail(10) {
		t.Errorf("disabled event = %+v, want IGM/wfs at %v with %q", d, now, BreakerDetail(10))
	}
	if last := log[len(log)-1]; last.Pair() != (Pair{"IGM", ServiceWMS}) || last.Kind != EventOK {
		t.Errorf("last log entry = %+v, want IGM/wms ok", last)
	}

	// Next run: the pair is no longer polled, the old errors are still in the window,
	// but nothing new is emitted.
	tomorrow := now.AddDate(0, 0, 1)
	again := FindChronicFailures(log, tomorrow, 10, 10)
	_, more := ApplyBreaker(updated, again, tomorrow, 10)
	if len(more) != 0 {
		t.Errorf("breaker fired twice: %+v", more)
	}
}

func TestRecordRun_SortsStably(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	log := []Event{
		{Time: t0.Add(time.Hour), Server: "A", Service: ServiceWMS, Kind: EventOK},
	}
	run := []Event{
		{Time: t0, Server: "B", Service: ServiceWFS, Kind: EventError},
		{Time: t0, Server: "A", Service: ServiceWFS, Kind: EventOK},
		{Time: t0, Server: "A", Service: ServiceWMS, Kind: EventOK},
	}

	merged := RecordRun(log, run)

	want := []Pair{{"A", ServiceWFS}, {"A", ServiceWMS}, {"B", ServiceWFS}, {"A", ServiceWMS}}
	for i, p := range want {
		if merged[i].Pair() != p {
			t.Errorf("merged[%d] = %v, want %v", i, merged[i].Pair(), p)
		}
	}
	if len(log) != 1 || run[0].Server != "B" {
		t.Error("inputs were modified")
	}
}
