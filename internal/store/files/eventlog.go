package files

import (
	"fmt"
	"io"
	"time"

	"github.com/MrSnakeDoc/geoinv/internal/domain"
)

// TimeLayout is the persisted event timestamp, minute precision with offset.
const TimeLayout = "2006-01-02 15:04 -0700"

// Older logs carry ISO timestamps; they are still accepted on read.
var readTimeLayouts = []string{
	TimeLayout,
	"2006-01-02T15:04-07:00",
	"2006-01-02 15:04:05-07:00",
	time.RFC3339,
}

var eventLogHeader = []string{"tiempo", "geoserver", "servicio", "evento", "descripcion"}

// EventLogStore reads and writes the event log CSV, sorted by
// (tiempo, geoserver, servicio).
type EventLogStore struct {
	path string
	loc  *time.Location
}

// NewEventLogStore creates a store writing timestamps in loc.
func NewEventLogStore(path string, loc *time.Location) *EventLogStore {
	if loc == nil {
		loc = time.UTC
	}
	return &EventLogStore{path: path, loc: loc}
}

func (s *EventLogStore) Path() string { return s.path }

// Load reads the log. A missing file is an empty log.
func (s *EventLogStore) Load() ([]domain.Event, error) {
	t, err := readCSV(s.path, eventLogHeader[:4])
	if err != nil || t == nil {
		return nil, err
	}

	events := make([]domain.Event, 0, len(t.rows))
	for i, row := range t.rows {
		e, err := parseEvent(t, row)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", s.path, i+2, err)
		}
		events = append(events, e)
	}
	domain.SortEvents(events)
	return events, nil
}

// Save writes the log sorted; events itself is not reordered.
func (s *EventLogStore) Save(events []domain.Event) error {
	sorted := make([]domain.Event, len(events))
	copy(sorted, events)
	domain.SortEvents(sorted)

	rows := make([][]string, 0, len(sorted))
	for _, e := range sorted {
		rows = append(rows, []string{
			e.Time.In(s.loc).Format(TimeLayout),
			e.Server,
			string(e.Service),
			string(e.Kind),
			e.Detail,
		})
	}
	return writeAtomic(s.path, func(w io.Writer) error {
		return writeCSV(w, eventLogHeader, rows)
	})
}

func parseEvent(t *csvTable, row []string) (domain.Event, error) {
	var e domain.Event
	var err error

	if e.Time, err = parseTime(t.get(row, "tiempo")); err != nil {
		return e, err
	}
	if e.Server = t.get(row, "geoserver"); e.Server == "" {
		return e, fmt.Errorf("empty geoserver")
	}
	if e.Service, err = domain.ParseService(t.get(row, "servicio")); err != nil {
		return e, err
	}
	if e.Kind, err = domain.ParseEventKind(t.get(row, "evento")); err != nil {
		return e, err
	}
	e.Detail = t.get(row, "descripcion")
	return e, nil
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range readTimeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}
