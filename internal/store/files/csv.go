package files

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/MrSnakeDoc/geoinv/internal/utils"
)

// csvTable is a parsed CSV file with columns addressed by header name.
type csvTable struct {
	columns map[string]int
	rows    [][]string
}

// readCSV loads path and checks that every required column is present.
// A missing file yields (nil, nil).
func readCSV(path string, required []string) (*csvTable, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer utils.Close(f)

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return &csvTable{columns: map[string]int{}}, nil
	}

	t := &csvTable{columns: make(map[string]int, len(records[0])), rows: records[1:]}
	for i, name := range records[0] {
		t.columns[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, col := range required {
		if _, ok := t.columns[col]; !ok {
			return nil, fmt.Errorf("%s: missing column %q", path, col)
		}
	}
	return t, nil
}

// get returns the cell of row under column, "" when absent.
func (t *csvTable) get(row []string, column string) string {
	i, ok := t.columns[column]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func writeCSV(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}
