package files

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/tidwall/jsonc"

	"github.com/MrSnakeDoc/geoinv/internal/domain"
)

// Field names of a directory entry, in the order they are written.
var directoryFields = []string{"nombre", "ows", "wms", "wfs"}

// DirectoryStore reads and writes the server directory, a JSON array of
// {"nombre","ows","wms","wfs"} objects. The file is edited by hand, so comments
// and trailing commas are accepted on read. Unknown keys of an entry survive a
// rewrite.
type DirectoryStore struct {
	path string
}

func NewDirectoryStore(path string) *DirectoryStore {
	return &DirectoryStore{path: path}
}

func (s *DirectoryStore) Path() string { return s.path }

// Load reads the directory. A missing file is an error: nothing can run without it.
func (s *DirectoryStore) Load() (domain.Directory, error) {
	entries, err := s.read()
	if err != nil {
		return nil, err
	}

	dir := make(domain.Directory, 0, len(entries))
	seen := make(map[string]bool, len(entries))
	for i, e := range entries {
		srv, err := e.server()
		if err != nil {
			return nil, fmt.Errorf("directory entry %d: %w", i, err)
		}
		if seen[srv.Name] {
			return nil, fmt.Errorf("directory entry %d: duplicate server %q", i, srv.Name)
		}
		seen[srv.Name] = true
		dir = append(dir, srv)
	}
	return dir, nil
}

// Save rewrites the directory atomically.
func (s *DirectoryStore) Save(dir domain.Directory) error {
	extras := map[string]rawEntry{}
	if entries, err := s.read(); err == nil {
		for _, e := range entries {
			var name string
			if raw, ok := e["nombre"]; ok && json.Unmarshal(raw, &name) == nil {
				extras[name] = e
			}
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	data, err := encodeDirectory(dir, extras)
	if err != nil {
		return err
	}
	return writeAtomic(s.path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

type rawEntry map[string]json.RawMessage

func (s *DirectoryStore) read() ([]rawEntry, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory file: %w", err)
	}
	var entries []rawEntry
	if err := json.Unmarshal(jsonc.ToJSON(data), &entries); err != nil {
		return nil, fmt.Errorf("failed to parse directory file: %w", err)
	}
	return entries, nil
}

func (e rawEntry) server() (domain.Server, error) {
	var srv domain.Server
	fields := []struct {
		key string
		dst any
	}{
		{"nombre", &srv.Name},
		{"ows", &srv.OWS},
		{"wms", &srv.WMS},
		{"wfs", &srv.WFS},
	}
	for _, f := range fields {
		raw, ok := e[f.key]
		if !ok || string(raw) == "null" {
			continue
		}
		if err := json.Unmarshal(raw, f.dst); err != nil {
			return domain.Server{}, fmt.Errorf("field %q: %w", f.key, err)
		}
	}
	srv.Name = strings.TrimSpace(srv.Name)
	srv.OWS = strings.TrimSpace(srv.OWS)
	if srv.Name == "" {
		return domain.Server{}, errors.New(`missing "nombre"`)
	}
	if srv.OWS == "" {
		return domain.Server{}, fmt.Errorf(`server %q: missing "ows"`, srv.Name)
	}
	return srv, nil
}

// encodeDirectory renders dir with two-space indentation and unescaped
// non-ASCII text. Known fields come first, extra keys follow sorted.
func encodeDirectory(dir domain.Directory, extras map[string]rawEntry) ([]byte, error) {
	var compact bytes.Buffer
	compact.WriteByte('[')
	for i, srv := range dir {
		if i > 0 {
			compact.WriteByte(',')
		}
		values := map[string]any{"nombre": srv.Name, "ows": srv.OWS, "wms": srv.WMS, "wfs": srv.WFS}

		var extraKeys []string
		for k := range extras[srv.Name] {
			if _, known := values[k]; !known {
				extraKeys = append(extraKeys, k)
			}
		}
		sort.Strings(extraKeys)

		compact.WriteByte('{')
		for j, k := range append(append([]string{}, directoryFields...), extraKeys...) {
			if j > 0 {
				compact.WriteByte(',')
			}
			if err := writeJSONValue(&compact, k); err != nil {
				return nil, err
			}
			compact.WriteByte(':')
			if v, ok := values[k]; ok {
				if err := writeJSONValue(&compact, v); err != nil {
					return nil, err
				}
				continue
			}
			compact.Write(extras[srv.Name][k])
		}
		compact.WriteByte('}')
	}
	compact.WriteByte(']')

	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), "", "  "); err != nil {
		return nil, fmt.Errorf("failed to encode directory: %w", err)
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

func writeJSONValue(buf *bytes.Buffer, v any) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode directory: %w", err)
	}
	// Encode terminates values with a newline.
	buf.Truncate(buf.Len() - 1)
	return nil
}
