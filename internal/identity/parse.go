package identity

import (
	"fmt"
	"os"
	"strings"
)

// dbLine is one physical line of an account database file. Lines that do
// not parse as records (comments, blanks, malformed entries) keep their
// raw text and are written back untouched.
type dbLine[T any] struct {
	raw   string
	entry *T
}

// dbFile holds a parsed account database while preserving its original
// line order and any non-record lines.
type dbFile[T any] struct {
	path   string
	mode   os.FileMode
	lines  []dbLine[T]
	format func(*T) string
}

func loadDBFile[T any](path string, parse func([]string) (*T, error), format func(*T) string) (*dbFile[T], error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	mode := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	f := &dbFile[T]{path: path, mode: mode, format: format}
	for _, raw := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		line := dbLine[T]{raw: raw}
		trimmed := strings.TrimSpace(raw)
		if trimmed != "" && !strings.HasPrefix(trimmed, "#") {
			if entry, err := parse(strings.Split(raw, ":")); err == nil {
				line.entry = entry
			}
		}
		f.lines = append(f.lines, line)
	}
	return f, nil
}

// entries returns the parsed records in file order. The pointers alias
// the file's state, so callers mutate records in place.
func (f *dbFile[T]) entries() []*T {
	var out []*T
	for _, line := range f.lines {
		if line.entry != nil {
			out = append(out, line.entry)
		}
	}
	return out
}

func (f *dbFile[T]) append(entry *T) {
	f.lines = append(f.lines, dbLine[T]{entry: entry})
}

// render serializes the file: parsed records are reformatted from their
// current state, everything else is emitted verbatim.
func (f *dbFile[T]) render() []byte {
	var b strings.Builder
	for _, line := range f.lines {
		if line.entry != nil {
			b.WriteString(f.format(line.entry))
		} else {
			b.WriteString(line.raw)
		}
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

func (f *dbFile[T]) save() error {
	return writeFileAtomic(f.path, f.render(), f.mode)
}
