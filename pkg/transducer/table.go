package transducer

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/edsrzf/mmap-go"
)

// unknownSuffix marks an hfst-lookup line for a word the transducer could not
// analyse ("word<TAB>word+?<TAB>inf").
const unknownSuffix = "+?"

// FormatError reports a malformed line in a lookup table file.
type FormatError struct {
	Path string
	Line int
	Msg  string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Msg)
}

// ErrTableClosed is returned by Analyze after Close.
var ErrTableClosed = errors.New("transducer: table closed")

type span struct {
	off, n int
}

// Table is an Analyzer over a precomputed lookup dump in hfst-lookup output
// format: one "surface<TAB>analysis[<TAB>weight]" line per analysis, groups
// separated by blank lines. The file is memory-mapped; analyses are copied
// out on demand. A Table is read-only after OpenTable and safe for concurrent
// Analyze calls.
type Table struct {
	path  string
	file  *os.File
	data  mmap.MMap
	index map[string][]span
}

// OpenTable maps the file at path and indexes it by surface form.
func OpenTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open lookup table: %w", err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat lookup table: %w", err)
	}
	t := &Table{path: path, file: f, index: make(map[string][]span)}
	if fi.Size() == 0 {
		// mmap refuses empty mappings
		return t, nil
	}
	t.data, err = mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mmap lookup table: %w", err)
	}
	if err := t.build(); err != nil {
		t.Close()
		return nil, err
	}
	return t, nil
}

func (t *Table) build() error {
	data := []byte(t.data)
	lineNo := 0
	for start := 0; start < len(data); {
		end := bytes.IndexByte(data[start:], '\n')
		if end < 0 {
			end = len(data)
		} else {
			end += start
		}
		lineNo++
		line := bytes.TrimSuffix(data[start:end], []byte{'\r'})
		lineStart := start
		start = end + 1

		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		fields := bytes.Split(line, []byte{'\t'})
		if len(fields) < 2 || len(fields[0]) == 0 {
			return &FormatError{Path: t.path, Line: lineNo, Msg: "expected surface<TAB>analysis"}
		}
		if len(fields) > 3 {
			return &FormatError{Path: t.path, Line: lineNo, Msg: fmt.Sprintf("expected at most 3 fields, got %d", len(fields))}
		}
		if len(fields) == 3 {
			if _, err := strconv.ParseFloat(string(bytes.TrimSpace(fields[2])), 64); err != nil {
				return &FormatError{Path: t.path, Line: lineNo, Msg: fmt.Sprintf("bad weight %q", fields[2])}
			}
		}

		surface := string(fields[0])
		an := fields[1]
		if _, seen := t.index[surface]; !seen {
			t.index[surface] = nil
		}
		if len(an) == 0 || bytes.HasSuffix(an, []byte(unknownSuffix)) {
			continue
		}
		t.index[surface] = append(t.index[surface], span{off: lineStart + len(fields[0]) + 1, n: len(an)})
	}
	return nil
}

// Analyze implements Analyzer. Unknown words yield ErrNoTokenization.
func (t *Table) Analyze(word string) ([]string, error) {
	if t.index == nil {
		return nil, ErrTableClosed
	}
	spans := t.index[word]
	if len(spans) == 0 {
		return nil, ErrNoTokenization
	}
	out := make([]string, len(spans))
	for i, s := range spans {
		out[i] = string(t.data[s.off : s.off+s.n])
	}
	return out, nil
}

// Len returns the number of indexed surface forms.
func (t *Table) Len() int { return len(t.index) }

// Close unmaps and closes the underlying file. It must not be called while
// Analyze calls are in flight.
func (t *Table) Close() error {
	t.index = nil
	var err error
	if t.data != nil {
		err = t.data.Unmap()
		t.data = nil
	}
	if t.file != nil {
		if cerr := t.file.Close(); err == nil {
			err = cerr
		}
		t.file = nil
	}
	return err
}
