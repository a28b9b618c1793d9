// Package dictionary loads the per-POS word→lemma lists consulted before any
// transducer analysis.
package dictionary

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/text/unicode/norm"
)

const (
	fieldSep = "==="
	formSep  = ";"
)

// Dictionary maps normalised surface forms to lemmas. It is read-only once
// built and safe for concurrent lookups.
type Dictionary struct {
	entries map[string]string
}

// New returns a dictionary built from form→lemma pairs. Keys are normalised
// the same way as parsed files.
func New(pairs map[string]string) *Dictionary {
	d := &Dictionary{entries: make(map[string]string, len(pairs))}
	for form, lemma := range pairs {
		d.add(form, lemma)
	}
	return d
}

// Key normalises a surface form into a dictionary key: trimmed, lower-cased
// and NFC-composed.
func Key(form string) string {
	return norm.NFC.String(strings.ToLower(strings.TrimSpace(form)))
}

func (d *Dictionary) add(form, lemma string) {
	k := Key(form)
	if k == "" || lemma == "" {
		return
	}
	d.entries[k] = lemma
}

// Lookup returns the lemma recorded for word.
func (d *Dictionary) Lookup(word string) (string, bool) {
	if d == nil {
		return "", false
	}
	lemma, ok := d.entries[Key(word)]
	return lemma, ok
}

// Contains reports whether word has an entry.
func (d *Dictionary) Contains(word string) bool {
	_, ok := d.Lookup(word)
	return ok
}

// Len returns the number of forms.
func (d *Dictionary) Len() int {
	if d == nil {
		return 0
	}
	return len(d.entries)
}

// Parse reads "LEMMA===FORM1;FORM2;..." lines. Lines that do not split into
// exactly two fields are skipped; when a form repeats, the later line wins.
func Parse(r io.Reader) (*Dictionary, error) {
	d := &Dictionary{entries: make(map[string]string)}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := splitTrimmed(line, fieldSep)
		if len(fields) != 2 {
			continue
		}
		lemma := strings.TrimSpace(fields[0])
		for _, form := range strings.Split(fields[1], formSep) {
			d.add(form, lemma)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return d, nil
}

// splitTrimmed splits s on sep and drops trailing empty fields, so
// "lemma===" has one field.
func splitTrimmed(s, sep string) []string {
	parts := strings.Split(s, sep)
	for len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return parts
}

// Load parses the dictionary file at path. Files ending in .gz or .zst are
// decompressed transparently.
func Load(path string) (*Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	case ".zst":
		zr, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		defer zr.Close()
		r = zr
	}

	d, err := Parse(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return d, nil
}
