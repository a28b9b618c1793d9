package dictionary

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Class is a coarse POS class with its own dictionary file.
type Class string

const (
	Noun Class = "noun"
	Verb Class = "verb"
	Adj  Class = "adj"
	Adv  Class = "adv"
	Det  Class = "det"
	Pron Class = "pronoun"
)

// Classes lists every dictionary class in load order.
var Classes = []Class{Noun, Verb, Adj, Adv, Det, Pron}

// FileName returns the base name of the class dictionary, e.g. "nounDic.txt".
func (c Class) FileName() string { return string(c) + "Dic.txt" }

// compressed variants tried after the plain file
var extensions = []string{"", ".gz", ".zst"}

// Set holds the six dictionaries of one language.
type Set struct {
	Noun, Verb, Adj, Adv, Det, Pron *Dictionary
}

// ForPOS returns the dictionary consulted for an open-class POS tag. Only
// NOUN, VERB, ADJ, ADV and PRON have one.
func (s *Set) ForPOS(pos string) (*Dictionary, bool) {
	switch strings.ToUpper(strings.TrimSpace(pos)) {
	case "NOUN":
		return s.Noun, true
	case "VERB":
		return s.Verb, true
	case "ADJ":
		return s.Adj, true
	case "ADV":
		return s.Adv, true
	case "PRON":
		return s.Pron, true
	}
	return nil, false
}

// Closed returns the closed-class (determiner) dictionary.
func (s *Set) Closed() *Dictionary { return s.Det }

func (s *Set) slot(c Class) **Dictionary {
	switch c {
	case Noun:
		return &s.Noun
	case Verb:
		return &s.Verb
	case Adj:
		return &s.Adj
	case Adv:
		return &s.Adv
	case Det:
		return &s.Det
	default:
		return &s.Pron
	}
}

// Sizes reports the number of forms per class.
func (s *Set) Sizes() map[Class]int {
	out := make(map[Class]int, len(Classes))
	for _, c := range Classes {
		out[c] = (*s.slot(c)).Len()
	}
	return out
}

// LoadSet loads all class dictionaries from dir concurrently. A missing dir is
// an error; a missing class file yields an empty dictionary and a warning.
func LoadSet(ctx context.Context, dir string, logger *zap.Logger) (*Set, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	fi, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("dictionary directory: %w", err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("dictionary directory: %s is not a directory", dir)
	}

	set := &Set{}
	g, ctx := errgroup.WithContext(ctx)
	for _, c := range Classes {
		slot := set.slot(c)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			path, ok := findFile(dir, c.FileName())
			if !ok {
				logger.Warn("dictionary file missing", zap.String("dir", dir), zap.String("class", string(c)))
				*slot = New(nil)
				return nil
			}
			d, err := Load(path)
			if err != nil {
				return err
			}
			logger.Debug("dictionary loaded", zap.String("path", path), zap.Int("forms", d.Len()))
			*slot = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return set, nil
}

func findFile(dir, name string) (string, bool) {
	for _, ext := range extensions {
		p := filepath.Join(dir, name+ext)
		if _, err := os.Stat(p); err == nil {
			return p, true
		} else if !errors.Is(err, fs.ErrNotExist) {
			// unreadable: let Load report it
			return p, true
		}
	}
	return "", false
}
