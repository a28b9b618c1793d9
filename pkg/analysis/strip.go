package analysis

import "strings"

// Stripper implements the grammars whose lemma is the literal text before the
// POS marker: SuffixStrip, FixedSubstring and CompoundMarker differ only in
// their tag tables.
type Stripper struct {
	family Family
	tags   Table
}

// NewStripper returns a marker-stripping grammar using tags.
func NewStripper(family Family, tags Table) *Stripper {
	return &Stripper{family: family, tags: tags}
}

// Family implements Grammar.
func (s *Stripper) Family() Family { return s.family }

// Parse implements Grammar. The single stem is the analysis with the tag
// suffix removed.
func (s *Stripper) Parse(raw, pos string) Parsed {
	t, ok := s.tags.Lookup(pos)
	if !ok || !strings.Contains(raw, t.Marker) {
		return Parsed{}
	}
	return Parsed{
		Matched: true,
		Stems:   []string{t.Removal.ReplaceAllString(raw, "")},
	}
}

// Extract implements Grammar.
func (s *Stripper) Extract(raw, word, pos string) (string, bool) {
	p := s.Parse(raw, pos)
	if !p.Matched {
		return "", false
	}
	lemma := fixBoundaries(p.Stems[0], word)
	if lemma == "" {
		return "", false
	}
	return strings.ToLower(lemma), true
}

// fixBoundaries reconciles "+" morpheme boundaries in lemma with word: a
// hyphenated word turns boundaries into hyphens, otherwise they are dropped.
func fixBoundaries(lemma, word string) string {
	if strings.Contains(lemma, "+") && !strings.Contains(lemma, "-") &&
		strings.Contains(word, "-") && !strings.Contains(word, "+") {
		lemma = strings.ReplaceAll(lemma, "+", "-")
	}
	if strings.Contains(lemma, "+") && !strings.Contains(word, "+") {
		lemma = strings.ReplaceAll(lemma, "+", "")
	}
	return lemma
}
