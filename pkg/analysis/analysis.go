// Package analysis turns raw transducer analyses into lemma candidates.
//
// A transducer returns strings that mix literal stems with grammatical tags, for
// example "run[V]+VPAST" or "Haus<NN>Tür<+NN><Fem><Nom><Sg>". Each language uses
// one tag grammar, modelled here as a Family plus a per-POS tag Table. A Grammar
// is chosen once per language and then asked, per analysis, whether the analysis
// matches the requested POS and which lemma it yields.
package analysis

import (
	"regexp"
	"strings"
)

// Family identifies the tag grammar of a transducer.
type Family int

const (
	// SuffixStrip cuts the analysis at the POS marker (English).
	SuffixStrip Family = iota
	// SegmentedCompound splits the analysis into tagged segments (German).
	SegmentedCompound
	// FixedSubstring cuts at short "#CODE" markers (Italian, Japanese via kagome).
	FixedSubstring
	// CompoundMarker cuts at "+word" markers (French).
	CompoundMarker
)

func (f Family) String() string {
	switch f {
	case SuffixStrip:
		return "suffix-strip"
	case SegmentedCompound:
		return "segmented-compound"
	case FixedSubstring:
		return "fixed-substring"
	case CompoundMarker:
		return "compound-marker"
	default:
		return "unknown"
	}
}

// Coarse POS tags understood by the tag tables.
const (
	Noun = "NOUN"
	Verb = "VERB"
	Adj  = "ADJ"
	Adv  = "ADV"
	Pron = "PRON"
	Conj = "CONJ"
)

// Tag is the marker for one POS in one tag grammar.
type Tag struct {
	// Marker must occur literally in an analysis for it to be considered.
	Marker string
	// Removal matches the tag suffix that is cut from the analysis.
	Removal *regexp.Regexp
}

// Table maps an upper-case coarse POS to its Tag.
type Table map[string]Tag

// Lookup returns the tag for pos, case-insensitively.
func (t Table) Lookup(pos string) (Tag, bool) {
	tag, ok := t[strings.ToUpper(strings.TrimSpace(pos))]
	return tag, ok
}

// Parsed is the structured form of one raw analysis.
type Parsed struct {
	// Matched reports whether the raw text carried the marker for the POS.
	Matched bool
	// Stems holds the literal stem segments in order.
	Stems []string
	// Trailing is the last segment with its tag remainder removed.
	Trailing string
	// TrailingHasSuffix is set when the last segment carried a suffix tag.
	TrailingHasSuffix bool
}

// Grammar extracts a lemma from a single raw analysis.
type Grammar interface {
	// Family reports which tag grammar the implementation handles.
	Family() Family
	// Parse decomposes raw for pos. Parsed.Matched is false when raw does not
	// contain the POS marker.
	Parse(raw, pos string) Parsed
	// Extract returns the lemma for word derived from raw, or false when the
	// analysis does not match pos or no heuristic applies.
	Extract(raw, word, pos string) (string, bool)
}

// ForLanguage returns the grammar registered for a language code.
func ForLanguage(code string) (Grammar, bool) {
	g, ok := grammars[strings.ToLower(strings.TrimSpace(code))]
	return g, ok
}

// Languages lists the language codes that have a grammar.
func Languages() []string {
	out := make([]string, 0, len(grammars))
	for code := range grammars {
		out = append(out, code)
	}
	return out
}

var grammars = map[string]Grammar{
	"en": NewStripper(SuffixStrip, englishTags),
	"de": NewCompound(germanTags),
	"it": NewStripper(FixedSubstring, italianTags),
	"ja": NewStripper(FixedSubstring, japaneseTags),
	"fr": NewStripper(CompoundMarker, frenchTags),
}

// cutAtFirst removes everything from the first occurrence of sep on.
func cutAtFirst(s, sep string) string {
	if i := strings.Index(s, sep); i >= 0 {
		return s[:i]
	}
	return s
}
