package analysis

import (
	"strings"
	"unicode/utf8"
)

const (
	segmentTerminator = ">"
	tagOpen           = "<"
	capMarker         = "<CAP"
	suffixMarker      = "<SUFF"
)

var braceStripper = strings.NewReplacer("{", "", "}", "")

// Compound implements the SegmentedCompound grammar. An analysis is a chain of
// "stem<TAG>" segments; every stem but the last is collected into a buffer and
// the lemma is rebuilt from the buffer, the trailing segment and the word.
type Compound struct {
	tags Table
}

// NewCompound returns a segmented-compound grammar using tags.
func NewCompound(tags Table) *Compound {
	return &Compound{tags: tags}
}

// Family implements Grammar.
func (c *Compound) Family() Family { return SegmentedCompound }

// Parse implements Grammar.
func (c *Compound) Parse(raw, pos string) Parsed {
	t, ok := c.tags.Lookup(pos)
	if !ok || !strings.Contains(raw, t.Marker) {
		return Parsed{}
	}
	segments := splitSegments(t.Removal.ReplaceAllString(raw, ""))

	p := Parsed{Matched: true}
	for _, seg := range segments[:len(segments)-1] {
		if strings.HasPrefix(seg, capMarker) {
			continue
		}
		p.Stems = append(p.Stems, cutAtFirst(seg, tagOpen))
	}
	last := segments[len(segments)-1]
	p.TrailingHasSuffix = strings.HasSuffix(last, suffixMarker)
	p.Trailing = cutAtFirst(last, tagOpen)
	return p
}

// Extract implements Grammar.
func (c *Compound) Extract(raw, word, pos string) (string, bool) {
	p := c.Parse(raw, pos)
	if !p.Matched {
		return "", false
	}
	var buf strings.Builder
	for _, s := range p.Stems {
		buf.WriteString(strings.ToLower(s))
	}
	lemma, ok := selectCandidate(buf.String(), p.Trailing, p.TrailingHasSuffix, word)
	if !ok {
		return "", false
	}
	lemma = strings.ToLower(braceStripper.Replace(lemma))
	if lemma == "" {
		return "", false
	}
	return lemma, true
}

// selectCandidate picks the first applicable reconstruction of the lemma.
func selectCandidate(buffer, trailing string, hasSuffix bool, word string) (string, bool) {
	lowerWord := strings.ToLower(word)
	if lowerWord == buffer {
		return lowerWord, true
	}

	// Fragments shorter than the requested tail are skipped, not sliced.
	if tail, ok := lastRunes(trailing, 1); ok {
		if local := buffer + tail; strings.EqualFold(local, word) {
			return local, true
		}
	}
	if utf8.RuneCountInString(trailing) > 2 {
		tail, _ := lastRunes(trailing, 2)
		if local := buffer + tail; strings.EqualFold(local, word) {
			return local, true
		}
	}

	lowerTrailing := strings.ToLower(trailing)
	blank := strings.TrimSpace(buffer) == ""
	switch {
	case !blank && strings.HasPrefix(lowerWord, buffer):
		remainder := strings.ReplaceAll(lowerWord, buffer, "")
		if lowerTrailing != "" {
			remainder = strings.ReplaceAll(remainder, lowerTrailing, "")
		}
		trimmed := strings.TrimSpace(remainder)
		if trimmed == "" || utf8.RuneCountInString(trimmed) > 2 {
			return buffer + lowerTrailing, true
		}
		if hasSuffix {
			return buffer + remainder, true
		}
		if local := buffer + lowerTrailing; strings.HasPrefix(lowerWord, local) {
			return local, true
		}
		return buffer + remainder + lowerTrailing, true
	case blank:
		return lowerTrailing, true
	}
	return "", false
}

// splitSegments splits s on the segment terminator, dropping trailing empty
// segments but always returning at least one segment.
func splitSegments(s string) []string {
	parts := strings.Split(s, segmentTerminator)
	for len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	if len(parts) == 0 {
		return []string{""}
	}
	return parts
}

// lastRunes returns the last n runes of s, or false if s is shorter than n.
func lastRunes(s string, n int) (string, bool) {
	r := []rune(s)
	if len(r) < n {
		return "", false
	}
	return string(r[len(r)-n:]), true
}
