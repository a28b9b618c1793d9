package lemma

import "strings"

// Kind is the orthographic class of a token.
type Kind int

const (
	KindWord Kind = iota
	KindNumber
	KindPunct
	KindSymbol
	KindSpace
)

var kindNames = [...]string{"word", "number", "punct", "symbol", "space"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// ParseKind parses a kind name. Unknown names are words.
func ParseKind(s string) Kind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "number", "num":
		return KindNumber
	case "punct", "punctuation":
		return KindPunct
	case "symbol", "sym":
		return KindSymbol
	case "space", "spacetoken":
		return KindSpace
	}
	return KindWord
}

// Token is one unit handed to the resolver.
type Token struct {
	Surface string
	POS     string
	Kind    Kind
}

// Source records which rule produced a lemma.
type Source int

const (
	SourcePassthrough Source = iota
	SourceClosedClass
	SourceDictionary
	SourceTransducer
	SourceIdentity
)

var sourceNames = [...]string{"passthrough", "closed-class", "dictionary", "transducer", "identity"}

func (s Source) String() string {
	if s < 0 || int(s) >= len(sourceNames) {
		return "unknown"
	}
	return sourceNames[s]
}

// MarshalText lets a Source appear by name in JSON output.
func (s Source) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Resolution is a lemma together with the rule that produced it.
type Resolution struct {
	Lemma  string `json:"lemma"`
	Source Source `json:"source"`
}
