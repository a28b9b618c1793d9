// Package lemma decides the lemma of a token: closed-class and numeric tokens
// pass through, dictionaries take precedence, and a transducer fills the gaps.
package lemma

import (
	"io"
	"strings"

	"github.com/japaniel/lemmata/pkg/dictionary"
	"github.com/japaniel/lemmata/pkg/transducer"
)

// Language is the loaded, read-only resources of one language.
type Language struct {
	Code         string
	Dictionaries *dictionary.Set

	transducer *transducer.Lemmatizer
	closer     io.Closer
}

// NewLanguage assembles a language from already-loaded resources. A nil set
// behaves as six empty dictionaries; a nil lemmatizer disables the fallback.
func NewLanguage(code string, dicts *dictionary.Set, lem *transducer.Lemmatizer) *Language {
	if dicts == nil {
		dicts = &dictionary.Set{}
	}
	return &Language{Code: code, Dictionaries: dicts, transducer: lem}
}

// HasTransducer reports whether unknown words fall back to the transducer.
func (l *Language) HasTransducer() bool { return l.transducer != nil }

// Resolver lemmatizes tokens of one language. It holds no mutable state and
// may be shared between goroutines.
type Resolver struct {
	lang    *Language
	metrics *Metrics
}

// NewResolver returns a resolver over lang. Metrics may be nil.
func NewResolver(lang *Language, m *Metrics) *Resolver {
	return &Resolver{lang: lang, metrics: m}
}

// Language returns the language the resolver serves.
func (r *Resolver) Language() *Language { return r.lang }

// Resolve returns the lemma of tok. It never fails; when nothing applies the
// surface form is returned unchanged.
func (r *Resolver) Resolve(tok Token) string {
	return r.ResolveDetailed(tok).Lemma
}

// ResolveDetailed is Resolve, also reporting which rule decided.
func (r *Resolver) ResolveDetailed(tok Token) Resolution {
	res := r.resolve(tok)
	r.metrics.observe(r.lang.Code, res.Source)
	return res
}

func (r *Resolver) resolve(tok Token) Resolution {
	if tok.Kind == KindNumber || tok.Kind == KindPunct || strings.TrimSpace(tok.POS) == "" {
		return Resolution{Lemma: tok.Surface, Source: SourcePassthrough}
	}
	word := strings.ToLower(tok.Surface)

	dicts := r.lang.Dictionaries
	if dicts.Closed().Contains(word) {
		return Resolution{Lemma: tok.Surface, Source: SourceClosedClass}
	}
	if d, ok := dicts.ForPOS(tok.POS); ok {
		if lemma, ok := d.Lookup(word); ok {
			return Resolution{Lemma: lemma, Source: SourceDictionary}
		}
	}
	if r.lang.transducer != nil {
		if lemma, ok := r.lang.transducer.Lemmatize(word, tok.POS); ok && lemma != "" {
			return Resolution{Lemma: lemma, Source: SourceTransducer}
		}
	}
	return Resolution{Lemma: tok.Surface, Source: SourceIdentity}
}
