// Package document reads tokenized text for lemmatization: CoNLL-U and TSV
// files, Japanese plain text through kagome, and web articles.
package document

import (
	"strings"
	"unicode"

	"github.com/japaniel/lemmata/pkg/lemma"
)

// Sentence is an ordered run of tokens.
type Sentence struct {
	Text   string
	Tokens []lemma.Token
}

// Document is a titled sequence of sentences in one language.
type Document struct {
	Title     string
	URL       string
	Language  string
	Sentences []Sentence
}

// TokenCount returns the number of tokens across all sentences.
func (d *Document) TokenCount() int {
	n := 0
	for _, s := range d.Sentences {
		n += len(s.Tokens)
	}
	return n
}

// ClassifyKind derives the orthographic kind of a surface form.
func ClassifyKind(surface string) lemma.Kind {
	if strings.TrimSpace(surface) == "" {
		return lemma.KindSpace
	}
	digits, puncts, symbols, other := 0, 0, 0, 0
	for _, r := range surface {
		switch {
		case unicode.IsDigit(r) || unicode.IsNumber(r):
			digits++
		case unicode.IsPunct(r):
			puncts++
		case unicode.IsSymbol(r):
			symbols++
		default:
			other++
		}
	}
	switch {
	case other > 0:
		return lemma.KindWord
	case digits > 0:
		// "1,000" and "3.5" are numbers
		return lemma.KindNumber
	case symbols > 0:
		return lemma.KindSymbol
	default:
		return lemma.KindPunct
	}
}

func joinSurfaces(tokens []lemma.Token) string {
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = t.Surface
	}
	return strings.Join(parts, " ")
}
