// Package transducer wraps morphological analyzers and recovers lemmas from
// their output.
//
// An Analyzer is an opaque oracle returning every analysis it knows for a
// word. The Lemmatizer feeds those analyses, in order, through a language
// Grammar and stops at the first one yielding a lemma.
package transducer

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/japaniel/lemmata/pkg/analysis"
)

// ErrNoTokenization is returned by an Analyzer that has no analysis for a word.
var ErrNoTokenization = errors.New("transducer: no tokenization")

// Analyzer returns the raw analyses of a word. Implementations used by a
// Lemmatizer shared across goroutines must be safe for concurrent use.
type Analyzer interface {
	Analyze(word string) ([]string, error)
}

// AnalyzerFunc adapts a function to the Analyzer interface.
type AnalyzerFunc func(word string) ([]string, error)

// Analyze implements Analyzer.
func (f AnalyzerFunc) Analyze(word string) ([]string, error) { return f(word) }

// Lemmatizer derives lemmas from analyzer output.
type Lemmatizer struct {
	analyzer Analyzer
	grammar  analysis.Grammar
	logger   *zap.Logger

	// OnFailure, if set, is called whenever the analyzer fails for a word.
	OnFailure func(word string, err error)
}

// New returns a Lemmatizer. A nil logger disables logging.
func New(a Analyzer, g analysis.Grammar, logger *zap.Logger) *Lemmatizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Lemmatizer{analyzer: a, grammar: g, logger: logger}
}

// Lemmatize returns the lemma of word for pos, taken from the first analysis
// the grammar accepts. It returns false if the analyzer fails, has no
// analysis, or no analysis yields a lemma.
func (l *Lemmatizer) Lemmatize(word, pos string) (string, bool) {
	analyses, err := l.analyze(word)
	if err != nil {
		if !errors.Is(err, ErrNoTokenization) {
			l.logger.Debug("analyzer failed", zap.String("word", word), zap.String("pos", pos), zap.Error(err))
			if l.OnFailure != nil {
				l.OnFailure(word, err)
			}
		}
		return "", false
	}
	for _, raw := range analyses {
		if lemma, ok := l.grammar.Extract(raw, word, pos); ok {
			return lemma, true
		}
	}
	return "", false
}

// analyze calls the analyzer, converting a panic into an error.
func (l *Lemmatizer) analyze(word string) (analyses []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("transducer: analyzer panicked on %q: %v", word, r)
		}
	}()
	return l.analyzer.Analyze(word)
}
