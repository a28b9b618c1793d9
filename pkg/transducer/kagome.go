package transducer

import (
	"strings"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

// Kagome analyzes Japanese words with the kagome tokenizer and the IPA
// dictionary. Each analysis is rendered as "base#POS,subPOS", for example
// "走る#動詞,自立".
type Kagome struct {
	t *tokenizer.Tokenizer
}

// NewKagome builds a tokenizer over the IPA dictionary.
func NewKagome() (*Kagome, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, err
	}
	return &Kagome{t: t}, nil
}

// Analyze implements Analyzer. Only the head token of word is analysed; a
// word kagome splits into several morphemes is lemmatized by its first one.
func (k *Kagome) Analyze(word string) ([]string, error) {
	for _, tok := range k.t.Tokenize(word) {
		if tok.Class == tokenizer.DUMMY || strings.TrimSpace(tok.Surface) == "" {
			continue
		}
		return []string{render(tok.Surface, tok.Features())}, nil
	}
	return nil, ErrNoTokenization
}

// render formats IPA features: 0 POS, 1 sub-POS, 6 base form.
func render(surface string, features []string) string {
	base := surface
	if len(features) > 6 && features[6] != "*" {
		base = features[6]
	}
	var pos []string
	for i := 0; i < len(features) && i < 2; i++ {
		if features[i] == "*" {
			break
		}
		pos = append(pos, features[i])
	}
	return base + "#" + strings.Join(pos, ",")
}
