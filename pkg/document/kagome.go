package document

import (
	"strings"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"

	"github.com/japaniel/lemmata/pkg/lemma"
)

// Analyzer segments Japanese text into POS-tagged tokens.
type Analyzer struct {
	t *tokenizer.Tokenizer
}

// NewAnalyzer creates a new tokenizer instance.
func NewAnalyzer() (*Analyzer, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, err
	}
	return &Analyzer{t: t}, nil
}

// Analyze breaks text into tokens tagged with universal POS tags.
func (a *Analyzer) Analyze(text string) []lemma.Token {
	var result []lemma.Token
	for _, token := range a.t.Tokenize(text) {
		if token.Class == tokenizer.DUMMY || strings.TrimSpace(token.Surface) == "" {
			continue
		}
		pos, kind := universalPOS(token.Features())
		if kind == lemma.KindWord {
			// IPA tags full-width digits as nouns
			if k := ClassifyKind(token.Surface); k != lemma.KindWord {
				kind = k
			}
		}
		result = append(result, lemma.Token{Surface: token.Surface, POS: pos, Kind: kind})
	}
	return result
}

// AnalyzeDocument splits the text into sentences and tokenizes each sentence.
func (a *Analyzer) AnalyzeDocument(text string) []Sentence {
	var result []Sentence
	for _, s := range splitSentences(text) {
		if strings.TrimSpace(s) == "" {
			continue
		}
		tokens := a.Analyze(s)
		if len(tokens) == 0 {
			continue
		}
		result = append(result, Sentence{Text: strings.TrimSpace(s), Tokens: tokens})
	}
	return result
}

// universalPOS maps IPA features (0: POS, 1: sub-POS) to a universal tag.
func universalPOS(features []string) (string, lemma.Kind) {
	var pos, sub string
	if len(features) > 0 {
		pos = features[0]
	}
	if len(features) > 1 {
		sub = features[1]
	}
	switch pos {
	case "名詞":
		switch sub {
		case "代名詞":
			return "PRON", lemma.KindWord
		case "数":
			return "NUM", lemma.KindNumber
		case "固有名詞":
			return "PROPN", lemma.KindWord
		}
		return "NOUN", lemma.KindWord
	case "動詞":
		return "VERB", lemma.KindWord
	case "形容詞":
		return "ADJ", lemma.KindWord
	case "副詞":
		return "ADV", lemma.KindWord
	case "接続詞":
		return "CONJ", lemma.KindWord
	case "連体詞":
		return "DET", lemma.KindWord
	case "助詞":
		return "ADP", lemma.KindWord
	case "助動詞":
		return "AUX", lemma.KindWord
	case "感動詞", "フィラー":
		return "INTJ", lemma.KindWord
	case "接頭詞":
		return "X", lemma.KindWord
	case "記号":
		if sub == "空白" {
			return "SPACE", lemma.KindSpace
		}
		return "PUNCT", lemma.KindPunct
	}
	return "X", lemma.KindWord
}

func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for _, r := range text {
		current.WriteRune(r)
		// 。(3002), ！(FF01), ？(FF1F)
		if r == '。' || r == '！' || r == '？' || r == '\n' {
			sentences = append(sentences, current.String())
			current.Reset()
		}
	}
	if current.Len() > 0 {
		sentences = append(sentences, current.String())
	}
	return sentences
}
