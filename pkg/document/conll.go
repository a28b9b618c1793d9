package document

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/japaniel/lemmata/pkg/lemma"
)

const (
	conllColumns = 10
	conllForm    = 1
	conllUPOS    = 3
	textComment  = "# text ="
)

// ReadTSV reads tab-separated tokens, one per line, with blank lines between
// sentences and "#" comment lines. A line is either a 10-column CoNLL-U row
// (FORM and UPOS are used; multiword ranges and empty nodes are skipped) or
// "form<TAB>pos[<TAB>kind]". A bare form has no POS.
func ReadTSV(r io.Reader) ([]Sentence, error) {
	var (
		out  []Sentence
		cur  Sentence
		line int
	)
	flush := func() {
		if len(cur.Tokens) == 0 {
			cur = Sentence{}
			return
		}
		if cur.Text == "" {
			cur.Text = joinSurfaces(cur.Tokens)
		}
		out = append(out, cur)
		cur = Sentence{}
	}

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line++
		text := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			flush()
			continue
		}
		if strings.HasPrefix(text, "#") {
			if strings.HasPrefix(text, textComment) {
				cur.Text = strings.TrimSpace(strings.TrimPrefix(text, textComment))
			}
			continue
		}

		fields := strings.Split(text, "\t")
		var tok lemma.Token
		switch len(fields) {
		case conllColumns:
			id := fields[0]
			if strings.ContainsAny(id, "-.") {
				continue
			}
			tok = lemma.Token{Surface: fields[conllForm], POS: conllPOS(fields[conllUPOS])}
			tok.Kind = ClassifyKind(tok.Surface)
			if tok.POS == "PUNCT" {
				tok.Kind = lemma.KindPunct
			}
		case 1, 2, 3:
			tok.Surface = fields[0]
			if len(fields) > 1 {
				tok.POS = strings.TrimSpace(fields[1])
			}
			if len(fields) > 2 && strings.TrimSpace(fields[2]) != "" {
				tok.Kind = lemma.ParseKind(fields[2])
			} else {
				tok.Kind = ClassifyKind(tok.Surface)
			}
		default:
			return nil, fmt.Errorf("line %d: expected 1-3 or %d columns, got %d", line, conllColumns, len(fields))
		}
		cur.Tokens = append(cur.Tokens, tok)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	flush()
	return out, nil
}

func conllPOS(upos string) string {
	if upos == "_" {
		return ""
	}
	return upos
}

// WriteTSV writes each token with its lemma as "form<TAB>pos<TAB>lemma",
// sentences separated by blank lines.
func WriteTSV(w io.Writer, sentences []Sentence, lemmas [][]string) error {
	bw := bufio.NewWriter(w)
	for i, s := range sentences {
		if i > 0 {
			bw.WriteString("\n")
		}
		for j, tok := range s.Tokens {
			if _, err := fmt.Fprintf(bw, "%s\t%s\t%s\n", tok.Surface, tok.POS, lemmas[i][j]); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}
