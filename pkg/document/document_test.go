package document

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/japaniel/lemmata/pkg/lemma"
)

func TestClassifyKind(t *testing.T) {
	tests := []struct {
		in   string
		want lemma.Kind
	}{
		{"house", lemma.KindWord},
		{"42", lemma.KindNumber},
		{"3,5", lemma.KindNumber},
		{"１２", lemma.KindNumber},
		{",", lemma.KindPunct},
		{"...", lemma.KindPunct},
		{"。", lemma.KindPunct},
		{"$", lemma.KindSymbol},
		{" ", lemma.KindSpace},
		{"B2B", lemma.KindWord},
	}
	for _, tt := range tests {
		if got := ClassifyKind(tt.in); got != tt.want {
			t.Errorf("ClassifyKind(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

const conllu = `# sent_id = 1
# text = The mice ran.
1	The	the	DET	DT	_	2	det	_	_
2	mice	mouse	NOUN	NNS	_	3	nsubj	_	_
3	ran	run	VERB	VBD	_	0	root	_	SpaceAfter=No
4	.	.	PUNCT	.	_	3	punct	_	_

1-2	Zum	_	_	_	_	_	_	_	_
1	Zu	zu	ADP	APPR	_	3	case	_	_
2	dem	der	DET	ART	_	3	det	_	_
2.1	x	_	_	_	_	_	_	_	_
3	Haus	Haus	NOUN	NN	_	0	root	_	_
`

func TestReadTSVConllu(t *testing.T) {
	sents, err := ReadTSV(strings.NewReader(conllu))
	if err != nil {
		t.Fatalf("ReadTSV: %v", err)
	}
	if len(sents) != 2 {
		t.Fatalf("got %d sentences, want 2", len(sents))
	}
	if sents[0].Text != "The mice ran." {
		t.Errorf("Text = %q", sents[0].Text)
	}
	want := []lemma.Token{
		{Surface: "The", POS: "DET", Kind: lemma.KindWord},
		{Surface: "mice", POS: "NOUN", Kind: lemma.KindWord},
		{Surface: "ran", POS: "VERB", Kind: lemma.KindWord},
		{Surface: ".", POS: "PUNCT", Kind: lemma.KindPunct},
	}
	for i, tok := range sents[0].Tokens {
		if tok != want[i] {
			t.Errorf("token %d = %+v, want %+v", i, tok, want[i])
		}
	}
	if got := joinSurfaces(sents[1].Tokens); got != "Zu dem Haus" {
		t.Errorf("second sentence = %q, want %q", got, "Zu dem Haus")
	}
	if sents[1].Text != "Zu dem Haus" {
		t.Errorf("second sentence text = %q", sents[1].Text)
	}
}

func TestReadTSVColumns(t *testing.T) {
	in := "Häuser\tNOUN\n1999\tNUM\n!\tPUNCT\tpunct\nlief\tVERB\tword\nallein\n\r\n\n"
	sents, err := ReadTSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadTSV: %v", err)
	}
	if len(sents) != 1 || len(sents[0].Tokens) != 5 {
		t.Fatalf("got %+v", sents)
	}
	toks := sents[0].Tokens
	if toks[0].POS != "NOUN" || toks[0].Kind != lemma.KindWord {
		t.Errorf("tok 0 = %+v", toks[0])
	}
	if toks[1].Kind != lemma.KindNumber || toks[2].Kind != lemma.KindPunct {
		t.Errorf("kinds = %v, %v", toks[1].Kind, toks[2].Kind)
	}
	if toks[4].POS != "" {
		t.Errorf("bare form should have no POS, got %q", toks[4].POS)
	}
}

func TestReadTSVBadLine(t *testing.T) {
	_, err := ReadTSV(strings.NewReader("ok\tNOUN\na\tb\tc\td\te\n"))
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("err = %v, want line 2 error", err)
	}
}

func TestWriteTSV(t *testing.T) {
	sents := []Sentence{
		{Tokens: []lemma.Token{{Surface: "mice", POS: "NOUN"}, {Surface: "ran", POS: "VERB"}}},
		{Tokens: []lemma.Token{{Surface: "ok", POS: "INTJ"}}},
	}
	var buf bytes.Buffer
	if err := WriteTSV(&buf, sents, [][]string{{"mouse", "run"}, {"ok"}}); err != nil {
		t.Fatal(err)
	}
	want := "mice\tNOUN\tmouse\nran\tVERB\trun\n\nok\tINTJ\tok\n"
	if buf.String() != want {
		t.Errorf("WriteTSV = %q, want %q", buf.String(), want)
	}
}

func TestAnalyzerUniversalPOS(t *testing.T) {
	a, err := NewAnalyzer()
	if err != nil {
		t.Fatalf("Failed to create analyzer: %v", err)
	}
	toks := a.Analyze("私は走った。")
	want := []lemma.Token{
		{Surface: "私", POS: "PRON", Kind: lemma.KindWord},
		{Surface: "は", POS: "ADP", Kind: lemma.KindWord},
		{Surface: "走っ", POS: "VERB", Kind: lemma.KindWord},
		{Surface: "た", POS: "AUX", Kind: lemma.KindWord},
		{Surface: "。", POS: "PUNCT", Kind: lemma.KindPunct},
	}
	if len(toks) != len(want) {
		t.Fatalf("Analyze = %+v, want %+v", toks, want)
	}
	for i := range want {
		if toks[i] != want[i] {
			t.Errorf("token %d = %+v, want %+v", i, toks[i], want[i])
		}
	}
}

func TestAnalyzeDocumentSegmentation(t *testing.T) {
	a, err := NewAnalyzer()
	if err != nil {
		t.Fatalf("Failed to create analyzer: %v", err)
	}
	sents := a.AnalyzeDocument("今日は晴れ。散歩に行きます！\n\n本当？")
	if len(sents) != 3 {
		t.Fatalf("got %d sentences, want 3: %+v", len(sents), sents)
	}
	if sents[1].Text != "散歩に行きます！" {
		t.Errorf("sentence 1 = %q", sents[1].Text)
	}
	doc := Document{Sentences: sents}
	if doc.TokenCount() < 8 {
		t.Errorf("TokenCount() = %d, suspiciously low", doc.TokenCount())
	}
}

func TestUniversalPOS(t *testing.T) {
	tests := []struct {
		features []string
		pos      string
		kind     lemma.Kind
	}{
		{[]string{"名詞", "数"}, "NUM", lemma.KindNumber},
		{[]string{"名詞", "固有名詞"}, "PROPN", lemma.KindWord},
		{[]string{"接続詞", "*"}, "CONJ", lemma.KindWord},
		{[]string{"記号", "空白"}, "SPACE", lemma.KindSpace},
		{nil, "X", lemma.KindWord},
	}
	for _, tt := range tests {
		pos, kind := universalPOS(tt.features)
		if pos != tt.pos || kind != tt.kind {
			t.Errorf("universalPOS(%v) = (%s, %v), want (%s, %v)", tt.features, pos, kind, tt.pos, tt.kind)
		}
	}
}

func TestSanitizeRuby(t *testing.T) {
	in := []byte(`<p><ruby>漢字<rp>(</rp><RT class="x">かんじ</rt><rp>)</rp></ruby>を読む</p>`)
	got := string(SanitizeRuby(in))
	want := `<p><ruby>漢字</ruby>を読む</p>`
	if got != want {
		t.Errorf("SanitizeRuby = %q, want %q", got, want)
	}
}

var articleHTML = `<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>緑色の想い出</title></head>
<body>
<nav><a href="/">Home</a></nav>
<article>
<h1>緑色の想い出</h1>
` + strings.Repeat(`<p>私は<ruby>漢字<rt>かんじ</rt></ruby>を勉強しています。毎日、公園を散歩して、木々の緑色を眺めながら、昔のことを思い出します。友達と一緒に走った道は、今でも心に残っています。</p>
`, 6) + `</article>
<footer>© 2026</footer>
</body></html>`

func TestReadArticle(t *testing.T) {
	u, _ := url.Parse("http://localhost/sample")
	a, err := ReadArticle(strings.NewReader(articleHTML), u)
	if err != nil {
		t.Fatalf("ReadArticle: %v", err)
	}
	if !strings.Contains(a.Title, "緑色の想い出") {
		t.Errorf("Title = %q", a.Title)
	}
	if !strings.Contains(a.Text, "漢字を勉強") {
		t.Errorf("ruby base text missing from %q", a.Text)
	}
	if strings.Contains(a.Text, "かんじ") {
		t.Error("furigana should have been removed")
	}
}

func TestFetchArticle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(articleHTML))
	}))
	defer srv.Close()

	a, err := FetchArticle(context.Background(), srv.URL+"/article")
	if err != nil {
		t.Fatalf("FetchArticle: %v", err)
	}
	if a.URL != srv.URL+"/article" || len(a.Text) < 100 {
		t.Errorf("article = %q (%d chars)", a.URL, len(a.Text))
	}

	missing := httptest.NewServer(http.NotFoundHandler())
	defer missing.Close()
	if _, err := FetchArticle(context.Background(), missing.URL); err == nil {
		t.Error("expected error for 404")
	}
}
