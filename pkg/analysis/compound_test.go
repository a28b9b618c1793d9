package analysis

import "testing"

// Regression fixtures for the compound heuristic. Each case pins the literal
// output of one selection branch.
var compoundFixtures = []struct {
	branch string
	raw    string
	word   string
	pos    string
	want   string
	ok     bool
}{
	{"a: buffer equals word", "Kind<NN><SUFF><+NN><Neut><Nom><Sg>", "Kind", "NOUN", "kind", true},
	{"b: buffer plus last rune", "Tag<NN>e<+NN><Masc><Nom><Pl>", "Tage", "NOUN", "tage", true},
	{"c: buffer plus last two runes", "Stern<NN>chen<+NN><Neut><Nom><Sg>", "Sternen", "NOUN", "sternen", true},
	{"d: suffix detected", "Zeit<NN>ung<SUFF><+NN><Fem><Gen><Sg>", "Zeitungs", "NOUN", "zeits", true},
	{"d: buffer plus trailing is a prefix", "Haus<NN>Tür<+NN><Fem><Nom><Pl>", "Haustüren", "NOUN", "haustür", true},
	{"d: remainder inserted", "Bahn<NN>Hof<+NN><Masc><Nom><Sg>", "Bahnshof", "NOUN", "bahnshof", true},
	{"d: long remainder", "Bahn<NN>Hof<+NN><Masc><Nom><Pl>", "Bahnhöfe", "NOUN", "bahnhof", true},
	{"d: empty remainder", "Haus<NN>Tür<+NN><Fem><Nom><Sg>", "Haustür", "NOUN", "haustür", true},
	{"e: empty buffer", "Haus<+NN><Neut><Nom><Sg>", "Häuser", "NOUN", "haus", true},
	{"e: capitalisation segment skipped", "<CAP>laufen<+V><Inf>", "Laufen", "VERB", "laufen", true},
	{"braces stripped", "{Haus}<+NN><Neut><Nom><Sg>", "Häuser", "NOUN", "haus", true},
	{"conjunction", "und<+KONJ><Coord>", "und", "CONJ", "und", true},
	{"no branch applies", "Auto<NN>Bahn<+NN><Fem><Nom><Sg>", "Zug", "NOUN", "", false},
	{"marker missing", "Haus<+NN><Neut><Nom><Sg>", "Häuser", "VERB", "", false},
	{"pronoun has no tag", "ich<+PPRO><Pers>", "ich", "PRON", "", false},
}

func TestCompoundFixtures(t *testing.T) {
	g := NewCompound(germanTags)
	for _, tt := range compoundFixtures {
		t.Run(tt.branch, func(t *testing.T) {
			got, ok := g.Extract(tt.raw, tt.word, tt.pos)
			if ok != tt.ok || got != tt.want {
				t.Errorf("Extract(%q, %q, %q) = (%q, %v), want (%q, %v)", tt.raw, tt.word, tt.pos, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestCompoundShortTrailingIsGuarded(t *testing.T) {
	g := NewCompound(germanTags)
	tests := []struct {
		raw, word, want string
	}{
		// empty trailing fragment: last-rune candidates are inapplicable
		{"Kind<NN><CAP><+NN><Neut><Nom><Pl>", "Kinder", "kind"},
		// two-rune trailing fragment: the two-rune candidate is skipped
		{"Tag<NN>en<+NN><Masc><Dat><Pl>", "Tagen", "tagen"},
		// nothing but terminators left after removal
		{">><+NN>", "x", ""},
	}
	for _, tt := range tests {
		got, _ := g.Extract(tt.raw, tt.word, "NOUN")
		if got != tt.want {
			t.Errorf("Extract(%q, %q) = %q, want %q", tt.raw, tt.word, got, tt.want)
		}
	}
}

func TestCompoundParse(t *testing.T) {
	g := NewCompound(germanTags)
	p := g.Parse("<CAP>Zeit<NN>ung<SUFF><+NN><Fem><Nom><Sg>", "noun")
	if !p.Matched {
		t.Fatal("expected match")
	}
	if len(p.Stems) != 1 || p.Stems[0] != "Zeit" {
		t.Errorf("Stems = %q, want [Zeit]", p.Stems)
	}
	if p.Trailing != "ung" {
		t.Errorf("Trailing = %q, want %q", p.Trailing, "ung")
	}
	if !p.TrailingHasSuffix {
		t.Error("expected suffix to be detected")
	}
}

func TestSplitSegments(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{""}},
		{">>>", []string{""}},
		{"a>b", []string{"a", "b"}},
		{"a>b>", []string{"a", "b"}},
		{">a", []string{"", "a"}},
	}
	for _, tt := range tests {
		got := splitSegments(tt.in)
		if len(got) != len(tt.want) {
			t.Errorf("splitSegments(%q) = %q, want %q", tt.in, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("splitSegments(%q) = %q, want %q", tt.in, got, tt.want)
				break
			}
		}
	}
}
