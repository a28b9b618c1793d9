package analysis

import "regexp"

// tag builds a Tag whose removal pattern is the marker pattern followed by
// everything up to the end of the analysis.
func tag(marker, pattern string) Tag {
	return Tag{Marker: marker, Removal: regexp.MustCompile(pattern + `.*`)}
}

// English analyses look like "run[V]+VPAST".
var englishTags = Table{
	Noun: tag("[N]+N", `\[N\]\+N`),
	Verb: tag("[V]+V", `\[V\]\+V`),
	Adj:  tag("[ADJ]+ADJ", `\[ADJ\]\+ADJ`),
	Adv:  tag("[ADV]+ADV", `\[ADV\]\+ADV`),
}

// German analyses look like "Haus<NN>Tür<+NN><Fem><Nom><Sg>".
var germanTags = Table{
	Noun: tag("<+NN>", `<\+NN>`),
	Verb: tag("<+V>", `<\+V>`),
	Adj:  tag("<+ADJ>", `<\+ADJ>`),
	Adv:  tag("<+ADV>", `<\+ADV>`),
	Conj: tag("<+KONJ>", `<\+KONJ>`),
}

// Italian analyses look like "cane#NOUN-M:s".
var italianTags = Table{
	Noun: tag("#NOUN", `#NOUN`),
	Verb: tag("#VER", `#VER`),
	Adj:  tag("#ADJ", `#ADJ`),
	Adv:  tag("#ADV", `#ADV`),
	Conj: tag("#CON", `#CON`),
}

// French analyses look like "chien+commonNoun+masc+sg". The verb pattern
// deliberately accepts "+verb", "+verbb", ... as the removal start.
var frenchTags = Table{
	Noun: tag("+commonNoun", `\+commonNoun`),
	Verb: tag("+verb+", `\+verb+`),
	Adj:  tag("+adjective", `\+adjective`),
	Adv:  tag("+adverb", `\+adverb`),
	Pron: tag("+functionWord", `\+functionWord`),
	Conj: tag("+functionWord", `\+functionWord`),
}

// Japanese analyses are rendered by the kagome analyzer as "base#POS,subPOS",
// e.g. "走る#動詞,自立".
var japaneseTags = Table{
	Noun: tag("#名詞", `#名詞`),
	Verb: tag("#動詞", `#動詞`),
	Adj:  tag("#形容詞", `#形容詞`),
	Adv:  tag("#副詞", `#副詞`),
	Pron: tag("#名詞,代名詞", `#名詞,代名詞`),
	Conj: tag("#接続詞", `#接続詞`),
}
