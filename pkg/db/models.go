package db

import "time"

// Document is one lemmatized text.
type Document struct {
	ID       string
	Language string
	Title    string
	URL      string
	AddedAt  time.Time
	Progress int
}

// Annotation is the lemma of one token of a document.
type Annotation struct {
	DocumentID string
	Sentence   int
	Position   int
	Surface    string
	POS        string
	Lemma      string
	Source     string
}

// LemmaCount is the number of tokens of a document sharing a lemma and POS.
type LemmaCount struct {
	Lemma string
	POS   string
	Count int
}
