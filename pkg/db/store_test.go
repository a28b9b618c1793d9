package db

import (
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	// Ensure single connection to avoid separate in-memory DBs per connection.
	db.SetMaxOpenConns(1)
	if err := InitDB(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestCreateOrGetDocument(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	id1, err := CreateOrGetDocument(db, "en", "A", "https://example.com/a")
	if err != nil {
		t.Fatalf("create document: %v", err)
	}
	id2, err := CreateOrGetDocument(db, "en", "A again", "https://example.com/a")
	if err != nil {
		t.Fatalf("get document: %v", err)
	}
	if id1 != id2 {
		t.Fatalf("expected same document id, got %s and %s", id1, id2)
	}
	id3, err := CreateOrGetDocument(db, "de", "A", "https://example.com/a")
	if err != nil {
		t.Fatalf("create document: %v", err)
	}
	if id3 == id1 {
		t.Fatal("same URL in another language should be a new document")
	}
	// documents read from stdin have no URL and are never merged
	a, _ := CreateOrGetDocument(db, "en", "stdin", "")
	b, _ := CreateOrGetDocument(db, "en", "stdin", "")
	if a == "" || a == b {
		t.Fatalf("expected distinct ids for URL-less documents, got %q and %q", a, b)
	}
	if _, err := CreateOrGetDocument(db, " ", "", ""); err == nil {
		t.Fatal("expected error for empty language")
	}

	d, err := GetDocument(db, id1)
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if d.Title != "A" || d.Language != "en" || d.URL != "https://example.com/a" || d.AddedAt.IsZero() {
		t.Errorf("GetDocument = %+v", d)
	}
	if _, err := GetDocument(db, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetDocument(missing) err = %v, want ErrNotFound", err)
	}
}

func TestAnnotationsAndFrequencies(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	docID, err := CreateOrGetDocument(db, "en", "mice", "")
	if err != nil {
		t.Fatalf("create document: %v", err)
	}
	if err := SaveSentence(db, docID, 0, " The mice ran. "); err != nil {
		t.Fatalf("save sentence: %v", err)
	}

	anns := []Annotation{
		{DocumentID: docID, Sentence: 1, Position: 0, Surface: "Mice", POS: "NOUN", Lemma: "mouse", Source: "dictionary"},
		{DocumentID: docID, Sentence: 0, Position: 1, Surface: "mice", POS: "NOUN", Lemma: "mouse", Source: "dictionary"},
		{DocumentID: docID, Sentence: 0, Position: 2, Surface: "ran", POS: "VERB", Lemma: "run", Source: "transducer"},
		{DocumentID: docID, Sentence: 0, Position: 0, Surface: "The", POS: "DET", Lemma: "The", Source: "closed-class"},
	}
	for _, a := range anns {
		if err := SaveAnnotation(db, "en", a); err != nil {
			t.Fatalf("save annotation: %v", err)
		}
	}
	// re-saving a position replaces it
	if err := SaveAnnotation(db, "en", anns[2]); err != nil {
		t.Fatalf("save annotation again: %v", err)
	}

	got, err := GetAnnotations(db, docID)
	if err != nil {
		t.Fatalf("GetAnnotations: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("got %d annotations, want 4", len(got))
	}
	order := []string{"The", "mice", "ran", "Mice"}
	for i, a := range got {
		if a.Surface != order[i] {
			t.Errorf("annotation %d = %q, want %q", i, a.Surface, order[i])
		}
	}

	freqs, err := LemmaFrequencies(db, docID)
	if err != nil {
		t.Fatalf("LemmaFrequencies: %v", err)
	}
	if len(freqs) != 3 || freqs[0] != (LemmaCount{Lemma: "mouse", POS: "NOUN", Count: 2}) {
		t.Errorf("LemmaFrequencies = %+v", freqs)
	}

	var text string
	if err := db.QueryRow(`SELECT text FROM sentences WHERE document_id = ? AND idx = 0`, docID).Scan(&text); err != nil {
		t.Fatalf("query sentence: %v", err)
	}
	if text != "The mice ran." {
		t.Errorf("sentence text = %q", text)
	}
}

func TestCreateOrGetLemmaConcurrency(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	const n = 8
	ids := make(chan int64, n)
	for i := 0; i < n; i++ {
		go func() {
			id, err := CreateOrGetLemma(db, "走る", "verb", "ja")
			if err != nil {
				t.Errorf("create or get lemma: %v", err)
				ids <- 0
				return
			}
			ids <- id
		}()
	}
	var first int64
	for i := 0; i < n; i++ {
		id := <-ids
		if id == 0 {
			t.Fatalf("error in goroutine")
		}
		if i == 0 {
			first = id
		}
		if id != first {
			t.Fatalf("expected same id, got %d and %d", first, id)
		}
	}
	var cnt int
	if err := db.QueryRow(`SELECT COUNT(*) FROM lemmas WHERE lemma = ? AND pos = 'VERB'`, "走る").Scan(&cnt); err != nil {
		t.Fatalf("count: %v", err)
	}
	if cnt != 1 {
		t.Fatalf("expected 1 lemma row, got %d", cnt)
	}
	if _, err := CreateOrGetLemma(db, "  ", "NOUN", "ja"); err == nil {
		t.Fatal("expected error for empty lemma")
	}
}

func TestDocumentProgress(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	id, err := CreateOrGetDocument(db, "ja", "", "")
	if err != nil {
		t.Fatal(err)
	}
	if p, err := GetDocumentProgress(db, id); err != nil || p != -1 {
		t.Fatalf("initial progress = %d, %v", p, err)
	}
	if err := UpdateDocumentProgress(db, id, 5); err != nil {
		t.Fatal(err)
	}
	if p, _ := GetDocumentProgress(db, id); p != 5 {
		t.Fatalf("progress = %d, want 5", p)
	}
}
