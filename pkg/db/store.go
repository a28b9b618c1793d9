package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DBExecutor is an interface that allows methods to accept either *sql.DB or *sql.Tx
type DBExecutor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("db: not found")

// isUniqueConstraintErr returns true when the error indicates a unique/constraint violation
func isUniqueConstraintErr(err error) bool {
	if err == nil {
		return false
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "unique") || strings.Contains(s, "constraint failed")
}

// CreateOrGetDocument returns the id of the document already stored for url
// and language, or inserts a new one. Documents without a URL are always new.
func CreateOrGetDocument(db DBExecutor, language, title, url string) (string, error) {
	language = strings.TrimSpace(language)
	if language == "" {
		return "", fmt.Errorf("language must be non-empty")
	}

	const maxRetries = 3
	for attempt := 0; attempt < maxRetries; attempt++ {
		if url != "" {
			var id string
			err := db.QueryRow(`SELECT id FROM documents WHERE url = ? AND language = ?`, url, language).Scan(&id)
			if err == nil {
				return id, nil
			}
			if err != sql.ErrNoRows {
				return "", err
			}
		}

		id := uuid.NewString()
		_, err := db.Exec(
			`INSERT INTO documents (id, language, title, url, added_at) VALUES (?, ?, ?, ?, ?)`,
			id, language, title, nullableString(url), time.Now().UTC(),
		)
		if err != nil {
			// Another writer stored the same URL first; select it.
			if isUniqueConstraintErr(err) {
				continue
			}
			return "", fmt.Errorf("insert document: %w", err)
		}
		return id, nil
	}
	return "", fmt.Errorf("could not create or get document after %d retries", maxRetries)
}

// GetDocument loads a document by id.
func GetDocument(db DBExecutor, id string) (Document, error) {
	var d Document
	var title, url sql.NullString
	err := db.QueryRow(
		`SELECT id, language, title, url, added_at, last_processed_sentence FROM documents WHERE id = ?`, id,
	).Scan(&d.ID, &d.Language, &title, &url, &d.AddedAt, &d.Progress)
	if err == sql.ErrNoRows {
		return Document{}, fmt.Errorf("document %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Document{}, err
	}
	d.Title = title.String
	d.URL = url.String
	return d, nil
}

// SaveSentence stores the text of sentence idx of a document.
func SaveSentence(db DBExecutor, documentID string, idx int, text string) error {
	_, err := db.Exec(
		`INSERT INTO sentences (document_id, idx, text) VALUES (?, ?, ?)
		 ON CONFLICT(document_id, idx) DO UPDATE SET text = excluded.text`,
		documentID, idx, strings.TrimSpace(text),
	)
	return err
}

// CreateOrGetLemma returns the id of a (lemma, pos, language) entry,
// inserting it when missing.
func CreateOrGetLemma(db DBExecutor, lemma, pos, language string) (int64, error) {
	if strings.TrimSpace(lemma) == "" {
		return 0, fmt.Errorf("lemma must be non-empty")
	}
	var id int64
	err := db.QueryRow(
		`INSERT INTO lemmas (lemma, pos, language) VALUES (?, ?, ?)
		 ON CONFLICT(lemma, pos, language) DO UPDATE SET lemma = excluded.lemma
		 RETURNING id`,
		lemma, strings.ToUpper(pos), language,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert lemma: %w", err)
	}
	return id, nil
}

// SaveAnnotation records the lemma of one token, replacing any earlier
// annotation at the same position.
func SaveAnnotation(db DBExecutor, language string, a Annotation) error {
	if a.DocumentID == "" {
		return fmt.Errorf("documentID must be non-empty")
	}
	lemmaID, err := CreateOrGetLemma(db, a.Lemma, a.POS, language)
	if err != nil {
		return err
	}
	_, err = db.Exec(
		`INSERT INTO annotations (document_id, sentence, position, surface, pos, lemma_id, lemma, source)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(document_id, sentence, position) DO UPDATE SET
		   surface = excluded.surface,
		   pos = excluded.pos,
		   lemma_id = excluded.lemma_id,
		   lemma = excluded.lemma,
		   source = excluded.source`,
		a.DocumentID, a.Sentence, a.Position, a.Surface, a.POS, lemmaID, a.Lemma, a.Source,
	)
	if err != nil {
		return fmt.Errorf("insert annotation: %w", err)
	}
	return nil
}

// GetAnnotations returns the annotations of a document in reading order.
func GetAnnotations(db DBExecutor, documentID string) ([]Annotation, error) {
	rows, err := db.Query(
		`SELECT document_id, sentence, position, surface, pos, lemma, source
		 FROM annotations WHERE document_id = ? ORDER BY sentence, position`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Annotation
	for rows.Next() {
		var a Annotation
		if err := rows.Scan(&a.DocumentID, &a.Sentence, &a.Position, &a.Surface, &a.POS, &a.Lemma, &a.Source); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// LemmaFrequencies counts the tokens of a document per lemma, most frequent
// first.
func LemmaFrequencies(db DBExecutor, documentID string) ([]LemmaCount, error) {
	rows, err := db.Query(
		`SELECT l.lemma, l.pos, COUNT(*) AS n
		 FROM annotations a JOIN lemmas l ON l.id = a.lemma_id
		 WHERE a.document_id = ?
		 GROUP BY l.id ORDER BY n DESC, l.lemma`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []LemmaCount
	for rows.Next() {
		var c LemmaCount
		if err := rows.Scan(&c.Lemma, &c.POS, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetDocumentProgress returns the last processed sentence index for a document.
func GetDocumentProgress(db DBExecutor, documentID string) (int, error) {
	var index int
	err := db.QueryRow("SELECT last_processed_sentence FROM documents WHERE id = ?", documentID).Scan(&index)
	if err != nil {
		return 0, err
	}
	return index, nil
}

// UpdateDocumentProgress updates the last processed sentence index.
func UpdateDocumentProgress(db DBExecutor, documentID string, index int) error {
	_, err := db.Exec("UPDATE documents SET last_processed_sentence = ? WHERE id = ?", index, documentID)
	return err
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
