// Package ingest lemmatizes documents concurrently and persists the
// annotations.
package ingest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/japaniel/lemmata/pkg/config"
	"github.com/japaniel/lemmata/pkg/db"
	"github.com/japaniel/lemmata/pkg/document"
	"github.com/japaniel/lemmata/pkg/lemma"
)

// WorkerPoolInterface abstracts the worker pool so tests can inject failing implementations.
type WorkerPoolInterface interface {
	Start(ctx context.Context)
	Submit(Job) error
	// SubmitCtx attempts to enqueue a job but returns promptly if ctx is canceled.
	SubmitCtx(ctx context.Context, job Job) error
	Close()
}

// Ingester lemmatizes the sentences of a document with one resolver replica
// per worker and writes the results in order.
type Ingester struct {
	DB       *sql.DB
	Shared   *lemma.Shared
	Language config.Language

	BatchSize int
	Workers   int
	// Logger is used for informational messages (e.g. resume status). nil means no logging.
	Logger *zap.Logger
	// OnProgress is called periodically with the number of processed sentences and total sentences.
	OnProgress func(current, total int)

	// PoolFactory allows tests to inject custom worker pool implementations.
	PoolFactory func(workers, queue int) WorkerPoolInterface
}

// NewIngester creates a new Ingester for one language.
func NewIngester(conn *sql.DB, shared *lemma.Shared, lang config.Language) *Ingester {
	return &Ingester{
		DB:        conn,
		Shared:    shared,
		Language:  lang,
		BatchSize: 50,
		Workers:   4,
	}
}

// processedSentence is the lemmatization of one sentence, in token order.
type processedSentence struct {
	Index       int
	Text        string
	Tokens      []lemma.Token
	Resolutions []lemma.Resolution
}

// annotations returns the persisted subset: tokens carrying a POS tag.
func (ps processedSentence) annotations(documentID string) []db.Annotation {
	var out []db.Annotation
	for i, tok := range ps.Tokens {
		if strings.TrimSpace(tok.POS) == "" || tok.Kind == lemma.KindSpace {
			continue
		}
		res := ps.Resolutions[i]
		out = append(out, db.Annotation{
			DocumentID: documentID,
			Sentence:   ps.Index,
			Position:   i,
			Surface:    tok.Surface,
			POS:        tok.POS,
			Lemma:      res.Lemma,
			Source:     res.Source.String(),
		})
	}
	return out
}

func (ig *Ingester) logger() *zap.Logger {
	if ig.Logger == nil {
		return zap.NewNop()
	}
	return ig.Logger
}

// Ingest lemmatizes sentences and saves them under documentID, resuming after
// the last sentence recorded as processed. It returns the number of
// annotations written.
func (ig *Ingester) Ingest(ctx context.Context, documentID string, sentences []document.Sentence) (int, error) {
	log := ig.logger().With(zap.String("document", documentID))

	lastProcessed, err := db.GetDocumentProgress(ig.DB, documentID)
	if err != nil {
		log.Warn("failed to retrieve progress", zap.Error(err))
		lastProcessed = -1
	}
	if lastProcessed >= 0 {
		log.Info("resuming", zap.Int("from_sentence", lastProcessed+1))
	}

	bw := NewBatchWriter(ig.DB, ig.BatchSize, 100*time.Millisecond)
	bw.SetLogger(log)

	var saved atomic.Int64
	sink := func(ps processedSentence) error {
		return bw.Submit(func(ctx context.Context, tx *sql.Tx) error {
			if err := db.SaveSentence(tx, documentID, ps.Index, ps.Text); err != nil {
				return fmt.Errorf("failed to save sentence %d: %w", ps.Index, err)
			}
			anns := ps.annotations(documentID)
			for _, a := range anns {
				if err := db.SaveAnnotation(tx, ig.Language.Code, a); err != nil {
					return fmt.Errorf("failed to persist %q: %w", a.Surface, err)
				}
			}
			// Checkpoint progress for this sentence
			if err := db.UpdateDocumentProgress(tx, documentID, ps.Index); err != nil {
				return fmt.Errorf("failed to save progress: %w", err)
			}
			saved.Add(int64(len(anns)))
			return nil
		})
	}

	runErr := ig.run(ctx, sentences, lastProcessed+1, sink)
	if err := bw.Close(); err != nil && runErr == nil {
		runErr = err
	}
	return int(saved.Load()), runErr
}

// Annotate lemmatizes sentences without persisting them. The result holds one
// resolution per token.
func (ig *Ingester) Annotate(ctx context.Context, sentences []document.Sentence) ([][]lemma.Resolution, error) {
	out := make([][]lemma.Resolution, len(sentences))
	err := ig.run(ctx, sentences, 0, func(ps processedSentence) error {
		out[ps.Index] = ps.Resolutions
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// run resolves sentences[startIdx:] on the worker pool and hands results to
// sink in sentence order from a single goroutine.
func (ig *Ingester) run(ctx context.Context, sentences []document.Sentence, startIdx int, sink func(processedSentence) error) error {
	total := len(sentences)
	if startIdx >= total {
		return nil
	}
	workers := ig.Workers
	if workers <= 0 {
		workers = 1
	}

	replicas := make(chan *lemma.Resolver, workers)
	for i := 0; i < workers; i++ {
		r, err := ig.Shared.NewReplica(ctx, ig.Language)
		if err != nil {
			return err
		}
		replicas <- r
	}

	var wp WorkerPoolInterface
	if ig.PoolFactory != nil {
		wp = ig.PoolFactory(workers, workers*2)
	} else {
		wp = NewWorkerPool(workers, workers*2)
	}
	resultCh := make(chan processedSentence, workers*2)
	doneCh := make(chan error, 1)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	wp.Start(ctx)

	go func() {
		buffer := make(map[int]processedSentence)
		nextIdx := startIdx
		for res := range resultCh {
			buffer[res.Index] = res
			for {
				item, ok := buffer[nextIdx]
				if !ok {
					break
				}
				delete(buffer, nextIdx)
				if err := sink(item); err != nil {
					// Signal producers to stop; workers drop their results.
					cancel()
					doneCh <- err
					return
				}
				nextIdx++
				if ig.OnProgress != nil && ig.BatchSize > 0 && nextIdx%ig.BatchSize == 0 {
					ig.OnProgress(nextIdx, total)
				}
			}
		}
		if nextIdx < total {
			doneCh <- ctx.Err()
			return
		}
		if ig.OnProgress != nil {
			ig.OnProgress(total, total)
		}
		doneCh <- nil
	}()

	var submitErr error
Loop:
	for i := startIdx; i < total; i++ {
		select {
		case <-ctx.Done():
			break Loop
		default:
		}

		idx := i
		job := func(ctx context.Context) error {
			var r *lemma.Resolver
			select {
			case r = <-replicas:
			case <-ctx.Done():
				return ctx.Err()
			}
			res := processSentence(idx, sentences[idx], r)
			replicas <- r

			select {
			case resultCh <- res:
			case <-ctx.Done():
			}
			return nil
		}

		if err := wp.SubmitCtx(ctx, job); err != nil {
			if errors.Is(err, ctx.Err()) || err == ErrPoolClosed {
				break Loop
			}
			submitErr = err
			cancel()
			break Loop
		}
	}

	// After Close returns no job is running, so nothing sends on resultCh.
	wp.Close()
	close(resultCh)
	consumerErr := <-doneCh

	if submitErr != nil {
		return submitErr
	}
	return consumerErr
}

// processSentence resolves every token of a sentence.
func processSentence(index int, s document.Sentence, r *lemma.Resolver) processedSentence {
	res := make([]lemma.Resolution, len(s.Tokens))
	for i, tok := range s.Tokens {
		res[i] = r.ResolveDetailed(tok)
	}
	return processedSentence{
		Index:       index,
		Text:        s.Text,
		Tokens:      s.Tokens,
		Resolutions: res,
	}
}
