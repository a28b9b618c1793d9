package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// WriteFunc performs database writes inside a transaction. tx is nil when
// the writer has no database.
type WriteFunc func(ctx context.Context, tx *sql.Tx) error

// BatchWriter buffers write operations and commits them in batches, one
// transaction per batch, from a single goroutine. A failing WriteFunc rolls
// back its whole batch.
type BatchWriter struct {
	db     *sql.DB
	logger *zap.Logger

	mu     sync.Mutex
	buf    []WriteFunc
	size   int
	closed bool
	ticker *time.Ticker

	commitCh chan []WriteFunc
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	// OnError, if set, is called with every asynchronous batch error.
	OnError func(error)

	errMu   sync.Mutex
	lastErr error

	committed atomic.Int64
}

// NewBatchWriter creates a new BatchWriter that flushes when bufferSize
// writes are pending or, if flushInterval is positive, on every tick.
func NewBatchWriter(db *sql.DB, bufferSize int, flushInterval time.Duration) *BatchWriter {
	if bufferSize <= 0 {
		bufferSize = 10
	}
	ctx, cancel := context.WithCancel(context.Background())
	bw := &BatchWriter{
		db:       db,
		logger:   zap.NewNop(),
		buf:      make([]WriteFunc, 0, bufferSize),
		size:     bufferSize,
		commitCh: make(chan []WriteFunc, 2),
		ctx:      ctx,
		cancel:   cancel,
	}

	bw.wg.Add(1)
	go bw.committer()

	if flushInterval > 0 {
		bw.ticker = time.NewTicker(flushInterval)
		bw.wg.Add(1)
		go bw.loop()
	}
	return bw
}

// SetLogger replaces the writer's logger. It must be called before Submit.
func (bw *BatchWriter) SetLogger(l *zap.Logger) {
	if l != nil {
		bw.logger = l
	}
}

// Submit enqueues a write function. It blocks while two batches are already
// waiting to be committed.
func (bw *BatchWriter) Submit(w WriteFunc) error {
	bw.mu.Lock()
	defer bw.mu.Unlock()
	if bw.closed {
		return ErrBatchWriterClosed
	}
	bw.buf = append(bw.buf, w)
	if len(bw.buf) >= bw.size {
		bw.flushLocked()
	}
	return nil
}

// Committed returns the number of writes committed so far.
func (bw *BatchWriter) Committed() int64 { return bw.committed.Load() }

// flushLocked assumes bw.mu is held.
func (bw *BatchWriter) flushLocked() {
	if len(bw.buf) == 0 {
		return
	}
	batch := bw.buf
	bw.buf = make([]WriteFunc, 0, bw.size)

	select {
	case bw.commitCh <- batch:
	case <-bw.ctx.Done():
		bw.fail(fmt.Errorf("batch writer: dropping batch of %d items due to context cancellation", len(batch)))
	}
}

func (bw *BatchWriter) fail(err error) {
	bw.errMu.Lock()
	if bw.lastErr == nil {
		bw.lastErr = err
	}
	bw.errMu.Unlock()
	bw.logger.Warn("batch write failed", zap.Error(err))
	if bw.OnError != nil {
		bw.OnError(err)
	}
}

func (bw *BatchWriter) committer() {
	defer bw.wg.Done()
	for batch := range bw.commitCh {
		if err := bw.executeBatch(batch); err != nil {
			bw.fail(err)
			continue
		}
		bw.committed.Add(int64(len(batch)))
		bw.logger.Debug("batch committed", zap.Int("writes", len(batch)))
	}
}

func (bw *BatchWriter) executeBatch(batch []WriteFunc) error {
	// Flushes run on a background context so Close can drain pending batches.
	ctx := context.Background()

	if bw.db == nil {
		for _, w := range batch {
			if err := w(ctx, nil); err != nil {
				return err
			}
		}
		return nil
	}

	tx, err := bw.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin batch tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // ignored if committed
	}()

	for _, w := range batch {
		if err := w(ctx, tx); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch (%d items): %w", len(batch), err)
	}
	return nil
}

func (bw *BatchWriter) loop() {
	defer bw.wg.Done()
	for {
		select {
		case <-bw.ctx.Done():
			return
		case <-bw.ticker.C:
			bw.mu.Lock()
			if !bw.closed {
				bw.flushLocked()
			}
			bw.mu.Unlock()
		}
	}
}

// Close flushes pending writes, waits for them to commit and returns the
// first asynchronous error. A second Close returns ErrBatchWriterClosed.
func (bw *BatchWriter) Close() error {
	bw.mu.Lock()
	if bw.closed {
		bw.mu.Unlock()
		return ErrBatchWriterClosed
	}
	bw.closed = true
	if bw.ticker != nil {
		bw.ticker.Stop()
	}
	bw.flushLocked()
	bw.mu.Unlock()

	bw.cancel()
	close(bw.commitCh)
	bw.wg.Wait()

	bw.errMu.Lock()
	defer bw.errMu.Unlock()
	return bw.lastErr
}

// ErrBatchWriterClosed is returned by Submit and Close after Close.
var ErrBatchWriterClosed = &BatchWriterError{"batch writer closed"}

// BatchWriterError is a typed error for batch writer operations.
type BatchWriterError struct{ msg string }

func (e *BatchWriterError) Error() string { return e.msg }
