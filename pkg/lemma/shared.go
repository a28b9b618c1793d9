package lemma

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/japaniel/lemmata/pkg/analysis"
	"github.com/japaniel/lemmata/pkg/config"
	"github.com/japaniel/lemmata/pkg/dictionary"
	"github.com/japaniel/lemmata/pkg/transducer"
)

// noFallback lists languages whose dictionaries are never supplemented by
// the transducer.
var noFallback = map[string]bool{"nl": true}

// Shared is the state common to every resolver replica of a process: the
// per-language resource cache and replica bookkeeping. Build one with
// NewShared and pass it to each worker.
type Shared struct {
	logger  *zap.Logger
	metrics *Metrics

	replicas atomic.Int64
	loads    atomic.Int64

	mu     sync.Mutex
	langs  map[string]*langOnce
	loaded map[string]*Language
}

type langOnce struct {
	once sync.Once
	lang *Language
	err  error
}

// Option configures a Shared.
type Option func(*Shared)

// WithLogger sets the logger used while loading resources.
func WithLogger(l *zap.Logger) Option {
	return func(s *Shared) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics attaches metrics to every resolver handed out.
func WithMetrics(m *Metrics) Option {
	return func(s *Shared) { s.metrics = m }
}

// NewShared returns empty shared state.
func NewShared(opts ...Option) *Shared {
	s := &Shared{
		logger: zap.NewNop(),
		langs:  make(map[string]*langOnce),
		loaded: make(map[string]*Language),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Language returns the resources for cfg.Code, loading them on first use.
// Later calls, from any goroutine, return the cached result; a load error is
// cached as well and logged once. Cancellation of ctx during the first load is
// not cached.
func (s *Shared) Language(ctx context.Context, cfg config.Language) (*Language, error) {
	s.mu.Lock()
	e, ok := s.langs[cfg.Code]
	if !ok {
		e = &langOnce{}
		s.langs[cfg.Code] = e
	}
	s.mu.Unlock()

	e.once.Do(func() {
		e.lang, e.err = s.load(ctx, cfg)
		switch {
		case e.err == nil:
			s.mu.Lock()
			s.loaded[cfg.Code] = e.lang
			s.mu.Unlock()
		case !isContextErr(e.err):
			s.logger.Error("language load failed", zap.String("language", cfg.Code), zap.Error(e.err))
		}
	})
	if e.err != nil && isContextErr(e.err) {
		s.mu.Lock()
		if s.langs[cfg.Code] == e {
			delete(s.langs, cfg.Code)
		}
		s.mu.Unlock()
	}
	return e.lang, e.err
}

// NewReplica returns a resolver for cfg and counts it as a live replica.
func (s *Shared) NewReplica(ctx context.Context, cfg config.Language) (*Resolver, error) {
	lang, err := s.Language(ctx, cfg)
	if err != nil {
		return nil, err
	}
	n := s.replicas.Add(1)
	s.logger.Debug("replica created", zap.String("language", cfg.Code), zap.Int64("replicas", n))
	return NewResolver(lang, s.metrics), nil
}

// Replicas returns the number of replicas created so far.
func (s *Shared) Replicas() int64 { return s.replicas.Load() }

// Loads returns how many language loads have actually run.
func (s *Shared) Loads() int64 { return s.loads.Load() }

// Loaded lists the languages loaded successfully, sorted.
func (s *Shared) Loaded() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.loaded))
	for code := range s.loaded {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// Close releases analyzer resources of every loaded language. Resolvers must
// not be used afterwards.
func (s *Shared) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var errs []error
	for _, lang := range s.loaded {
		if lang.closer != nil {
			errs = append(errs, lang.closer.Close())
		}
	}
	return errors.Join(errs...)
}

func (s *Shared) load(ctx context.Context, cfg config.Language) (*Language, error) {
	s.loads.Add(1)
	log := s.logger.With(zap.String("language", cfg.Code))

	set, err := dictionary.LoadSet(ctx, cfg.Dictionaries, log)
	if err != nil {
		if isContextErr(err) {
			return nil, err
		}
		return nil, &ConfigError{Lang: cfg.Code, Err: err}
	}
	lang := NewLanguage(cfg.Code, set, nil)
	log.Info("dictionaries loaded", zap.Any("forms", set.Sizes()))

	if noFallback[cfg.Code] || cfg.DisableTransducer {
		log.Info("transducer fallback disabled")
		return lang, nil
	}
	g, ok := analysis.ForLanguage(cfg.Code)
	if !ok {
		log.Info("no analysis grammar, dictionaries only")
		return lang, nil
	}
	a, err := s.openAnalyzer(cfg, log)
	if err != nil {
		return nil, &ConfigError{Lang: cfg.Code, Err: err}
	}
	if a == nil {
		return lang, nil
	}
	lem := transducer.New(a, g, log)
	lem.OnFailure = func(string, error) { s.metrics.failure(cfg.Code) }
	lang.transducer = lem
	if t, ok := a.(*transducer.Table); ok {
		lang.closer = t
	}
	log.Info("transducer ready", zap.String("analyzer", string(cfg.Analyzer)), zap.Stringer("grammar", g.Family()))
	return lang, nil
}

// openAnalyzer returns nil without error when the language simply has no
// transducer model.
func (s *Shared) openAnalyzer(cfg config.Language, log *zap.Logger) (transducer.Analyzer, error) {
	switch cfg.Analyzer {
	case "", config.AnalyzerNone:
		return nil, nil
	case config.AnalyzerKagome:
		k, err := transducer.NewKagome()
		if err != nil {
			return nil, err
		}
		return k, nil
	case config.AnalyzerTable:
		if cfg.Model == "" {
			return nil, nil
		}
		if _, err := os.Stat(cfg.Model); errors.Is(err, fs.ErrNotExist) {
			log.Info("no transducer model", zap.String("model", cfg.Model))
			return nil, nil
		}
		t, err := transducer.OpenTable(cfg.Model)
		if err != nil {
			return nil, err
		}
		return t, nil
	default:
		return nil, fmt.Errorf("unknown analyzer %q", cfg.Analyzer)
	}
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
