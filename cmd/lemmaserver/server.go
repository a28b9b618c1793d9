package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/japaniel/lemmata/pkg/config"
	"github.com/japaniel/lemmata/pkg/lemma"
)

// maxTokens bounds a single POST /api/lemmatize/tokens request.
const maxTokens = 10000

// ---- JSON types ---------------------------------------------------------

type tokenJSON struct {
	Form string `json:"form"`
	POS  string `json:"pos"`
	Kind string `json:"kind,omitempty"`
}

type resultJSON struct {
	Form   string       `json:"form"`
	POS    string       `json:"pos"`
	Lemma  string       `json:"lemma"`
	Source lemma.Source `json:"source"`
}

type tokensRequest struct {
	Lang   string      `json:"lang"`
	Tokens []tokenJSON `json:"tokens"`
}

type tokensResponse struct {
	Lang    string       `json:"lang"`
	Results []resultJSON `json:"results"`
}

type languageJSON struct {
	Code          string          `json:"code"`
	Analyzer      config.Analyzer `json:"analyzer"`
	Loaded        bool            `json:"loaded"`
	HasTransducer bool            `json:"has_transducer"`
	Dictionaries  map[string]int  `json:"dictionaries,omitempty"`
}

type languagesResponse struct {
	Languages []languageJSON `json:"languages"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// ---- server -------------------------------------------------------------

type server struct {
	cfg     *config.Config
	shared  *lemma.Shared
	metrics *lemma.Metrics
	reg     *prometheus.Registry
	logger  *zap.Logger
}

func newServer(cfg *config.Config, logger *zap.Logger) *server {
	reg := prometheus.NewRegistry()
	m := lemma.NewMetrics(reg)
	return &server{
		cfg:     cfg,
		shared:  lemma.NewShared(lemma.WithLogger(logger), lemma.WithMetrics(m)),
		metrics: m,
		reg:     reg,
		logger:  logger,
	}
}

func (s *server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/lemmatize/tokens", s.handleTokens)
	mux.HandleFunc("/api/lemmatize", s.handleLemmatize)
	mux.HandleFunc("/api/languages", s.handleLanguages)
	mux.Handle("/metrics", promhttp.HandlerFor(s.reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return mux
}

// preload loads every configured language, logging failures.
func (s *server) preload(ctx context.Context) {
	for _, l := range s.cfg.Languages {
		if _, err := s.shared.Language(ctx, l); err != nil && ctx.Err() != nil {
			return
		}
	}
	s.logger.Info("languages loaded", zap.Strings("languages", s.shared.Loaded()))
}

// resolver returns a resolver for code, writing the error response itself
// when it cannot.
func (s *server) resolver(w http.ResponseWriter, r *http.Request, code string) (*lemma.Resolver, bool) {
	if code == "" {
		writeError(w, http.StatusBadRequest, "missing 'lang'")
		return nil, false
	}
	langCfg, ok := s.cfg.Language(code)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("language %q is not configured", code))
		return nil, false
	}
	lang, err := s.shared.Language(r.Context(), langCfg)
	if err != nil {
		var cfgErr *lemma.ConfigError
		if errors.As(err, &cfgErr) {
			writeError(w, http.StatusServiceUnavailable, err.Error())
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return nil, false
	}
	return lemma.NewResolver(lang, s.metrics), true
}

func toToken(t tokenJSON) lemma.Token {
	kind := lemma.KindWord
	if t.Kind != "" {
		kind = lemma.ParseKind(t.Kind)
	}
	return lemma.Token{Surface: t.Form, POS: t.POS, Kind: kind}
}

func (s *server) handleLemmatize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET required")
		return
	}
	q := r.URL.Query()
	form := q.Get("form")
	if form == "" {
		writeError(w, http.StatusBadRequest, "missing 'form' query parameter")
		return
	}
	res, ok := s.resolver(w, r, q.Get("lang"))
	if !ok {
		return
	}
	tok := toToken(tokenJSON{Form: form, POS: q.Get("pos"), Kind: q.Get("kind")})
	out := res.ResolveDetailed(tok)
	writeJSON(w, http.StatusOK, resultJSON{Form: tok.Surface, POS: tok.POS, Lemma: out.Lemma, Source: out.Source})
}

func (s *server) handleTokens(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	var body tokensRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 8<<20)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "body must be JSON with 'lang' and 'tokens'")
		return
	}
	if len(body.Tokens) > maxTokens {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("at most %d tokens per request", maxTokens))
		return
	}
	res, ok := s.resolver(w, r, body.Lang)
	if !ok {
		return
	}
	out := make([]resultJSON, len(body.Tokens))
	for i, t := range body.Tokens {
		tok := toToken(t)
		rr := res.ResolveDetailed(tok)
		out[i] = resultJSON{Form: tok.Surface, POS: tok.POS, Lemma: rr.Lemma, Source: rr.Source}
	}
	writeJSON(w, http.StatusOK, tokensResponse{Lang: res.Language().Code, Results: out})
}

func (s *server) handleLanguages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET required")
		return
	}
	loaded := make(map[string]bool)
	for _, code := range s.shared.Loaded() {
		loaded[code] = true
	}
	out := make([]languageJSON, 0, len(s.cfg.Languages))
	for _, l := range s.cfg.Languages {
		lj := languageJSON{Code: l.Code, Analyzer: l.Analyzer, Loaded: loaded[l.Code]}
		if lj.Loaded {
			// already cached: this does not trigger a load
			if lang, err := s.shared.Language(r.Context(), l); err == nil {
				lj.HasTransducer = lang.HasTransducer()
				lj.Dictionaries = make(map[string]int)
				for class, n := range lang.Dictionaries.Sizes() {
					lj.Dictionaries[string(class)] = n
				}
			}
		}
		out = append(out, lj)
	}
	writeJSON(w, http.StatusOK, languagesResponse{Languages: out})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("encode error", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
