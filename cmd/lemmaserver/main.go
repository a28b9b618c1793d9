// Command lemmaserver exposes the lemmatizer as a JSON REST API.
//
// Endpoints:
//
//	GET  /api/lemmatize?lang=<code>&form=<word>&pos=<POS>[&kind=<kind>]
//	POST /api/lemmatize/tokens   body: {"lang":"en","tokens":[{"form":"ran","pos":"VERB"}]}
//	GET  /api/languages
//	GET  /metrics
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/japaniel/lemmata/pkg/config"
	"github.com/japaniel/lemmata/pkg/dictionary"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	configPath := flag.String("config", "", "Path to YAML configuration (default $"+config.EnvConfig+")")
	envPath := flag.String("env", ".env", "Environment file")
	origins := flag.String("origins", "*", "Comma-separated CORS origins")
	fetch := flag.Bool("fetch", false, "Download resources when the resources directory is empty")
	preload := flag.Bool("preload", true, "Load every configured language at startup")
	verbose := flag.Bool("v", false, "Verbose (development) logging")
	flag.Parse()

	if err := godotenv.Load(*envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: could not load %s: %v\n", *envPath, err)
	}

	var logger *zap.Logger
	var err error
	if *verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}
	if *fetch {
		if err := dictionary.EnsureResources(ctx, cfg.Resources, cfg.FetchURL, logger); err != nil {
			logger.Fatal("failed to fetch resources", zap.Error(err))
		}
	}

	s := newServer(cfg, logger)
	defer s.shared.Close()
	if *preload {
		s.preload(ctx)
	}

	c := cors.New(cors.Options{
		AllowedOrigins: strings.Split(*origins, ","),
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	})
	srv := &http.Server{
		Addr:              *addr,
		Handler:           c.Handler(s.routes()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown", zap.Error(err))
		}
	}()

	logger.Info("listening", zap.String("addr", *addr), zap.Strings("languages", cfg.Codes()))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
