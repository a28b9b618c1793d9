// Command lemmata lemmatizes a tagged document and prints or stores the
// result.
//
// Input is CoNLL-U or "form<TAB>pos[<TAB>kind]" TSV read from -input (or
// stdin). With -url, a Japanese article is fetched and tokenized instead.
// Without -db the lemmas are written to stdout as "form<TAB>pos<TAB>lemma".
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/japaniel/lemmata/pkg/config"
	"github.com/japaniel/lemmata/pkg/db"
	"github.com/japaniel/lemmata/pkg/dictionary"
	"github.com/japaniel/lemmata/pkg/document"
	"github.com/japaniel/lemmata/pkg/ingest"
	"github.com/japaniel/lemmata/pkg/lemma"
)

type options struct {
	configPath string
	lang       string
	input      string
	url        string
	dbPath     string
	workers    int
	fetch      bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "Path to YAML configuration (default $"+config.EnvConfig+")")
	flag.StringVar(&opts.lang, "lang", "en", "Language code")
	flag.StringVar(&opts.input, "input", "-", "CoNLL-U or TSV file to lemmatize, - for stdin")
	flag.StringVar(&opts.url, "url", "", "Japanese article URL to fetch and lemmatize")
	flag.StringVar(&opts.dbPath, "db", "", "Store annotations in this SQLite database instead of printing them")
	flag.IntVar(&opts.workers, "workers", 4, "Number of resolver replicas")
	flag.BoolVar(&opts.fetch, "fetch", false, "Download resources when the resources directory is empty")
	envPath := flag.String("env", ".env", "Environment file")
	verbose := flag.Bool("v", false, "Verbose (development) logging")
	flag.Parse()

	if err := godotenv.Load(*envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: could not load %s: %v\n", *envPath, err)
	}

	logger, err := newLogger(*verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Setup context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, opts, os.Stdin, os.Stdout, logger); err != nil {
		logger.Fatal("lemmatization failed", zap.Error(err))
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(ctx context.Context, opts options, stdin io.Reader, stdout io.Writer, logger *zap.Logger) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if opts.fetch {
		if err := dictionary.EnsureResources(ctx, cfg.Resources, cfg.FetchURL, logger); err != nil {
			return err
		}
	}
	langCfg, ok := cfg.Language(opts.lang)
	if !ok {
		return fmt.Errorf("language %q is not configured (have %v)", opts.lang, cfg.Codes())
	}

	doc, err := loadDocument(ctx, opts, langCfg.Code, stdin)
	if err != nil {
		return err
	}
	logger.Info("document loaded",
		zap.String("language", doc.Language),
		zap.Int("sentences", len(doc.Sentences)),
		zap.Int("tokens", doc.TokenCount()))

	shared := lemma.NewShared(lemma.WithLogger(logger))
	defer shared.Close()

	ingester := ingest.NewIngester(nil, shared, langCfg)
	ingester.Workers = opts.workers
	ingester.Logger = logger

	if opts.dbPath == "" {
		resolutions, err := ingester.Annotate(ctx, doc.Sentences)
		if err != nil {
			return err
		}
		lemmas := make([][]string, len(resolutions))
		for i, sent := range resolutions {
			lemmas[i] = make([]string, len(sent))
			for j, r := range sent {
				lemmas[i][j] = r.Lemma
			}
		}
		return document.WriteTSV(stdout, doc.Sentences, lemmas)
	}

	conn, err := sql.Open("sqlite3", opts.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer conn.Close()
	if err := db.InitDB(conn); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	docID, err := db.CreateOrGetDocument(conn, doc.Language, doc.Title, doc.URL)
	if err != nil {
		return fmt.Errorf("failed to persist document: %w", err)
	}
	ingester.DB = conn
	ingester.OnProgress = func(current, total int) {
		logger.Debug("progress", zap.Int("sentence", current), zap.Int("total", total))
	}
	count, err := ingester.Ingest(ctx, docID, doc.Sentences)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}
	fmt.Fprintf(stdout, "Processing complete. Stored %d annotations for document %s.\n", count, docID)
	return nil
}

// loadDocument reads the tagged input, or fetches and tokenizes -url.
func loadDocument(ctx context.Context, opts options, lang string, stdin io.Reader) (*document.Document, error) {
	if opts.url != "" {
		if lang != "ja" {
			return nil, fmt.Errorf("-url needs a tokenizer; only -lang ja is supported, got %q", lang)
		}
		article, err := document.FetchArticle(ctx, opts.url)
		if err != nil {
			return nil, err
		}
		analyzer, err := document.NewAnalyzer()
		if err != nil {
			return nil, fmt.Errorf("failed to create analyzer: %w", err)
		}
		return &document.Document{
			Title:     article.Title,
			URL:       article.URL,
			Language:  lang,
			Sentences: analyzer.AnalyzeDocument(article.Text),
		}, nil
	}

	r := stdin
	title := "stdin"
	if opts.input != "" && opts.input != "-" {
		f, err := os.Open(opts.input)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
		title = opts.input
	}
	sentences, err := document.ReadTSV(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", title, err)
	}
	return &document.Document{Title: title, Language: lang, Sentences: sentences}, nil
}
