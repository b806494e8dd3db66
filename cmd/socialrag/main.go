package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"socialrag/internal/config"
	"socialrag/internal/domain"
	"socialrag/internal/embedding"
	"socialrag/internal/embedding/openai"
	"socialrag/internal/embedding/tfidf"
	"socialrag/internal/logger"
	"socialrag/internal/metrics"
	"socialrag/internal/retrieval"
	"socialrag/internal/service"
	"socialrag/internal/summarizer"
	"socialrag/internal/vectorstore"
	"socialrag/internal/vectorstore/memory"
	"socialrag/internal/vectorstore/qdrant"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// app is the wiring shared by every subcommand.
type app struct {
	cfgPath     string
	metricsAddr string

	cfg     *config.AppConfig
	log     *logger.Logger
	metrics *metrics.Metrics
	svc     *service.Service
	server  *http.Server
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "socialrag",
		Short:         "Multi-resolution retrieval over social media post analytics",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			a.shutdown()
		},
	}
	root.PersistentFlags().StringVar(&a.cfgPath, "config", "", "path to YAML config (default ./config.yaml, then ~/.config/socialrag/config.yaml)")
	root.PersistentFlags().StringVar(&a.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")

	root.AddCommand(newIndexCmd(a), newQueryCmd(a), newTUICmd(a))
	return root
}

func (a *app) setup() error {
	var err error
	if a.cfgPath == "" {
		a.cfg, a.cfgPath, err = config.LoadDefault()
	} else {
		a.cfg, err = config.Load(a.cfgPath)
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if a.log, err = logger.New(a.cfg.Log.Mode, a.cfg.Log.Level); err != nil {
		return err
	}
	a.log.Debug("config loaded", "path", a.cfgPath, "embedder", a.cfg.Embedder.Type, "vector_store", a.cfg.VectorStore.Type)

	a.metrics = metrics.New()
	if a.metricsAddr != "" {
		a.serveMetrics()
	}

	newEmbedder, err := embedderFactory(a.cfg.Embedder)
	if err != nil {
		return err
	}
	newStore, err := storeFactory(a.cfg.VectorStore)
	if err != nil {
		return err
	}
	summ, err := summarizerFor(a.cfg.Summarizer)
	if err != nil {
		return err
	}
	a.svc, err = service.New(service.Deps{
		NewEmbedder:         newEmbedder,
		NewStore:            newStore,
		Summarizer:          summ,
		Log:                 a.log,
		Metrics:             a.metrics,
		CommentsPath:        a.cfg.Dataset.CommentsPath,
		BatchSize:           a.cfg.Index.BatchSize,
		Concurrency:         a.cfg.Index.Concurrency,
		Quotas:              quotas(a.cfg.Retrieval.Quotas),
		TopK:                a.cfg.Retrieval.TopK,
		SummaryMaxSentences: a.cfg.Summarizer.MaxSentences,
	})
	return err
}

func (a *app) serveMetrics() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics.Handler())
	a.server = &http.Server{Addr: a.metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("metrics server stopped", "addr", a.metricsAddr, "error", err)
		}
	}()
	a.log.Info("serving metrics", "addr", a.metricsAddr)
}

func (a *app) shutdown() {
	if a.svc != nil {
		a.svc.Close(context.Background())
	}
	if a.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = a.server.Shutdown(ctx)
	}
	if a.log != nil {
		a.log.Sync()
	}
}

// ingest builds the index from args, or from the configured paths when none
// are given.
func (a *app) ingest(ctx context.Context, args []string) (string, error) {
	paths := args
	if len(paths) == 0 {
		paths = a.cfg.Dataset.Paths
	}
	if len(paths) == 0 {
		return "", errors.New("no dataset paths given and none configured")
	}
	return a.svc.Ingest(ctx, paths)
}

func embedderFactory(cfg config.EmbedderConfig) (func() (embedding.Embedder, error), error) {
	switch cfg.Type {
	case "tfidf", "":
		return func() (embedding.Embedder, error) { return tfidf.NewEmbedder(), nil }, nil
	case "openai":
		if cfg.OpenAI == nil {
			return nil, errors.New("openai embedder config missing")
		}
		oc := openai.Config{
			BaseURL:    cfg.OpenAI.BaseURL,
			APIKeyEnv:  cfg.OpenAI.APIKeyEnv,
			Model:      cfg.OpenAI.Model,
			Dimensions: cfg.OpenAI.Dimensions,
			Timeout:    time.Duration(cfg.OpenAI.TimeoutSecs) * time.Second,
		}
		// fail fast on a missing key instead of at the first build
		if _, err := openai.NewClient(oc); err != nil {
			return nil, fmt.Errorf("openai embedder init failed: %w", err)
		}
		return func() (embedding.Embedder, error) { return openai.NewClient(oc) }, nil
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Type)
	}
}

func storeFactory(cfg config.VectorStoreConfig) (func() (vectorstore.Storage, error), error) {
	switch cfg.Type {
	case "memory", "":
		return func() (vectorstore.Storage, error) { return memory.NewStorage(), nil }, nil
	case "qdrant":
		if cfg.Qdrant == nil {
			return nil, errors.New("qdrant config missing")
		}
		qcfg := qdrant.Config{
			URL:        cfg.Qdrant.URL,
			APIKey:     cfg.Qdrant.APIKey,
			Collection: cfg.Qdrant.Collection,
			Timeout:    time.Duration(cfg.Qdrant.TimeoutSecs) * time.Second,
		}
		return func() (vectorstore.Storage, error) {
			build := qcfg
			build.Collection = buildCollection(qcfg.Collection)
			return qdrant.NewStorage(build), nil
		}, nil
	default:
		return nil, fmt.Errorf("unknown vector store: %s", cfg.Type)
	}
}

// buildCollection names the Qdrant collection of a single build. The live
// collection is only dropped after its replacement is swapped in.
func buildCollection(base string) string {
	return base + "_" + uuid.NewString()
}

func summarizerFor(cfg config.SummarizerConfig) (domain.Summarizer, error) {
	switch cfg.Type {
	case "frequency", "":
		return summarizer.NewFrequencySummarizer(), nil
	default:
		return nil, fmt.Errorf("unknown summarizer: %s", cfg.Type)
	}
}

func quotas(in []config.QuotaConfig) []retrieval.Quota {
	out := make([]retrieval.Quota, 0, len(in))
	for _, q := range in {
		out = append(out, retrieval.Quota{Level: q.Level, Max: q.Max})
	}
	return out
}
