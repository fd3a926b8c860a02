package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"animedb/internal/access"
	"animedb/internal/api"
	"animedb/internal/assistant"
	"animedb/internal/catalog"
	"animedb/internal/config"
	"animedb/internal/daemon"
	"animedb/internal/ingest"
	"animedb/internal/logging"
	"animedb/internal/metrics"
	"animedb/internal/notifications"
	"animedb/internal/parser"
	"animedb/internal/preflight"
	"animedb/internal/query"
	"animedb/internal/services/llm"
)

// Components holds the wired services shared by the daemon and the CLI.
type Components struct {
	Config   *config.Config
	Logger   *slog.Logger
	Store    *catalog.Store
	Metrics  *metrics.Manager
	Notifier notifications.Service
	Catalog  *api.Service
	Uploads  *ingest.Service
}

// Build opens the catalog and wires parsing, querying, chat, and
// notifications according to cfg. Callers must Close the result.
func Build(cfg *config.Config, logger *slog.Logger) (*Components, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	store, err := catalog.Open(cfg, catalog.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	m := metrics.NewManager(func(ctx context.Context) (int, int, error) {
		stats, err := store.Stats(ctx)
		return stats.Records, stats.Series, err
	})
	notifier := notifications.NewService(cfg)
	uploaders := access.NewList(cfg.Access.Uploaders...)

	// Interface values stay untyped nil when the LLM is disabled so the
	// parser and interpreter take their pattern paths.
	var (
		extractor parser.Generator
		generator query.Generator
		chatter   assistant.Chatter
	)
	if cfg.LLMEnabled() {
		client := newLLMClient(cfg)
		chatter = client
		if cfg.Ingest.AIEnabled {
			extractor = client
		}
		if cfg.Query.AIEnabled {
			generator = client
		}
	}

	bulk := parser.NewBulkParser(extractor,
		parser.WithTimeout(cfg.IngestTimeout()),
		parser.WithLogger(logger),
	)
	interpreter := query.NewInterpreter(generator,
		query.WithTimeout(cfg.QueryTimeout()),
		query.WithTitleHints(cfg.Query.TitleHintLimit),
		query.WithLogger(logger),
	)

	opts := []api.Option{
		api.WithAccess(uploaders),
		api.WithNotifier(notifier),
		api.WithMetrics(m),
		api.WithLogger(logger),
	}
	if chatter != nil {
		opts = append(opts, api.WithAssistant(assistant.New(chatter, assistant.WithLogger(logger))))
	}

	return &Components{
		Config:   cfg,
		Logger:   logger,
		Store:    store,
		Metrics:  m,
		Notifier: notifier,
		Catalog:  api.NewService(store, interpreter, opts...),
		Uploads: ingest.NewService(store, bulk,
			ingest.WithAuthorizer(uploaders),
			ingest.WithNotifier(notifier),
			ingest.WithMetrics(m),
			ingest.WithLogger(logger),
			ingest.WithMaxErrors(cfg.Ingest.MaxReportedErrors),
		),
	}, nil
}

// Close releases the catalog.
func (c *Components) Close() error {
	if c == nil || c.Store == nil {
		return nil
	}
	return c.Store.Close()
}

func newLLMClient(cfg *config.Config) *llm.Client {
	settings := cfg.GetLLM()
	return llm.NewClient(llm.Config{
		APIKey:         settings.APIKey,
		BaseURL:        settings.BaseURL,
		Model:          settings.Model,
		Referer:        settings.Referer,
		Title:          settings.Title,
		TimeoutSeconds: settings.TimeoutSeconds,
	}, llm.WithRateLimit(settings.RequestsPerMinute))
}

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel string
}

// Run starts the animedb daemon and blocks until SIGINT or SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		cfg.Logging.Level = level
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	results := preflight.RunAll(signalCtx, cfg)
	for _, result := range results {
		attrs := []logging.Attr{
			logging.String("check", result.Name),
			logging.Bool("passed", result.Passed),
			logging.String("detail", result.Detail),
		}
		if result.Passed || result.Optional {
			logger.Info("preflight", logging.Args(attrs...)...)
			continue
		}
		logging.ErrorWithContext(logger, "preflight failed", "preflight_failed", attrs...)
	}
	if blocking := preflight.Blocking(results); len(blocking) > 0 {
		return fmt.Errorf("preflight: %s: %s", blocking[0].Name, blocking[0].Detail)
	}

	pidPath := filepath.Join(cfg.Paths.DataDir, "animedb.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	components, err := Build(cfg, logger)
	if err != nil {
		logger.Error("open catalog", logging.Error(err))
		return err
	}
	defer components.Close()
	logConfigSnapshot(logger, cfg)

	d, err := daemon.New(cfg, components.Catalog, components.Uploads, components.Metrics, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	if err := d.Run(signalCtx); err != nil {
		return err
	}
	logger.Info("animedb daemon shut down")
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logConfigSnapshot(logger *slog.Logger, cfg *config.Config) {
	logger.Info("configuration snapshot",
		logging.String(logging.FieldEventType, "config_snapshot"),
		logging.String("store_backend", cfg.Store.Backend),
		logging.String("store_path", cfg.Store.Path),
		logging.Bool("llm_key_present", cfg.LLMEnabled()),
		logging.Bool("ingest_ai", cfg.Ingest.AIEnabled),
		logging.Bool("query_ai", cfg.Query.AIEnabled),
		logging.Bool("api_token_set", strings.TrimSpace(cfg.API.Token) != ""),
		logging.Int("uploaders", len(cfg.Access.Uploaders)),
		logging.Bool("ntfy_enabled", strings.TrimSpace(cfg.Notifications.NtfyTopic) != ""),
	)
}
