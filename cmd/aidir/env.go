package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/nikbrunner/aidir/internal/catalog"
	"github.com/nikbrunner/aidir/internal/config"
	"github.com/nikbrunner/aidir/internal/docstore"
	"github.com/nikbrunner/aidir/internal/model"
	"github.com/nikbrunner/aidir/internal/saved"
)

// env is the wiring shared by every command.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	store  docstore.Store
	loader *catalog.Loader
	saved  *saved.Store
}

type envParams struct {
	LogToStderr bool
	Registerer  prometheus.Registerer // optional, no catalog metrics if nil
	Bus         *catalog.Bus          // optional
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOrCreate(cfgFile)
	if err != nil {
		return nil, err
	}
	if backend != "" {
		cfg.Backend = config.Backend(backend)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newEnv loads the config and opens the document store. The loader is
// created but not initialized.
func newEnv(ctx context.Context, params envParams) (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logger, err := buildLogger(cfg.Log, params.LogToStderr)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("opening %s store: %w", cfg.Backend, err)
	}

	var metrics *catalog.Metrics
	if params.Registerer != nil {
		metrics = catalog.NewMetrics(params.Registerer)
	}

	logo := model.LogoConfig{BaseURL: cfg.Logo.BaseURL, Suffix: cfg.Logo.Suffix}
	loader := catalog.NewLoader(catalog.LoaderParams{
		Logger:         logger,
		Bus:            params.Bus,
		Metrics:        metrics,
		Logo:           &logo,
		PopularLimit:   cfg.Popular.Limit,
		MinRating:      cfg.Popular.MinRating,
		MaxConcurrency: cfg.MaxConcurrency,
	})

	return &env{
		cfg:    cfg,
		logger: logger,
		store:  store,
		loader: loader,
		saved: saved.New(saved.Params{
			Docs:    store,
			Details: loader,
			Logger:  logger,
		}),
	}, nil
}

// init binds the loader to the store and registers the configured user.
func (e *env) init(ctx context.Context) error {
	if err := e.loader.Initialize(ctx, e.store); err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}
	if e.cfg.UserID != "" {
		if err := e.saved.EnsureMember(ctx, e.cfg.UserID, e.cfg.UserEmail); err != nil {
			e.logger.Warn("member registration failed", zap.Error(err))
		}
	}
	return nil
}

func (e *env) requireUser() (string, error) {
	if e.cfg.UserID == "" {
		return "", fmt.Errorf("user_id is not set in %s", cfgFile)
	}
	return e.cfg.UserID, nil
}

func (e *env) close() {
	e.loader.Close()
	if err := e.store.Close(); err != nil {
		e.logger.Warn("closing store", zap.Error(err))
	}
	_ = e.logger.Sync()
}

func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (docstore.Store, error) {
	switch cfg.Backend {
	case config.BackendFirestore:
		logger.Info("using firestore", zap.String("project", cfg.Firestore.ProjectID))
		return docstore.NewFirestore(ctx, docstore.FirestoreParams{
			ProjectID:       cfg.Firestore.ProjectID,
			CredentialsFile: cfg.Firestore.CredentialsFile,
		})
	case config.BackendMemory:
		logger.Info("using in-memory store")
		return docstore.NewMemory(), nil
	default:
		logger.Info("using sqlite", zap.String("path", cfg.SQLitePath))
		return docstore.NewSQLite(docstore.SQLiteParams{
			Path:         cfg.SQLitePath,
			PollInterval: cfg.PollInterval,
		})
	}
}

// buildLogger writes JSON logs to the configured file, or to stderr when
// toStderr is set. The TUI owns the terminal, so it must never log there.
func buildLogger(cfg config.LogConfig, toStderr bool) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.Sampling = nil
	if toStderr || cfg.File == "" {
		zcfg.OutputPaths = []string{"stderr"}
		zcfg.ErrorOutputPaths = []string{"stderr"}
	} else {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, err
		}
		zcfg.OutputPaths = []string{cfg.File}
		zcfg.ErrorOutputPaths = []string{cfg.File}
	}
	return zcfg.Build()
}
