package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"DOUMonitor/internal/config"
	"DOUMonitor/internal/domain"
	"DOUMonitor/internal/infrastructure/gazette"
	"DOUMonitor/internal/infrastructure/storage"
	"DOUMonitor/internal/matching"
	"DOUMonitor/internal/ports"
	"DOUMonitor/internal/usecase"
)

// Application wires configuration to the two pipeline entry points.
type Application struct {
	cfg     config.Config
	logger  *slog.Logger
	db      *sql.DB
	sync    *usecase.Sync
	history *usecase.History
}

// New opens the store connection and builds the full pipeline. Optional
// notification/timeline destinations are probed once here; deployments
// without those tables run with the sinks disabled.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Application, error) {
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	repo := storage.NewPostgresRepository(db)

	var notifications ports.NotificationSink
	if ok, err := repo.HasTable(ctx, "notificacoes"); err != nil {
		logger.Warn("probe notifications table", "error", err)
	} else if ok {
		notifications = repo
	} else {
		logger.Info("notifications table absent, sink disabled")
	}

	var timeline ports.TimelineSink
	if ok, err := repo.HasTable(ctx, "timeline_events"); err != nil {
		logger.Warn("probe timeline table", "error", err)
	} else if ok {
		timeline = repo
	} else {
		logger.Info("timeline table absent, sink disabled")
	}

	client := gazette.NewClient(nil, cfg.Gazette, logger.With("component", "gazette"))
	engine := matching.NewEngine(cfg.Matching)

	recorder := usecase.NewRecorder(usecase.RecorderDeps{
		Store:         repo,
		Notifications: notifications,
		Timeline:      timeline,
		BaseURL:       cfg.Gazette.PublicationURL,
		Logger:        logger.With("component", "recorder"),
	})

	syncUC := usecase.NewSync(usecase.SyncDeps{
		Source:    client,
		Directory: repo,
		SyncLog:   repo,
		Recorder:  recorder,
		Engine:    engine,
		Logger:    logger.With("component", "sync"),
		Location:  cfg.Sync.Location(),
		Workers:   cfg.Sync.Workers,
	})

	historyUC := usecase.NewHistory(usecase.HistoryDeps{
		Searcher:  client,
		Recorder:  recorder,
		Logger:    logger.With("component", "history"),
		MaxPages:  cfg.Gazette.MaxSearchPages,
		PageDelay: cfg.Gazette.PageDelay(),
	})

	return &Application{
		cfg:     cfg,
		logger:  logger,
		db:      db,
		sync:    syncUC,
		history: historyUC,
	}, nil
}

// RunSync executes the daily batch for one date.
func (a *Application) RunSync(ctx context.Context, day time.Time) error {
	return a.sync.Run(ctx, day)
}

// RunHistory executes an archive search for one term.
func (a *Application) RunHistory(ctx context.Context, params usecase.HistoryParams) ([]domain.Publication, error) {
	return a.history.Run(ctx, params)
}

// Close releases the store connection.
func (a *Application) Close() error {
	return a.db.Close()
}
