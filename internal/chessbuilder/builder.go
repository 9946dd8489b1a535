package chessbuilder

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/park285/void-chess/internal/adapter/chesspresenter"
	"github.com/park285/void-chess/internal/config"
	"github.com/park285/void-chess/internal/httpapi"
	"github.com/park285/void-chess/internal/msgcat"
	"github.com/park285/void-chess/internal/service/cache"
	"github.com/park285/void-chess/internal/service/voidchess"
)

const connectTimeout = 5 * time.Second

type Deps struct {
	Service   *voidchess.Service
	Cache     *cache.CacheService
	Repo      voidchess.Repository
	DB        *sql.DB
	Catalog   *msgcat.Catalog
	Presenter *chesspresenter.Presenter
	Hub       *httpapi.Hub
	Server    *httpapi.Server
}

// New wires the service stack. Redis and Postgres are optional: without
// REDIS_URL sessions live in process memory, without DATABASE_URL finished
// games go to an in-memory repository.
func New(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	deps := &Deps{}

	catalog, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	deps.Catalog = catalog

	if cfg.RedisURL != "" {
		cctx, cancel := context.WithTimeout(ctx, connectTimeout)
		deps.Cache, err = cache.NewFromURL(cctx, cfg.RedisURL, logger)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("init cache: %w", err)
		}
	} else {
		logger.Info("REDIS_URL not set; chess sessions are kept in memory")
	}

	if cfg.DatabaseURL != "" {
		db, repo, err := openPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			deps.Close()
			return nil, err
		}
		deps.DB, deps.Repo = db, repo
	} else {
		logger.Info("DATABASE_URL not set; finished games are kept in memory")
		deps.Repo = voidchess.NewMemoryRepository()
	}

	svcCfg := voidchess.Config{
		ClockDuration:     cfg.ChessClockDuration,
		DefaultDifficulty: cfg.ChessDefaultDifficulty,
		Castling:          cfg.ChessCastlingMode,
		SessionTTL:        cfg.SessionTTL(),
		HistoryLimit:      cfg.ChessHistoryLimit,
		Theme:             cfg.ChessBoardTheme,
	}
	deps.Service, err = voidchess.NewService(deps.Cache, deps.Repo, voidchess.NewSVGBoardRenderer(), svcCfg, logger)
	if err != nil {
		deps.Close()
		return nil, err
	}

	deps.Hub = httpapi.NewHub(logger)
	deps.Presenter = chesspresenter.NewPresenter(deps.Service, deps.Hub, chesspresenter.NewFormatter(catalog), logger)
	deps.Service.Subscribe(deps.Presenter)
	deps.Server = httpapi.NewServer(deps.Service, deps.Presenter, deps.Hub, logger)
	return deps, nil
}

func openPostgres(ctx context.Context, dsn string) (*sql.DB, voidchess.Repository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open postgres: %w", err)
	}
	// basic pool settings
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)

	pctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping postgres: %w", err)
	}
	repo := voidchess.NewRepository(db)
	if err := repo.EnsureSchema(pctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ensure schema: %w", err)
	}
	return db, repo, nil
}

// Shutdown stops the service and releases the stores.
func (d *Deps) Shutdown(ctx context.Context) error {
	var errs []error
	if d.Server != nil {
		if err := d.Server.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if d.Service != nil {
		d.Service.Shutdown(ctx)
	}
	if err := d.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (d *Deps) Close() error {
	var errs []error
	if d.Cache != nil {
		if err := d.Cache.Close(); err != nil {
			errs = append(errs, err)
		}
		d.Cache = nil
	}
	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			errs = append(errs, err)
		}
		d.DB = nil
	}
	return errors.Join(errs...)
}
