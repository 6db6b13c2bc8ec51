package container

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"vitiligo-tracker/config"
	app "vitiligo-tracker/internal/application"
	"vitiligo-tracker/internal/domain/port"
	"vitiligo-tracker/internal/infrastructure/model"
	"vitiligo-tracker/internal/infrastructure/observer"
	"vitiligo-tracker/internal/infrastructure/storage"
	"vitiligo-tracker/internal/infrastructure/vision"
)

type Container struct {
	UserService     *app.UserService
	TrackingService *app.TrackingService
	HistoryService  *app.HistoryService
	SessionService  *app.SessionService
	Stats           *observer.StatsObserver

	closers []func() error
}

// Backend реализации портов обработки изображений
type Backend struct {
	Decoder    port.ImageDecoder
	Segmenter  port.LesionSegmenter
	Quantifier port.AreaQuantifier
}

// NewBackend выбирает native или opencv по настройкам конвейера
func NewBackend(p *config.PipelineConfig) (*Backend, error) {
	opts, err := p.VisionOptions()
	if err != nil {
		return nil, err
	}

	switch p.Backend {
	case config.BackendOpenCV:
		cv, err := vision.NewOpenCVBackend(opts)
		if err != nil {
			return nil, err
		}
		return &Backend{Decoder: cv, Segmenter: cv, Quantifier: cv}, nil
	case config.BackendNative, "":
		seg, err := vision.NewNativeSegmenter(opts)
		if err != nil {
			return nil, err
		}
		dec := vision.NewNativeDecoder()
		dec.MaxPixels = opts.MaxPixels
		return &Backend{
			Decoder:    dec,
			Segmenter:  seg,
			Quantifier: vision.NewNativeQuantifier(opts),
		}, nil
	default:
		return nil, fmt.Errorf("unknown backend %q", p.Backend)
	}
}

// New собирает сервисы: модель грузится один раз, история в postgres при заданном DSN
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	c := &Container{}

	tracker, stats, err := NewPipeline(cfg, logger)
	if err != nil {
		return nil, err
	}
	c.TrackingService = tracker
	c.Stats = stats

	history, err := c.historyRepository(ctx, cfg.DatabaseDSN, logger)
	if err != nil {
		return nil, err
	}

	c.UserService = app.NewUserService(storage.NewMemoryUserRepository())
	c.HistoryService = app.NewHistoryService(history, cfg.Pipeline.HistoryLimit)
	c.SessionService = app.NewSessionService(c.UserService, c.TrackingService, c.HistoryService)

	return c, nil
}

// NewPipeline только конвейер, без хранилищ
func NewPipeline(cfg *config.Config, logger *zap.Logger) (*app.TrackingService, *observer.StatsObserver, error) {
	backend, err := NewBackend(cfg.Pipeline)
	if err != nil {
		return nil, nil, err
	}

	m, err := model.Load(cfg.ModelPath)
	if err != nil {
		return nil, nil, err
	}
	classifier, err := app.NewTreatmentClassifier(m)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("treatment model loaded",
		zap.String("path", cfg.ModelPath),
		zap.Strings("classes", m.Classes()),
		zap.String("backend", cfg.Pipeline.Backend),
	)

	stats := observer.NewStatsObserver()
	service := app.NewTrackingService(
		backend.Decoder,
		backend.Segmenter,
		backend.Quantifier,
		classifier,
		app.WithObserver(observer.Multi{observer.NewLoggingObserver(logger), stats}),
		app.WithParallelAnalysis(cfg.Pipeline.ParallelAnalysis),
	)
	return service, stats, nil
}

func (c *Container) historyRepository(ctx context.Context, dsn string, logger *zap.Logger) (port.HistoryRepository, error) {
	if dsn == "" {
		logger.Info("tracking history kept in memory")
		return storage.NewMemoryHistoryRepository(), nil
	}

	db, err := storage.OpenPostgres(dsn)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	c.closers = append(c.closers, sqlDB.Close)

	repo := storage.NewPostgresHistoryRepository(db)
	if err := repo.AutoMigrate(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}
	logger.Info("tracking history stored in postgres")
	return repo, nil
}

// Close освобождает соединения
func (c *Container) Close() error {
	var first error
	for _, fn := range c.closers {
		if err := fn(); err != nil && first == nil {
			first = err
		}
	}
	c.closers = nil
	return first
}
