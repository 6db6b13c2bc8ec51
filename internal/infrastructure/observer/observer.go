package observer

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"vitiligo-tracker/internal/domain/entity"
	"vitiligo-tracker/internal/domain/port"
	apperrors "vitiligo-tracker/internal/errors"
)

// LoggingObserver пишет события этапов в zap
type LoggingObserver struct {
	logger *zap.Logger
}

// NewLoggingObserver создаёт наблюдатель; nil — zap.NewNop()
func NewLoggingObserver(logger *zap.Logger) *LoggingObserver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggingObserver{logger: logger}
}

// OnStage старт — debug, завершение — info, ошибка — warn с видом ошибки
func (o *LoggingObserver) OnStage(_ context.Context, event entity.StageEvent) {
	fields := []zap.Field{
		zap.String("run_id", event.RunID),
		zap.String("stage", string(event.Stage)),
		zap.String("status", string(event.Status)),
	}
	if event.Duration > 0 {
		fields = append(fields, zap.Duration("duration", event.Duration))
	}
	for k, v := range event.Fields {
		fields = append(fields, zap.Any(k, v))
	}

	switch event.Status {
	case entity.StageStarted:
		o.logger.Debug("stage started", fields...)
	case entity.StageFailed:
		if kind, ok := apperrors.KindOf(event.Err); ok {
			fields = append(fields, zap.String("kind", string(kind)))
		}
		fields = append(fields, zap.Error(event.Err))
		o.logger.Warn("stage failed", fields...)
	default:
		o.logger.Info("stage completed", fields...)
	}
}

// StageStats счётчики одного этапа
type StageStats struct {
	Started       int64
	Completed     int64
	Failed        int64
	TotalDuration time.Duration
}

// AverageDuration среднее время успешного выполнения
func (s StageStats) AverageDuration() time.Duration {
	if s.Completed == 0 {
		return 0
	}
	return s.TotalDuration / time.Duration(s.Completed)
}

// StatsObserver собирает статистику по этапам в памяти
type StatsObserver struct {
	mu     sync.RWMutex
	stages map[entity.Stage]*StageStats
}

// NewStatsObserver создаёт пустой сборщик
func NewStatsObserver() *StatsObserver {
	return &StatsObserver{stages: make(map[entity.Stage]*StageStats)}
}

func (o *StatsObserver) OnStage(_ context.Context, event entity.StageEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	s, ok := o.stages[event.Stage]
	if !ok {
		s = &StageStats{}
		o.stages[event.Stage] = s
	}
	switch event.Status {
	case entity.StageStarted:
		s.Started++
	case entity.StageCompleted:
		s.Completed++
		s.TotalDuration += event.Duration
	case entity.StageFailed:
		s.Failed++
	}
}

// Stats копия статистики этапа
func (o *StatsObserver) Stats(stage entity.Stage) StageStats {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if s, ok := o.stages[stage]; ok {
		return *s
	}
	return StageStats{}
}

// Snapshot копия статистики по всем этапам
func (o *StatsObserver) Snapshot() map[entity.Stage]StageStats {
	o.mu.RLock()
	defer o.mu.RUnlock()

	out := make(map[entity.Stage]StageStats, len(o.stages))
	for k, v := range o.stages {
		out[k] = *v
	}
	return out
}

// Multi рассылает события нескольким наблюдателям по порядку
type Multi []port.StageObserver

func (m Multi) OnStage(ctx context.Context, event entity.StageEvent) {
	for _, o := range m {
		if o != nil {
			o.OnStage(ctx, event)
		}
	}
}

var (
	_ port.StageObserver = (*LoggingObserver)(nil)
	_ port.StageObserver = (*StatsObserver)(nil)
	_ port.StageObserver = Multi(nil)
)
