package app

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"vitiligo-tracker/internal/domain/entity"
	"vitiligo-tracker/internal/domain/port"
)

// HistorySummary последние сравнения пользователя и средняя скорость изменения
type HistorySummary struct {
	Records  []*entity.TrackingRecord
	MeanRate float64
}

// HistoryService сохраняет результаты конвейера и строит сводку
type HistoryService struct {
	repo  port.HistoryRepository
	limit int
	now   func() time.Time
}

// NewHistoryService создаёт сервис; limit <= 0 — без ограничения
func NewHistoryService(repo port.HistoryRepository, limit int) *HistoryService {
	return &HistoryService{repo: repo, limit: limit, now: time.Now}
}

// Record сохраняет итог прогона
func (s *HistoryService) Record(ctx context.Context, userID string, out *entity.TrackingOutcome) (*entity.TrackingRecord, error) {
	record := entity.NewTrackingRecord(uuid.NewString(), userID, out, s.now().UTC())
	if err := s.repo.Save(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// Summary последние записи, новые первыми
func (s *HistoryService) Summary(ctx context.Context, userID string) (*HistorySummary, error) {
	records, err := s.repo.ListByUser(ctx, userID, s.limit)
	if err != nil {
		return nil, err
	}

	summary := &HistorySummary{Records: records}
	if len(records) > 0 {
		rates := make([]float64, len(records))
		for i, r := range records {
			rates[i] = r.RateOfChange
		}
		summary.MeanRate = stat.Mean(rates, nil)
	}
	return summary, nil
}

// TelegramUserKey ключ истории для пользователя бота
func TelegramUserKey(userID int64) string {
	return "tg:" + strconv.FormatInt(userID, 10)
}
