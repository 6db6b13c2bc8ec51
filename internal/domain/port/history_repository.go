package port

import (
	"context"

	"vitiligo-tracker/internal/domain/entity"
)

// HistoryRepository интерфейс хранилища истории сравнений
type HistoryRepository interface {
	// Save сохраняет запись
	Save(ctx context.Context, record *entity.TrackingRecord) error

	// ListByUser возвращает последние записи пользователя, новые первыми
	ListByUser(ctx context.Context, userID string, limit int) ([]*entity.TrackingRecord, error)
}
