package storage

import (
	"context"
	"sort"
	"sync"

	"vitiligo-tracker/internal/domain/entity"
	"vitiligo-tracker/internal/domain/port"
)

// MemoryHistoryRepository история сравнений в памяти процесса
type MemoryHistoryRepository struct {
	mu      sync.RWMutex
	records map[string][]entity.TrackingRecord
}

// NewMemoryHistoryRepository создаёт пустое хранилище
func NewMemoryHistoryRepository() *MemoryHistoryRepository {
	return &MemoryHistoryRepository{records: make(map[string][]entity.TrackingRecord)}
}

// Save добавляет запись
func (r *MemoryHistoryRepository) Save(ctx context.Context, record *entity.TrackingRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	r.records[record.UserID] = append(r.records[record.UserID], *record)
	r.mu.Unlock()
	return nil
}

// ListByUser последние записи пользователя, новые первыми; limit <= 0 — все
func (r *MemoryHistoryRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*entity.TrackingRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	stored := r.records[userID]
	out := make([]*entity.TrackingRecord, 0, len(stored))
	for i := range stored {
		rec := stored[i]
		out = append(out, &rec)
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var _ port.HistoryRepository = (*MemoryHistoryRepository)(nil)
