package port

import (
	"context"

	"vitiligo-tracker/internal/domain/entity"
)

// StageObserver получает события на границах этапов конвейера
type StageObserver interface {
	OnStage(ctx context.Context, event entity.StageEvent)
}

// NopObserver наблюдатель по умолчанию, ничего не делает
type NopObserver struct{}

func (NopObserver) OnStage(context.Context, entity.StageEvent) {}
