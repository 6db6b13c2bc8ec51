package telegram

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	app "vitiligo-tracker/internal/application"
	"vitiligo-tracker/internal/domain/entity"
	apperrors "vitiligo-tracker/internal/errors"
)

func TestFormatOutcome(t *testing.T) {
	out := &entity.TrackingOutcome{
		Progression: entity.Progression{PercentBefore: 15.21, PercentAfter: 3.61},
		Result: entity.TreatmentResult{
			TreatmentLabel:   "Continue current treatment",
			BeforeArea:       1521,
			AfterArea:        361,
			ChangePercentage: -76.27,
			RateOfChange:     -9.53,
		},
	}

	text := FormatOutcome(out)
	require.Contains(t, text, "Площадь до: 1521 пикс. (15.21%)")
	require.Contains(t, text, "Площадь после: 361 пикс. (3.61%)")
	require.Contains(t, text, "Изменение: -76.27%")
	require.Contains(t, text, "уменьшилась")
	require.Contains(t, text, "Continue current treatment")
}

func TestFormatOutcome_NoChange(t *testing.T) {
	text := FormatOutcome(&entity.TrackingOutcome{})
	require.Contains(t, text, "Изменений не обнаружено")
}

func TestFormatHistory(t *testing.T) {
	require.Equal(t, msgNoHistory, FormatHistory(nil))
	require.Equal(t, msgNoHistory, FormatHistory(&app.HistorySummary{}))

	summary := &app.HistorySummary{
		Records: []*entity.TrackingRecord{{
			ElapsedWeeks:     8,
			ChangePercentage: 12.5,
			RateOfChange:     1.5625,
			TreatmentLabel:   "Systemic therapy referral",
			CreatedAt:        time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
		}},
		MeanRate: 1.5625,
	}
	text := FormatHistory(summary)
	require.Contains(t, text, "14.03.2026 — 8 нед., +12.50% (+1.56%/нед.) — Systemic therapy referral")
	require.Contains(t, text, "Средняя скорость: +1.56% в неделю")
}

func TestFormatError(t *testing.T) {
	cases := map[string]struct {
		err  error
		want string
	}{
		"decode":         {apperrors.NewDecodeError("failed to decode image", nil), "прочитать изображение"},
		"wrapped decode": {fmt.Errorf("before: %w", apperrors.NewDecodeError("bad", nil)), "прочитать изображение"},
		"bad number":     {apperrors.NewInvalidInputError("weeks must be a non-negative number", nil), "Некорректное значение"},
		"no photos":      {apperrors.NewInvalidInputError("photos are missing, start again with /track", nil), "/track"},
		"model":          {apperrors.NewModelLoadError("missing", nil), "Модель рекомендаций"},
		"plain":          {fmt.Errorf("boom"), msgProcessingError},
	}
	for name, tc := range cases {
		require.Contains(t, FormatError(tc.err), tc.want, name)
	}
}
