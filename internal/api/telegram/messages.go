package telegram

import (
	"errors"
	"fmt"
	"strings"

	app "vitiligo-tracker/internal/application"
	"vitiligo-tracker/internal/domain/entity"
	apperrors "vitiligo-tracker/internal/errors"
)

const (
	msgStart = `👋 Привет! Я помогаю отслеживать динамику витилиго по фотографиям.

📸 Пришлите снимок до лечения и снимок после, укажите возраст и сколько недель прошло, и я посчитаю изменение площади депигментации и подскажу категорию лечения.

📋 Команды:
/track — новое сравнение
/history — прошлые сравнения
/help — справка
/cancel — отменить текущую операцию`

	msgHelp = `ℹ️ Как пользоваться ботом:

1️⃣ /track
2️⃣ Фото участка кожи до лечения
3️⃣ Фото того же участка после
4️⃣ Возраст пациента (целое число)
5️⃣ Сколько недель прошло между снимками

💡 Рекомендации:
• Снимайте при одинаковом освещении
• Держите камеру на одном расстоянии
• Тёмный фон вокруг участка не учитывается в площади

📋 Команды:
/track — начать сравнение
/history — прошлые сравнения
/cancel — отменить операцию`

	msgAwaitingBefore  = "📸 Отправьте фото участка кожи ДО лечения."
	msgAwaitingAfter   = "📸 Теперь отправьте фото того же участка ПОСЛЕ лечения."
	msgAwaitingAge     = "🎂 Укажите возраст пациента (целое число)."
	msgAwaitingWeeks   = "📅 Сколько недель прошло между снимками? Например: 4 или 6,5"
	msgCancelled       = "❌ Операция отменена. Отправьте /track для нового сравнения."
	msgSendPhoto       = "📸 Пожалуйста, отправьте фотографию."
	msgUseTrack        = "Отправьте /track, чтобы начать сравнение, или /help для справки."
	msgUnknownCommand  = "❓ Неизвестная команда. Используйте /help для справки."
	msgProcessing      = "⏳ Обрабатываю снимки..."
	msgBusy            = "⏳ Предыдущие снимки ещё обрабатываются, подождите."
	msgProcessingError = "⚠️ Не удалось обработать запрос. Попробуйте ещё раз."
	msgNoHistory       = "📭 Сравнений пока нет. Отправьте /track."
)

// FormatOutcome текст результата сравнения
func FormatOutcome(out *entity.TrackingOutcome) string {
	var sb strings.Builder
	sb.WriteString("📊 Результат сравнения\n\n")
	fmt.Fprintf(&sb, "Площадь до: %.0f пикс. (%.2f%%)\n", out.Result.BeforeArea, out.Progression.PercentBefore)
	fmt.Fprintf(&sb, "Площадь после: %.0f пикс. (%.2f%%)\n", out.Result.AfterArea, out.Progression.PercentAfter)
	fmt.Fprintf(&sb, "Изменение: %+.2f%%\n", out.Result.ChangePercentage)
	fmt.Fprintf(&sb, "Скорость: %+.2f%% в неделю\n", out.Result.RateOfChange)
	sb.WriteString(trend(out.Result.ChangePercentage))
	fmt.Fprintf(&sb, "\n\n💊 Рекомендация: %s", out.Result.TreatmentLabel)
	return sb.String()
}

func trend(change float64) string {
	switch {
	case change < 0:
		return "📉 Депигментация уменьшилась"
	case change > 0:
		return "📈 Депигментация увеличилась"
	default:
		return "➖ Изменений не обнаружено"
	}
}

// FormatHistory текст истории сравнений
func FormatHistory(summary *app.HistorySummary) string {
	if summary == nil || len(summary.Records) == 0 {
		return msgNoHistory
	}
	var sb strings.Builder
	sb.WriteString("🗂 Последние сравнения\n")
	for _, r := range summary.Records {
		fmt.Fprintf(&sb, "\n%s — %g нед., %+.2f%% (%+.2f%%/нед.) — %s",
			r.CreatedAt.Format("02.01.2006"), r.ElapsedWeeks, r.ChangePercentage, r.RateOfChange, r.TreatmentLabel)
	}
	fmt.Fprintf(&sb, "\n\nСредняя скорость: %+.2f%% в неделю", summary.MeanRate)
	return sb.String()
}

// FormatError понятное пользователю сообщение по виду ошибки
func FormatError(err error) string {
	kind, _ := apperrors.KindOf(err)
	switch kind {
	case apperrors.KindDecode:
		return "⚠️ Не удалось прочитать изображение. Отправьте /track и пришлите другие фото."
	case apperrors.KindInvalidInput:
		var appErr *apperrors.Error
		if errors.As(err, &appErr) && strings.HasPrefix(appErr.Message, "photos are missing") {
			return "⚠️ Фотографии не найдены. Начните заново: /track"
		}
		return "⚠️ Некорректное значение, попробуйте ещё раз."
	case apperrors.KindModelLoad, apperrors.KindClassification:
		return "⚠️ Модель рекомендаций недоступна. Попробуйте позже."
	default:
		return msgProcessingError
	}
}
