package app

import (
	"vitiligo-tracker/internal/domain/entity"
	"vitiligo-tracker/internal/domain/port"
	apperrors "vitiligo-tracker/internal/errors"
)

// TreatmentClassifier сопоставляет признаки динамики категории лечения
type TreatmentClassifier struct {
	model port.TreatmentModel
}

// NewTreatmentClassifier требует загруженную модель: без неё конвейер не собирается
func NewTreatmentClassifier(model port.TreatmentModel) (*TreatmentClassifier, error) {
	if model == nil {
		return nil, apperrors.NewModelLoadError("treatment model is not loaded", nil)
	}
	return &TreatmentClassifier{model: model}, nil
}

// Classify возвращает название категории лечения
func (c *TreatmentClassifier) Classify(features entity.ProgressionFeatures) (string, error) {
	label, err := c.model.Predict(features.Vector())
	if err != nil {
		return "", asClassification("prediction failed", err)
	}
	name, err := c.model.Decode(label)
	if err != nil {
		return "", asClassification("label decoding failed", err)
	}
	return name, nil
}

func asClassification(message string, err error) error {
	if apperrors.IsKind(err, apperrors.KindClassification) {
		return err
	}
	return apperrors.NewClassificationError(message, err)
}
