package port

import (
	"vitiligo-tracker/internal/domain/entity"
)

// ImageDecoder интерфейс декодера изображений
type ImageDecoder interface {
	// Decode превращает закодированные байты в растр; пустой результат — ошибка декодирования
	Decode(data []byte) (*entity.RasterImage, error)
}

// LesionSegmenter интерфейс сегментатора поражений
type LesionSegmenter interface {
	// Segment строит маску поражения и картинку с подсветкой
	Segment(img *entity.RasterImage) (*entity.Segmentation, error)
}

// AreaQuantifier интерфейс измерителя площадей
type AreaQuantifier interface {
	// Quantify возвращает площадь поражения по маске
	Quantify(mask *entity.Mask) float64

	// ReferenceArea возвращает площадь кожи без тёмного фона
	ReferenceArea(img *entity.RasterImage) float64

	// Regions возвращает связные области маски
	Regions(mask *entity.Mask) []entity.LesionRegion
}
