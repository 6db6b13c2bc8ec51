package entity

import "fmt"

// SegmentationPolicy политика построения маски поражения
type SegmentationPolicy string

const (
	// PolicyMorphologicallyCleaned порог + открытие + закрытие (по умолчанию)
	PolicyMorphologicallyCleaned SegmentationPolicy = "cleaned"
	// PolicyRaw только порог по светлоте, без морфологии
	PolicyRaw SegmentationPolicy = "raw"
)

// ParseSegmentationPolicy разбирает значение из конфигурации
func ParseSegmentationPolicy(s string) (SegmentationPolicy, error) {
	switch SegmentationPolicy(s) {
	case "", PolicyMorphologicallyCleaned:
		return PolicyMorphologicallyCleaned, nil
	case PolicyRaw:
		return PolicyRaw, nil
	default:
		return "", fmt.Errorf("unknown segmentation policy %q", s)
	}
}

// AreaMetricKind способ измерения площади маски
type AreaMetricKind string

const (
	// AreaMetricContour сумма площадей внешних контуров
	AreaMetricContour AreaMetricKind = "contour"
	// AreaMetricPixels число ненулевых пикселей
	AreaMetricPixels AreaMetricKind = "pixels"
)

// ParseAreaMetric разбирает значение из конфигурации
func ParseAreaMetric(s string) (AreaMetricKind, error) {
	switch AreaMetricKind(s) {
	case "", AreaMetricContour:
		return AreaMetricContour, nil
	case AreaMetricPixels:
		return AreaMetricPixels, nil
	default:
		return "", fmt.Errorf("unknown area metric %q", s)
	}
}

// Segmentation результат сегментации одного снимка.
// Overlay — только для показа пользователю, в измерениях не участвует.
type Segmentation struct {
	Policy  SegmentationPolicy
	Mask    *Mask
	Overlay *RasterImage
}

// AreaMetric площадь поражения и опорная площадь кожи
type AreaMetric struct {
	Area      float64
	TotalArea float64
	Regions   []LesionRegion
}

// Percent доля поражения от опорной площади; 0 при отсутствии опоры
func (a AreaMetric) Percent() float64 {
	if a.TotalArea <= 0 {
		return 0
	}
	return a.Area / a.TotalArea * 100
}
