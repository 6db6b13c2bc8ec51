package vision

import (
	"vitiligo-tracker/internal/domain/entity"
	"vitiligo-tracker/internal/domain/port"
)

// NativeQuantifier измеряет площади на чистом Go
type NativeQuantifier struct {
	metric        entity.AreaMetricKind
	darkThreshold int
}

// NewNativeQuantifier создаёт измеритель с метрикой и порогом тёмного фона из opts
func NewNativeQuantifier(opts Options) *NativeQuantifier {
	return &NativeQuantifier{metric: opts.Metric, darkThreshold: opts.DarkThreshold}
}

// Quantify площадь поражения по выбранной метрике
func (q *NativeQuantifier) Quantify(mask *entity.Mask) float64 {
	if mask == nil {
		return 0
	}
	if q.metric == entity.AreaMetricPixels {
		return float64(mask.Count())
	}
	var area float64
	for _, c := range externalComponents(mask) {
		area += polygonArea(c.contour)
	}
	return area
}

// Regions связные области маски с площадью по выбранной метрике
func (q *NativeQuantifier) Regions(mask *entity.Mask) []entity.LesionRegion {
	if mask == nil {
		return nil
	}
	comps := externalComponents(mask)
	regions := make([]entity.LesionRegion, 0, len(comps))
	for _, c := range comps {
		area := polygonArea(c.contour)
		if q.metric == entity.AreaMetricPixels {
			area = float64(c.pixels)
		}
		regions = append(regions, entity.LesionRegion{
			X:      c.minX,
			Y:      c.minY,
			Width:  c.maxX - c.minX + 1,
			Height: c.maxY - c.minY + 1,
			Area:   area,
		})
	}
	return regions
}

// ReferenceArea площадь снимка за вычетом тёмного фона, в пределах [0, W·H]
func (q *NativeQuantifier) ReferenceArea(img *entity.RasterImage) float64 {
	if img.Empty() {
		return 0
	}
	dark := thresholdAtMost(grayPlane(img), q.darkThreshold)
	return clampReference(img.Area(), q.Quantify(dark))
}

func clampReference(total, dark float64) float64 {
	ref := total - dark
	switch {
	case ref < 0:
		return 0
	case ref > total:
		return total
	}
	return ref
}

var _ port.AreaQuantifier = (*NativeQuantifier)(nil)
