package vision

import (
	"fmt"
	"image/color"

	"vitiligo-tracker/internal/domain/entity"
)

// ColorSpace канал светлоты, по которому строится порог
type ColorSpace string

const (
	// ColorSpaceGray яркость BT.601, как cv2.COLOR_BGR2GRAY
	ColorSpaceGray ColorSpace = "gray"
	// ColorSpaceLab канал L* пространства CIELab, масштабированный в 0..255
	ColorSpaceLab ColorSpace = "lab"
)

// Options параметры сегментации и измерения площадей
type Options struct {
	Policy             entity.SegmentationPolicy
	ColorSpace         ColorSpace
	LightnessThreshold int // пиксели со светлотой >= порога считаются поражёнными
	MinContrast        int // при разбросе светлоты меньше этого маска пустая

	KernelSize      int // размер эллиптического структурного элемента
	OpenIterations  int
	CloseIterations int

	OverlayOpacity float64 // 1.0 — сплошная заливка
	HighlightColor color.RGBA

	Metric        entity.AreaMetricKind
	DarkThreshold int // пиксели фона: яркость <= порога

	// Workers число горутин для морфологии; 0 — runtime.NumCPU()
	Workers int

	// MaxPixels предел ширина×высота снимка до полного декодирования; 0 — без предела
	MaxPixels int
}

// DefaultMaxPixels 40 Мп, с запасом для снимков с телефона
const DefaultMaxPixels = 40_000_000

// DefaultOptions возвращает параметры по умолчанию
func DefaultOptions() Options {
	return Options{
		Policy:             entity.PolicyMorphologicallyCleaned,
		ColorSpace:         ColorSpaceGray,
		LightnessThreshold: 180,
		MinContrast:        1,
		KernelSize:         5,
		OpenIterations:     2,
		CloseIterations:    2,
		OverlayOpacity:     0.5,
		HighlightColor:     color.RGBA{R: 255, A: 255},
		Metric:             entity.AreaMetricContour,
		DarkThreshold:      50,
		MaxPixels:          DefaultMaxPixels,
	}
}

// RawOptions параметры прежнего поведения: порог без морфологической очистки
func RawOptions() Options {
	return DefaultOptions().WithPolicy(entity.PolicyRaw)
}

// WithPolicy задаёт политику сегментации
func (o Options) WithPolicy(p entity.SegmentationPolicy) Options {
	o.Policy = p
	return o
}

// WithThreshold задаёт порог светлоты
func (o Options) WithThreshold(threshold int) Options {
	o.LightnessThreshold = threshold
	return o
}

// WithMetric задаёт способ измерения площади
func (o Options) WithMetric(m entity.AreaMetricKind) Options {
	o.Metric = m
	return o
}

// WithColorSpace задаёт канал светлоты
func (o Options) WithColorSpace(cs ColorSpace) Options {
	o.ColorSpace = cs
	return o
}

// Validate проверяет диапазоны параметров
func (o Options) Validate() error {
	switch o.Policy {
	case entity.PolicyMorphologicallyCleaned, entity.PolicyRaw:
	default:
		return fmt.Errorf("unknown segmentation policy %q", o.Policy)
	}
	switch o.ColorSpace {
	case ColorSpaceGray, ColorSpaceLab:
	default:
		return fmt.Errorf("unknown color space %q", o.ColorSpace)
	}
	switch o.Metric {
	case entity.AreaMetricContour, entity.AreaMetricPixels:
	default:
		return fmt.Errorf("unknown area metric %q", o.Metric)
	}
	if o.LightnessThreshold < 0 || o.LightnessThreshold > 255 {
		return fmt.Errorf("lightness threshold must be in [0, 255] (got %d)", o.LightnessThreshold)
	}
	if o.DarkThreshold < 0 || o.DarkThreshold > 255 {
		return fmt.Errorf("dark threshold must be in [0, 255] (got %d)", o.DarkThreshold)
	}
	if o.MaxPixels < 0 {
		return fmt.Errorf("max pixels must be >= 0 (got %d)", o.MaxPixels)
	}
	if o.MinContrast < 0 || o.MinContrast > 255 {
		return fmt.Errorf("min contrast must be in [0, 255] (got %d)", o.MinContrast)
	}
	if o.KernelSize < 1 || o.KernelSize%2 == 0 {
		return fmt.Errorf("kernel size must be a positive odd number (got %d)", o.KernelSize)
	}
	if o.OpenIterations < 0 || o.CloseIterations < 0 {
		return fmt.Errorf("morphology iterations must be >= 0 (got open=%d, close=%d)", o.OpenIterations, o.CloseIterations)
	}
	if o.OverlayOpacity < 0 || o.OverlayOpacity > 1 {
		return fmt.Errorf("overlay opacity must be in [0, 1] (got %g)", o.OverlayOpacity)
	}
	return nil
}
