package vision

import (
	"fmt"
	"image/color"
	"math"

	"vitiligo-tracker/internal/domain/entity"
	"vitiligo-tracker/internal/domain/port"
	apperrors "vitiligo-tracker/internal/errors"
)

// NativeSegmenter сегментатор поражений на чистом Go
type NativeSegmenter struct {
	opts  Options
	morph *morphology
}

// NewNativeSegmenter создаёт сегментатор; некорректные параметры — ошибка
func NewNativeSegmenter(opts Options) (*NativeSegmenter, error) {
	if err := opts.Validate(); err != nil {
		return nil, apperrors.NewInvalidInputError("invalid segmentation options", err)
	}
	return &NativeSegmenter{
		opts:  opts,
		morph: newMorphology(opts.KernelSize, opts.Workers),
	}, nil
}

// Segment строит маску: порог по светлоте, затем очистка по политике
func (s *NativeSegmenter) Segment(img *entity.RasterImage) (*entity.Segmentation, error) {
	if img.Empty() {
		return nil, apperrors.NewDecodeError("empty raster image", nil)
	}

	light := lightnessPlane(img, s.opts.ColorSpace)
	mask := entity.NewMask(img.Width, img.Height)
	if lo, hi := light.minMax(); int(hi)-int(lo) >= s.opts.MinContrast {
		mask = thresholdAtLeast(light, s.opts.LightnessThreshold)
	}

	if s.opts.Policy == entity.PolicyMorphologicallyCleaned {
		mask = s.morph.open(mask, s.opts.OpenIterations)
		mask = s.morph.close(mask, s.opts.CloseIterations)
	}
	if !mask.MatchesImage(img) {
		return nil, apperrors.NewInternalError(fmt.Sprintf("mask %dx%d does not match image %dx%d", mask.Width, mask.Height, img.Width, img.Height), nil)
	}

	return &entity.Segmentation{
		Policy:  s.opts.Policy,
		Mask:    mask,
		Overlay: BlendOverlay(img, mask, s.opts.HighlightColor, s.opts.OverlayOpacity),
	}, nil
}

// BlendOverlay смешивает цвет подсветки с поражёнными пикселями:
// out = alpha·highlight + (1-alpha)·orig. Исходное изображение не меняется.
func BlendOverlay(img *entity.RasterImage, mask *entity.Mask, highlight color.RGBA, alpha float64) *entity.RasterImage {
	out := img.Clone()
	blend := func(orig, hl uint8) uint8 {
		return uint8(math.Round(alpha*float64(hl) + (1-alpha)*float64(orig)))
	}
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			if !mask.At(x, y) {
				continue
			}
			r, g, b := img.RGB(x, y)
			out.SetRGB(x, y, blend(r, highlight.R), blend(g, highlight.G), blend(b, highlight.B))
		}
	}
	return out
}

var _ port.LesionSegmenter = (*NativeSegmenter)(nil)
