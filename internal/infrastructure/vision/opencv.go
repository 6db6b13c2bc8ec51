//go:build gocv
// +build gocv

package vision

import (
	"bytes"
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"vitiligo-tracker/internal/domain/entity"
	"vitiligo-tracker/internal/domain/port"
	apperrors "vitiligo-tracker/internal/errors"
)

// OpenCVBackend декодирование, сегментация и измерения через OpenCV
type OpenCVBackend struct {
	opts Options
}

// NewOpenCVBackend создаёт бэкенд с проверенными параметрами
func NewOpenCVBackend(opts Options) (*OpenCVBackend, error) {
	if err := opts.Validate(); err != nil {
		return nil, apperrors.NewInvalidInputError("invalid segmentation options", err)
	}
	return &OpenCVBackend{opts: opts}, nil
}

// Decode декодирует байты в BGR-растр
func (b *OpenCVBackend) Decode(data []byte) (*entity.RasterImage, error) {
	if len(data) == 0 {
		return nil, apperrors.NewDecodeError("image payload is empty", nil)
	}
	// Заголовок читается средствами image/*; форматы, которых там нет, проверяются после декодирования
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		if err := checkPixelLimit(cfg.Width, cfg.Height, b.opts.MaxPixels); err != nil {
			return nil, err
		}
	}
	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return nil, apperrors.NewDecodeError("failed to decode image", err)
	}
	defer mat.Close()
	if mat.Empty() {
		return nil, apperrors.NewDecodeError("failed to decode image", nil)
	}
	if err := checkPixelLimit(mat.Cols(), mat.Rows(), b.opts.MaxPixels); err != nil {
		return nil, err
	}

	return &entity.RasterImage{
		Width:  mat.Cols(),
		Height: mat.Rows(),
		Order:  entity.OrderBGR,
		Pix:    mat.ToBytes(),
	}, nil
}

// Segment порог по светлоте, затем MORPH_OPEN и MORPH_CLOSE по политике
func (b *OpenCVBackend) Segment(img *entity.RasterImage) (*entity.Segmentation, error) {
	if img.Empty() {
		return nil, apperrors.NewDecodeError("empty raster image", nil)
	}
	src, err := rasterToMat(img)
	if err != nil {
		return nil, apperrors.NewInternalError("raster to mat", err)
	}
	defer src.Close()

	light := b.lightness(src, img.Order)
	defer light.Close()

	mask := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), img.Height, img.Width, gocv.MatTypeCV8U)
	defer mask.Close()
	lo, hi, _, _ := gocv.MinMaxLoc(light)
	if int(hi)-int(lo) >= b.opts.MinContrast {
		// THRESH_BINARY строго больше порога, поэтому T-1 даёт «не меньше T»
		gocv.Threshold(light, &mask, float32(b.opts.LightnessThreshold-1), 255, gocv.ThresholdBinary)
	}

	if b.opts.Policy == entity.PolicyMorphologicallyCleaned {
		kernel := gocv.GetStructuringElement(gocv.MorphEllipse, image.Pt(b.opts.KernelSize, b.opts.KernelSize))
		defer kernel.Close()
		if b.opts.OpenIterations > 0 {
			gocv.MorphologyExWithParams(mask, &mask, gocv.MorphOpen, kernel, b.opts.OpenIterations, gocv.BorderConstant)
		}
		if b.opts.CloseIterations > 0 {
			gocv.MorphologyExWithParams(mask, &mask, gocv.MorphClose, kernel, b.opts.CloseIterations, gocv.BorderConstant)
		}
	}

	out := matToMask(mask)
	if !out.MatchesImage(img) {
		return nil, apperrors.NewInternalError(fmt.Sprintf("mask %dx%d does not match image %dx%d", out.Width, out.Height, img.Width, img.Height), nil)
	}

	overlay, err := b.overlay(src, mask, img.Order)
	if err != nil {
		return nil, apperrors.NewInternalError("overlay", err)
	}

	return &entity.Segmentation{Policy: b.opts.Policy, Mask: out, Overlay: overlay}, nil
}

// Quantify площадь по внешним контурам или число ненулевых пикселей
func (b *OpenCVBackend) Quantify(mask *entity.Mask) float64 {
	if mask == nil || mask.Width <= 0 || mask.Height <= 0 {
		return 0
	}
	m, err := maskToMat(mask)
	if err != nil {
		return 0
	}
	defer m.Close()
	return b.quantifyMat(m)
}

// Regions ограничивающие прямоугольники внешних контуров
func (b *OpenCVBackend) Regions(mask *entity.Mask) []entity.LesionRegion {
	if mask == nil || mask.Width <= 0 || mask.Height <= 0 {
		return nil
	}
	m, err := maskToMat(mask)
	if err != nil {
		return nil
	}
	defer m.Close()

	contours := gocv.FindContours(m, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	regions := make([]entity.LesionRegion, 0, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		c := contours.At(i)
		rect := gocv.BoundingRect(c)
		area := gocv.ContourArea(c)
		if b.opts.Metric == entity.AreaMetricPixels {
			roi := m.Region(rect)
			area = float64(gocv.CountNonZero(roi))
			roi.Close()
		}
		regions = append(regions, entity.LesionRegion{
			X:      rect.Min.X,
			Y:      rect.Min.Y,
			Width:  rect.Dx(),
			Height: rect.Dy(),
			Area:   area,
		})
	}
	return regions
}

// ReferenceArea площадь снимка без тёмного фона (яркость <= DarkThreshold)
func (b *OpenCVBackend) ReferenceArea(img *entity.RasterImage) float64 {
	if img.Empty() {
		return 0
	}
	src, err := rasterToMat(img)
	if err != nil {
		return 0
	}
	defer src.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(src, &gray, grayCode(img.Order))

	dark := gocv.NewMat()
	defer dark.Close()
	gocv.Threshold(gray, &dark, float32(b.opts.DarkThreshold), 255, gocv.ThresholdBinaryInv)

	return clampReference(img.Area(), b.quantifyMat(dark))
}

func (b *OpenCVBackend) quantifyMat(m gocv.Mat) float64 {
	if b.opts.Metric == entity.AreaMetricPixels {
		return float64(gocv.CountNonZero(m))
	}
	contours := gocv.FindContours(m, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	var area float64
	for i := 0; i < contours.Size(); i++ {
		area += gocv.ContourArea(contours.At(i))
	}
	return area
}

func (b *OpenCVBackend) lightness(src gocv.Mat, order entity.ChannelOrder) gocv.Mat {
	out := gocv.NewMat()
	if b.opts.ColorSpace != ColorSpaceLab {
		gocv.CvtColor(src, &out, grayCode(order))
		return out
	}

	lab := gocv.NewMat()
	defer lab.Close()
	code := gocv.ColorBGRToLab
	if order == entity.OrderRGB {
		code = gocv.ColorRGBToLab
	}
	gocv.CvtColor(src, &lab, code)
	channels := gocv.Split(lab)
	for i := range channels {
		defer channels[i].Close()
	}
	channels[0].CopyTo(&out)
	return out
}

func (b *OpenCVBackend) overlay(src, mask gocv.Mat, order entity.ChannelOrder) (*entity.RasterImage, error) {
	hl := b.opts.HighlightColor
	scalar := gocv.NewScalar(float64(hl.B), float64(hl.G), float64(hl.R), 0)
	if order == entity.OrderRGB {
		scalar = gocv.NewScalar(float64(hl.R), float64(hl.G), float64(hl.B), 0)
	}
	color := gocv.NewMatWithSizeFromScalar(scalar, src.Rows(), src.Cols(), gocv.MatTypeCV8UC3)
	defer color.Close()

	blended := gocv.NewMat()
	defer blended.Close()
	alpha := b.opts.OverlayOpacity
	gocv.AddWeighted(color, alpha, src, 1-alpha, 0, &blended)

	out := src.Clone()
	defer out.Close()
	blended.CopyToWithMask(&out, mask)

	return &entity.RasterImage{Width: out.Cols(), Height: out.Rows(), Order: order, Pix: out.ToBytes()}, nil
}

func grayCode(order entity.ChannelOrder) gocv.ColorConversionCode {
	if order == entity.OrderRGB {
		return gocv.ColorRGBToGray
	}
	return gocv.ColorBGRToGray
}

func rasterToMat(img *entity.RasterImage) (gocv.Mat, error) {
	return gocv.NewMatFromBytes(img.Height, img.Width, gocv.MatTypeCV8UC3, img.Pix[:img.Width*img.Height*3])
}

func maskToMat(mask *entity.Mask) (gocv.Mat, error) {
	data := make([]byte, len(mask.Pix))
	for i, v := range mask.Pix {
		if v != 0 {
			data[i] = 255
		}
	}
	return gocv.NewMatFromBytes(mask.Height, mask.Width, gocv.MatTypeCV8U, data)
}

func matToMask(m gocv.Mat) *entity.Mask {
	out := entity.NewMask(m.Cols(), m.Rows())
	for i, v := range m.ToBytes() {
		if v != 0 {
			out.Pix[i] = 1
		}
	}
	return out
}

var (
	_ port.ImageDecoder    = (*OpenCVBackend)(nil)
	_ port.LesionSegmenter = (*OpenCVBackend)(nil)
	_ port.AreaQuantifier  = (*OpenCVBackend)(nil)
)
