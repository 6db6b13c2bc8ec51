//go:build !gocv
// +build !gocv

package vision

import (
	"errors"

	"vitiligo-tracker/internal/domain/entity"
	"vitiligo-tracker/internal/domain/port"
)

// ErrOpenCVDisabled сборка без тега gocv
var ErrOpenCVDisabled = errors.New("gocv build tag is not enabled")

// OpenCVBackend заглушка без OpenCV
type OpenCVBackend struct{}

// NewOpenCVBackend возвращает ошибку, если сборка без тега gocv.
func NewOpenCVBackend(opts Options) (*OpenCVBackend, error) {
	_ = opts
	return nil, ErrOpenCVDisabled
}

func (b *OpenCVBackend) Decode(data []byte) (*entity.RasterImage, error) {
	_ = data
	return nil, ErrOpenCVDisabled
}

func (b *OpenCVBackend) Segment(img *entity.RasterImage) (*entity.Segmentation, error) {
	_ = img
	return nil, ErrOpenCVDisabled
}

func (b *OpenCVBackend) Quantify(*entity.Mask) float64 { return 0 }

func (b *OpenCVBackend) Regions(*entity.Mask) []entity.LesionRegion { return nil }

func (b *OpenCVBackend) ReferenceArea(*entity.RasterImage) float64 { return 0 }

var (
	_ port.ImageDecoder    = (*OpenCVBackend)(nil)
	_ port.LesionSegmenter = (*OpenCVBackend)(nil)
	_ port.AreaQuantifier  = (*OpenCVBackend)(nil)
)
