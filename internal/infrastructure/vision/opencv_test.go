//go:build gocv
// +build gocv

package vision

import (
	"testing"

	"github.com/stretchr/testify/require"

	"vitiligo-tracker/internal/domain/entity"
	apperrors "vitiligo-tracker/internal/errors"
)

func newOpenCV(t *testing.T, opts Options) *OpenCVBackend {
	t.Helper()
	b, err := NewOpenCVBackend(opts)
	require.NoError(t, err)
	return b
}

func TestOpenCV_UniformImageHasNoLesion(t *testing.T) {
	for _, v := range []uint8{128, 230} {
		for _, opts := range []Options{DefaultOptions(), RawOptions()} {
			cv := newOpenCV(t, opts)

			seg, err := cv.Segment(uniformImage(100, 100, v))
			require.NoError(t, err)
			require.True(t, seg.Mask.Empty(), "value=%d policy=%s", v, opts.Policy)
			require.Equal(t, 0.0, cv.Quantify(seg.Mask))
		}
	}
}

func TestOpenCV_ContourAreaMatchesNative(t *testing.T) {
	cv := newOpenCV(t, DefaultOptions())
	native := NewNativeQuantifier(DefaultOptions())

	m := entity.NewMask(20, 20)
	maskRect(m, 3, 4, 10, 6)
	require.InDelta(t, 45.0, cv.Quantify(m), 1e-9)

	ring := entity.NewMask(9, 9)
	maskRect(ring, 1, 1, 7, 7)
	for y := 2; y <= 6; y++ {
		for x := 2; x <= 6; x++ {
			ring.Set(x, y, false)
		}
	}
	ring.Set(4, 4, true)
	require.InDelta(t, native.Quantify(ring), cv.Quantify(ring), 1e-9)
	require.Len(t, cv.Regions(ring), 1)
}

func TestOpenCV_RawThresholdIsInclusive(t *testing.T) {
	cv := newOpenCV(t, RawOptions())

	img := uniformImage(4, 1, 100)
	img.SetRGB(0, 0, 180, 180, 180)
	img.SetRGB(1, 0, 179, 179, 179)
	img.SetRGB(2, 0, 255, 255, 255)

	seg, err := cv.Segment(img)
	require.NoError(t, err)
	require.True(t, seg.Mask.At(0, 0))
	require.False(t, seg.Mask.At(1, 0))
	require.True(t, seg.Mask.At(2, 0))
	require.False(t, seg.Mask.At(3, 0))
}

func TestOpenCV_CleanedMaskMatchesNative(t *testing.T) {
	img := uniformImage(100, 100, 90)
	paintRect(img, 30, 30, 40, 40, 240)
	img.SetRGB(5, 5, 250, 250, 250)

	cvSeg, err := newOpenCV(t, DefaultOptions()).Segment(img)
	require.NoError(t, err)
	native, err := NewNativeSegmenter(DefaultOptions())
	require.NoError(t, err)
	nativeSeg, err := native.Segment(img)
	require.NoError(t, err)

	require.Equal(t, nativeSeg.Mask.Pix, cvSeg.Mask.Pix)
}

func TestOpenCV_ReferenceAreaMatchesNative(t *testing.T) {
	img := uniformImage(10, 10, 150)
	paintRect(img, 0, 0, 10, 3, 10)

	for _, metric := range []entity.AreaMetricKind{entity.AreaMetricPixels, entity.AreaMetricContour} {
		opts := DefaultOptions().WithMetric(metric)
		require.InDelta(t, NewNativeQuantifier(opts).ReferenceArea(img), newOpenCV(t, opts).ReferenceArea(img), 1e-9, metric)
	}
	require.Equal(t, 70.0, newOpenCV(t, DefaultOptions().WithMetric(entity.AreaMetricPixels)).ReferenceArea(img))
}

func TestOpenCV_DecodeRespectsPixelLimit(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxPixels = 100
	cv := newOpenCV(t, opts)

	_, err := cv.Decode(encodeTestPNG(t, 11, 10))
	require.True(t, apperrors.IsKind(err, apperrors.KindInvalidInput))

	img, err := cv.Decode(encodeTestPNG(t, 10, 10))
	require.NoError(t, err)
	require.Equal(t, entity.OrderBGR, img.Order)

	_, err = cv.Decode([]byte("definitely not an image"))
	require.True(t, apperrors.IsKind(err, apperrors.KindDecode))
}
