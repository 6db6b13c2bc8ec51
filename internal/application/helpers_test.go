package app

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"vitiligo-tracker/internal/domain/entity"
	"vitiligo-tracker/internal/infrastructure/model"
	"vitiligo-tracker/internal/infrastructure/vision"
)

// pngWithSquare серый фон 90 и белый квадрат side×side в левом верхнем углу (10,10)
func pngWithSquare(t *testing.T, side int) []byte {
	t.Helper()
	img := entity.NewRasterImage(100, 100, entity.OrderRGB)
	for i := range img.Pix {
		img.Pix[i] = 90
	}
	for y := 10; y < 10+side; y++ {
		for x := 10; x < 10+side; x++ {
			img.SetRGB(x, y, 240, 240, 240)
		}
	}
	data, err := vision.EncodePNG(img)
	require.NoError(t, err)
	return data
}

func fixtureClassifier(t *testing.T) *TreatmentClassifier {
	t.Helper()
	m, err := model.Load(filepath.Join("..", "infrastructure", "model", "testdata", "bundle.yaml"))
	require.NoError(t, err)
	c, err := NewTreatmentClassifier(m)
	require.NoError(t, err)
	return c
}

func nativeTracker(t *testing.T, opts ...TrackingOption) *TrackingService {
	t.Helper()
	vopts := vision.RawOptions()
	seg, err := vision.NewNativeSegmenter(vopts)
	require.NoError(t, err)
	return NewTrackingService(vision.NewNativeDecoder(), seg, vision.NewNativeQuantifier(vopts), fixtureClassifier(t), opts...)
}

type stubModel struct {
	label      int
	predictErr error
	names      []string
}

func (m *stubModel) Predict([]float64) (int, error) {
	return m.label, m.predictErr
}

func (m *stubModel) Decode(label int) (string, error) {
	if label < 0 || label >= len(m.names) {
		return "", errors.New("unknown label")
	}
	return m.names[label], nil
}

// namedDecoder ошибается на байтах, начинающихся с "bad"
type namedDecoder struct {
	inner *vision.NativeDecoder
}

func (d namedDecoder) Decode(data []byte) (*entity.RasterImage, error) {
	if len(data) >= 3 && string(data[:3]) == "bad" {
		return nil, errors.New(string(data))
	}
	return d.inner.Decode(data)
}

// brokenSegmenter возвращает маску не того размера
type brokenSegmenter struct{}

func (brokenSegmenter) Segment(img *entity.RasterImage) (*entity.Segmentation, error) {
	return &entity.Segmentation{Mask: entity.NewMask(img.Width+1, img.Height)}, nil
}
