package vision

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"strings"

	"github.com/pkg/errors"

	"vitiligo-tracker/internal/domain/entity"
	"vitiligo-tracker/internal/domain/port"
	apperrors "vitiligo-tracker/internal/errors"
)

// NativeDecoder декодирует PNG, JPEG и GIF средствами image/*
type NativeDecoder struct {
	MaxPixels int // 0 — без предела
}

// NewNativeDecoder создаёт декодер с пределом DefaultMaxPixels
func NewNativeDecoder() *NativeDecoder {
	return &NativeDecoder{MaxPixels: DefaultMaxPixels}
}

// Decode превращает байты в RGB-растр
func (d *NativeDecoder) Decode(data []byte) (*entity.RasterImage, error) {
	if len(data) == 0 {
		return nil, apperrors.NewDecodeError("image payload is empty", nil)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.NewDecodeError("failed to decode image", err)
	}
	if err := checkPixelLimit(cfg.Width, cfg.Height, d.MaxPixels); err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.NewDecodeError("failed to decode image", err)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, apperrors.NewDecodeError("decoded image has no pixels", nil)
	}

	out := entity.NewRasterImage(b.Dx(), b.Dy(), entity.OrderRGB)
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			out.SetRGB(x, y, c.R, c.G, c.B)
		}
	}
	return out, nil
}

// checkPixelLimit отсекает снимки больше maxPixels по заголовку, до выделения памяти
func checkPixelLimit(width, height, maxPixels int) error {
	if maxPixels <= 0 {
		return nil
	}
	if int64(width)*int64(height) > int64(maxPixels) {
		return apperrors.NewInvalidInputError(fmt.Sprintf("image %dx%d exceeds the %d pixel limit", width, height, maxPixels), nil)
	}
	return nil
}

// DecodeBase64 разбирает base64 в любом из распространённых алфавитов,
// включая префикс data:image/...;base64,
func DecodeBase64(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, ","); strings.HasPrefix(s, "data:") && i >= 0 {
		s = s[i+1:]
	}
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == ' ' || r == '\t' {
			return -1
		}
		return r
	}, s)
	if s == "" {
		return nil, apperrors.NewDecodeError("image payload is empty", nil)
	}

	encodings := []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	}
	var lastErr error
	for _, enc := range encodings {
		data, err := enc.DecodeString(s)
		if err == nil {
			return data, nil
		}
		lastErr = err
	}
	return nil, apperrors.NewDecodeError("invalid base64 image payload", lastErr)
}

// EncodePNG кодирует растр в PNG
func EncodePNG(img *entity.RasterImage) ([]byte, error) {
	if img.Empty() {
		return nil, errors.New("empty raster image")
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img.Image()); err != nil {
		return nil, errors.Wrap(err, "encode png")
	}
	return buf.Bytes(), nil
}

// EncodeJPEG кодирует растр в JPEG с качеством 90
func EncodeJPEG(img *entity.RasterImage) ([]byte, error) {
	if img.Empty() {
		return nil, errors.New("empty raster image")
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img.Image(), &jpeg.Options{Quality: 90}); err != nil {
		return nil, errors.Wrap(err, "encode jpeg")
	}
	return buf.Bytes(), nil
}

var _ port.ImageDecoder = (*NativeDecoder)(nil)
