package vision

import (
	"math"

	"vitiligo-tracker/internal/domain/entity"
)

// Коэффициенты BT.601 в фиксированной точке, как в cv::cvtColor
const (
	grayShift = 14
	grayR     = 4899
	grayG     = 9617
	grayB     = 1868
	grayRound = 1 << (grayShift - 1)
)

// plane одноканальное 8-битное изображение
type plane struct {
	width  int
	height int
	pix    []uint8
}

func (p *plane) minMax() (lo, hi uint8) {
	if len(p.pix) == 0 {
		return 0, 0
	}
	lo, hi = p.pix[0], p.pix[0]
	for _, v := range p.pix[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// grayPlane яркость каждого пикселя
func grayPlane(img *entity.RasterImage) *plane {
	p := &plane{width: img.Width, height: img.Height, pix: make([]uint8, img.Width*img.Height)}
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			r, g, b := img.RGB(x, y)
			p.pix[y*img.Width+x] = luma(r, g, b)
		}
	}
	return p
}

func luma(r, g, b uint8) uint8 {
	return uint8((uint32(r)*grayR + uint32(g)*grayG + uint32(b)*grayB + grayRound) >> grayShift)
}

// srgbLinear таблица линеаризации sRGB для 8-битных значений
var srgbLinear = func() [256]float64 {
	var t [256]float64
	for i := range t {
		c := float64(i) / 255
		if c <= 0.04045 {
			t[i] = c / 12.92
		} else {
			t[i] = math.Pow((c+0.055)/1.055, 2.4)
		}
	}
	return t
}()

// labLightnessPlane канал L* в диапазоне 0..255 (L*·255/100)
func labLightnessPlane(img *entity.RasterImage) *plane {
	p := &plane{width: img.Width, height: img.Height, pix: make([]uint8, img.Width*img.Height)}
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			r, g, b := img.RGB(x, y)
			p.pix[y*img.Width+x] = labLightness(r, g, b)
		}
	}
	return p
}

func labLightness(r, g, b uint8) uint8 {
	yy := 0.212671*srgbLinear[r] + 0.715160*srgbLinear[g] + 0.072169*srgbLinear[b]
	var l float64
	if yy > 0.008856 {
		l = 116*math.Cbrt(yy) - 16
	} else {
		l = 903.3 * yy
	}
	v := math.Round(l * 255 / 100)
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	}
	return uint8(v)
}

// lightnessPlane выбирает канал светлоты по настройке
func lightnessPlane(img *entity.RasterImage, cs ColorSpace) *plane {
	if cs == ColorSpaceLab {
		return labLightnessPlane(img)
	}
	return grayPlane(img)
}

// thresholdAtLeast помечает пиксели со значением >= t
func thresholdAtLeast(p *plane, t int) *entity.Mask {
	m := entity.NewMask(p.width, p.height)
	for i, v := range p.pix {
		if int(v) >= t {
			m.Pix[i] = 1
		}
	}
	return m
}

// thresholdAtMost помечает пиксели со значением <= t
func thresholdAtMost(p *plane, t int) *entity.Mask {
	m := entity.NewMask(p.width, p.height)
	for i, v := range p.pix {
		if int(v) <= t {
			m.Pix[i] = 1
		}
	}
	return m
}
