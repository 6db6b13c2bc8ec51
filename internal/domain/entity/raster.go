package entity

import (
	"image"
	"image/color"
)

// ChannelOrder порядок каналов в RasterImage
type ChannelOrder int

const (
	OrderRGB ChannelOrder = iota // порядок image/*
	OrderBGR                     // порядок OpenCV
)

// RasterImage декодированное 3-канальное изображение.
// После декодирования не изменяется: этапы создают новые значения.
type RasterImage struct {
	Width  int
	Height int
	Order  ChannelOrder
	Pix    []byte // width*height*3, построчно
}

// NewRasterImage создаёт чёрное изображение заданного размера
func NewRasterImage(width, height int, order ChannelOrder) *RasterImage {
	return &RasterImage{
		Width:  width,
		Height: height,
		Order:  order,
		Pix:    make([]byte, width*height*3),
	}
}

// Empty сообщает, что изображение не содержит пикселей
func (r *RasterImage) Empty() bool {
	return r == nil || r.Width <= 0 || r.Height <= 0 || len(r.Pix) < r.Width*r.Height*3
}

// Area общая площадь в пикселях
func (r *RasterImage) Area() float64 {
	if r.Empty() {
		return 0
	}
	return float64(r.Width * r.Height)
}

// RGB возвращает цвет пикселя независимо от порядка каналов
func (r *RasterImage) RGB(x, y int) (red, green, blue uint8) {
	i := (y*r.Width + x) * 3
	if r.Order == OrderBGR {
		return r.Pix[i+2], r.Pix[i+1], r.Pix[i]
	}
	return r.Pix[i], r.Pix[i+1], r.Pix[i+2]
}

// SetRGB записывает цвет пикселя с учётом порядка каналов
func (r *RasterImage) SetRGB(x, y int, red, green, blue uint8) {
	i := (y*r.Width + x) * 3
	if r.Order == OrderBGR {
		r.Pix[i], r.Pix[i+1], r.Pix[i+2] = blue, green, red
		return
	}
	r.Pix[i], r.Pix[i+1], r.Pix[i+2] = red, green, blue
}

// Clone возвращает независимую копию
func (r *RasterImage) Clone() *RasterImage {
	pix := make([]byte, len(r.Pix))
	copy(pix, r.Pix)
	return &RasterImage{Width: r.Width, Height: r.Height, Order: r.Order, Pix: pix}
}

// Image конвертирует растр в image.RGBA для кодирования
func (r *RasterImage) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, r.Width, r.Height))
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			red, green, blue := r.RGB(x, y)
			img.SetRGBA(x, y, color.RGBA{R: red, G: green, B: blue, A: 255})
		}
	}
	return img
}
