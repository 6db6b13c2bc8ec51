package vision

import (
	"math"
	"runtime"
	"sync"

	"vitiligo-tracker/internal/domain/entity"
)

// offset смещение элемента ядра относительно якоря
type offset struct{ dx, dy int }

// ellipseKernel строит эллиптический структурный элемент size×size
// по тому же правилу, что cv::getStructuringElement(MORPH_ELLIPSE).
// Для 5×5 получается:
//
//	00100
//	11111
//	11111
//	11111
//	00100
func ellipseKernel(size int) []offset {
	r := size / 2
	c := size / 2
	inv := 0.0
	if r > 0 {
		inv = 1.0 / float64(r*r)
	}

	kernel := make([]offset, 0, size*size)
	for i := 0; i < size; i++ {
		j1, j2 := 0, 0
		dy := i - r
		if abs(dy) <= r {
			dx := int(math.RoundToEven(float64(c) * math.Sqrt(float64(r*r-dy*dy)*inv)))
			j1 = max(c-dx, 0)
			j2 = min(c+dx+1, size)
		}
		for j := j1; j < j2; j++ {
			kernel = append(kernel, offset{dx: j - c, dy: i - r})
		}
	}
	return kernel
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// morphology выполняет эрозию и дилатацию бинарной маски.
// Соседи за границей изображения не учитываются.
type morphology struct {
	kernel  []offset
	workers int
}

func newMorphology(kernelSize, workers int) *morphology {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &morphology{kernel: ellipseKernel(kernelSize), workers: workers}
}

func (m *morphology) erode(src *entity.Mask) *entity.Mask {
	return m.apply(src, true)
}

func (m *morphology) dilate(src *entity.Mask) *entity.Mask {
	return m.apply(src, false)
}

// open эрозия n раз, затем дилатация n раз
func (m *morphology) open(src *entity.Mask, n int) *entity.Mask {
	out := src
	for i := 0; i < n; i++ {
		out = m.erode(out)
	}
	for i := 0; i < n; i++ {
		out = m.dilate(out)
	}
	return out
}

// close дилатация n раз, затем эрозия n раз
func (m *morphology) close(src *entity.Mask, n int) *entity.Mask {
	out := src
	for i := 0; i < n; i++ {
		out = m.dilate(out)
	}
	for i := 0; i < n; i++ {
		out = m.erode(out)
	}
	return out
}

func (m *morphology) apply(src *entity.Mask, erode bool) *entity.Mask {
	dst := entity.NewMask(src.Width, src.Height)
	parallelRows(src.Height, m.workers, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < src.Width; x++ {
				if m.hit(src, x, y, erode) {
					dst.Pix[y*src.Width+x] = 1
				}
			}
		}
	})
	return dst
}

// hit для эрозии: все соседи внутри изображения помечены;
// для дилатации: помечен хотя бы один
func (m *morphology) hit(src *entity.Mask, x, y int, erode bool) bool {
	for _, k := range m.kernel {
		nx, ny := x+k.dx, y+k.dy
		if nx < 0 || ny < 0 || nx >= src.Width || ny >= src.Height {
			continue
		}
		set := src.Pix[ny*src.Width+nx] != 0
		if erode && !set {
			return false
		}
		if !erode && set {
			return true
		}
	}
	return erode
}

// parallelRows делит строки на полосы и обрабатывает их параллельно
func parallelRows(height, workers int, fn func(y0, y1 int)) {
	if height <= 0 {
		return
	}
	if workers > height {
		workers = height
	}
	if workers <= 1 {
		fn(0, height)
		return
	}

	stripe := (height + workers - 1) / workers
	var wg sync.WaitGroup
	for y0 := 0; y0 < height; y0 += stripe {
		y1 := min(y0+stripe, height)
		wg.Add(1)
		go func(y0, y1 int) {
			defer wg.Done()
			fn(y0, y1)
		}(y0, y1)
	}
	wg.Wait()
}
