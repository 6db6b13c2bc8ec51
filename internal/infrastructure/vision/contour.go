package vision

import (
	"math"

	"vitiligo-tracker/internal/domain/entity"
)

// Направления обхода по часовой стрелке (ось Y направлена вниз)
var directions = [8]struct{ dx, dy int }{
	{1, 0},   // E
	{1, 1},   // SE
	{0, 1},   // S
	{-1, 1},  // SW
	{-1, 0},  // W
	{-1, -1}, // NW
	{0, -1},  // N
	{1, -1},  // NE
}

const dirWest = 4

type point struct{ x, y int }

// component связная (8-связность) область маски с заполненными дырами
type component struct {
	start   point
	minX    int
	minY    int
	maxX    int
	maxY    int
	pixels  int // пиксели исходной маски внутри области
	contour []point
}

// fillHoles заполняет фон, не достижимый от границы по 4-связности.
// Для 8-связного переднего плана это в точности дыры внешних контуров.
func fillHoles(m *entity.Mask) *entity.Mask {
	w, h := m.Width, m.Height
	outside := make([]bool, w*h)
	queue := make([]int, 0, 2*(w+h))

	push := func(x, y int) {
		i := y*w + x
		if m.Pix[i] != 0 || outside[i] {
			return
		}
		outside[i] = true
		queue = append(queue, i)
	}
	for x := 0; x < w; x++ {
		push(x, 0)
		push(x, h-1)
	}
	for y := 0; y < h; y++ {
		push(0, y)
		push(w-1, y)
	}

	for len(queue) > 0 {
		i := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		x, y := i%w, i/w
		if x > 0 {
			push(x-1, y)
		}
		if x < w-1 {
			push(x+1, y)
		}
		if y > 0 {
			push(x, y-1)
		}
		if y < h-1 {
			push(x, y+1)
		}
	}

	filled := entity.NewMask(w, h)
	for i := range filled.Pix {
		if !outside[i] {
			filled.Pix[i] = 1
		}
	}
	return filled
}

// externalComponents находит внешние контуры маски,
// как cv::findContours(RETR_EXTERNAL): вложенные острова не учитываются отдельно.
func externalComponents(m *entity.Mask) []component {
	if m == nil || m.Width <= 0 || m.Height <= 0 {
		return nil
	}
	filled := fillHoles(m)
	w, h := m.Width, m.Height
	labels := make([]int32, w*h)

	var comps []component
	stack := make([]int, 0, 64)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			if filled.Pix[i] == 0 || labels[i] != 0 {
				continue
			}

			label := int32(len(comps) + 1)
			c := component{start: point{x, y}, minX: x, minY: y, maxX: x, maxY: y}
			labels[i] = label
			stack = append(stack[:0], i)
			for len(stack) > 0 {
				j := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				cx, cy := j%w, j/w
				if m.Pix[j] != 0 {
					c.pixels++
				}
				c.minX, c.maxX = min(c.minX, cx), max(c.maxX, cx)
				c.minY, c.maxY = min(c.minY, cy), max(c.maxY, cy)
				for _, d := range directions {
					nx, ny := cx+d.dx, cy+d.dy
					if nx < 0 || ny < 0 || nx >= w || ny >= h {
						continue
					}
					k := ny*w + nx
					if filled.Pix[k] != 0 && labels[k] == 0 {
						labels[k] = label
						stack = append(stack, k)
					}
				}
			}
			c.contour = traceBorder(filled, c.start)
			comps = append(comps, c)
		}
	}
	return comps
}

// traceBorder обходит внешнюю границу области, начиная с верхнего левого пикселя.
// Обход против часовой стрелки по алгоритму Suzuki–Abe.
func traceBorder(m *entity.Mask, p0 point) []point {
	at := func(p point) bool { return m.At(p.x, p.y) }
	step := func(p point, d int) point {
		return point{p.x + directions[d].dx, p.y + directions[d].dy}
	}

	// Ищем по часовой стрелке от западного соседа последний пиксель обхода
	var p1 point
	found := false
	for k := 0; k < 8; k++ {
		d := (dirWest + k) % 8
		if q := step(p0, d); at(q) {
			p1, found = q, true
			break
		}
	}
	if !found {
		return []point{p0}
	}

	contour := []point{p0}
	p2, p3 := p1, p0
	for {
		from := directionTo(p3, p2)
		var p4 point
		for k := 1; k <= 8; k++ {
			d := (from - k + 8) % 8
			if q := step(p3, d); at(q) {
				p4 = q
				break
			}
		}
		if p4 == p0 && p3 == p1 {
			break
		}
		contour = append(contour, p4)
		p2, p3 = p3, p4
	}
	return contour
}

func directionTo(from, to point) int {
	dx, dy := to.x-from.x, to.y-from.y
	for d, v := range directions {
		if v.dx == dx && v.dy == dy {
			return d
		}
	}
	return dirWest
}

// polygonArea площадь многоугольника по формуле шнурования, как cv::contourArea
func polygonArea(contour []point) float64 {
	if len(contour) < 3 {
		return 0
	}
	var sum int64
	for i, p := range contour {
		q := contour[(i+1)%len(contour)]
		sum += int64(p.x)*int64(q.y) - int64(q.x)*int64(p.y)
	}
	return math.Abs(float64(sum)) / 2
}
