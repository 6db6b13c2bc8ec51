package entity

// Mask бинарная маска поражения: 1 — поражённый пиксель, 0 — нет.
// Размеры всегда совпадают с исходным изображением.
type Mask struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewMask создаёт пустую маску
func NewMask(width, height int) *Mask {
	return &Mask{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height),
	}
}

// At сообщает, помечен ли пиксель; за пределами маски — false
func (m *Mask) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return false
	}
	return m.Pix[y*m.Width+x] != 0
}

// Set помечает или снимает пометку с пикселя
func (m *Mask) Set(x, y int, affected bool) {
	if affected {
		m.Pix[y*m.Width+x] = 1
		return
	}
	m.Pix[y*m.Width+x] = 0
}

// Count число помеченных пикселей
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.Pix {
		if v != 0 {
			n++
		}
	}
	return n
}

// Empty сообщает, что ни один пиксель не помечен
func (m *Mask) Empty() bool {
	return m.Count() == 0
}

// MatchesImage проверяет совпадение размеров с изображением
func (m *Mask) MatchesImage(img *RasterImage) bool {
	return m != nil && img != nil && m.Width == img.Width && m.Height == img.Height && len(m.Pix) == m.Width*m.Height
}

// Clone возвращает независимую копию
func (m *Mask) Clone() *Mask {
	pix := make([]uint8, len(m.Pix))
	copy(pix, m.Pix)
	return &Mask{Width: m.Width, Height: m.Height, Pix: pix}
}
