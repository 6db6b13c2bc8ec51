package entity

// LesionRegion связная область поражения
type LesionRegion struct {
	X      int     // координата X левого верхнего угла
	Y      int     // координата Y левого верхнего угла
	Width  int     // ширина ограничивающего прямоугольника
	Height int     // высота ограничивающего прямоугольника
	Area   float64 // площадь внутри внешнего контура
}

// Center возвращает координаты центра области
func (r LesionRegion) Center() (x, y int) {
	return r.X + r.Width/2, r.Y + r.Height/2
}
