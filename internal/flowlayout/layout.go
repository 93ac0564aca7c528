// Package flowlayout раскладывает элементы слева направо с переносом строк.
// Используется для упаковки inline-кнопок ("чипов") в ряды клавиатуры.
package flowlayout

type Size struct {
	Width  float64
	Height float64
}

type Point struct {
	X float64
	Y float64
}

// Flow: параметры раскладки. Spacing: зазор между элементами в строке, LineSpacing: между строками.
type Flow struct {
	MaxWidth    float64
	Spacing     float64
	LineSpacing float64
}

type Result struct {
	Size    Size
	Offsets []Point
	// Lines: индексы элементов по строкам.
	Lines [][]int
}

// Place жадно раскладывает элементы. Первый элемент строки не переносится никогда,
// поэтому слишком широкий элемент занимает отдельную строку.
func (f Flow) Place(sizes []Size) Result {
	res := Result{Offsets: make([]Point, len(sizes))}
	if len(sizes) == 0 {
		return res
	}

	var x, y, lineH float64
	var line []int
	for i, s := range sizes {
		if len(line) > 0 && x+f.Spacing+s.Width > f.MaxWidth {
			res.Lines = append(res.Lines, line)
			if x > res.Size.Width {
				res.Size.Width = x
			}
			y += lineH + f.LineSpacing
			x, lineH, line = 0, 0, nil
		}
		if len(line) > 0 {
			x += f.Spacing
		}
		res.Offsets[i] = Point{X: x, Y: y}
		x += s.Width
		if s.Height > lineH {
			lineH = s.Height
		}
		line = append(line, i)
	}
	res.Lines = append(res.Lines, line)
	if x > res.Size.Width {
		res.Size.Width = x
	}
	res.Size.Height = y + lineH
	return res
}

// Layout: раскладка без зазоров.
func Layout(sizes []Size, maxWidth float64) Result {
	return Flow{MaxWidth: maxWidth}.Place(sizes)
}
