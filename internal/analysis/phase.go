package analysis

import (
	"strings"

	"github.com/san-kum/fieldsim/internal/store"
)

type Point = store.Point

// Portrait is a set of points in a two-dimensional slice of phase space.
type Portrait struct {
	Points []Point
}

// PhasePortrait pairs position component xIdx with velocity component vIdx
// for every recorded sample.
func PhasePortrait(samples []store.Sample, xIdx, vIdx int) *Portrait {
	p := &Portrait{Points: make([]Point, 0, len(samples))}
	for _, s := range samples {
		if xIdx < len(s.X) && vIdx < len(s.V) {
			p.Points = append(p.Points, Point{X: s.X[xIdx], Y: s.V[vIdx]})
		}
	}
	return p
}

// PoincareSection records position components a and b each time position
// component cross rises through threshold, interpolating between samples.
func PoincareSection(samples []store.Sample, cross int, threshold float64, a, b int) *Portrait {
	p := &Portrait{}
	for i := 1; i < len(samples); i++ {
		prev, cur := samples[i-1].X, samples[i].X
		if cross >= len(cur) || a >= len(cur) || b >= len(cur) || cross >= len(prev) {
			continue
		}
		if prev[cross] < threshold && cur[cross] >= threshold {
			f := (threshold - prev[cross]) / (cur[cross] - prev[cross])
			p.Points = append(p.Points, Point{
				X: prev[a] + f*(cur[a]-prev[a]),
				Y: prev[b] + f*(cur[b]-prev[b]),
			})
		}
	}
	return p
}

// ToASCII plots the portrait on a width x height character grid, with axes
// drawn where zero is in view.
func (p *Portrait) ToASCII(width, height int) string {
	if p == nil || len(p.Points) == 0 || width < 2 || height < 2 {
		return ""
	}

	minX, maxX := p.Points[0].X, p.Points[0].X
	minY, maxY := p.Points[0].Y, p.Points[0].Y
	for _, pt := range p.Points {
		minX, maxX = min(minX, pt.X), max(maxX, pt.X)
		minY, maxY = min(minY, pt.Y), max(maxY, pt.Y)
	}
	rangeX, rangeY := maxX-minX, maxY-minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	minY -= rangeY * 0.1
	rangeX *= 1.2
	rangeY *= 1.2

	col := func(x float64) int { return int((x - minX) / rangeX * float64(width-1)) }
	row := func(y float64) int { return height - 1 - int((y-minY)/rangeY*float64(height-1)) }

	grid := make([][]rune, height)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", width))
	}
	if c := col(0); minX <= 0 && minX+rangeX >= 0 && c >= 0 && c < width {
		for r := range grid {
			grid[r][c] = '│'
		}
	}
	if r := row(0); minY <= 0 && minY+rangeY >= 0 && r >= 0 && r < height {
		for c := range grid[r] {
			if grid[r][c] == '│' {
				grid[r][c] = '┼'
			} else {
				grid[r][c] = '─'
			}
		}
	}
	for _, pt := range p.Points {
		r, c := row(pt.Y), col(pt.X)
		if r >= 0 && r < height && c >= 0 && c < width {
			grid[r][c] = '•'
		}
	}

	var sb strings.Builder
	for _, r := range grid {
		sb.WriteString(string(r))
		sb.WriteByte('\n')
	}
	return sb.String()
}
