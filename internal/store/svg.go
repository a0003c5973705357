package store

import (
	"fmt"
	"strings"
)

type Point struct{ X, Y float64 }

// TrailToSVG draws points as a single polyline scaled to fit width x height
// with a 10% margin. Fewer than two points produce an empty string.
func TrailToSVG(points []Point, width, height int, strokeColor string) string {
	if len(points) < 2 {
		return ""
	}

	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points {
		minX = min(minX, p.X)
		maxX = max(maxX, p.X)
		minY = min(minY, p.Y)
		maxY = max(maxY, p.Y)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
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

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, strokeColor)

	for i, p := range points {
		x := (p.X - minX) / rangeX * float64(width)
		y := float64(height) - (p.Y-minY)/rangeY*float64(height)
		if i == 0 {
			fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
	}

	last := points[len(points)-1]
	fmt.Fprintf(&sb, `"/>
<circle cx="%.1f" cy="%.1f" r="3" fill="%s"/>
</svg>`,
		(last.X-minX)/rangeX*float64(width),
		float64(height)-(last.Y-minY)/rangeY*float64(height),
		strokeColor)
	return sb.String()
}

// TrailPoints projects raw trail components onto axes a and b.
func TrailPoints(trail [][]float64, a, b int) []Point {
	pts := make([]Point, 0, len(trail))
	for _, c := range trail {
		if a < len(c) && b < len(c) {
			pts = append(pts, Point{X: c[a], Y: c[b]})
		}
	}
	return pts
}
