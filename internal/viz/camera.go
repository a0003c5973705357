package viz

import (
	"math"
	"sort"

	"github.com/san-kum/fieldsim/internal/dynamo"
)

// Camera orbits the world origin and projects points with a simple
// perspective divide. Extent is the world half-width that fits the
// shorter screen side at zoom 1.
type Camera struct {
	RotX, RotY, RotZ float64
	Zoom             float64
	Distance         float64
	Extent           float64
}

func NewCamera(extent float64) *Camera {
	return &Camera{RotX: -0.35, RotY: 0.6, Zoom: 1, Distance: 6 * extent, Extent: extent}
}

func (c *Camera) RotateX(a float64) { c.RotX += a }
func (c *Camera) RotateY(a float64) { c.RotY += a }
func (c *Camera) RotateZ(a float64) { c.RotZ += a }
func (c *Camera) ZoomIn()           { c.Zoom = math.Min(10, c.Zoom*1.2) }
func (c *Camera) ZoomOut()          { c.Zoom = math.Max(0.1, c.Zoom/1.2) }

func (c *Camera) rotate(p dynamo.Vec3) dynamo.Vec3 {
	cx, sx := math.Cos(c.RotX), math.Sin(c.RotX)
	p.Y, p.Z = p.Y*cx-p.Z*sx, p.Y*sx+p.Z*cx
	cy, sy := math.Cos(c.RotY), math.Sin(c.RotY)
	p.X, p.Z = p.X*cy+p.Z*sy, -p.X*sy+p.Z*cy
	cz, sz := math.Cos(c.RotZ), math.Sin(c.RotZ)
	p.X, p.Y = p.X*cz-p.Y*sz, p.X*sz+p.Y*cz
	return p
}

// Project maps a world point to pixel coordinates on a sw x sh screen.
// It returns the depth for ordering and whether the point is drawable.
func (c *Camera) Project(p dynamo.Vec3, sw, sh int) (int, int, float64, bool) {
	rot := c.rotate(p).Scale(c.Zoom)
	if !rot.IsFinite() || rot.Z >= c.Distance*0.95 {
		return 0, 0, 0, false
	}
	persp := c.Distance / (c.Distance - rot.Z)
	unit := 0.45 * float64(min(sw, sh)) / c.Extent
	sx := int(math.Round(rot.X*persp*unit)) + sw/2
	sy := int(math.Round(-rot.Y*persp*unit)) + sh/2
	return sx, sy, rot.Z, true
}

type Edge struct {
	Start, End dynamo.Vec3
}

// Wireframe is a list of world-space segments; a zero-length edge is a dot.
type Wireframe struct{ Edges []Edge }

func (w *Wireframe) Line(s, e dynamo.Vec3) { w.Edges = append(w.Edges, Edge{s, e}) }
func (w *Wireframe) Point(p dynamo.Vec3)   { w.Edges = append(w.Edges, Edge{p, p}) }
func (w *Wireframe) Reset()                { w.Edges = w.Edges[:0] }

// Arrow draws a shaft from s to e with a two-stroke head.
func (w *Wireframe) Arrow(s, e dynamo.Vec3) {
	d := e.Sub(s)
	l := d.Norm()
	if l == 0 {
		return
	}
	w.Line(s, e)
	dir := d.Scale(1 / l)
	side := dir.Cross(dynamo.Vec3{Y: 1})
	if side.Norm() < 1e-6 {
		side = dir.Cross(dynamo.Vec3{X: 1})
	}
	side = side.Scale(1 / side.Norm())
	head := math.Min(1.5, l*0.3)
	back := e.Sub(dir.Scale(head))
	w.Line(e, back.Add(side.Scale(head*0.5)))
	w.Line(e, back.Sub(side.Scale(head*0.5)))
}

// Polyline joins consecutive points, skipping repeats.
func (w *Wireframe) Polyline(pts []dynamo.Vec3) {
	for i := 1; i < len(pts); i++ {
		if pts[i] != pts[i-1] {
			w.Line(pts[i-1], pts[i])
		}
	}
}

type projected struct {
	x1, y1, x2, y2 int
	depth          float64
}

// Render draws the wireframe far-to-near.
func Render(c *Canvas, w *Wireframe, cam *Camera) {
	if c == nil || w == nil || cam == nil {
		return
	}
	sw, sh := c.PixelWidth(), c.PixelHeight()
	proj := make([]projected, 0, len(w.Edges))
	for _, e := range w.Edges {
		x1, y1, d1, ok1 := cam.Project(e.Start, sw, sh)
		x2, y2, d2, ok2 := cam.Project(e.End, sw, sh)
		if ok1 && ok2 {
			proj = append(proj, projected{x1, y1, x2, y2, (d1 + d2) / 2})
		}
	}
	sort.Slice(proj, func(i, j int) bool { return proj[i].depth < proj[j].depth })
	for _, e := range proj {
		if e.x1 == e.x2 && e.y1 == e.y2 {
			c.Set(e.x1, e.y1)
		} else {
			c.Line(e.x1, e.y1, e.x2, e.y2)
		}
	}
}
