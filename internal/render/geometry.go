package render

// Vertex is a quad corner in clip space with its texture coordinate.
type Vertex struct {
	Position [2]float64
	UV       [2]float64
}

// Quad is a full-viewport rectangle made of two triangles.
type Quad struct {
	Vertices [4]Vertex
	Indices  [6]int
}

// NewQuad covers clip space [-1,1]² with uv 0..1, v growing upwards.
func NewQuad() *Quad {
	return &Quad{
		Vertices: [4]Vertex{
			{Position: [2]float64{-1, -1}, UV: [2]float64{0, 0}},
			{Position: [2]float64{1, -1}, UV: [2]float64{1, 0}},
			{Position: [2]float64{1, 1}, UV: [2]float64{1, 1}},
			{Position: [2]float64{-1, 1}, UV: [2]float64{0, 1}},
		},
		Indices: [6]int{0, 1, 2, 0, 2, 3},
	}
}

// Rasterize calls fragment for every pixel center of a w×h target covered
// by the quad, passing the interpolated uv. Row 0 is the top of the target.
// Positions are used as-is: vertices are already in clip space.
func (q *Quad) Rasterize(w, h int, fragment func(x, y int, uv [2]float64)) {
	if w <= 0 || h <= 0 {
		return
	}
	fw, fh := float64(w), float64(h)

	for tri := 0; tri < len(q.Indices); tri += 3 {
		a := q.Vertices[q.Indices[tri]]
		b := q.Vertices[q.Indices[tri+1]]
		c := q.Vertices[q.Indices[tri+2]]

		ax, ay := toScreen(a.Position, fw, fh)
		bx, by := toScreen(b.Position, fw, fh)
		cx, cy := toScreen(c.Position, fw, fh)

		area := edge(ax, ay, bx, by, cx, cy)
		if area == 0 {
			continue
		}

		minX := clampInt(int(min(ax, bx, cx)), 0, w-1)
		maxX := clampInt(int(max(ax, bx, cx)), 0, w-1)
		minY := clampInt(int(min(ay, by, cy)), 0, h-1)
		maxY := clampInt(int(max(ay, by, cy)), 0, h-1)

		for y := minY; y <= maxY; y++ {
			py := float64(y) + 0.5
			for x := minX; x <= maxX; x++ {
				px := float64(x) + 0.5
				w0 := edge(bx, by, cx, cy, px, py) / area
				w1 := edge(cx, cy, ax, ay, px, py) / area
				w2 := edge(ax, ay, bx, by, px, py) / area
				if w0 < 0 || w1 < 0 || w2 < 0 {
					continue
				}
				// The shared diagonal belongs to the first triangle.
				if tri > 0 && w2 == 0 {
					continue
				}
				fragment(x, y, [2]float64{
					w0*a.UV[0] + w1*b.UV[0] + w2*c.UV[0],
					w0*a.UV[1] + w1*b.UV[1] + w2*c.UV[1],
				})
			}
		}
	}
}

func toScreen(p [2]float64, w, h float64) (float64, float64) {
	return (p[0] + 1) / 2 * w, (1 - p[1]) / 2 * h
}

func edge(ax, ay, bx, by, px, py float64) float64 {
	return (px-ax)*(by-ay) - (py-ay)*(bx-ax)
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

// Camera is an orthographic projection. It frames the scene horizontally
// by the viewport aspect ratio.
type Camera struct {
	Left, Right, Top, Bottom float64
	Near, Far                float64
}

// NewCamera returns a unit camera looking down -z.
func NewCamera() Camera {
	return Camera{Left: -1, Right: 1, Top: 1, Bottom: -1, Near: 0.1, Far: 10}
}

// SetAspect widens the horizontal extent to ±aspect.
func (c *Camera) SetAspect(aspect float64) {
	c.Left = -aspect
	c.Right = aspect
	c.Top = 1
	c.Bottom = -1
}
