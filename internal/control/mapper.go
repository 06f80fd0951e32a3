package control

// Point is a 2D coordinate. Client points are in local pixels, normalized
// points are fractions of the remote surface.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is the client-space bounding rectangle of the remote video surface.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Normalize returns a rectangle with non-negative width/height.
func Normalize(r Rect) Rect {
	if r.W < 0 {
		r.X += r.W
		r.W = -r.W
	}
	if r.H < 0 {
		r.Y += r.H
		r.H = -r.H
	}
	return r
}

// Valid reports whether the rectangle has been laid out with a usable size.
func (r Rect) Valid() bool {
	return r.W > 0 && r.H > 0
}

// Contains reports whether a point is inside the rectangle (edges inclusive).
func (r Rect) Contains(p Point) bool {
	if !r.Valid() {
		return false
	}
	return p.X >= r.X && p.X <= r.X+r.W && p.Y >= r.Y && p.Y <= r.Y+r.H
}

// FromClient maps a client point onto the surface. It fails when the surface
// is not laid out or the point lies outside it.
func FromClient(r Rect, client Point) (Point, bool) {
	if !r.Contains(client) {
		return Point{}, false
	}
	return ClampPoint(Point{
		X: (client.X - r.X) / r.W,
		Y: (client.Y - r.Y) / r.H,
	}), true
}

// ApplyDelta adds a client-pixel delta, scaled by gain, to a normalized position.
func ApplyDelta(r Rect, pos Point, dx, dy, gain float64) (Point, bool) {
	if !r.Valid() {
		return pos, false
	}
	return ClampPoint(Point{
		X: pos.X + dx/r.W*gain,
		Y: pos.Y + dy/r.H*gain,
	}), true
}

// ClampPoint bounds both axes to [0..1].
func ClampPoint(p Point) Point {
	return Point{X: clamp01(p.X), Y: clamp01(p.Y)}
}

// clamp01 bounds a float to the [0..1] range.
func clamp01(v float64) float64 {
	if v < 0 || v != v {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// clamp bounds v to [lo..hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
