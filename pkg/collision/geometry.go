package collision

import "math"

// Point is a position in canvas coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the Euclidean distance between p and q.
func (p Point) Distance(q Point) float64 {
	return math.Hypot(q.X-p.X, q.Y-p.Y)
}

// Rect is an axis-aligned rectangle: top-left corner plus size.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Left returns the minimum x.
func (r Rect) Left() float64 { return r.X }

// Top returns the minimum y.
func (r Rect) Top() float64 { return r.Y }

// Right returns the maximum x.
func (r Rect) Right() float64 { return r.X + r.Width }

// Bottom returns the maximum y.
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Area returns Width*Height, or 0 for degenerate rectangles.
func (r Rect) Area() float64 {
	if r.Width <= 0 || r.Height <= 0 {
		return 0
	}
	return r.Width * r.Height
}

// Center returns the midpoint.
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Corners returns top-left, top-right, bottom-left, bottom-right.
func (r Rect) Corners() [4]Point {
	return [4]Point{
		{X: r.Left(), Y: r.Top()},
		{X: r.Right(), Y: r.Top()},
		{X: r.Left(), Y: r.Bottom()},
		{X: r.Right(), Y: r.Bottom()},
	}
}

// Intersection returns the overlap area of r and o (0 when they only touch or are disjoint).
func (r Rect) Intersection(o Rect) float64 {
	w := math.Min(r.Right(), o.Right()) - math.Max(r.Left(), o.Left())
	h := math.Min(r.Bottom(), o.Bottom()) - math.Max(r.Top(), o.Top())
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Left() && p.X <= r.Right() && p.Y >= r.Top() && p.Y <= r.Bottom()
}

// closestCornerDistance is the minimum distance over the 4x4 corner pairs of a and b.
func closestCornerDistance(a, b Rect) float64 {
	best := math.Inf(1)
	bc := b.Corners()
	for _, p := range a.Corners() {
		for _, q := range bc {
			if d := p.Distance(q); d < best {
				best = d
			}
		}
	}
	return best
}
