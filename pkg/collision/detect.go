package collision

import "context"

// DefaultMinRatio is the smallest overlap/active-area ratio rect intersection accepts.
const DefaultMinRatio = 0.15

// Algorithm names reported in Result.
const (
	AlgorithmCenter       = "center"
	AlgorithmCorners      = "corners"
	AlgorithmIntersection = "intersection"
)

// Candidate is a potential drop target.
type Candidate struct {
	ID          string `json:"id"`
	Rect        Rect   `json:"rect"`
	Alive       bool   `json:"alive"`
	IsContainer bool   `json:"isContainer"`
	ParentID    string `json:"parentId,omitempty"`
}

// Provider supplies the current drop candidates, e.g. from a rendering layer.
type Provider interface {
	Candidates(ctx context.Context) ([]Candidate, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context) ([]Candidate, error)

// Candidates implements Provider.
func (f ProviderFunc) Candidates(ctx context.Context) ([]Candidate, error) { return f(ctx) }

// Static is a Provider over a fixed slice.
type Static []Candidate

// Candidates implements Provider.
func (s Static) Candidates(context.Context) ([]Candidate, error) { return s, nil }

// Result is the chosen candidate and how it was chosen.
type Result struct {
	Candidate Candidate `json:"candidate"`
	Algorithm string    `json:"algorithm"`
	// Distance is set by the center and corners algorithms.
	Distance float64 `json:"distance,omitempty"`
	// Area and Ratio are set by the intersection algorithm.
	Area  float64 `json:"area,omitempty"`
	Ratio float64 `json:"ratio,omitempty"`
}

// ID returns the chosen candidate id, or "" for a nil result.
func (r *Result) ID() string {
	if r == nil {
		return ""
	}
	return r.Candidate.ID
}

// Filter drops the dragged node, its descendants and dead candidates.
// isDescendant may be nil when descendant information is unavailable.
func Filter(candidates []Candidate, draggedID string, isDescendant func(id string) bool) []Candidate {
	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if !c.Alive || c.ID == draggedID {
			continue
		}
		if isDescendant != nil && isDescendant(c.ID) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// ClosestCenter picks the candidate whose center is nearest to active's center.
// Ties go to the earlier candidate.
func ClosestCenter(active Rect, candidates []Candidate) *Result {
	var best *Result
	center := active.Center()
	for _, c := range candidates {
		d := center.Distance(c.Rect.Center())
		if best == nil || d < best.Distance {
			best = &Result{Candidate: c, Algorithm: AlgorithmCenter, Distance: d}
		}
	}
	return best
}

// ClosestCorners picks the candidate with the smallest distance over the 4x4 corner pairs.
func ClosestCorners(active Rect, candidates []Candidate) *Result {
	var best *Result
	for _, c := range candidates {
		d := closestCornerDistance(active, c.Rect)
		if best == nil || d < best.Distance {
			best = &Result{Candidate: c, Algorithm: AlgorithmCorners, Distance: d}
		}
	}
	return best
}

// RectIntersection picks the candidate with the largest overlap area, provided its
// overlap/active-area ratio reaches minRatio. A degenerate active rect matches nothing.
func RectIntersection(active Rect, candidates []Candidate, minRatio float64) *Result {
	activeArea := active.Area()
	if activeArea == 0 {
		return nil
	}
	var best *Result
	for _, c := range candidates {
		area := active.Intersection(c.Rect)
		if area == 0 {
			continue
		}
		if best == nil || area > best.Area {
			best = &Result{Candidate: c, Algorithm: AlgorithmIntersection, Area: area, Ratio: area / activeArea}
		}
	}
	if best == nil || best.Ratio < minRatio {
		return nil
	}
	return best
}

// Smart tries rect intersection, then closest center, then closest corners.
func Smart(active Rect, candidates []Candidate, minRatio float64) *Result {
	if r := RectIntersection(active, candidates, minRatio); r != nil {
		return r
	}
	if r := ClosestCenter(active, candidates); r != nil {
		return r
	}
	return ClosestCorners(active, candidates)
}

// DebugInfo holds every algorithm's answer for the same input.
type DebugInfo struct {
	Active       Rect    `json:"active"`
	MinRatio     float64 `json:"minRatio"`
	Candidates   int     `json:"candidates"`
	Center       *Result `json:"center"`
	Corners      *Result `json:"corners"`
	Intersection *Result `json:"intersection"`
	Smart        *Result `json:"smart"`
}

// Debug runs all four algorithms.
func Debug(active Rect, candidates []Candidate, minRatio float64) DebugInfo {
	return DebugInfo{
		Active:       active,
		MinRatio:     minRatio,
		Candidates:   len(candidates),
		Center:       ClosestCenter(active, candidates),
		Corners:      ClosestCorners(active, candidates),
		Intersection: RectIntersection(active, candidates, minRatio),
		Smart:        Smart(active, candidates, minRatio),
	}
}

// Detector binds a minimum ratio to the algorithms.
type Detector struct {
	MinRatio float64
}

// NewDetector returns a Detector; a non-positive ratio selects DefaultMinRatio.
func NewDetector(minRatio float64) *Detector {
	if minRatio <= 0 {
		minRatio = DefaultMinRatio
	}
	return &Detector{MinRatio: minRatio}
}

// Detect runs Smart.
func (d *Detector) Detect(active Rect, candidates []Candidate) *Result {
	return Smart(active, candidates, d.MinRatio)
}

// Debug runs every algorithm.
func (d *Detector) Debug(active Rect, candidates []Candidate) DebugInfo {
	return Debug(active, candidates, d.MinRatio)
}
