package helix

import (
	"fmt"
	"math"

	iss "github.com/PTMac73/ISS-Code-sub000"
)

// Status describes where a propagated particle ended.
type Status int

const (
	Miss      Status = iota // left the geometry without touching anything
	Active                  // stopped in the active area of the detector
	Shield                  // stopped in the shield or another obstruction
	ClipsEdge               // stopped on a dead edge of the detector
)

func (st Status) String() string {
	switch st {
	case Miss:
		return "miss"
	case Active:
		return "active"
	case Shield:
		return "shield"
	case ClipsEdge:
		return "clips-edge"
	}
	return fmt.Sprintf("Status(%d)", int(st))
}

// Point is a sample of a path: axial flight distance S and distance R from
// the axis, in mm.
type Point struct {
	S float64
	R float64
}

// Path is the sampled trajectory of a particle, ending where it stopped.
type Path []Point

// Turns returns the number of revolutions started along the path, counted
// as the local maxima of the distance from the axis.
func (p Path) Turns() int {
	n := 0
	for i := 1; i+1 < len(p); i++ {
		if p[i-1].R < p[i].R && p[i].R >= p[i+1].R {
			n++
		}
	}
	return n
}

// Classification is the fate of one propagated track.
type Classification struct {
	Status   Status
	Turns    int
	Above    bool  // passed the shield span above its outer radius
	Crossing Point // where the particle stopped
	Strip    int   // array strip hit, -1 otherwise
}

// maxSteps bounds the number of samples along a single path.
const maxSteps = 1 << 20

// Propagate advances t through g in fixed axial steps (mm) from the target
// to the detector plane, and classifies the outcome.
// The step is shortened to an eighth of the helix pitch when coarser.
//
// At each step it checks, in order, for an undefined radius, a crossing of
// the shield and a crossing of the tube within the detector span. Crossing
// points are interpolated between the two straddling samples and the path
// is truncated there.
// A NaN radius yields a Miss and an error wrapping ErrInvalidKinematics.
// g is expected to have been validated.
func Propagate(t Track, g iss.Geometry, step float64) (Path, Classification, error) {
	cls := Classification{Status: Miss, Strip: -1}
	if !(step > 0) {
		return nil, cls, fmt.Errorf("helix: invalid step %v mm: %w", step, iss.ErrConfig)
	}
	if t.VParallel < 0 {
		// flies away from the detector.
		return nil, cls, nil
	}

	r0 := t.Radius(0)
	if math.IsNaN(r0) {
		return nil, cls, fmt.Errorf(
			"helix: undefined radius at the target (v∥=%v, v⊥=%v): %w",
			t.VParallel, t.VPerpendicular, iss.ErrInvalidKinematics,
		)
	}

	// at least 8 samples per turn, or r(s) aliases.
	pitch := Period(t.Omega, t.VParallel)
	if pitch/8 < step {
		step = pitch / 8
	}
	n := int(math.Ceil(g.DetectorPlane / step))
	if n > maxSteps {
		return nil, cls, fmt.Errorf(
			"helix: pitch %v mm needs %d steps (max %d): %w",
			pitch, n, maxSteps, iss.ErrInvalidKinematics,
		)
	}
	path := make(Path, 1, n+2)
	path[0] = Point{S: 0, R: r0}

	for i := 1; ; i++ {
		prev := path[len(path)-1]
		s := float64(i) * step
		last := s >= g.DetectorPlane
		if last {
			s = g.DetectorPlane
		}
		r := t.Radius(s)
		if math.IsNaN(r) {
			cls.Crossing = prev
			cls.Turns = path.Turns()
			return path, cls, fmt.Errorf(
				"helix: undefined radius at s=%v mm: %w",
				s, iss.ErrInvalidKinematics,
			)
		}
		cur := Point{S: s, R: r}

		if above, ok := shieldSpan(g, prev, cur); ok {
			cls.Above = above
		}
		hit, st, strip, ok := shieldHit(g, prev, cur)
		if th, tst, tstrip, tok := tubeHit(g, prev, cur); tok && (!ok || th.S < hit.S) {
			hit, st, strip, ok = th, tst, tstrip, tok
		}
		if ok {
			path = append(path, hit)
			cls.Status = st
			cls.Crossing = hit
			cls.Strip = strip
			cls.Turns = path.Turns()
			return path, cls, nil
		}

		path = append(path, cur)
		if last {
			break
		}
	}

	end := path[len(path)-1]
	cls.Crossing = end
	cls.Turns = path.Turns()
	if g.Array == nil {
		switch {
		case end.R >= g.ActiveInner && end.R <= g.ActiveOuter:
			cls.Status = Active
		case end.R > g.ActiveOuter:
			cls.Status = ClipsEdge
		}
	}
	return path, cls, nil
}

// clip restricts the segment p0-p1 to the axial range [lo, hi].
func clip(p0, p1 Point, lo, hi float64) (a, b Point, ok bool) {
	sa := math.Max(p0.S, lo)
	sb := math.Min(p1.S, hi)
	if sa > sb {
		return a, b, false
	}
	at := func(s float64) Point {
		if p1.S == p0.S {
			return Point{S: s, R: p1.R}
		}
		return Point{S: s, R: p0.R + (s-p0.S)*(p1.R-p0.R)/(p1.S-p0.S)}
	}
	return at(sa), at(sb), true
}

// shieldSpan reports on which side of the shield the segment passes, when
// it overlaps the shield span.
func shieldSpan(g iss.Geometry, p0, p1 Point) (above, ok bool) {
	a, _, ok := clip(p0, p1, g.ShieldFront, g.ShieldBack)
	if !ok {
		return false, false
	}
	return a.R >= g.ShieldOuter, true
}

func shieldHit(g iss.Geometry, p0, p1 Point) (Point, Status, int, bool) {
	if !(g.ShieldOuter > g.ShieldInner) {
		return Point{}, Miss, -1, false
	}
	a, b, ok := clip(p0, p1, g.ShieldFront, g.ShieldBack)
	if !ok {
		return Point{}, Miss, -1, false
	}
	in, out := g.ShieldInner, g.ShieldOuter
	inside := func(p Point) bool { return g.Region(p.S, p.R) == iss.InShield }
	switch {
	case inside(a):
		// entering through the front face.
		return a, Shield, -1, true
	case inside(b) || (a.R <= in) != (b.R <= in) || (a.R >= out) != (b.R >= out):
		bound := out
		if a.R <= in {
			bound = in
		}
		return Point{S: iss.Crossing(a.S, a.R, b.S, b.R, bound), R: bound}, Shield, -1, true
	}
	return Point{}, Miss, -1, false
}

func tubeHit(g iss.Geometry, p0, p1 Point) (Point, Status, int, bool) {
	tr := g.TubeRadius
	var (
		outward = p0.R < tr && p1.R >= tr
		inward  = p0.R > tr && p1.R <= tr
	)
	if !outward && !inward {
		return Point{}, Miss, -1, false
	}
	hit := Point{S: iss.Crossing(p0.S, p0.R, p1.S, p1.R, tr), R: tr}
	if !g.InDetectorSpan(hit.S) {
		return Point{}, Miss, -1, false
	}

	switch {
	case g.Array == nil, outward:
		return hit, Shield, -1, true
	}
	strip, ok := g.Array.Strip(hit.S)
	if !ok {
		return hit, ClipsEdge, -1, true
	}
	return hit, Active, strip, true
}
