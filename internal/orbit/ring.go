// Package orbit computes satellite positions on a single inclined circular
// orbit. All satellites share one orbital plane and are phase-locked: evenly
// spaced in true anomaly, the whole ring rotating rigidly as the phase
// offset advances. Positions are closed-form and recomputed on every call;
// no state is held between frames.
package orbit

import (
	"math"

	"github.com/pkg/errors"
)

// ErrInvalidParameter is returned for geometry arguments outside their
// valid domain.
var ErrInvalidParameter = errors.New("invalid parameter")

const (
	deg2Rad = math.Pi / 180
	twoPi   = 2 * math.Pi
)

// SatellitePosition returns the position of satellite index (0-based) out of
// total evenly spaced satellites on an inclined circular orbit.
//
//	θ = inclination·π/180
//	φ = 2π·index/total + phaseOffset
//	x = r·cosφ
//	y = r·sinφ·cosθ
//	z = r·sinφ·sinθ + verticalOffset
//
// verticalOffsetKm is a presentation constant separating the scene from the
// coordinate origin; it has no orbital meaning.
func SatellitePosition(inclinationDeg, orbitRadiusKm, verticalOffsetKm float64, index, total int, phaseOffset float64) (Vec3, error) {
	if total <= 0 {
		return Vec3{}, errors.Wrapf(ErrInvalidParameter, "total satellites %d must be positive", total)
	}
	if index < 0 || index >= total {
		return Vec3{}, errors.Wrapf(ErrInvalidParameter, "satellite index %d out of range [0, %d)", index, total)
	}
	if math.IsNaN(orbitRadiusKm) || orbitRadiusKm <= 0 {
		return Vec3{}, errors.Wrapf(ErrInvalidParameter, "orbit radius %.3f km must be positive", orbitRadiusKm)
	}

	theta := inclinationDeg * deg2Rad
	phi := twoPi*float64(index)/float64(total) + phaseOffset

	pos := Vec3{
		X: orbitRadiusKm * math.Cos(phi),
		Y: orbitRadiusKm * math.Sin(phi) * math.Cos(theta),
		Z: orbitRadiusKm*math.Sin(phi)*math.Sin(theta) + verticalOffsetKm,
	}
	if !pos.IsFinite() {
		return Vec3{}, errors.Wrapf(ErrInvalidParameter, "position for index %d is not finite", index)
	}
	return pos, nil
}

// Ring is an immutable single-plane constellation: count satellites evenly
// spaced on one inclined circular orbit.
type Ring struct {
	InclinationDeg   float64
	OrbitRadiusKm    float64
	Count            int
	VerticalOffsetKm float64
}

// NewRing validates the geometry once so per-frame position calls cannot
// fail on anything but an out-of-range index.
func NewRing(inclinationDeg, orbitRadiusKm float64, count int, verticalOffsetKm float64) (Ring, error) {
	if math.IsNaN(inclinationDeg) || math.IsInf(inclinationDeg, 0) {
		return Ring{}, errors.Wrapf(ErrInvalidParameter, "inclination %v deg is not finite", inclinationDeg)
	}
	if math.IsNaN(orbitRadiusKm) || orbitRadiusKm <= 0 {
		return Ring{}, errors.Wrapf(ErrInvalidParameter, "orbit radius %.3f km must be positive", orbitRadiusKm)
	}
	if count <= 0 {
		return Ring{}, errors.Wrapf(ErrInvalidParameter, "satellite count %d must be positive", count)
	}
	if math.IsNaN(verticalOffsetKm) || math.IsInf(verticalOffsetKm, 0) {
		return Ring{}, errors.Wrapf(ErrInvalidParameter, "vertical offset %v km is not finite", verticalOffsetKm)
	}
	return Ring{
		InclinationDeg:   inclinationDeg,
		OrbitRadiusKm:    orbitRadiusKm,
		Count:            count,
		VerticalOffsetKm: verticalOffsetKm,
	}, nil
}

// Position returns the position of one satellite at the given phase offset.
func (r Ring) Position(index int, phaseOffset float64) (Vec3, error) {
	return SatellitePosition(r.InclinationDeg, r.OrbitRadiusKm, r.VerticalOffsetKm, index, r.Count, phaseOffset)
}

// Snapshot returns all satellite positions at the given phase offset,
// ordered by index.
func (r Ring) Snapshot(phaseOffset float64) []Vec3 {
	positions := make([]Vec3, r.Count)
	for i := range positions {
		// Ring was validated at construction; an error here would be a
		// programming bug, so keep the zero vector and let the caller's
		// finite checks catch it.
		pos, err := r.Position(i, phaseOffset)
		if err == nil {
			positions[i] = pos
		}
	}
	return positions
}

// PathPoints samples the full orbital path as a closed polyline with n
// segments (n+1 points, first and last coincident).
func (r Ring) PathPoints(n int) []Vec3 {
	if n < 1 {
		return nil
	}
	theta := r.InclinationDeg * deg2Rad
	points := make([]Vec3, n+1)
	for i := 0; i <= n; i++ {
		phi := twoPi * float64(i) / float64(n)
		points[i] = Vec3{
			X: r.OrbitRadiusKm * math.Cos(phi),
			Y: r.OrbitRadiusKm * math.Sin(phi) * math.Cos(theta),
			Z: r.OrbitRadiusKm*math.Sin(phi)*math.Sin(theta) + r.VerticalOffsetKm,
		}
	}
	return points
}

// NormalizeAngle wraps an angle in radians to [0, 2π).
func NormalizeAngle(angle float64) float64 {
	wrapped := math.Mod(angle, twoPi)
	if wrapped < 0 {
		wrapped += twoPi
	}
	return wrapped
}
