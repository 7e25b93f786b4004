// Package coverage estimates how many satellites a single-layer
// constellation needs for continuous coverage of a spherical body.
//
// The default estimator reproduces the reference sizing heuristic exactly:
// each satellite's footprint is taken as (fov/360) of a sphere at orbit
// radius. It does not model true spherical-cap area, footprint overlap, or
// orbital-plane geometry, and the orbit inclination does not enter the
// formula at all — inclination shapes only the path geometry elsewhere.
// A corrected spherical-cap model is available as an explicit alternate
// (ModelCap); it is never applied silently.
package coverage

import (
	"math"

	"github.com/pkg/errors"
)

// ErrInvalidParameter is returned when a physical parameter is outside its
// valid domain. All validation failures wrap this sentinel.
var ErrInvalidParameter = errors.New("invalid parameter")

// Model selects the footprint approximation used by Estimate.
type Model string

const (
	// ModelFraction is the reference sizing heuristic (the default).
	ModelFraction Model = "fraction"
	// ModelCap uses the true spherical-cap footprint area.
	ModelCap Model = "cap"
)

// ParseModel validates a model name from config input.
func ParseModel(s string) (Model, error) {
	switch Model(s) {
	case ModelFraction, ModelCap:
		return Model(s), nil
	}
	return "", errors.Wrapf(ErrInvalidParameter, "unknown coverage model %q", s)
}

// Params describes the body and the circular orbit shell a constellation
// occupies. All distances are kilometres, angles degrees.
type Params struct {
	BodyRadiusKm   float64
	AltitudeKm     float64
	FieldOfViewDeg float64
}

// OrbitRadiusKm returns the orbit radius measured from the body's centre.
func (p Params) OrbitRadiusKm() float64 {
	return p.BodyRadiusKm + p.AltitudeKm
}

// Validate rejects parameters outside their physical domain.
// Altitude zero is accepted (a degenerate surface orbit is still defined);
// negative altitude is not.
func (p Params) Validate() error {
	if math.IsNaN(p.BodyRadiusKm) || p.BodyRadiusKm <= 0 {
		return errors.Wrapf(ErrInvalidParameter, "body radius %.3f km must be positive", p.BodyRadiusKm)
	}
	if math.IsNaN(p.AltitudeKm) || p.AltitudeKm < 0 {
		return errors.Wrapf(ErrInvalidParameter, "altitude %.3f km must be non-negative", p.AltitudeKm)
	}
	if math.IsNaN(p.FieldOfViewDeg) || p.FieldOfViewDeg <= 0 || p.FieldOfViewDeg > 360 {
		return errors.Wrapf(ErrInvalidParameter, "field of view %.3f deg must be in (0, 360]", p.FieldOfViewDeg)
	}
	return nil
}

// EstimateSatelliteCount returns the satellite count under the reference
// formula:
//
//	count = ceil(4π·R² / ((fov/360)·π·(R+h)²))
//
// The result is always ≥ 1 for valid parameters.
func EstimateSatelliteCount(p Params) (int, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}

	totalArea := 4 * math.Pi * p.BodyRadiusKm * p.BodyRadiusKm
	r := p.OrbitRadiusKm()
	coveredArea := p.FieldOfViewDeg / 360 * math.Pi * r * r

	return ceilCount(totalArea / coveredArea)
}

// EstimateSatelliteCountSphericalCap is the alternate corrected model: the
// footprint is the true spherical cap of half-angle fov/2 on the
// orbit-radius sphere, area 2π·r²·(1−cos(fov/2)).
//
// Not the default. Enable via Model selection; results differ from the
// reference formula and from the reference program's expected output.
func EstimateSatelliteCountSphericalCap(p Params) (int, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}

	totalArea := 4 * math.Pi * p.BodyRadiusKm * p.BodyRadiusKm
	r := p.OrbitRadiusKm()
	halfAngle := p.FieldOfViewDeg / 2 * math.Pi / 180
	coveredArea := 2 * math.Pi * r * r * (1 - math.Cos(halfAngle))
	if coveredArea <= 0 {
		return 0, errors.Wrapf(ErrInvalidParameter, "field of view %.3f deg yields empty footprint", p.FieldOfViewDeg)
	}

	return ceilCount(totalArea / coveredArea)
}

// Estimate dispatches to the selected model.
func Estimate(model Model, p Params) (int, error) {
	switch model {
	case ModelCap:
		return EstimateSatelliteCountSphericalCap(p)
	case ModelFraction, "":
		return EstimateSatelliteCount(p)
	}
	return 0, errors.Wrapf(ErrInvalidParameter, "unknown coverage model %q", model)
}

func ceilCount(ratio float64) (int, error) {
	if math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return 0, errors.Wrap(ErrInvalidParameter, "coverage ratio is not finite")
	}
	n := int(math.Ceil(ratio))
	if n < 1 {
		n = 1
	}
	return n, nil
}
