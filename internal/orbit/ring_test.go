package orbit

import (
	"errors"
	"math"
	"testing"

	"github.com/gonum/floats"
)

const (
	testRadius = 1737.4 + 2000
	testOffset = 500.0
)

// untilt rotates a position back about the x-axis by the inclination and
// removes the vertical offset, recovering the pre-tilt orbital plane.
func untilt(pos Vec3, inclinationDeg, offsetKm float64) Vec3 {
	theta := inclinationDeg * deg2Rad
	y := pos.Y*math.Cos(theta) + (pos.Z-offsetKm)*math.Sin(theta)
	z := -pos.Y*math.Sin(theta) + (pos.Z-offsetKm)*math.Cos(theta)
	return Vec3{X: pos.X, Y: y, Z: z}
}

// TestSatelliteZeroPhase verifies satellite 0 at phase 0 sits exactly at
// (r, 0, verticalOffset).
func TestSatelliteZeroPhase(t *testing.T) {
	pos, err := SatellitePosition(45, testRadius, testOffset, 0, 4, 0)
	if err != nil {
		t.Fatalf("SatellitePosition failed: %v", err)
	}
	want := Vec3{X: testRadius, Y: 0, Z: testOffset}
	if pos != want {
		t.Errorf("position = %+v, want %+v", pos, want)
	}
}

// TestEvenSpacing verifies satellites are spaced 2π/total apart in the
// underlying orbital angle, for several inclinations.
func TestEvenSpacing(t *testing.T) {
	const total = 9
	for _, inc := range []float64{0, 30, 45, 90, 135, 180} {
		ring, err := NewRing(inc, testRadius, total, testOffset)
		if err != nil {
			t.Fatalf("NewRing(inc=%.0f) failed: %v", inc, err)
		}

		snapshot := ring.Snapshot(0.7)
		prev := math.NaN()
		for i, pos := range snapshot {
			flat := untilt(pos, inc, testOffset)
			if !floats.EqualWithinAbs(flat.Z, 0, 1e-9*testRadius) {
				t.Errorf("inc=%.0f sat %d: untilted z = %g, want 0", inc, i, flat.Z)
			}
			angle := NormalizeAngle(math.Atan2(flat.Y, flat.X))
			if i > 0 {
				sep := NormalizeAngle(angle - prev)
				if !floats.EqualWithinAbs(sep, twoPi/total, 1e-9) {
					t.Errorf("inc=%.0f sat %d: separation = %g, want %g", inc, i, sep, twoPi/total)
				}
			}
			prev = angle
		}
	}
}

// TestRingRadiusAfterUntilt verifies every satellite lies on a circle of the
// orbit radius once the inclination tilt is undone.
func TestRingRadiusAfterUntilt(t *testing.T) {
	ring, err := NewRing(63.4, testRadius, 7, testOffset)
	if err != nil {
		t.Fatal(err)
	}

	for _, phase := range []float64{0, 0.3, 1.9, math.Pi, 5.5} {
		for i, pos := range ring.Snapshot(phase) {
			flat := untilt(pos, ring.InclinationDeg, testOffset)
			radial := math.Sqrt(flat.X*flat.X + flat.Y*flat.Y)
			if !floats.EqualWithinAbs(radial, testRadius, 1e-6) {
				t.Errorf("phase=%.2f sat %d: radial distance = %.9f, want %.1f", phase, i, radial, testRadius)
			}
		}
	}
}

// TestPeriodicity verifies a full 2π phase rotation returns every satellite
// to its original position.
func TestPeriodicity(t *testing.T) {
	ring, err := NewRing(45, testRadius, 5, testOffset)
	if err != nil {
		t.Fatal(err)
	}

	before := ring.Snapshot(1.234)
	after := ring.Snapshot(1.234 + twoPi)

	for i := range before {
		d := before[i].Sub(after[i]).Norm()
		if !floats.EqualWithinAbs(d, 0, 1e-6) {
			t.Errorf("sat %d moved %.9g km after a full revolution", i, d)
		}
	}
}

// TestRigidRing verifies pairwise satellite separations never change as the
// constellation rotates.
func TestRigidRing(t *testing.T) {
	ring, err := NewRing(30, testRadius, 6, testOffset)
	if err != nil {
		t.Fatal(err)
	}

	base := ring.Snapshot(0)
	for _, phase := range []float64{0.1, 1.0, 2.5, 4.0, 6.0} {
		rotated := ring.Snapshot(phase)
		for i := 0; i < ring.Count; i++ {
			for j := i + 1; j < ring.Count; j++ {
				want := base[i].Sub(base[j]).Norm()
				got := rotated[i].Sub(rotated[j]).Norm()
				if !floats.EqualWithinAbs(got, want, 1e-6) {
					t.Errorf("phase=%.1f: |sat%d-sat%d| = %.9f, want %.9f", phase, i, j, got, want)
				}
			}
		}
	}
}

// TestSatellitePositionInvalid verifies the InvalidParameter failures.
func TestSatellitePositionInvalid(t *testing.T) {
	tests := []struct {
		name   string
		radius float64
		index  int
		total  int
	}{
		{"zero total", testRadius, 0, 0},
		{"negative total", testRadius, 0, -1},
		{"index out of range", testRadius, 5, 5},
		{"negative index", testRadius, -1, 5},
		{"zero radius", 0, 0, 5},
		{"negative radius", -100, 0, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SatellitePosition(45, tt.radius, testOffset, tt.index, tt.total, 0)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, ErrInvalidParameter) {
				t.Errorf("error = %v, want ErrInvalidParameter", err)
			}
		})
	}
}

// TestNewRingInvalid verifies ring construction rejects bad geometry.
func TestNewRingInvalid(t *testing.T) {
	if _, err := NewRing(math.NaN(), testRadius, 4, testOffset); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("NaN inclination: error = %v, want ErrInvalidParameter", err)
	}
	if _, err := NewRing(45, testRadius, 0, testOffset); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("zero count: error = %v, want ErrInvalidParameter", err)
	}
	if _, err := NewRing(45, -1, 4, testOffset); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("negative radius: error = %v, want ErrInvalidParameter", err)
	}
	if _, err := NewRing(45, testRadius, 4, math.Inf(1)); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("infinite offset: error = %v, want ErrInvalidParameter", err)
	}
}

// TestPathPoints verifies the sampled orbit path is closed and on-orbit.
func TestPathPoints(t *testing.T) {
	ring, err := NewRing(45, testRadius, 4, testOffset)
	if err != nil {
		t.Fatal(err)
	}

	points := ring.PathPoints(200)
	if len(points) != 201 {
		t.Fatalf("len(points) = %d, want 201", len(points))
	}
	if d := points[0].Sub(points[200]).Norm(); !floats.EqualWithinAbs(d, 0, 1e-6) {
		t.Errorf("path not closed: endpoints %.9g km apart", d)
	}
	for i, p := range points {
		flat := untilt(p, ring.InclinationDeg, testOffset)
		radial := math.Sqrt(flat.X*flat.X + flat.Y*flat.Y)
		if !floats.EqualWithinAbs(radial, testRadius, 1e-6) {
			t.Fatalf("point %d off orbit: radial = %.6f", i, radial)
		}
	}

	if ring.PathPoints(0) != nil {
		t.Error("PathPoints(0) should be nil")
	}
}

func TestNormalizeAngle(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{twoPi, 0},
		{-math.Pi / 2, 3 * math.Pi / 2},
		{5 * twoPi, 0},
		{twoPi + 0.5, 0.5},
	}
	for _, tt := range tests {
		if got := NormalizeAngle(tt.in); !floats.EqualWithinAbs(got, tt.want, 1e-12) {
			t.Errorf("NormalizeAngle(%g) = %g, want %g", tt.in, got, tt.want)
		}
	}
}
