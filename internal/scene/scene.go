// Package scene builds the static geometry the renderer draws around the
// constellation: the body surface mesh, the equator line pair, and the
// orbital path. Everything is a plain JSON-ready value; no graphics
// dependency exists here.
package scene

import (
	"math"

	"github.com/luna/lunago/internal/orbit"
)

// Sampling densities of the reference scene.
const (
	MeshLonSteps = 200 // longitude samples of the body surface grid
	MeshLatSteps = 100 // latitude samples of the body surface grid
	EquatorSteps = 100 // samples per equator half
	PathSteps    = 200 // segments of the orbital path polyline
)

// SurfaceMesh is a parametric surface grid, row-major: X[i][j] is the
// position at latitude row i, longitude column j. Kilometres.
type SurfaceMesh struct {
	X [][]float64 `json:"x"`
	Y [][]float64 `json:"y"`
	Z [][]float64 `json:"z"`
}

// Polyline is an open or closed 3D line strip. Kilometres.
type Polyline struct {
	X []float64 `json:"x"`
	Y []float64 `json:"y"`
	Z []float64 `json:"z"`
}

// Scene is the full static geometry for one session.
type Scene struct {
	BodyRadiusKm     float64     `json:"body_radius_km"`
	VerticalOffsetKm float64     `json:"vertical_offset_km"`
	Body             SurfaceMesh `json:"body"`
	Equator          []Polyline  `json:"equator"`
	OrbitPath        Polyline    `json:"orbit_path"`
}

// Build constructs the static scene for a body of the given radius and the
// session's orbital ring. The whole scene shares the ring's vertical offset.
func Build(bodyRadiusKm float64, ring orbit.Ring) Scene {
	return Scene{
		BodyRadiusKm:     bodyRadiusKm,
		VerticalOffsetKm: ring.VerticalOffsetKm,
		Body:             bodyMesh(bodyRadiusKm, ring.VerticalOffsetKm, MeshLonSteps, MeshLatSteps),
		Equator:          equatorLines(bodyRadiusKm, ring.VerticalOffsetKm, EquatorSteps),
		OrbitPath:        pathPolyline(ring.PathPoints(PathSteps)),
	}
}

// bodyMesh samples the body sphere on a (latSteps × lonSteps) parametric
// grid: u ∈ [0, 2π] longitude, v ∈ [0, π] colatitude.
func bodyMesh(radiusKm, offsetKm float64, lonSteps, latSteps int) SurfaceMesh {
	mesh := SurfaceMesh{
		X: make([][]float64, latSteps),
		Y: make([][]float64, latSteps),
		Z: make([][]float64, latSteps),
	}
	for i := 0; i < latSteps; i++ {
		v := math.Pi * float64(i) / float64(latSteps-1)
		sinV, cosV := math.Sincos(v)
		rowX := make([]float64, lonSteps)
		rowY := make([]float64, lonSteps)
		rowZ := make([]float64, lonSteps)
		for j := 0; j < lonSteps; j++ {
			u := 2 * math.Pi * float64(j) / float64(lonSteps-1)
			sinU, cosU := math.Sincos(u)
			rowX[j] = radiusKm * sinV * cosU
			rowY[j] = radiusKm * sinV * sinU
			rowZ[j] = radiusKm*cosV + offsetKm
		}
		mesh.X[i] = rowX
		mesh.Y[i] = rowY
		mesh.Z[i] = rowZ
	}
	return mesh
}

// equatorLines samples the equator as two half-circle polylines
// (y = +√(R²−x²) and y = −√(R²−x²)) at the scene offset height.
func equatorLines(radiusKm, offsetKm float64, steps int) []Polyline {
	upper := Polyline{
		X: make([]float64, steps),
		Y: make([]float64, steps),
		Z: make([]float64, steps),
	}
	lower := Polyline{
		X: make([]float64, steps),
		Y: make([]float64, steps),
		Z: make([]float64, steps),
	}
	for i := 0; i < steps; i++ {
		x := -radiusKm + 2*radiusKm*float64(i)/float64(steps-1)
		// Clamp the radicand: the endpoints sit exactly on ±R and float
		// rounding must not produce NaN there.
		radicand := radiusKm*radiusKm - x*x
		if radicand < 0 {
			radicand = 0
		}
		y := math.Sqrt(radicand)
		upper.X[i], upper.Y[i], upper.Z[i] = x, y, offsetKm
		lower.X[i], lower.Y[i], lower.Z[i] = x, -y, offsetKm
	}
	return []Polyline{upper, lower}
}

func pathPolyline(points []orbit.Vec3) Polyline {
	line := Polyline{
		X: make([]float64, len(points)),
		Y: make([]float64, len(points)),
		Z: make([]float64, len(points)),
	}
	for i, p := range points {
		line.X[i], line.Y[i], line.Z[i] = p.X, p.Y, p.Z
	}
	return line
}
