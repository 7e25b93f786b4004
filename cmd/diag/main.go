// Command diag prints the derived constellation without starting a
// server: satellite count under both coverage models plus the phase-zero
// position table. Useful for sanity-checking parameters.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/luna/lunago/internal/coverage"
	"github.com/luna/lunago/internal/orbit"
)

func main() {
	bodyRadius := flag.Float64("body-radius", 1737.4, "body radius in km")
	altitude := flag.Float64("altitude", 2000, "orbit altitude in km")
	fov := flag.Float64("fov", 90, "sensor field of view in degrees")
	inclination := flag.Float64("inclination", math.NaN(), "orbital inclination in degrees (prompted if unset)")
	offset := flag.Float64("offset", 500, "scene vertical offset in km")
	model := flag.String("model", "fraction", "coverage model: fraction or cap")
	flag.Parse()

	incl := *inclination
	if math.IsNaN(incl) {
		incl = promptInclination()
	}

	m, err := coverage.ParseModel(*model)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		os.Exit(1)
	}

	params := coverage.Params{
		BodyRadiusKm:   *bodyRadius,
		AltitudeKm:     *altitude,
		FieldOfViewDeg: *fov,
	}

	count, err := coverage.Estimate(m, params)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		os.Exit(1)
	}

	ring, err := orbit.NewRing(incl, params.OrbitRadiusKm(), count, *offset)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		os.Exit(1)
	}

	fmt.Printf("Body radius:      %s km\n", humanize.Commaf(params.BodyRadiusKm))
	fmt.Printf("Orbit radius:     %s km\n", humanize.Commaf(params.OrbitRadiusKm()))
	fmt.Printf("Field of view:    %g°\n", params.FieldOfViewDeg)
	fmt.Printf("Inclination:      %g°\n", incl)
	fmt.Printf("Coverage model:   %s\n", m)
	fmt.Printf("Satellite count:  %d\n", count)

	if alt, err := coverage.Estimate(coverage.ModelCap, params); err == nil && m != coverage.ModelCap {
		fmt.Printf("  (spherical-cap model would give %d)\n", alt)
	}

	fmt.Println("\nPhase-zero positions (km):")
	for i, p := range ring.Snapshot(0) {
		fmt.Printf("  sat %3d: x=%10.1f  y=%10.1f  z=%10.1f\n", i, p.X, p.Y, p.Z)
	}
}

// promptInclination reads the inclination from stdin, retrying until a
// finite number arrives.
func promptInclination() float64 {
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("Enter orbital inclination in degrees: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Fprintln(os.Stderr, "ERROR reading input:", err)
			os.Exit(1)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(line), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			fmt.Println("Please enter a finite number.")
			continue
		}
		return v
	}
}
