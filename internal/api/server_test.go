package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gonum/floats"

	"github.com/luna/lunago/internal/animate"
	"github.com/luna/lunago/internal/auth"
	"github.com/luna/lunago/internal/coverage"
	"github.com/luna/lunago/internal/orbit"
	"github.com/luna/lunago/internal/session"
	"github.com/luna/lunago/internal/stream"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testServer(t *testing.T, authCfg auth.Config) *Server {
	t.Helper()

	sess, err := session.New(coverage.Params{
		BodyRadiusKm:   1737.4,
		AltitudeKm:     2000,
		FieldOfViewDeg: 90,
	}, 45, 500, coverage.ModelFraction)
	if err != nil {
		t.Fatal(err)
	}
	store := session.NewStore()
	store.Set(sess)

	clock, err := animate.NewClock(animate.DefaultSteps, animate.DefaultFrameInterval, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	pool := orbit.NewPool(4, testLogger())
	sh := stream.NewHandler(store, clock, pool, stream.Config{KeepaliveInterval: 30 * time.Second}, testLogger())

	return NewServer(":0", store, clock, pool, sh, testLogger(), authCfg)
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.RemoteAddr = "192.0.2.1:55000"
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	s := testServer(t, auth.Config{})
	for _, path := range []string{"/healthz", "/readyz"} {
		rec := get(t, s, path)
		if rec.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, rec.Code)
		}
	}
}

// TestConstellationSummary verifies the derived values surface in the
// summary endpoint.
func TestConstellationSummary(t *testing.T) {
	s := testServer(t, auth.Config{})
	rec := get(t, s, "/api/v1/constellation")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp constellationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.SatelliteCount != 4 {
		t.Errorf("satellite_count = %d, want 4", resp.SatelliteCount)
	}
	if resp.OrbitRadiusKm != 3737.4 {
		t.Errorf("orbit_radius_km = %g, want 3737.4", resp.OrbitRadiusKm)
	}
	if resp.CoverageModel != "fraction" {
		t.Errorf("coverage_model = %q, want fraction", resp.CoverageModel)
	}
	if resp.AnimationSteps != 100 || resp.FrameIntervalMs != 100 {
		t.Errorf("animation timing = %d steps / %d ms, want 100 / 100", resp.AnimationSteps, resp.FrameIntervalMs)
	}
}

// TestPositionsSnapshot verifies a phase-pinned snapshot returns every
// satellite at a finite position, with satellite 0 at the untilted node.
func TestPositionsSnapshot(t *testing.T) {
	s := testServer(t, auth.Config{})
	rec := get(t, s, "/api/v1/positions?phase=0")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp positionsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.SatelliteCount != 4 || len(resp.Satellites) != 4 {
		t.Fatalf("satellite count = %d/%d, want 4", resp.SatelliteCount, len(resp.Satellites))
	}

	// At phase 0, satellite 0 sits on the x axis at the orbit radius,
	// lifted by the vertical offset.
	p0 := resp.Satellites[0].Position
	if !floats.EqualWithinAbs(p0[0], 3737.4, 1e-9) || !floats.EqualWithinAbs(p0[1], 0, 1e-9) || !floats.EqualWithinAbs(p0[2], 500, 1e-9) {
		t.Errorf("satellite 0 at phase 0 = %v, want (3737.4, 0, 500)", p0)
	}

	for _, sat := range resp.Satellites {
		for _, v := range sat.Position {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Fatalf("satellite %d has non-finite coordinate", sat.Index)
			}
		}
	}
}

// TestPositionsInvalidParams verifies malformed parameters return 400 with
// a JSON error body.
func TestPositionsInvalidParams(t *testing.T) {
	s := testServer(t, auth.Config{})

	for _, target := range []string{
		"/api/v1/positions?phase=abc",
		"/api/v1/positions?phase=NaN",
		"/api/v1/positions?inclination=Inf",
		"/api/v1/positions?inclination=abc",
	} {
		rec := get(t, s, target)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s status = %d, want 400", target, rec.Code)
		}
		var body map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body["error"] == "" {
			t.Errorf("%s: want JSON error body, got %q", target, rec.Body.String())
		}
	}
}

// TestSceneGeometry verifies the scene endpoint returns the body mesh,
// equator outline, and closed orbit path.
func TestSceneGeometry(t *testing.T) {
	s := testServer(t, auth.Config{})
	rec := get(t, s, "/api/v1/scene")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		BodyRadiusKm float64 `json:"body_radius_km"`
		OrbitPath    struct {
			X []float64 `json:"x"`
		} `json:"orbit_path"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.BodyRadiusKm != 1737.4 {
		t.Errorf("body_radius_km = %g, want 1737.4", resp.BodyRadiusKm)
	}
	if len(resp.OrbitPath.X) == 0 {
		t.Error("orbit path is empty")
	}
}

// TestAuthProtectsScene verifies Bearer auth guards non-exempt routes and
// spares the exempt ones.
func TestAuthProtectsScene(t *testing.T) {
	s := testServer(t, auth.Config{Enabled: true, Token: "secret"})

	rec := get(t, s, "/api/v1/scene")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated scene status = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/scene", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec2 := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec2, req)
	if rec2.Code != http.StatusOK {
		t.Errorf("authenticated scene status = %d, want 200", rec2.Code)
	}

	// Exempt paths stay public.
	if rec := get(t, s, "/api/v1/constellation"); rec.Code != http.StatusOK {
		t.Errorf("constellation status = %d, want 200 without auth", rec.Code)
	}
	if rec := get(t, s, "/healthz"); rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d, want 200 without auth", rec.Code)
	}
}
