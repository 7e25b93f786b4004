package api

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/luna/lunago/internal/metrics"
	"github.com/luna/lunago/internal/orbit"
	"github.com/luna/lunago/internal/scene"
)

type constellationResponse struct {
	BodyRadiusKm     float64 `json:"body_radius_km"`
	AltitudeKm       float64 `json:"altitude_km"`
	OrbitRadiusKm    float64 `json:"orbit_radius_km"`
	FieldOfViewDeg   float64 `json:"fov_deg"`
	InclinationDeg   float64 `json:"inclination_deg"`
	VerticalOffsetKm float64 `json:"vertical_offset_km"`
	CoverageModel    string  `json:"coverage_model"`
	SatelliteCount   int     `json:"satellite_count"`
	AnimationSteps   int     `json:"animation_steps"`
	FrameIntervalMs  int     `json:"frame_interval_ms"`
	UptimeSeconds    int     `json:"uptime_seconds"`
}

// handleConstellation returns the configured constellation summary.
// GET /api/v1/constellation
func (s *Server) handleConstellation(w http.ResponseWriter, r *http.Request) {
	sess := s.store.Get()
	if sess == nil {
		writeError(w, http.StatusServiceUnavailable, "no session configured")
		return
	}

	writeJSON(w, http.StatusOK, constellationResponse{
		BodyRadiusKm:     sess.Params.BodyRadiusKm,
		AltitudeKm:       sess.Params.AltitudeKm,
		OrbitRadiusKm:    sess.Params.OrbitRadiusKm(),
		FieldOfViewDeg:   sess.Params.FieldOfViewDeg,
		InclinationDeg:   sess.InclinationDeg,
		VerticalOffsetKm: sess.VerticalOffsetKm,
		CoverageModel:    string(sess.CoverageModel),
		SatelliteCount:   sess.SatelliteCount,
		AnimationSteps:   s.clock.Steps(),
		FrameIntervalMs:  int(s.clock.FrameInterval().Milliseconds()),
		UptimeSeconds:    int(time.Since(sess.StartedAt).Seconds()),
	})
}

type positionsResponse struct {
	Phase          float64         `json:"phase"`
	InclinationDeg float64         `json:"inclination_deg"`
	SatelliteCount int             `json:"satellite_count"`
	Satellites     []satelliteJSON `json:"satellites"`
}

type satelliteJSON struct {
	Index    int        `json:"index"`
	Position [3]float64 `json:"position_km"`
}

// handlePositions returns one ring snapshot. Phase defaults to the
// animation clock's current phase; inclination defaults to the session's.
// GET /api/v1/positions?phase=1.57&inclination=45
func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	sess := s.store.Get()
	if sess == nil {
		writeError(w, http.StatusServiceUnavailable, "no session configured")
		return
	}

	phase := s.clock.PhaseAt(time.Now())
	if v := r.URL.Query().Get("phase"); v != "" {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(p) || math.IsInf(p, 0) {
			writeError(w, http.StatusBadRequest, "invalid phase parameter, must be a finite number of radians")
			return
		}
		phase = orbit.NormalizeAngle(p)
	}

	ring := sess.Ring
	if v := r.URL.Query().Get("inclination"); v != "" {
		inc, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(inc) || math.IsInf(inc, 0) {
			writeError(w, http.StatusBadRequest, "invalid inclination parameter, must be a finite number of degrees")
			return
		}
		ring, err = sess.RingWithInclination(inc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid inclination parameter")
			return
		}
	}

	start := time.Now()
	positions, _, errorCount := s.pool.Snapshot(r.Context(), ring, phase)
	// On-demand snapshots share the frame counters with the stream path.
	metrics.RecordFrame(time.Since(start), errorCount)

	sats := make([]satelliteJSON, len(positions))
	for i, p := range positions {
		sats[i] = satelliteJSON{Index: i, Position: [3]float64{p.X, p.Y, p.Z}}
	}

	writeJSON(w, http.StatusOK, positionsResponse{
		Phase:          phase,
		InclinationDeg: ring.InclinationDeg,
		SatelliteCount: ring.Count,
		Satellites:     sats,
	})
}

// handleScene returns the static render geometry: body mesh, equator
// outline, and the closed orbit path.
// GET /api/v1/scene
func (s *Server) handleScene(w http.ResponseWriter, r *http.Request) {
	sess := s.store.Get()
	if sess == nil {
		writeError(w, http.StatusServiceUnavailable, "no session configured")
		return
	}

	writeJSON(w, http.StatusOK, scene.Build(sess.Params.BodyRadiusKm, sess.Ring))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
