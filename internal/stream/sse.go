// Package stream implements Server-Sent Events (SSE) streaming of
// constellation animation frames. Clients connect via
// GET /api/v1/stream/frames and receive one frame message per animation
// step, each carrying every satellite's scene position.
//
// SSE message format:
//
//	data: {"type":"frame","seq":12,"phase":0.7539,"sat":[{"i":0,"p":[x,y,z]},...]}\n\n
//
// First message is always metadata:
//
//	data: {"type":"metadata","satellite_count":4,"inclination_deg":45,...}\n\n
//
// Keep-alive comments (:\n\n) are sent every KeepaliveInterval to prevent
// timeout. Phase advances by 2π/steps per frame from zero on each
// connection, so every client starts at the reference initial state.
package stream

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/luna/lunago/internal/animate"
	"github.com/luna/lunago/internal/metrics"
	"github.com/luna/lunago/internal/orbit"
	"github.com/luna/lunago/internal/session"
)

// Config holds streaming configuration.
type Config struct {
	MaxConcurrentPerIP int           // Max concurrent streams per IP (default: 10).
	MaxConcurrentTotal int           // Global concurrent stream cap (default: 1000).
	KeepaliveInterval  time.Duration // Keep-alive ping interval (default: 30s).
}

// Handler manages SSE streaming connections.
type Handler struct {
	store   *session.Store
	clock   *animate.Clock
	pool    *orbit.Pool
	config  Config
	limiter *connLimiter
	logger  *slog.Logger
}

// NewHandler creates a new streaming handler.
func NewHandler(store *session.Store, clock *animate.Clock, pool *orbit.Pool, config Config, logger *slog.Logger) *Handler {
	return &Handler{
		store:   store,
		clock:   clock,
		pool:    pool,
		config:  config,
		limiter: newConnLimiter(config.MaxConcurrentPerIP, config.MaxConcurrentTotal),
		logger:  logger,
	}
}

// HandleFrames serves the SSE frame stream.
// GET /api/v1/stream/frames?interval=100&steps=100&inclination=45
func (h *Handler) HandleFrames(w http.ResponseWriter, r *http.Request) {
	sess := h.store.Get()
	if sess == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "no session configured")
		return
	}

	// Parse query parameters. Renderers choose their own stepping; the
	// defaults are the reference driver's 100 frames at 100 ms.
	interval := h.clock.FrameInterval()
	if v := r.URL.Query().Get("interval"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 20 || n > 1000 {
			writeJSONError(w, http.StatusBadRequest, "invalid interval parameter, must be 20-1000 ms")
			return
		}
		interval = time.Duration(n) * time.Millisecond
	}

	steps := h.clock.Steps()
	if v := r.URL.Query().Get("steps"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 10 || n > 3600 {
			writeJSONError(w, http.StatusBadRequest, "invalid steps parameter, must be 10-3600")
			return
		}
		steps = n
	}

	ring := sess.Ring
	if v := r.URL.Query().Get("inclination"); v != "" {
		inc, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(inc) || math.IsInf(inc, 0) {
			writeJSONError(w, http.StatusBadRequest, "invalid inclination parameter, must be a finite number of degrees")
			return
		}
		ring, err = sess.RingWithInclination(inc)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid inclination parameter")
			return
		}
	}

	// Rate limiting: enforce concurrent stream limits.
	ip := clientIP(r)
	if !h.limiter.tryAcquire(ip) {
		metrics.IncStreamErrors("rate_limit")
		h.logger.Warn("stream rate limit exceeded",
			"remote_ip", ip,
			"current_count", h.limiter.active(ip),
		)
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]string{"error": "too many concurrent streams"})
		return
	}

	metrics.IncStreamConnections("connect")
	metrics.IncStreamsActive()

	startTime := time.Now()
	h.logger.Info("stream connected",
		"remote_ip", ip,
		"user_agent", r.Header.Get("User-Agent"),
		"interval_ms", interval.Milliseconds(),
		"steps", steps,
		"inclination_deg", ring.InclinationDeg,
	)

	var bytesSent int64

	// Cleanup on disconnect: release rate limit slot and update metrics.
	defer func() {
		h.limiter.release(ip)
		metrics.IncStreamConnections("disconnect")
		metrics.DecStreamsActive()
		h.logger.Info("stream disconnected",
			"remote_ip", ip,
			"duration_seconds", int(time.Since(startTime).Seconds()),
			"sent", humanize.Bytes(uint64(bytesSent)),
		)
	}()

	// The ResponseController reaches flush and deadline controls through
	// any middleware wrappers. Flush support is required for SSE.
	rc := http.NewResponseController(w)

	// Set SSE response headers.
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering.
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		metrics.IncStreamErrors("no_flush")
		h.logger.Warn("streaming not supported", "remote_ip", ip, "error", err)
		return
	}

	// Clear the server's default WriteTimeout for this long-lived connection.
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		h.logger.Debug("could not clear write deadline", "error", err)
	}

	c := &client{
		w:      w,
		rc:     rc,
		ip:     ip,
		logger: h.logger,
	}

	// Send jittered retry interval (3-7s) to prevent thundering-herd
	// reconnection storms when the server restarts.
	retryMs := 3000 + rand.Intn(4000)
	fmt.Fprintf(w, "retry: %d\n\n", retryMs)
	rc.Flush()

	// Send metadata message (first message on every connection).
	meta := metadataMessage{
		Type:            "metadata",
		BodyRadiusKm:    sess.Params.BodyRadiusKm,
		AltitudeKm:      sess.Params.AltitudeKm,
		OrbitRadiusKm:   ring.OrbitRadiusKm,
		FieldOfViewDeg:  sess.Params.FieldOfViewDeg,
		InclinationDeg:  ring.InclinationDeg,
		SatelliteCount:  ring.Count,
		CoverageModel:   string(sess.CoverageModel),
		Steps:           steps,
		FrameIntervalMs: int(interval.Milliseconds()),
	}
	if err := c.sendJSON(meta); err != nil {
		metrics.IncStreamErrors("send_error")
		h.logger.Warn("stream send error (metadata)", "remote_ip", ip, "error", err)
		return
	}
	bytesSent = c.bytesSent

	// Stream frames at the requested interval, phase advancing 2π/steps
	// per frame from the reference initial state.
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	keepaliveTicker := time.NewTicker(h.config.KeepaliveInterval)
	defer keepaliveTicker.Stop()

	ctx := r.Context()
	seq := 0

	for {
		select {
		case <-ctx.Done():
			bytesSent = c.bytesSent
			return

		case <-ticker.C:
			phase := orbit.NormalizeAngle(2 * math.Pi * float64(seq) / float64(steps))

			start := time.Now()
			positions, _, errorCount := h.pool.Snapshot(ctx, ring, phase)
			metrics.RecordFrame(time.Since(start), errorCount)

			msg := buildFrameMessage(seq, phase, positions)
			data, err := json.Marshal(msg)
			if err != nil {
				metrics.IncStreamErrors("marshal_error")
				h.logger.Warn("stream marshal error", "remote_ip", ip, "error", err)
				continue
			}
			if err := c.sendRaw(data); err != nil {
				metrics.IncStreamErrors("send_error")
				h.logger.Warn("stream send error", "remote_ip", ip, "error", err)
				bytesSent = c.bytesSent
				return
			}
			seq++
			bytesSent = c.bytesSent

			// Reset keepalive since we just sent data.
			keepaliveTicker.Reset(h.config.KeepaliveInterval)

		case <-keepaliveTicker.C:
			if err := c.sendKeepalive(); err != nil {
				metrics.IncStreamErrors("send_error")
				h.logger.Warn("stream keepalive error", "remote_ip", ip, "error", err)
				bytesSent = c.bytesSent
				return
			}
			bytesSent = c.bytesSent
		}
	}
}

// buildFrameMessage formats one animation step into the SSE frame payload.
func buildFrameMessage(seq int, phase float64, positions []orbit.Vec3) frameMessage {
	sats := make([]satPayload, len(positions))
	for i, p := range positions {
		sats[i] = satPayload{
			I: i,
			P: [3]float64{p.X, p.Y, p.Z},
		}
	}
	return frameMessage{
		Type:  "frame",
		Seq:   seq,
		Phase: phase,
		Sat:   sats,
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// clientIP extracts the client IP address from RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// SSE message payload types.

type metadataMessage struct {
	Type            string  `json:"type"`
	BodyRadiusKm    float64 `json:"body_radius_km"`
	AltitudeKm      float64 `json:"altitude_km"`
	OrbitRadiusKm   float64 `json:"orbit_radius_km"`
	FieldOfViewDeg  float64 `json:"fov_deg"`
	InclinationDeg  float64 `json:"inclination_deg"`
	SatelliteCount  int     `json:"satellite_count"`
	CoverageModel   string  `json:"coverage_model"`
	Steps           int     `json:"steps"`
	FrameIntervalMs int     `json:"frame_interval_ms"`
}

type frameMessage struct {
	Type  string       `json:"type"`
	Seq   int          `json:"seq"`
	Phase float64      `json:"phase"`
	Sat   []satPayload `json:"sat"`
}

type satPayload struct {
	I int        `json:"i"`
	P [3]float64 `json:"p"`
}
