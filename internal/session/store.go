// Package session holds the run's validated constellation parameters.
// A session is captured once at startup and never mutated; request-level
// overrides build throwaway rings and leave the session untouched.
package session

import (
	"sync/atomic"
	"time"

	"github.com/luna/lunago/internal/coverage"
	"github.com/luna/lunago/internal/orbit"
)

// Session bundles the input parameters with everything derived from them.
// Immutable after construction.
type Session struct {
	Params           coverage.Params
	InclinationDeg   float64
	VerticalOffsetKm float64
	CoverageModel    coverage.Model
	SatelliteCount   int
	Ring             orbit.Ring
	StartedAt        time.Time
}

// New validates the parameters, derives the satellite count under the
// selected coverage model, and builds the session ring.
func New(params coverage.Params, inclinationDeg, verticalOffsetKm float64, model coverage.Model) (*Session, error) {
	count, err := coverage.Estimate(model, params)
	if err != nil {
		return nil, err
	}

	ring, err := orbit.NewRing(inclinationDeg, params.OrbitRadiusKm(), count, verticalOffsetKm)
	if err != nil {
		return nil, err
	}

	if model == "" {
		model = coverage.ModelFraction
	}

	return &Session{
		Params:           params,
		InclinationDeg:   inclinationDeg,
		VerticalOffsetKm: verticalOffsetKm,
		CoverageModel:    model,
		SatelliteCount:   count,
		Ring:             ring,
		StartedAt:        time.Now(),
	}, nil
}

// RingWithInclination returns a ring with the session's geometry but a
// different orbital-plane tilt. The session itself is unchanged.
func (s *Session) RingWithInclination(inclinationDeg float64) (orbit.Ring, error) {
	return orbit.NewRing(inclinationDeg, s.Params.OrbitRadiusKm(), s.SatelliteCount, s.VerticalOffsetKm)
}

// Store provides thread-safe access to the current session.
type Store struct {
	session atomic.Pointer[Session]
}

// NewStore creates a new empty Store.
func NewStore() *Store {
	return &Store{}
}

// Get returns the current session, or nil if none has been set.
func (s *Store) Get() *Session {
	return s.session.Load()
}

// Set atomically replaces the current session.
func (s *Store) Set(sess *Session) {
	s.session.Store(sess)
}

// AgeSeconds returns the age of the current session in seconds.
// Returns -1 if no session has been set.
func (s *Store) AgeSeconds() float64 {
	sess := s.session.Load()
	if sess == nil {
		return -1
	}
	return time.Since(sess.StartedAt).Seconds()
}
