package mc

import (
	"errors"

	"github.com/san-kum/discmc/internal/ensemble"
)

var (
	// ErrOverlapRelief indicates the initial configuration still had hard
	// overlaps after the relief step budget was exhausted.
	ErrOverlapRelief = errors.New("mc: unable to relieve initial overlaps")

	// ErrEmpty indicates a run was requested on a configuration with no
	// objects to move.
	ErrEmpty = errors.New("mc: configuration has no objects")
)

// TracePoint is one sampled report along a run.
type TracePoint struct {
	Step       int     `json:"step"`
	Energy     float64 `json:"energy"`
	Acceptance float64 `json:"acceptance"`
	DlMax      float64 `json:"dl_max"`
}

// Result summarizes one Run call.
type Result struct {
	Steps    int
	Accepted int
	Rejected int
	Energy   float64
	DlMax    float64
}

// Metric observes every step of a run and reduces it to a single value,
// collected after the run.
type Metric interface {
	Name() string
	Observe(cfg *ensemble.Configuration, step int, energy float64, accepted bool)
	Value() float64
	Reset()
}

// Observer receives every step of a run as it happens.
type Observer interface {
	OnStep(cfg *ensemble.Configuration, step int, energy float64, accepted bool)
}
