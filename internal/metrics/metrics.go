package metrics

import (
	"github.com/san-kum/discmc/internal/ensemble"
)

// Acceptance tracks the accepted fraction of trial moves.
type Acceptance struct {
	name     string
	accepted int
	samples  int
}

func NewAcceptance() *Acceptance {
	return &Acceptance{name: "acceptance"}
}

func (a *Acceptance) Name() string { return a.name }

func (a *Acceptance) Observe(cfg *ensemble.Configuration, step int, energy float64, accepted bool) {
	a.samples++
	if accepted {
		a.accepted++
	}
}

func (a *Acceptance) Value() float64 {
	if a.samples == 0 {
		return 0
	}
	return float64(a.accepted) / float64(a.samples)
}

func (a *Acceptance) Reset() {
	a.accepted = 0
	a.samples = 0
}

// MeanEnergy averages the total energy over the observed steps.
type MeanEnergy struct {
	name    string
	sum     float64
	samples int
}

func NewMeanEnergy() *MeanEnergy {
	return &MeanEnergy{name: "mean_energy"}
}

func (m *MeanEnergy) Name() string { return m.name }

func (m *MeanEnergy) Observe(cfg *ensemble.Configuration, step int, energy float64, accepted bool) {
	m.sum += energy
	m.samples++
}

func (m *MeanEnergy) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *MeanEnergy) Reset() {
	m.sum = 0
	m.samples = 0
}

// Displacement reports the RMS distance of the object centers from a
// reference configuration, evaluated lazily when the value is read.
type Displacement struct {
	name string
	ref  *ensemble.Configuration
	cur  *ensemble.Configuration
}

// NewDisplacement snapshots ref as the starting point.
func NewDisplacement(ref *ensemble.Configuration) *Displacement {
	return &Displacement{name: "rms_displacement", ref: ref.Clone()}
}

func (d *Displacement) Name() string { return d.name }

func (d *Displacement) Observe(cfg *ensemble.Configuration, step int, energy float64, accepted bool) {
	d.cur = cfg
}

func (d *Displacement) Value() float64 {
	if d.cur == nil {
		return 0
	}
	return d.cur.RMS(d.ref)
}

func (d *Displacement) Reset() { d.cur = nil }
