package mc

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/san-kum/discmc/internal/ensemble"
)

const (
	// acceptTarget is the acceptance fraction the step width adapts toward.
	acceptTarget = 0.5
	// adaptFactor scales dlMax up or down at each adaptation point.
	adaptFactor = 1.1
	// dlMin is the lower clamp on the proposal half-width.
	dlMin = 1e-6

	// reliefBatch is the relief batch length in multiples of N.
	reliefBatch = 2
	// reliefBudget is the relief step budget in multiples of N.
	reliefBudget = 2000
)

// Integrator runs Metropolis sweeps against a configuration. NGood and NBad
// accumulate accepted and rejected trials across Run calls; DlMax is the
// current proposal half-width.
type Integrator struct {
	ff  ensemble.ForceField
	rng *rand.Rand

	DlMax float64
	NGood int
	NBad  int

	metrics   []Metric
	observers []Observer

	// adaptation window
	windowGood  int
	windowTotal int
}

// New builds an integrator around a force field and an explicit random
// source. Seeding the source is the caller's concern.
func New(ff ensemble.ForceField, rng *rand.Rand) *Integrator {
	return &Integrator{ff: ff, rng: rng}
}

// AddMetric registers a metric observed on every step.
func (in *Integrator) AddMetric(m Metric) { in.metrics = append(in.metrics, m) }

// AddObserver registers a per-step observer.
func (in *Integrator) AddObserver(o Observer) { in.observers = append(in.observers, o) }

// Run performs nSteps Metropolis steps on cfg at inverse temperature beta.
// The pressure is accepted for compatibility with other ensembles but never
// consulted here. DlMax must be positive; a zero value is replaced
// by half the smaller domain edge.
func (in *Integrator) Run(ctx context.Context, cfg *ensemble.Configuration, beta, pressure float64, nSteps int) (*Result, error) {
	n := cfg.NObjects()
	if n == 0 {
		return nil, ErrEmpty
	}
	if in.DlMax <= 0 {
		in.DlMax = math.Min(cfg.XSize, cfg.YSize) / 2
	}
	_ = pressure

	reach := cfg.Reach(in.ff)
	energy := cfg.Energy(in.ff)
	res := &Result{}

	for step := 0; step < nSteps; step++ {
		select {
		case <-ctx.Done():
			res.Energy, res.DlMax = energy, in.DlMax
			return res, ctx.Err()
		default:
		}

		k := in.rng.Intn(n)
		obj := cfg.Object(k)
		oldX, oldY, oldTheta := obj.X, obj.Y, obj.Theta

		// Neighbours of the old center carry the moving object in their
		// sums, so they go stale along with the trial neighbourhood.
		cfg.InvalidateWithin(reach, k)

		accepted := false
		if cfg.Move(in.rng, k, in.DlMax) {
			cfg.InvalidateWithin(reach, k)
			cfg.MarkDirty(k)

			trial := cfg.Energy(in.ff)
			dE := trial - energy
			if dE <= 0 || in.rng.Float64() < math.Exp(-beta*dE) {
				energy = trial
				accepted = true
			} else {
				// Caches were refreshed against the trial position; mark
				// the touched neighbourhood stale again before restoring.
				cfg.InvalidateWithin(reach, k)
				obj.X, obj.Y, obj.Theta = oldX, oldY, oldTheta
				cfg.InvalidateWithin(reach, k)
				cfg.MarkDirty(k)
				energy = cfg.Energy(in.ff)
			}
		} else {
			// Hard-wall trial left the domain: rejected outright. The old
			// neighbourhood was invalidated above; refresh restores it.
			energy = cfg.Energy(in.ff)
		}

		if accepted {
			in.NGood++
			res.Accepted++
			in.windowGood++
		} else {
			in.NBad++
			res.Rejected++
		}
		in.windowTotal++
		res.Steps++

		for _, m := range in.metrics {
			m.Observe(cfg, step, energy, accepted)
		}
		for _, o := range in.observers {
			o.OnStep(cfg, step, energy, accepted)
		}

		if in.windowTotal >= n {
			in.adapt(cfg)
		}
	}

	res.Energy, res.DlMax = energy, in.DlMax
	return res, nil
}

// adapt nudges DlMax toward the target acceptance rate using the finished
// window, then clamps it to [dlMin, min(Lx,Ly)/2].
func (in *Integrator) adapt(cfg *ensemble.Configuration) {
	frac := float64(in.windowGood) / float64(in.windowTotal)
	if frac > acceptTarget {
		in.DlMax *= adaptFactor
	} else if frac < acceptTarget {
		in.DlMax /= adaptFactor
	}
	limit := math.Min(cfg.XSize, cfg.YSize) / 2
	in.DlMax = math.Min(math.Max(in.DlMax, dlMin), limit)
	in.windowGood, in.windowTotal = 0, 0
}

// Relax removes hard overlaps from a freshly loaded configuration by running
// short batches of ordinary Metropolis steps until the total energy drops
// below the overlap sentinel. The large dE against an overlapping state
// makes the plain acceptance rule favour separating moves; no special
// downhill-only logic is needed. Fails with ErrOverlapRelief once more than
// 2000*N steps have run without relief.
func (in *Integrator) Relax(ctx context.Context, cfg *ensemble.Configuration, beta, pressure float64) (int, error) {
	n := cfg.NObjects()
	if n == 0 {
		return 0, ErrEmpty
	}

	taken := 0
	for cfg.Energy(in.ff) >= in.ff.BigEnergy() {
		if taken > reliefBudget*n {
			return taken, fmt.Errorf("%w after %d steps", ErrOverlapRelief, taken)
		}
		if _, err := in.Run(ctx, cfg, beta, pressure, reliefBatch*n); err != nil {
			return taken, err
		}
		taken += reliefBatch * n
	}
	return taken, nil
}

// Acceptance returns the accumulated accepted fraction across all runs.
func (in *Integrator) Acceptance() float64 {
	total := in.NGood + in.NBad
	if total == 0 {
		return 0
	}
	return float64(in.NGood) / float64(total)
}
