package ensemble

import (
	"math"
	"math/rand"

	"github.com/san-kum/discmc/internal/topology"
)

// ForceField is the pairwise interaction contract consumed by the energy
// model. Concrete fields live in the forcefield package; anything satisfying
// this interface can be injected.
type ForceField interface {
	// Size returns the hard radius of atom type t.
	Size(t int) float64
	// Well returns the (symmetric) well depth between two atom types.
	Well(t1, t2 int) float64
	// Cutoff returns the truncation distance.
	Cutoff() float64
	// LengthScale returns the interaction length scale.
	LengthScale() float64
	// BigEnergy returns the finite overlap sentinel.
	BigEnergy() float64
	// PairEnergy evaluates the potential between two atoms a distance d apart.
	PairEnergy(t1, t2 int, d float64) float64
}

// Object is a placed rigid body: an object type, a center position, and an
// orientation. It caches the sum of its interactions with every partner so
// that unchanged objects never need re-evaluation.
type Object struct {
	Type  int
	X, Y  float64
	Theta float64

	energy float64
	recalc bool
}

// NewObject places an object of the given type. The cache starts dirty.
func NewObject(otype int, x, y, theta float64) *Object {
	return &Object{Type: otype, X: x, Y: y, Theta: theta, recalc: true}
}

// Dirty reports whether the cached energy is stale.
func (o *Object) Dirty() bool { return o.recalc }

// Invalidate marks the cached energy stale.
func (o *Object) Invalidate() { o.recalc = true }

// SetEnergy stores a freshly computed per-object energy and clears the
// dirty flag.
func (o *Object) SetEnergy(v float64) {
	o.energy = v
	o.recalc = false
}

// CachedEnergy returns the stored per-object energy.
func (o *Object) CachedEnergy() float64 { return o.energy }

// Move displaces the center by independent uniform draws on
// [-dlMax, +dlMax]. Under periodic boundaries the position wraps into
// [0,Lx) x [0,Ly). Under hard walls a displacement that takes the center out
// of the box is discarded and Move returns false, leaving the object
// untouched.
func (o *Object) Move(rng *rand.Rand, dlMax, lx, ly float64, periodic bool) bool {
	nx := o.X + dlMax*(2*rng.Float64()-1)
	ny := o.Y + dlMax*(2*rng.Float64()-1)
	if periodic {
		nx = wrap(nx, lx)
		ny = wrap(ny, ly)
	} else if nx < 0 || nx >= lx || ny < 0 || ny >= ly {
		return false
	}
	o.X, o.Y = nx, ny
	o.recalc = true
	return true
}

// Rotate adds a uniform draw from [-thetaMax/2, +thetaMax/2] to the
// orientation, kept in [0, 2pi).
func (o *Object) Rotate(rng *rand.Rand, thetaMax float64) {
	o.Theta = wrap(o.Theta+thetaMax*(rng.Float64()-0.5), 2*math.Pi)
	o.recalc = true
}

// Expand rescales the center position by factor, as part of an isotropic
// domain rescale.
func (o *Object) Expand(factor float64) {
	o.X *= factor
	o.Y *= factor
	o.recalc = true
}

// AtomPosition returns the world coordinates of atom i: the body-frame
// offset rotated by the orientation and added to the center.
func (o *Object) AtomPosition(topo *topology.Topology, i int) (float64, float64) {
	a := topo.Atom(o.Type, i)
	sin, cos := math.Sincos(o.Theta)
	return o.X + a.X*cos - a.Y*sin, o.Y + a.X*sin + a.Y*cos
}

// Interaction sums the pair energy over every atom pair between o and other.
// Both objects are evaluated at their stored centers; periodic image
// selection is the caller's concern.
func (o *Object) Interaction(ff ForceField, topo *topology.Topology, other *Object) float64 {
	sum := 0.0
	for i := 0; i < topo.NAtoms(o.Type); i++ {
		ax, ay := o.AtomPosition(topo, i)
		at := topo.Atom(o.Type, i).Type
		for j := 0; j < topo.NAtoms(other.Type); j++ {
			bx, by := other.AtomPosition(topo, j)
			bt := topo.Atom(other.Type, j).Type
			sum += ff.PairEnergy(at, bt, math.Hypot(ax-bx, ay-by))
		}
	}
	return sum
}

// BoxEnergy is the hard-wall term: the overlap sentinel if any atom of the
// object crosses a wall of the [0,lx] x [0,ly] box, zero otherwise. Only
// meaningful for non-periodic domains.
func (o *Object) BoxEnergy(ff ForceField, topo *topology.Topology, lx, ly float64) float64 {
	for i := 0; i < topo.NAtoms(o.Type); i++ {
		x, y := o.AtomPosition(topo, i)
		r := ff.Size(topo.Atom(o.Type, i).Type)
		if x < r || x > lx-r || y < r || y > ly-r {
			return ff.BigEnergy()
		}
	}
	return 0
}

// Distance returns the center-to-center distance to other, under the
// minimum-image convention when periodic.
func (o *Object) Distance(other *Object, lx, ly float64, periodic bool) float64 {
	dx := other.X - o.X
	dy := other.Y - o.Y
	if periodic {
		dx = minimumImage(dx, lx)
		dy = minimumImage(dy, ly)
	}
	return math.Hypot(dx, dy)
}

// wrap folds v into [0, size).
func wrap(v, size float64) float64 {
	v = math.Mod(v, size)
	if v < 0 {
		v += size
	}
	return v
}

// minimumImage folds a separation component with |d| < size into
// [-size/2, size/2]; a component of exactly ±size/2 is returned as is.
func minimumImage(d, size float64) float64 {
	shifted := d - size
	if d < 0 {
		shifted = d + size
	}
	if math.Abs(shifted) < math.Abs(d) {
		return shifted
	}
	return d
}
