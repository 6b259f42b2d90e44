package ensemble

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"math/rand"

	"github.com/san-kum/discmc/internal/topology"
)

// Configuration is a rectangular domain holding an ordered collection of
// objects, the topology they refer to, and the cached total energy.
type Configuration struct {
	XSize, YSize float64
	Periodic     bool

	objects     []*Object
	topo        *topology.Topology
	savedEnergy float64
	unchanged   bool
}

// New returns an empty configuration with the given domain.
func New(xSize, ySize float64, periodic bool) (*Configuration, error) {
	if xSize <= 0 || ySize <= 0 {
		return nil, fmt.Errorf("%w: domain %g x %g", ErrInvariant, xSize, ySize)
	}
	return &Configuration{XSize: xSize, YSize: ySize, Periodic: periodic, unchanged: true}, nil
}

// Read parses a configuration from its text form:
//
//	Lx Ly
//	N
//	type x y theta   (N lines)
//
// The file carries no periodicity flag; loaded configurations are periodic.
func Read(r io.Reader) (*Configuration, error) {
	br := bufio.NewReader(r)

	var lx, ly float64
	if _, err := fmt.Fscan(br, &lx, &ly); err != nil {
		return nil, fmt.Errorf("%w: domain size: %v", ErrParse, err)
	}
	if lx <= 0 || ly <= 0 {
		return nil, fmt.Errorf("%w: domain %g x %g", ErrParse, lx, ly)
	}

	var n int
	if _, err := fmt.Fscan(br, &n); err != nil {
		return nil, fmt.Errorf("%w: object count: %v", ErrParse, err)
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: object count %d", ErrParse, n)
	}

	c := &Configuration{XSize: lx, YSize: ly, Periodic: true}
	for i := 0; i < n; i++ {
		var otype int
		var x, y, theta float64
		if _, err := fmt.Fscan(br, &otype, &x, &y, &theta); err != nil {
			return nil, fmt.Errorf("%w: object %d: %v", ErrParse, i, err)
		}
		if otype < 0 {
			return nil, fmt.Errorf("%w: object %d has type %d", ErrParse, i, otype)
		}
		c.objects = append(c.objects, NewObject(otype, x, y, theta))
	}
	return c, nil
}

// Write serializes the configuration in the format accepted by Read. Output
// is byte-stable for identical configurations.
func (c *Configuration) Write(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "%g %g\n%d\n", c.XSize, c.YSize, len(c.objects)); err != nil {
		return err
	}
	for _, o := range c.objects {
		if _, err := fmt.Fprintf(w, "%d %g %g %g\n", o.Type, o.X, o.Y, o.Theta); err != nil {
			return err
		}
	}
	return nil
}

// Clone copies the configuration. The topology is shared, not copied: it is
// immutable and owned jointly by all clones.
func (c *Configuration) Clone() *Configuration {
	cp := &Configuration{
		XSize:       c.XSize,
		YSize:       c.YSize,
		Periodic:    c.Periodic,
		topo:        c.topo,
		savedEnergy: c.savedEnergy,
		unchanged:   c.unchanged,
	}
	cp.objects = make([]*Object, len(c.objects))
	for i, o := range c.objects {
		dup := *o
		cp.objects[i] = &dup
	}
	return cp
}

// AttachTopology binds the topology the object types refer to.
func (c *Configuration) AttachTopology(t *topology.Topology) { c.topo = t }

// Topology returns the bound topology.
func (c *Configuration) Topology() *topology.Topology { return c.topo }

// AddObject appends an object and marks the energy stale.
func (c *Configuration) AddObject(o *Object) {
	o.Invalidate()
	c.objects = append(c.objects, o)
	c.unchanged = false
}

// NObjects returns the number of objects.
func (c *Configuration) NObjects() int { return len(c.objects) }

// Object returns object k.
func (c *Configuration) Object(k int) *Object { return c.objects[k] }

// Area returns the domain area.
func (c *Configuration) Area() float64 { return c.XSize * c.YSize }

// Unchanged reports whether the cached total energy is current.
func (c *Configuration) Unchanged() bool { return c.unchanged }

// ObjectTypes returns the highest object type index present, or -1 for an
// empty configuration.
func (c *Configuration) ObjectTypes() int {
	max := -1
	for _, o := range c.objects {
		if o.Type > max {
			max = o.Type
		}
	}
	return max
}

// Energy returns the total interaction energy. Only objects whose cache is
// stale are re-evaluated: each dirty object gets the full sum of its
// interactions with every partner (plus the wall term when non-periodic),
// and the total is the half-sum of the per-object caches, since every pair
// is counted from both sides.
func (c *Configuration) Energy(ff ForceField) float64 {
	if c.unchanged {
		return c.savedEnergy / 2
	}
	c.savedEnergy = 0
	for i, oi := range c.objects {
		if oi.Dirty() {
			sum := 0.0
			for j, oj := range c.objects {
				if i == j {
					continue
				}
				sum += c.pairInteraction(ff, oi, oj)
			}
			if !c.Periodic {
				sum += oi.BoxEnergy(ff, c.topo, c.XSize, c.YSize)
			}
			oi.SetEnergy(sum)
		}
		c.savedEnergy += oi.CachedEnergy()
	}
	c.unchanged = true
	return c.savedEnergy / 2
}

// pairInteraction evaluates the interaction between oi and oj, selecting the
// image of oj whose center is closest to oi under periodic boundaries. The
// shift is applied to a local copy; the stored object is never touched.
func (c *Configuration) pairInteraction(ff ForceField, oi, oj *Object) float64 {
	if c.Periodic {
		shifted := *oj
		shifted.X = oi.X + minimumImage(oj.X-oi.X, c.XSize)
		shifted.Y = oi.Y + minimumImage(oj.Y-oi.Y, c.YSize)
		oj = &shifted
	}
	return oi.Interaction(ff, c.topo, oj)
}

// MarkDirty invalidates object k's cache and the total.
func (c *Configuration) MarkDirty(k int) {
	c.objects[k].Invalidate()
	c.unchanged = false
}

// InvalidateWithin marks stale every object whose center lies within
// distance d of object k's center.
func (c *Configuration) InvalidateWithin(d float64, k int) {
	ref := c.objects[k]
	for i, o := range c.objects {
		if i == k {
			continue
		}
		if ref.Distance(o, c.XSize, c.YSize, c.Periodic) < d {
			o.Invalidate()
		}
	}
	c.unchanged = false
}

// Move applies a trial displacement to object k, followed by a full-circle
// rotation: translation and rotation are proposed as one compound move.
// Returns false (leaving the object untouched) when a hard-wall trial falls
// outside the domain.
func (c *Configuration) Move(rng *rand.Rand, k int, dlMax float64) bool {
	o := c.objects[k]
	if !o.Move(rng, dlMax, c.XSize, c.YSize, c.Periodic) {
		return false
	}
	o.Rotate(rng, 2*math.Pi)
	c.unchanged = false
	return true
}

// Rotate applies a trial rotation of half-width thetaMax/2 to object k.
func (c *Configuration) Rotate(rng *rand.Rand, k int, thetaMax float64) {
	c.objects[k].Rotate(rng, thetaMax)
	c.unchanged = false
}

// Expand rescales the domain and every object center by factor, invalidating
// all caches.
func (c *Configuration) Expand(factor float64) {
	c.XSize *= factor
	c.YSize *= factor
	for _, o := range c.objects {
		o.Expand(factor)
	}
	c.unchanged = false
}

// RMS returns the root-mean-square distance between matching object centers
// of c and ref, under c's boundary convention. Configurations with different
// object counts give NaN.
func (c *Configuration) RMS(ref *Configuration) float64 {
	if len(c.objects) != len(ref.objects) {
		return math.NaN()
	}
	if len(c.objects) == 0 {
		return 0
	}
	sum := 0.0
	for i, o := range c.objects {
		d := o.Distance(ref.objects[i], c.XSize, c.YSize, c.Periodic)
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(c.objects)))
}

// Reach returns the invalidation radius for a trial move: beyond this
// center-to-center distance no atom pair of the two objects can fall inside
// the interaction cutoff.
func (c *Configuration) Reach(ff ForceField) float64 {
	if c.topo == nil {
		return ff.Cutoff()
	}
	return ff.Cutoff() + 2*c.topo.MaxRadius(ff.Size)
}
