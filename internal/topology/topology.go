package topology

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Atom is a single interaction site in the body frame of an object type.
// X and Y are offsets from the object center at orientation 0.
type Atom struct {
	Type int     `yaml:"type"`
	X    float64 `yaml:"x"`
	Y    float64 `yaml:"y"`
}

// Topology maps an object type to its fixed pattern of atoms. It is
// immutable after construction.
type Topology struct {
	atoms [][]Atom
}

// New builds a topology from per-type atom lists.
func New(atoms [][]Atom) (*Topology, error) {
	for t, list := range atoms {
		if len(list) == 0 {
			return nil, fmt.Errorf("topology: object type %d has no atoms", t)
		}
		for _, a := range list {
			if a.Type < 0 {
				return nil, fmt.Errorf("topology: object type %d has negative atom type %d", t, a.Type)
			}
		}
	}
	cp := make([][]Atom, len(atoms))
	for t := range atoms {
		cp[t] = append([]Atom(nil), atoms[t]...)
	}
	return &Topology{atoms: cp}, nil
}

// Default returns the built-in topology: type 0 is a single centered disc,
// type 1 is a dimer of two offset atoms.
func Default() *Topology {
	t, _ := New([][]Atom{
		{{Type: 0, X: 0, Y: 0}},
		{{Type: 0, X: -0.5, Y: 0}, {Type: 1, X: 0.5, Y: 0}},
	})
	return t
}

// NTypes returns the number of object types described.
func (t *Topology) NTypes() int { return len(t.atoms) }

// NAtoms returns the number of atoms of the given object type.
func (t *Topology) NAtoms(otype int) int {
	if otype < 0 || otype >= len(t.atoms) {
		return 0
	}
	return len(t.atoms[otype])
}

// Atom returns atom i of the given object type.
func (t *Topology) Atom(otype, i int) Atom { return t.atoms[otype][i] }

// MaxRadius returns an upper bound on the distance from an object center to
// the outer edge of any of its atoms, given per-atom-type radii. It bounds
// how far an object's interaction sites can reach beyond its center.
func (t *Topology) MaxRadius(size func(int) float64) float64 {
	r := 0.0
	for _, list := range t.atoms {
		for _, a := range list {
			d := math.Hypot(a.X, a.Y) + size(a.Type)
			if d > r {
				r = d
			}
		}
	}
	return r
}

type fileFormat struct {
	Objects [][]Atom `yaml:"objects"`
}

// Load reads a topology from a YAML file listing the atoms of each object
// type in order.
func Load(path string) (*Topology, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("topology: %w", err)
	}
	return New(f.Objects)
}
