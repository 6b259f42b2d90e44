package forcefield

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultBigEnergy is the finite stand-in for +Inf on hard overlap. It must
// stay small enough that 2*N*BigEnergy is representable for any realistic N.
const DefaultBigEnergy = 1e12

// Table is a pairwise force field: per-atom-type hard radii, a symmetric
// well-depth matrix, and a truncated attractive well between contact and
// the cutoff distance.
type Table struct {
	radii   []float64
	wells   [][]float64
	colors  []string
	cutoff  float64
	length  float64
	bigEval float64
}

// New validates the parameters and builds a Table. The well matrix must be
// square, match the number of atom types, and be symmetric; radii must be
// non-negative and cutoff >= length > 0.
func New(radii []float64, wells [][]float64, colors []string, cutoff, length float64) (*Table, error) {
	n := len(radii)
	if n == 0 {
		return nil, fmt.Errorf("forcefield: no atom types")
	}
	if len(wells) != n {
		return nil, fmt.Errorf("forcefield: well matrix has %d rows for %d atom types", len(wells), n)
	}
	for i := range wells {
		if len(wells[i]) != n {
			return nil, fmt.Errorf("forcefield: well matrix row %d has %d columns for %d atom types", i, len(wells[i]), n)
		}
	}
	for i := 0; i < n; i++ {
		if radii[i] < 0 {
			return nil, fmt.Errorf("forcefield: negative radius for atom type %d", i)
		}
		for j := i + 1; j < n; j++ {
			if wells[i][j] != wells[j][i] {
				return nil, fmt.Errorf("forcefield: well matrix not symmetric at (%d,%d)", i, j)
			}
		}
	}
	if length <= 0 || cutoff < length {
		return nil, fmt.Errorf("forcefield: need cutoff >= length scale > 0, got cutoff=%g length=%g", cutoff, length)
	}
	if len(colors) < n {
		colors = append(append([]string(nil), colors...), make([]string, n-len(colors))...)
	}
	for i, c := range colors {
		if c == "" {
			colors[i] = defaultPalette[i%len(defaultPalette)]
		}
	}
	return &Table{
		radii:   append([]float64(nil), radii...),
		wells:   wells,
		colors:  colors[:n],
		cutoff:  cutoff,
		length:  length,
		bigEval: DefaultBigEnergy,
	}, nil
}

var defaultPalette = []string{"#1f77b4", "#d62728", "#2ca02c", "#9467bd", "#ff7f0e"}

// Default returns the built-in two-type field used when no force-field file
// is given.
func Default() *Table {
	t, _ := New(
		[]float64{0.5, 0.5},
		[][]float64{
			{1.0, 1.5},
			{1.5, 0.6},
		},
		[]string{"#1f77b4", "#d62728"},
		3.0, 0.5,
	)
	return t
}

// Size returns the hard radius of atom type t.
func (f *Table) Size(t int) float64 { return f.radii[t] }

// Well returns the well depth between atom types t1 and t2.
func (f *Table) Well(t1, t2 int) float64 { return f.wells[t1][t2] }

// Cutoff returns the truncation distance beyond which pair energies are zero.
func (f *Table) Cutoff() float64 { return f.cutoff }

// LengthScale returns the width of the flat well bottom beyond contact.
func (f *Table) LengthScale() float64 { return f.length }

// BigEnergy returns the finite overlap sentinel.
func (f *Table) BigEnergy() float64 { return f.bigEval }

// Color returns the display color for atom type t.
func (f *Table) Color(t int) string { return f.colors[t] }

// NTypes returns the number of atom types.
func (f *Table) NTypes() int { return len(f.radii) }

// PairEnergy evaluates the truncated pair potential between two atoms of
// types t1 and t2 whose centers are a distance d apart.
//
// Inside contact (d <= r1+r2) the hard overlap sentinel is returned. Beyond
// the cutoff the energy is exactly zero. Between the two, the well sits at
// -eps from contact out to r1+r2+length, then rises back to zero along a
// raised-cosine ramp, so the potential is continuous and non-positive over
// the whole attractive range.
func (f *Table) PairEnergy(t1, t2 int, d float64) float64 {
	contact := f.radii[t1] + f.radii[t2]
	if d <= contact {
		return f.bigEval
	}
	if d >= f.cutoff {
		return 0
	}
	eps := f.wells[t1][t2]
	dmin := contact + f.length
	if d <= dmin {
		return -eps
	}
	s := math.Cos(math.Pi / 2 * (d - dmin) / (f.cutoff - dmin))
	return -eps * s * s
}

type fileFormat struct {
	Radii  []float64   `yaml:"radii"`
	Wells  [][]float64 `yaml:"wells"`
	Colors []string    `yaml:"colors"`
	Cutoff float64     `yaml:"cutoff"`
	Length float64     `yaml:"length"`
}

// Load reads a force field from a YAML file.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("forcefield: %w", err)
	}
	return New(f.Radii, f.Wells, f.Colors, f.Cutoff, f.Length)
}
