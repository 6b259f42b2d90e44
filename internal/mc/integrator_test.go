package mc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/san-kum/discmc/internal/ensemble"
	"github.com/san-kum/discmc/internal/forcefield"
	"github.com/san-kum/discmc/internal/topology"
)

func testConfig(t *testing.T, text string) *ensemble.Configuration {
	t.Helper()
	cfg, err := ensemble.Read(strings.NewReader(text))
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	cfg.AttachTopology(topology.Default())
	return cfg
}

// grid builds the text form of n single-disc objects on a square lattice
// with the given spacing and origin offset.
func grid(lx, ly float64, perRow int, spacing, offset float64, n int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%g %g\n%d\n", lx, ly, n)
	for i := 0; i < n; i++ {
		x := offset + float64(i%perRow)*spacing
		y := offset + float64(i/perRow)*spacing
		fmt.Fprintf(&sb, "0 %g %g 0\n", x, y)
	}
	return sb.String()
}

func TestRunEmpty(t *testing.T) {
	cfg := testConfig(t, "10 10\n0\n")
	in := New(forcefield.Default(), rand.New(rand.NewSource(1)))
	if _, err := in.Run(context.Background(), cfg, 1, 1, 100); !errors.Is(err, ErrEmpty) {
		t.Errorf("expected ErrEmpty, got %v", err)
	}
	if _, err := in.Relax(context.Background(), cfg, 1, 1); !errors.Is(err, ErrEmpty) {
		t.Errorf("expected ErrEmpty from relax, got %v", err)
	}
}

func TestRunCounters(t *testing.T) {
	ff := forcefield.Default()
	cfg := testConfig(t, grid(20, 20, 4, 3, 3, 8))
	in := New(ff, rand.New(rand.NewSource(2)))

	res, err := in.Run(context.Background(), cfg, 1, 1, 500)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if res.Steps != 500 {
		t.Errorf("steps = %d, want 500", res.Steps)
	}
	if res.Accepted+res.Rejected != res.Steps {
		t.Errorf("accepted %d + rejected %d != steps %d", res.Accepted, res.Rejected, res.Steps)
	}
	if in.NGood != res.Accepted || in.NBad != res.Rejected {
		t.Error("cumulative counters disagree with the run result")
	}
	if in.Acceptance() < 0 || in.Acceptance() > 1 {
		t.Errorf("acceptance %g out of [0,1]", in.Acceptance())
	}
}

func TestRunEnergyConsistency(t *testing.T) {
	ff := forcefield.Default()
	cfg := testConfig(t, grid(20, 20, 4, 3, 3, 8))
	in := New(ff, rand.New(rand.NewSource(3)))

	res, err := in.Run(context.Background(), cfg, 1, 1, 1000)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	// The reported energy must match a from-scratch recomputation of the
	// final state.
	var buf bytes.Buffer
	if err := cfg.Write(&buf); err != nil {
		t.Fatal(err)
	}
	fresh, err := ensemble.Read(&buf)
	if err != nil {
		t.Fatal(err)
	}
	fresh.AttachTopology(cfg.Topology())
	if diff := res.Energy - fresh.Energy(ff); diff > 1e-6 || diff < -1e-6 {
		t.Errorf("run energy %g differs from scratch energy %g", res.Energy, fresh.Energy(ff))
	}
}

func TestDlMaxClamped(t *testing.T) {
	ff := forcefield.Default()
	cfg := testConfig(t, grid(10, 10, 3, 3, 2, 6))
	in := New(ff, rand.New(rand.NewSource(4)))
	in.DlMax = 100

	if _, err := in.Run(context.Background(), cfg, 1, 1, 1000); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if in.DlMax > 5 {
		t.Errorf("dl_max %g above half the box edge", in.DlMax)
	}
	if in.DlMax < 1e-6 {
		t.Errorf("dl_max %g below the floor", in.DlMax)
	}
}

func TestDeterminismUnderSeed(t *testing.T) {
	ff := forcefield.Default()
	run := func() []byte {
		cfg := testConfig(t, grid(20, 20, 4, 3, 3, 8))
		in := New(ff, rand.New(rand.NewSource(99)))
		if _, err := in.Run(context.Background(), cfg, 2, 1, 2000); err != nil {
			t.Fatalf("run failed: %v", err)
		}
		var buf bytes.Buffer
		if err := cfg.Write(&buf); err != nil {
			t.Fatal(err)
		}
		return buf.Bytes()
	}

	if !bytes.Equal(run(), run()) {
		t.Error("identical seeds produced different final configurations")
	}
}

func TestRelaxRemovesOverlap(t *testing.T) {
	ff := forcefield.Default()
	// Two discs stacked on the same spot: hard overlap.
	cfg := testConfig(t, "20 20\n2\n0 10 10 0\n0 10 10 0\n")
	if cfg.Energy(ff) < ff.BigEnergy() {
		t.Fatal("test setup: expected an overlapping start")
	}

	in := New(ff, rand.New(rand.NewSource(7)))
	in.DlMax = 5
	taken, err := in.Relax(context.Background(), cfg, 1, 1)
	if err != nil {
		t.Fatalf("relax failed after %d steps: %v", taken, err)
	}
	if taken > 4000 {
		t.Errorf("relax took %d steps, budget is 2000 per object", taken)
	}
	if e := cfg.Energy(ff); e >= ff.BigEnergy() {
		t.Errorf("energy %g still at the overlap sentinel", e)
	}
}

func TestRelaxNoOverlapIsNoop(t *testing.T) {
	ff := forcefield.Default()
	cfg := testConfig(t, "20 20\n2\n0 5 5 0\n0 12 12 0\n")
	in := New(ff, rand.New(rand.NewSource(8)))

	taken, err := in.Relax(context.Background(), cfg, 1, 1)
	if err != nil {
		t.Fatalf("relax failed: %v", err)
	}
	if taken != 0 {
		t.Errorf("relax of a clean configuration took %d steps, want 0", taken)
	}
}

func TestWallConfinement(t *testing.T) {
	ff := forcefield.Default()
	topo := topology.Default()

	cfg := testConfig(t, grid(10, 10, 4, 2.3, 1.5, 10))
	cfg.Periodic = false
	if e := cfg.Energy(ff); e >= ff.BigEnergy() {
		t.Fatalf("test setup: starting energy %g has overlaps", e)
	}

	in := New(ff, rand.New(rand.NewSource(9)))
	if _, err := in.Run(context.Background(), cfg, 1, 1, 5000); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	for i := 0; i < cfg.NObjects(); i++ {
		o := cfg.Object(i)
		for j := 0; j < topo.NAtoms(o.Type); j++ {
			x, y := o.AtomPosition(topo, j)
			r := ff.Size(topo.Atom(o.Type, j).Type)
			if x < r || x > cfg.XSize-r || y < r || y > cfg.YSize-r {
				t.Fatalf("object %d atom %d at (%g,%g) escaped the walls", i, j, x, y)
			}
		}
	}
}

func TestContextCancellation(t *testing.T) {
	ff := forcefield.Default()
	cfg := testConfig(t, grid(20, 20, 4, 3, 3, 8))
	in := New(ff, rand.New(rand.NewSource(10)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := in.Run(ctx, cfg, 1, 1, 1000)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if res == nil || res.Steps != 0 {
		t.Error("canceled run should return before taking steps")
	}
}

type countingMetric struct {
	observed int
}

func (c *countingMetric) Name() string { return "count" }
func (c *countingMetric) Observe(cfg *ensemble.Configuration, step int, energy float64, accepted bool) {
	c.observed++
}
func (c *countingMetric) Value() float64 { return float64(c.observed) }
func (c *countingMetric) Reset()         { c.observed = 0 }

func TestMetricsObserved(t *testing.T) {
	ff := forcefield.Default()
	cfg := testConfig(t, grid(20, 20, 4, 3, 3, 4))
	in := New(ff, rand.New(rand.NewSource(11)))

	m := &countingMetric{}
	in.AddMetric(m)
	if _, err := in.Run(context.Background(), cfg, 1, 1, 250); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if m.observed != 250 {
		t.Errorf("metric observed %d steps, want 250", m.observed)
	}
}
