package storage

import (
	"strings"
	"testing"

	"github.com/san-kum/discmc/internal/ensemble"
	"github.com/san-kum/discmc/internal/mc"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}

	final, err := ensemble.Read(strings.NewReader("10 10\n2\n0 3 5 0\n0 6 5 1.5\n"))
	if err != nil {
		t.Fatal(err)
	}

	trace := []mc.TracePoint{
		{Step: 100, Energy: -1.5, Acceptance: 0.6, DlMax: 2.5},
		{Step: 200, Energy: -2.0, Acceptance: 0.55, DlMax: 2.2},
	}
	meta := RunMetadata{
		Steps:       200,
		Beta:        2.0,
		Pressure:    1.0,
		Seed:        42,
		NObjects:    2,
		Area:        100,
		Periodic:    true,
		FinalEnergy: -2.0,
		Acceptance:  0.55,
		DlMax:       2.2,
	}

	runID, err := st.Save(meta, trace, final)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if runID == "" {
		t.Fatal("empty run id")
	}

	loaded, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.ID != runID || loaded.Steps != 200 || loaded.Beta != 2.0 {
		t.Errorf("metadata round trip mismatch: %+v", loaded)
	}

	gotTrace, err := st.LoadTrace(runID)
	if err != nil {
		t.Fatalf("load trace failed: %v", err)
	}
	if len(gotTrace) != 2 {
		t.Fatalf("expected 2 trace points, got %d", len(gotTrace))
	}
	if gotTrace[1].Step != 200 || gotTrace[1].Energy != -2.0 {
		t.Errorf("trace round trip mismatch: %+v", gotTrace[1])
	}

	gotFinal, err := st.LoadFinal(runID)
	if err != nil {
		t.Fatalf("load final failed: %v", err)
	}
	if gotFinal.NObjects() != 2 || gotFinal.XSize != 10 {
		t.Errorf("final configuration round trip mismatch")
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != runID {
		t.Errorf("list = %+v, want the saved run", runs)
	}
}

func TestListEmpty(t *testing.T) {
	st := New(t.TempDir() + "/absent")
	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}

func TestLoadMissing(t *testing.T) {
	st := New(t.TempDir())
	if _, err := st.Load("nope"); err == nil {
		t.Error("expected error for missing run")
	}
}
