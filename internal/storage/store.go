// Package storage persists Monte Carlo runs: one directory per run holding
// JSON metadata, the sampled energy trace as CSV, and the final
// configuration in its text format.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/san-kum/discmc/internal/ensemble"
	"github.com/san-kum/discmc/internal/mc"
)

// Store writes and reads runs under a base directory.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// RunMetadata describes one stored run.
type RunMetadata struct {
	ID          string             `json:"id"`
	Timestamp   time.Time          `json:"timestamp"`
	Steps       int                `json:"steps"`
	Beta        float64            `json:"beta"`
	Pressure    float64            `json:"pressure"`
	Seed        int64              `json:"seed"`
	NObjects    int                `json:"n_objects"`
	Area        float64            `json:"area"`
	Periodic    bool               `json:"periodic"`
	FinalEnergy float64            `json:"final_energy"`
	Acceptance  float64            `json:"acceptance"`
	DlMax       float64            `json:"dl_max"`
	Metrics     map[string]float64 `json:"metrics,omitempty"`
}

const finalConfigName = "final.cfg"

// Save writes metadata, the energy trace, and the final configuration, and
// returns the generated run ID.
func (s *Store) Save(meta RunMetadata, trace []mc.TracePoint, final *ensemble.Configuration) (string, error) {
	runID := fmt.Sprintf("nvt_%d", time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = time.Now()

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "trace.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	if err := w.Write([]string{"step", "energy", "acceptance", "dl_max"}); err != nil {
		return "", err
	}
	for _, p := range trace {
		row := []string{
			strconv.Itoa(p.Step),
			strconv.FormatFloat(p.Energy, 'g', -1, 64),
			strconv.FormatFloat(p.Acceptance, 'f', 6, 64),
			strconv.FormatFloat(p.DlMax, 'g', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	if final != nil {
		cfgFile, err := os.Create(filepath.Join(runDir, finalConfigName))
		if err != nil {
			return "", err
		}
		defer cfgFile.Close()
		if err := final.Write(cfgFile); err != nil {
			return "", err
		}
	}

	return runID, nil
}

// List returns the metadata of every stored run.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name(), "metadata.json"))
		if err != nil {
			continue
		}
		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}
		runs = append(runs, meta)
	}
	return runs, nil
}

// Load returns the metadata of one run.
func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadTrace reads back the sampled energy trace of a run.
func (s *Store) LoadTrace(runID string) ([]mc.TracePoint, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "trace.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	trace := make([]mc.TracePoint, 0, len(records))
	for i, rec := range records {
		if i == 0 || len(rec) < 4 {
			continue
		}
		step, err := strconv.Atoi(rec[0])
		if err != nil {
			continue
		}
		energy, _ := strconv.ParseFloat(rec[1], 64)
		acc, _ := strconv.ParseFloat(rec[2], 64)
		dl, _ := strconv.ParseFloat(rec[3], 64)
		trace = append(trace, mc.TracePoint{Step: step, Energy: energy, Acceptance: acc, DlMax: dl})
	}
	return trace, nil
}

// LoadFinal reads back the final configuration of a run.
func (s *Store) LoadFinal(runID string) (*ensemble.Configuration, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, finalConfigName))
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ensemble.Read(file)
}

// ExportJSON writes a run's metadata and trace as one JSON document.
func ExportJSON(w *json.Encoder, meta *RunMetadata, trace []mc.TracePoint) error {
	return w.Encode(struct {
		*RunMetadata
		Trace []mc.TracePoint `json:"trace"`
	}{meta, trace})
}
