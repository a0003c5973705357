package store

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Store archives finished recordings under baseDir, one directory per run.
// Runs are output artifacts; nothing here resumes a simulation.
type Store struct {
	baseDir string
	now     func() time.Time
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, now: time.Now}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Model      string             `json:"model"`
	Timestamp  time.Time          `json:"timestamp"`
	Seed       int64              `json:"seed"`
	Dt         float64            `json:"dt"`
	Duration   float64            `json:"duration"`
	Steps      uint64             `json:"steps"`
	Integrator string             `json:"integrator"`
	Params     map[string]float64 `json:"params"`
	Metrics    map[string]float64 `json:"metrics"`
}

// Save writes metadata.json, samples.csv and, when the trail has at least
// two points, trail.svg. It returns the run id.
func (s *Store) Save(rec *Recording) (string, error) {
	ts := s.now()
	runID := fmt.Sprintf("%s_%d", rec.Model, ts.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:         runID,
		Model:      rec.Model,
		Timestamp:  ts,
		Seed:       rec.Seed,
		Dt:         rec.Dt,
		Duration:   rec.Duration,
		Steps:      rec.Steps,
		Integrator: rec.Integrator,
		Params:     rec.Params,
		Metrics:    rec.Metrics,
	}
	err := writeFile(filepath.Join(runDir, "metadata.json"), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	})
	if err != nil {
		return "", err
	}

	if err := ExportCSV(filepath.Join(runDir, "samples.csv"), rec); err != nil {
		return "", err
	}

	if svg := TrailToSVG(TrailPoints(rec.Trail, 0, 1), 800, 600, "#00d7ff"); svg != "" {
		if err := os.WriteFile(filepath.Join(runDir, "trail.svg"), []byte(svg), 0644); err != nil {
			return "", err
		}
	}

	return runID, nil
}

// List returns the metadata of every archived run, oldest first.
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
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

// Load reads a run's metadata.
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
