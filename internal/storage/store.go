// Package storage persists runs: a directory per run with metadata and
// sampled series, compressed field snapshots, a compressed per-tick log and
// a SQLite index of runs.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/biosim/internal/config"
	"github.com/san-kum/biosim/internal/sim"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) BaseDir() string         { return s.baseDir }
func (s *Store) RunDir(id string) string { return filepath.Join(s.baseDir, id) }

type RunMetadata struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Timestamp  time.Time          `json:"timestamp"`
	Seed       int64              `json:"seed"`
	Dt         float64            `json:"dt"`
	Ticks      uint64             `json:"ticks"`
	Workers    int                `json:"workers"`
	Integrator string             `json:"integrator"`
	Fields     []string           `json:"fields"`
	Agents     int                `json:"agents"`
	Clamps     map[string]int     `json:"clamps"`
	Metrics    map[string]float64 `json:"metrics"`
	Elapsed    float64            `json:"elapsed_s"`
}

// Create allocates a new run directory and returns its id.
func (s *Store) Create(name string) (string, error) {
	runID := fmt.Sprintf("%s_%d", name, time.Now().UnixNano())
	if err := os.MkdirAll(s.RunDir(runID), 0755); err != nil {
		return "", err
	}
	return runID, nil
}

// Save writes metadata.json, series.csv and config.yaml into the run
// directory.
func (s *Store) Save(runID string, cfg *config.Config, agents int, result *sim.Result) (*RunMetadata, error) {
	runDir := s.RunDir(runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(result.Totals))
	for name := range result.Totals {
		names = append(names, name)
	}
	sort.Strings(names)

	meta := &RunMetadata{
		ID:         runID,
		Name:       cfg.Name,
		Timestamp:  time.Now(),
		Seed:       cfg.Seed,
		Dt:         cfg.Dt,
		Ticks:      result.Ticks,
		Workers:    cfg.Workers,
		Integrator: cfg.Integrator,
		Fields:     names,
		Agents:     agents,
		Clamps:     result.Clamps,
		Metrics:    result.Metrics,
		Elapsed:    result.Elapsed,
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return nil, err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return nil, err
	}

	if err := config.Save(filepath.Join(runDir, "config.yaml"), cfg); err != nil {
		return nil, err
	}
	if err := writeSeries(filepath.Join(runDir, "series.csv"), names, result); err != nil {
		return nil, err
	}
	return meta, nil
}

func writeSeries(path string, names []string, result *sim.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := append([]string{"time"}, names...)
	if err := w.Write(header); err != nil {
		return err
	}

	for i, t := range result.Times {
		row := []string{strconv.FormatFloat(t, 'g', -1, 64)}
		for _, name := range names {
			row = append(row, strconv.FormatFloat(result.Totals[name][i], 'g', -1, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

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

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.RunDir(runID), "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadConfig(runID string) (*config.Config, error) {
	return config.Load(filepath.Join(s.RunDir(runID), "config.yaml"))
}

// Series is a sampled run as stored in series.csv.
type Series struct {
	Times  []float64
	Values map[string][]float64
	Names  []string
}

func (s *Store) LoadSeries(runID string) (*Series, error) {
	file, err := os.Open(filepath.Join(s.RunDir(runID), "series.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, err
	}

	out := &Series{Values: make(map[string][]float64)}
	if len(records) == 0 {
		return out, nil
	}
	out.Names = records[0][1:]

	for line, record := range records[1:] {
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			return nil, fmt.Errorf("series.csv line %d: %w", line+2, err)
		}
		out.Times = append(out.Times, t)
		for j, name := range out.Names {
			v, err := strconv.ParseFloat(record[j+1], 64)
			if err != nil {
				return nil, fmt.Errorf("series.csv line %d: %w", line+2, err)
			}
			out.Values[name] = append(out.Values[name], v)
		}
	}
	return out, nil
}
