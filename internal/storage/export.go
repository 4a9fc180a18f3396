package storage

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
)

// ExportData is a stored run flattened for external tools.
type ExportData struct {
	*RunMetadata
	Snapshot *Header             `json:"snapshot,omitempty"`
	Times    []float64            `json:"times"`
	Totals   map[string][]float64 `json:"totals"`
}

// Export gathers a run's metadata, sampled series and, when one exists, the
// header of its snapshot at snapshotPath.
func (s *Store) Export(runID, snapshotPath string) (*ExportData, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	series, err := s.LoadSeries(runID)
	if err != nil {
		return nil, err
	}

	data := &ExportData{
		RunMetadata: meta,
		Times:       series.Times,
		Totals:      series.Values,
	}
	if snapshotPath != "" {
		if h, err := ReadSnapshotHeader(snapshotPath); err == nil {
			data.Snapshot = &h
		}
	}
	return data, nil
}

func ExportJSON(w io.Writer, data *ExportData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// ExportPlaneCSV writes a concentration plane as CSV, one grid row per line.
func ExportPlaneCSV(w io.Writer, plane [][]float64) error {
	cw := csv.NewWriter(w)
	for _, row := range plane {
		rec := make([]string, len(row))
		for j, v := range row {
			rec[j] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
