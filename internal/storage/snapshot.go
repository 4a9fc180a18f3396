package storage

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/san-kum/biosim/internal/agent"
	"github.com/san-kum/biosim/internal/sim"
)

const SnapshotVersion = 1

type Header struct {
	Version int     `json:"version"`
	RunID   string  `json:"run_id"`
	Tick    uint64  `json:"tick"`
	Time    float64 `json:"time"`
}

type SnapshotV1 struct {
	Header Header `json:"header"`

	Seed   int64      `json:"seed"`
	Bound  [3]float64 `json:"bound"`
	Fields []FieldV1  `json:"fields"`
	Agents []AgentV1  `json:"agents"`
}

type FieldV1 struct {
	Name        string    `json:"name"`
	Boxes       [3]int    `json:"boxes"`
	Diffusivity float64   `json:"diffusivity"`
	DecayRate   float64   `json:"decay_rate"`
	Clamps      int       `json:"clamps"`
	Quantities  []float64 `json:"quantities"`
}

type AgentV1 struct {
	ID    int        `json:"id"`
	Pos   [3]float64 `json:"pos"`
	State []float64  `json:"state,omitempty"`
}

// Capture copies the current state of s.
func Capture(s *sim.Simulation, runID string) SnapshotV1 {
	clock := s.Clock()
	snap := SnapshotV1{
		Header: Header{Version: SnapshotVersion, RunID: runID, Tick: clock.Tick, Time: clock.Time},
		Seed:   s.Config().Seed,
		Bound:  s.Domain().Bound,
	}
	for _, f := range s.Fields() {
		snap.Fields = append(snap.Fields, FieldV1{
			Name:        f.Name(),
			Boxes:       f.Boxes(),
			Diffusivity: f.Diffusivity(),
			DecayRate:   f.DecayRate(),
			Clamps:      f.Clamps(),
			Quantities:  f.Quantities(),
		})
	}
	for _, a := range s.Agents() {
		av := AgentV1{ID: a.ID()}
		if p, ok := a.(agent.Positioned); ok {
			av.Pos = p.Position()
		}
		if st, ok := a.(agent.Stateful); ok {
			av.State = st.State()
		}
		snap.Agents = append(snap.Agents, av)
	}
	return snap
}

// RestoreFields loads field quantities from snap into s. Agents are rebuilt
// from configuration and are not restored.
func RestoreFields(s *sim.Simulation, snap SnapshotV1) error {
	for _, fv := range snap.Fields {
		f := s.Field(fv.Name)
		if f == nil {
			return fmt.Errorf("snapshot field %q not in simulation", fv.Name)
		}
		if f.Boxes() != fv.Boxes {
			return fmt.Errorf("snapshot field %q has boxes %v, simulation %v", fv.Name, fv.Boxes, f.Boxes())
		}
		if err := f.Restore(fv.Quantities); err != nil {
			return err
		}
	}
	return nil
}

func WriteSnapshot(path string, snap SnapshotV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}

	bw := bufio.NewWriterSize(enc, 256*1024)

	hb, err := json.Marshal(snap.Header)
	if err != nil {
		return err
	}
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}
	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	return enc.Close()
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	// The header line lets tools peek without decoding the body.
	if _, err := br.ReadBytes('\n'); err != nil {
		return snap, fmt.Errorf("read header: %w", err)
	}
	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	if snap.Header.Version != SnapshotVersion {
		return snap, fmt.Errorf("snapshot version %d not supported", snap.Header.Version)
	}
	return snap, nil
}

// ReadSnapshotHeader decodes only the header line.
func ReadSnapshotHeader(path string) (Header, error) {
	var h Header
	f, err := os.Open(path)
	if err != nil {
		return h, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return h, err
	}
	defer dec.Close()

	line, err := bufio.NewReader(dec).ReadBytes('\n')
	if err != nil {
		return h, err
	}
	err = json.Unmarshal(line, &h)
	return h, err
}
