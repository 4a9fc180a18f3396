package storage

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/san-kum/biosim/internal/field"
	"github.com/san-kum/biosim/internal/sim"
)

type TickEntry struct {
	Tick   uint64             `json:"tick"`
	Time   float64            `json:"time"`
	Totals map[string]float64 `json:"totals"`
	Clamps map[string]int     `json:"clamps,omitempty"`
}

// TickLog writes one compressed JSONL entry per tick. It is a sim.Observer
// and collects clamp events between ticks.
type TickLog struct {
	mu     sync.Mutex
	f      *os.File
	enc    *zstd.Encoder
	w      *bufio.Writer
	clamps map[string]int
}

func NewTickLog(path string) (*TickLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &TickLog{
		f:      f,
		enc:    enc,
		w:      bufio.NewWriterSize(enc, 128*1024),
		clamps: make(map[string]int),
	}, nil
}

func (l *TickLog) OnClamp(ev field.ClampEvent) {
	l.mu.Lock()
	l.clamps[ev.Field]++
	l.mu.Unlock()
}

func (l *TickLog) OnTick(s *sim.Snapshot) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := TickEntry{Tick: s.Tick, Time: s.Time, Totals: make(map[string]float64, len(s.Fields))}
	for _, f := range s.Fields {
		entry.Totals[f.Name()] = f.TotalQuantity()
	}
	if len(l.clamps) > 0 {
		entry.Clamps = l.clamps
		l.clamps = make(map[string]int)
	}

	b, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	if _, err := l.w.Write(b); err != nil {
		return err
	}
	return l.w.WriteByte('\n')
}

func (l *TickLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var errs []error
	if l.w != nil {
		errs = append(errs, l.w.Flush())
		l.w = nil
	}
	if l.enc != nil {
		errs = append(errs, l.enc.Close())
		l.enc = nil
	}
	if l.f != nil {
		errs = append(errs, l.f.Close())
		l.f = nil
	}
	return errors.Join(errs...)
}

func ReadTickLog(path string) ([]TickEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var out []TickEntry
	jd := json.NewDecoder(dec)
	for {
		var e TickEntry
		if err := jd.Decode(&e); err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return out, err
		}
		out = append(out, e)
	}
}
