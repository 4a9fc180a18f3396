package field

import "github.com/san-kum/biosim/internal/dynamo"

type request struct {
	f   *Field
	box Index
	q   float64
}

// Exchange collects mass-exchange requests made by agents during the
// parallel phase of a tick. Each worker owns one Exchange; the coordinating
// goroutine commits them in worker order after the join, so the shared grid
// is never written concurrently and the result does not depend on how agents
// were partitioned.
type Exchange struct {
	reqs []request
}

func NewExchange() *Exchange {
	return &Exchange{reqs: make([]request, 0, 64)}
}

// Add records q to be added to the box of f containing pos.
func (e *Exchange) Add(f *Field, pos dynamo.Vec3, q float64) {
	e.AddAt(f, f.Locate(pos), q)
}

func (e *Exchange) AddAt(f *Field, idx Index, q float64) {
	if q == 0 {
		return
	}
	e.reqs = append(e.reqs, request{f: f, box: idx, q: q})
}

func (e *Exchange) Len() int { return len(e.reqs) }

// Net returns the sum of pending requests against f.
func (e *Exchange) Net(f *Field) float64 {
	sum := 0.0
	for _, r := range e.reqs {
		if r.f == f {
			sum += r.q
		}
	}
	return sum
}

// Commit applies every pending request in insertion order and empties the
// buffer. It returns how many requests were clamped at zero.
func (e *Exchange) Commit() int {
	clamped := 0
	for _, r := range e.reqs {
		if r.f.AddQuantityAt(r.box, r.q) {
			clamped++
		}
	}
	e.Reset()
	return clamped
}

func (e *Exchange) Reset() {
	clear(e.reqs)
	e.reqs = e.reqs[:0]
}
