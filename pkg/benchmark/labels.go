package benchmark

import (
	"github.com/RoaringBitmap/roaring"

	hferrors "github.com/hydroflow/hydroflow/pkg/errors"
	"github.com/hydroflow/hydroflow/pkg/simulation"
)

// LabelStepSeconds is the sampling interval the benchmark labels are
// aligned to.
const LabelStepSeconds = 1800

// LocationMatrix is a sparse boolean matrix marking which pipe leaks at
// which time step. Rows are time steps, columns follow the link order of
// the sensor configuration.
type LocationMatrix struct {
	steps int
	links []string
	cols  []*roaring.Bitmap
}

// Steps returns the number of rows.
func (m *LocationMatrix) Steps() int {
	return m.steps
}

// Links returns the column labels.
func (m *LocationMatrix) Links() []string {
	return m.links
}

// IsLeaking reports whether the pipe in column col leaks at step t.
func (m *LocationMatrix) IsLeaking(t, col int) bool {
	if t < 0 || t >= m.steps || col < 0 || col >= len(m.cols) {
		return false
	}
	return m.cols[col] != nil && m.cols[col].Contains(uint32(t))
}

// LeakingPipes returns the ids of all pipes leaking at step t.
func (m *LocationMatrix) LeakingPipes(t int) []string {
	var out []string
	for col, bm := range m.cols {
		if bm != nil && bm.Contains(uint32(t)) {
			out = append(out, m.links[col])
		}
	}
	return out
}

// NonZeroCount returns the number of set cells.
func (m *LocationMatrix) NonZeroCount() uint64 {
	var n uint64
	for _, bm := range m.cols {
		if bm != nil {
			n += bm.GetCardinality()
		}
	}
	return n
}

// stepRange converts a leak window to half-open step indices: start
// rounded down, end rounded up, both clamped to [0, steps].
func stepRange(ev simulation.LeakEvent, step int64, steps int) (int, int) {
	lo := int(ev.StartOffset / step)
	hi := int((ev.EndOffset + step - 1) / step)
	if lo < 0 {
		lo = 0
	}
	if hi > steps {
		hi = steps
	}
	return lo, hi
}

// BuildLabels converts leak events into a per-step binary label vector and
// a sparse leak location matrix. links gives the column order; an event on
// a pipe not in links fails the whole build. Overlapping events mark cells
// idempotently.
func BuildLabels(events []simulation.LeakEvent, links []string, steps int) ([]uint8, *LocationMatrix, error) {
	linkIdx := make(map[string]int, len(links))
	for i, id := range links {
		linkIdx[id] = i
	}

	y := make([]uint8, steps)
	m := &LocationMatrix{
		steps: steps,
		links: links,
		cols:  make([]*roaring.Bitmap, len(links)),
	}

	for _, ev := range events {
		col, ok := linkIdx[ev.PipeID]
		if !ok {
			return nil, nil, hferrors.UnknownPipe(ev.PipeID)
		}
		lo, hi := stepRange(ev, LabelStepSeconds, steps)
		if lo >= hi {
			continue
		}
		for t := lo; t < hi; t++ {
			y[t] = 1
		}
		if m.cols[col] == nil {
			m.cols[col] = roaring.New()
		}
		m.cols[col].AddRange(uint64(lo), uint64(hi))
	}

	return y, m, nil
}
