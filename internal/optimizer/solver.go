package optimizer

import (
	"fmt"
)

const (
	defaultMaxItems         = 10_000
	defaultMaxCapacityUnits = 1_000_000
	defaultMaxTableCells    = 200_000_000
)

type dpSolver struct {
	scale            int
	maxItems         int
	maxCapacityUnits int
	maxTableCells    int
}

// Option configures a Solver.
type Option func(*dpSolver)

// WithScale sets the quantization scale. Non-positive values keep the default.
func WithScale(scale int) Option {
	return func(s *dpSolver) {
		if scale > 0 {
			s.scale = scale
		}
	}
}

// WithMaxItems caps the number of items accepted by a single solve.
func WithMaxItems(limit int) Option {
	return func(s *dpSolver) {
		if limit > 0 {
			s.maxItems = limit
		}
	}
}

// WithMaxCapacityUnits caps the quantized capacity accepted by a single solve.
func WithMaxCapacityUnits(limit int) Option {
	return func(s *dpSolver) {
		if limit > 0 {
			s.maxCapacityUnits = limit
		}
	}
}

// WithMaxTableCells caps items*(capacity units+1), the size of the decision table.
func WithMaxTableCells(limit int) Option {
	return func(s *dpSolver) {
		if limit > 0 {
			s.maxTableCells = limit
		}
	}
}

// New creates a Solver based on 0/1 dynamic programming over quantized sizes.
// The returned Solver holds no per-call state and is safe for concurrent use.
func New(opts ...Option) Solver {
	s := &dpSolver{
		scale:            DefaultScale,
		maxItems:         defaultMaxItems,
		maxCapacityUnits: defaultMaxCapacityUnits,
		maxTableCells:    defaultMaxTableCells,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *dpSolver) Scale() int {
	return s.scale
}

// Solve returns the subset of items with the largest total size not exceeding capacity.
//
// An item is taken only when it strictly improves the best total for a budget,
// so among equal optima the reconstruction favours later items and never pads
// the result with redundant ones. Items with a raw size of exactly zero are
// always selected since they cost nothing. Items larger than the capacity are
// left out rather than rejected.
//
// Feasibility holds in quantized units: QuantizedTotal never exceeds the
// quantized capacity. Because sizes are floored, the raw TotalSize may exceed
// capacity by less than one unit per selected item (11.59 + 11.49 on a 23.0
// medium at scale 10 totals 23.08). Utilization.Overfilled reports this.
func (s *dpSolver) Solve(items []CandidateItem, capacity float64) (SelectionResult, error) {
	if err := checkCapacity(capacity); err != nil {
		return SelectionResult{}, err
	}
	if len(items) > s.maxItems {
		return SelectionResult{}, fmt.Errorf("%w: %d items exceeds limit of %d", ErrResourceLimitExceeded, len(items), s.maxItems)
	}

	units, err := Quantize(capacity, s.scale)
	if err != nil {
		return SelectionResult{}, err
	}
	if units > s.maxCapacityUnits {
		return SelectionResult{}, fmt.Errorf("%w: capacity of %d units exceeds limit of %d", ErrResourceLimitExceeded, units, s.maxCapacityUnits)
	}

	// Zero-size items bypass the table and items larger than the capacity never
	// enter it; the rest are solved by position.
	sizes := make([]int, len(items))
	selected := make([]bool, len(items))
	positions := make([]int, 0, len(items))
	for i, item := range items {
		if err := checkSize(item.Size); err != nil {
			return SelectionResult{}, fmt.Errorf("item %q: %w", item.ID, err)
		}
		if item.Size == 0 {
			selected[i] = true
			continue
		}
		if item.Size*float64(s.scale)+quantizeTolerance >= float64(units+1) {
			continue
		}
		q, err := Quantize(item.Size, s.scale)
		if err != nil {
			return SelectionResult{}, fmt.Errorf("item %q: %w", item.ID, err)
		}
		sizes[i] = q
		positions = append(positions, i)
	}

	n := len(positions)
	width := units + 1
	if n > 0 && width > s.maxTableCells/n {
		return SelectionResult{}, fmt.Errorf("%w: table of %d x %d cells exceeds limit of %d", ErrResourceLimitExceeded, n, width, s.maxTableCells)
	}

	best := make([]int, width)
	took := newBitset(n * width)
	for row, pos := range positions {
		size := sizes[pos]
		base := row * width
		for w := units; w >= size; w-- {
			if candidate := size + best[w-size]; candidate > best[w] {
				best[w] = candidate
				took.set(base + w)
			}
		}
	}

	w := units
	for row := n - 1; row >= 0; row-- {
		if took.get(row*width + w) {
			pos := positions[row]
			selected[pos] = true
			w -= sizes[pos]
		}
	}

	result := SelectionResult{
		Category:       commonCategory(items),
		Capacity:       capacity,
		Selected:       make([]CandidateItem, 0, len(items)),
		QuantizedTotal: best[units],
		Scale:          s.scale,
	}
	for i, item := range items {
		if selected[i] {
			result.Selected = append(result.Selected, item)
			result.TotalSize += item.Size
		}
	}
	return result, nil
}

func checkCapacity(capacity float64) error {
	if err := checkSize(capacity); err != nil {
		return fmt.Errorf("capacity: %w", err)
	}
	return nil
}

func commonCategory(items []CandidateItem) Category {
	if len(items) == 0 {
		return ""
	}
	category := items[0].Category
	for _, item := range items[1:] {
		if item.Category != category {
			return ""
		}
	}
	return category
}

type bitset []uint64

func newBitset(bits int) bitset {
	return make(bitset, (bits+63)/64)
}

func (b bitset) set(i int) {
	b[i/64] |= 1 << (uint(i) % 64)
}

func (b bitset) get(i int) bool {
	return b[i/64]&(1<<(uint(i)%64)) != 0
}
