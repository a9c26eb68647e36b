package optimizer

// Category identifies an independent burn group, e.g. "movies".
type Category string

// CandidateItem is one unit that may or may not be selected.
// Payload is carried through to the result untouched.
type CandidateItem struct {
	ID       string
	Size     float64
	Category Category
	Payload  any
}

// SelectionResult is the output of a single solve. Selected keeps the input order.
type SelectionResult struct {
	Category       Category
	Capacity       float64
	Selected       []CandidateItem
	TotalSize      float64
	QuantizedTotal int
	Scale          int
}

// Solver describes the behaviour required from a burn group solver.
type Solver interface {
	Solve(items []CandidateItem, capacity float64) (SelectionResult, error)
	Scale() int
}
