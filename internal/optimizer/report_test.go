package optimizer

import (
	"math"
	"testing"
)

func TestSummarize(t *testing.T) {
	t.Parallel()

	result, err := New().Solve(itemsOf(movieSizes...), 23)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	u := Summarize(result)
	if u.ItemCount != 6 {
		t.Fatalf("expected 6 items, got %d", u.ItemCount)
	}
	if math.Abs(u.UtilizationPercent-22.9/23*100) > 1e-9 {
		t.Fatalf("unexpected utilization %v", u.UtilizationPercent)
	}
	if math.Abs(u.RemainingCapacity-0.1) > 1e-9 {
		t.Fatalf("unexpected remaining capacity %v", u.RemainingCapacity)
	}
	if u.Category != "movies" || u.Capacity != 23 {
		t.Fatalf("unexpected labels %+v", u)
	}
}

func TestSummarizeZeroCapacity(t *testing.T) {
	t.Parallel()

	u := Summarize(SelectionResult{Category: "movies"})
	if u.UtilizationPercent != 0 || u.ItemCount != 0 || u.RemainingCapacity != 0 {
		t.Fatalf("expected zeroed report, got %+v", u)
	}
}

func TestSummarizeFlagsSubResolutionOverfill(t *testing.T) {
	t.Parallel()

	result, err := New().Solve(itemsOf(11.59, 11.49), 23)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Selected) != 2 || result.QuantizedTotal != 229 {
		t.Fatalf("expected both items at 229 units, got %d items / %d units", len(result.Selected), result.QuantizedTotal)
	}

	u := Summarize(result)
	if !u.Overfilled {
		t.Fatalf("expected overfilled report, got %+v", u)
	}
	if u.RemainingCapacity >= 0 {
		t.Fatalf("expected negative remaining capacity, got %v", u.RemainingCapacity)
	}

	exact, err := New().Solve(itemsOf(movieSizes...), 23)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if Summarize(exact).Overfilled {
		t.Fatalf("a selection within capacity must not be flagged")
	}
}
