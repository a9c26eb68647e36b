package optimizer

// Utilization summarizes how much of a medium a selection fills.
type Utilization struct {
	Category           Category `json:"category"`
	Capacity           float64  `json:"capacity"`
	TotalSize          float64  `json:"totalSize"`
	ItemCount          int      `json:"itemCount"`
	UtilizationPercent float64  `json:"utilizationPercent"`
	RemainingCapacity  float64  `json:"remainingCapacity"`
	// Overfilled is set when flooring let the raw total pass the capacity.
	Overfilled bool `json:"overfilled"`
}

// Summarize derives presentation numbers from a result. A zero capacity reports 0%.
func Summarize(result SelectionResult) Utilization {
	u := Utilization{
		Category:          result.Category,
		Capacity:          result.Capacity,
		TotalSize:         result.TotalSize,
		ItemCount:         len(result.Selected),
		RemainingCapacity: result.Capacity - result.TotalSize,
		Overfilled:        result.TotalSize > result.Capacity+quantizeTolerance,
	}
	if result.Capacity > 0 {
		u.UtilizationPercent = result.TotalSize / result.Capacity * 100
	}
	return u
}
