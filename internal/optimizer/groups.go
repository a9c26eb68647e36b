package optimizer

import (
	"fmt"
	"sort"
)

// Partition splits items by category, keeping input order within each category.
func Partition(items []CandidateItem) map[Category][]CandidateItem {
	groups := make(map[Category][]CandidateItem)
	for _, item := range items {
		groups[item.Category] = append(groups[item.Category], item)
	}
	return groups
}

// SolveByCategory solves every category independently against its own capacity.
// Categories never share capacity. Validation covers all inputs before the first
// solve, so a failure never yields partial results. Categories that have a
// capacity but no items get an empty result.
func SolveByCategory(solver Solver, items []CandidateItem, capacities map[Category]float64) (map[Category]SelectionResult, error) {
	for category, capacity := range capacities {
		if err := checkCapacity(capacity); err != nil {
			return nil, fmt.Errorf("category %q: %w", category, err)
		}
	}
	for _, item := range items {
		if _, ok := capacities[item.Category]; !ok {
			return nil, fmt.Errorf("%w: no capacity for category %q (item %q)", ErrInvalidInput, item.Category, item.ID)
		}
		if err := checkSize(item.Size); err != nil {
			return nil, fmt.Errorf("item %q: %w", item.ID, err)
		}
	}

	groups := Partition(items)
	categories := make([]Category, 0, len(capacities))
	for category := range capacities {
		categories = append(categories, category)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })

	results := make(map[Category]SelectionResult, len(capacities))
	for _, category := range categories {
		result, err := solver.Solve(groups[category], capacities[category])
		if err != nil {
			return nil, fmt.Errorf("category %q: %w", category, err)
		}
		result.Category = category
		results[category] = result
	}
	return results, nil
}
