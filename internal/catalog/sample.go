package catalog

import (
	"context"
	"fmt"
)

// SampleItems returns a small reference library that is pending backup.
func SampleItems() []MediaItem {
	return []MediaItem{
		{Title: "The Matrix", Category: CategoryMovies, SizeGB: 3.2, MediaNumber: "M001", Quality: "4K"},
		{Title: "Inception", Category: CategoryMovies, SizeGB: 4.1, MediaNumber: "M002", Quality: "4K"},
		{Title: "Interstellar", Category: CategoryMovies, SizeGB: 5.8, MediaNumber: "M003", Quality: "4K"},
		{Title: "The Dark Knight", Category: CategoryMovies, SizeGB: 3.9, MediaNumber: "M004", Quality: "1080p"},
		{Title: "Pulp Fiction", Category: CategoryMovies, SizeGB: 2.1, MediaNumber: "M005", Quality: "1080p"},
		{Title: "Fight Club", Category: CategoryMovies, SizeGB: 2.8, MediaNumber: "M006", Quality: "1080p"},
		{Title: "The Godfather", Category: CategoryMovies, SizeGB: 3.5, MediaNumber: "M007", Quality: "4K"},
		{Title: "Goodfellas", Category: CategoryMovies, SizeGB: 2.4, MediaNumber: "M008", Quality: "1080p"},
		{Title: "Breaking Bad S1", Category: CategoryTVSeries, SizeGB: 8.2, MediaNumber: "T001", Quality: "1080p", Episodes: 7},
		{Title: "The Wire S1", Category: CategoryTVSeries, SizeGB: 9.1, MediaNumber: "T002", Quality: "1080p", Episodes: 13},
		{Title: "Game of Thrones S1", Category: CategoryTVSeries, SizeGB: 7.8, MediaNumber: "T003", Quality: "4K", Episodes: 10},
		{Title: "Stranger Things S1", Category: CategoryTVSeries, SizeGB: 6.4, MediaNumber: "T004", Quality: "4K", Episodes: 8},
		{Title: "Band of Brothers", Category: CategoryMiniSeries, SizeGB: 12.5, MediaNumber: "MS001", Quality: "4K", Episodes: 10},
		{Title: "Chernobyl", Category: CategoryMiniSeries, SizeGB: 8.9, MediaNumber: "MS002", Quality: "4K", Episodes: 5},
	}
}

// SeedSample adds SampleItems when the catalog is empty and reports how many were added.
func SeedSample(ctx context.Context, c Catalog) (int, error) {
	existing, err := c.List(ctx, Filter{})
	if err != nil {
		return 0, fmt.Errorf("list items: %w", err)
	}
	if len(existing) > 0 {
		return 0, nil
	}
	samples := SampleItems()
	for _, item := range samples {
		if _, err := c.Add(ctx, item); err != nil {
			return 0, fmt.Errorf("add %q: %w", item.Title, err)
		}
	}
	return len(samples), nil
}
