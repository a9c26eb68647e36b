package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/burnvault/internal/catalog"
	"github.com/eugenenazirov/burnvault/internal/optimizer"
	"github.com/eugenenazirov/burnvault/internal/planner"
	"github.com/eugenenazirov/burnvault/internal/storage"
)

type planOptions struct {
	itemsFile          string
	capacityGB         float64
	categoryCapacities []string
	scale              int
	categories         []string
}

// loadItems reads media items from a YAML or JSON file, chosen by extension.
func loadItems(path string) ([]catalog.MediaItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read items: %w", err)
	}

	var items []catalog.MediaItem
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("parse JSON items: %w", err)
		}
		return items, nil
	}
	if err := yaml.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse YAML items: %w", err)
	}
	return items, nil
}

func capacitiesFromFlags(opts planOptions) (map[string]float64, error) {
	capacities := storage.DefaultCapacities()
	if opts.capacityGB >= 0 {
		for _, category := range catalog.Categories() {
			capacities[category] = opts.capacityGB
		}
	}
	for _, raw := range opts.categoryCapacities {
		category, value, ok := strings.Cut(raw, "=")
		category = strings.TrimSpace(category)
		if !ok || category == "" {
			return nil, fmt.Errorf("expected category=GB, got %q", raw)
		}
		capacity, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid capacity %q for %s", value, category)
		}
		capacities[category] = capacity
	}
	return capacities, nil
}

func runPlan(ctx context.Context, out io.Writer, logger *zap.Logger, opts planOptions) error {
	if opts.scale <= 0 {
		return fmt.Errorf("scale must be positive, got %d", opts.scale)
	}
	items, err := loadItems(opts.itemsFile)
	if err != nil {
		return err
	}

	capacities, err := capacitiesFromFlags(opts)
	if err != nil {
		return err
	}
	store := storage.NewMemoryStorage()
	if err := store.SetCapacities(capacities); err != nil {
		return err
	}

	cat := catalog.NewMemoryCatalog()
	defer cat.Close()
	for _, item := range items {
		if _, err := cat.Add(ctx, item); err != nil {
			return fmt.Errorf("load %q: %w", item.Title, err)
		}
	}

	solver := optimizer.New(optimizer.WithScale(opts.scale))
	plan, err := planner.New(cat, store, solver, logger).Plan(ctx, opts.categories)
	if err != nil {
		return err
	}

	for i, group := range plan.Groups {
		if i > 0 {
			fmt.Fprintln(out)
		}
		writeGroup(out, group)
	}
	return nil
}

func writeGroup(out io.Writer, group planner.Group) {
	report := group.Report
	fmt.Fprintf(out, "%s (capacity %.2f GB)\n", group.Category, report.Capacity)
	if len(group.Items) == 0 {
		fmt.Fprintln(out, "No items fit.")
	} else {
		rows := make([][]string, len(group.Items))
		for i, item := range group.Items {
			rows[i] = []string{
				item.Title,
				item.MediaNumber,
				item.Quality,
				strconv.FormatFloat(item.SizeGB, 'f', 2, 64),
			}
		}
		fmt.Fprintln(out, renderTable(
			[]string{"Title", "Media #", "Quality", "Size (GB)"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight},
		))
	}
	fmt.Fprintf(out, "Utilization: %.2f / %.2f GB (%.1f%%), %d items, %.2f GB free\n",
		report.TotalSize, report.Capacity, report.UtilizationPercent, report.ItemCount, report.RemainingCapacity)
	if report.Overfilled {
		fmt.Fprintln(out, "Warning: sizes were rounded down and the group exceeds the capacity; raise --scale.")
	}
}

func runSample(out io.Writer) error {
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(catalog.SampleItems()); err != nil {
		return fmt.Errorf("encode sample: %w", err)
	}
	return enc.Close()
}
