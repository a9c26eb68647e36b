package planner

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/eugenenazirov/burnvault/internal/catalog"
	"github.com/eugenenazirov/burnvault/internal/optimizer"
	"github.com/eugenenazirov/burnvault/internal/storage"
)

// ErrUnknownCategory is returned when a requested category has no configured capacity.
var ErrUnknownCategory = errors.New("unknown category")

// Group is the burn group selected for one category.
type Group struct {
	Category string                `json:"category"`
	Items    []catalog.MediaItem   `json:"items"`
	Report   optimizer.Utilization `json:"report"`
}

// Plan is a set of independent burn groups computed at GeneratedAt.
type Plan struct {
	GeneratedAt time.Time `json:"generatedAt"`
	Scale       int       `json:"scale"`
	Groups      []Group   `json:"groups"`
}

// ItemIDs returns the ids of every item in the plan, group by group.
func (p Plan) ItemIDs() []string {
	var ids []string
	for _, group := range p.Groups {
		for _, item := range group.Items {
			ids = append(ids, item.ID)
		}
	}
	return ids
}

// Service wires the catalog, capacity storage and solver together.
type Service struct {
	catalog catalog.Catalog
	storage storage.Storage
	solver  optimizer.Solver
	logger  *zap.Logger
	clock   func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		s.clock = clock
	}
}

// New constructs a Service with the provided dependencies.
func New(cat catalog.Catalog, store storage.Storage, solver optimizer.Solver, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		catalog: cat,
		storage: store,
		solver:  solver,
		logger:  logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Plan computes burn groups from items that are not backed up yet. An empty
// categories list plans every category that has a capacity. Pending items of
// other categories are left out.
func (s *Service) Plan(ctx context.Context, categories []string) (Plan, error) {
	capacities, err := s.storage.GetCapacities()
	if err != nil {
		return Plan{}, fmt.Errorf("load capacities: %w", err)
	}

	selected, err := selectCapacities(capacities, categories)
	if err != nil {
		return Plan{}, err
	}

	pending, err := s.catalog.List(ctx, catalog.Filter{PendingOnly: true})
	if err != nil {
		return Plan{}, fmt.Errorf("list pending items: %w", err)
	}

	candidates := make([]optimizer.CandidateItem, 0, len(pending))
	for _, candidate := range catalog.ToCandidates(pending) {
		if _, ok := selected[candidate.Category]; ok {
			candidates = append(candidates, candidate)
		}
	}

	return s.solve(candidates, selected)
}

// Optimize solves caller supplied items without touching the catalog.
func (s *Service) Optimize(items []optimizer.CandidateItem, capacities map[string]float64) (Plan, error) {
	selected := make(map[optimizer.Category]float64, len(capacities))
	for category, capacity := range capacities {
		selected[optimizer.Category(category)] = capacity
	}
	return s.solve(items, selected)
}

// Commit marks the given items as backed up.
func (s *Service) Commit(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := s.catalog.MarkBackedUp(ctx, ids); err != nil {
		return fmt.Errorf("mark items backed up: %w", err)
	}
	s.logger.Info("burn group committed", zap.Int("items", len(ids)))
	return nil
}

func (s *Service) solve(items []optimizer.CandidateItem, capacities map[optimizer.Category]float64) (Plan, error) {
	start := time.Now()
	results, err := optimizer.SolveByCategory(s.solver, items, capacities)
	if err != nil {
		return Plan{}, err
	}

	plan := Plan{
		GeneratedAt: s.clock(),
		Scale:       s.solver.Scale(),
		Groups:      make([]Group, 0, len(results)),
	}
	for category, result := range results {
		report := optimizer.Summarize(result)
		plan.Groups = append(plan.Groups, Group{
			Category: string(category),
			Items:    catalog.FromCandidates(result.Selected),
			Report:   report,
		})
		s.logger.Debug("burn group planned",
			zap.String("category", string(category)),
			zap.Int("items", report.ItemCount),
			zap.Float64("total_gb", report.TotalSize),
			zap.Float64("utilization_percent", report.UtilizationPercent),
		)
	}
	sort.Slice(plan.Groups, func(i, j int) bool {
		return plan.Groups[i].Category < plan.Groups[j].Category
	})

	s.logger.Info("burn plan computed",
		zap.Int("groups", len(plan.Groups)),
		zap.Int("candidates", len(items)),
		zap.Duration("duration", time.Since(start)),
	)
	return plan, nil
}

func selectCapacities(capacities map[string]float64, categories []string) (map[optimizer.Category]float64, error) {
	selected := make(map[optimizer.Category]float64)
	if len(categories) == 0 {
		for category, capacity := range capacities {
			selected[optimizer.Category(category)] = capacity
		}
		return selected, nil
	}

	for _, category := range categories {
		category = strings.TrimSpace(category)
		capacity, ok := capacities[category]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
		}
		selected[optimizer.Category(category)] = capacity
	}
	return selected, nil
}
