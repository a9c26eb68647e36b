package planner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/burnvault/internal/catalog"
	"github.com/eugenenazirov/burnvault/internal/optimizer"
	"github.com/eugenenazirov/burnvault/internal/storage"
)

var planTime = time.Date(2024, 11, 1, 12, 0, 0, 0, time.UTC)

func newSeededService(t *testing.T) (*Service, *catalog.MemoryCatalog) {
	t.Helper()

	cat := catalog.NewMemoryCatalog()
	_, err := catalog.SeedSample(context.Background(), cat)
	require.NoError(t, err)

	svc := New(cat, storage.NewMemoryStorage(), optimizer.New(), zaptest.NewLogger(t),
		WithClock(func() time.Time { return planTime }))
	return svc, cat
}

func titles(items []catalog.MediaItem) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.Title
	}
	return out
}

func TestPlanAllCategories(t *testing.T) {
	svc, _ := newSeededService(t)

	plan, err := svc.Plan(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, planTime, plan.GeneratedAt)
	assert.Equal(t, optimizer.DefaultScale, plan.Scale)
	require.Len(t, plan.Groups, 3)
	assert.Equal(t, []string{"mini-series", "movies", "tv-series"},
		[]string{plan.Groups[0].Category, plan.Groups[1].Category, plan.Groups[2].Category})

	mini, movies, tv := plan.Groups[0], plan.Groups[1], plan.Groups[2]

	assert.InDelta(t, 21.4, mini.Report.TotalSize, 1e-9)
	assert.Equal(t, []string{"Band of Brothers", "Chernobyl"}, titles(mini.Items))

	assert.InDelta(t, 22.9, movies.Report.TotalSize, 1e-9)
	assert.Equal(t, 6, movies.Report.ItemCount)
	assert.NotContains(t, titles(movies.Items), "Pulp Fiction")
	assert.NotContains(t, titles(movies.Items), "Fight Club")

	assert.InDelta(t, 22.4, tv.Report.TotalSize, 1e-9)
	assert.Equal(t, []string{"Breaking Bad S1", "Game of Thrones S1", "Stranger Things S1"}, titles(tv.Items))
	assert.InDelta(t, 0.6, tv.Report.RemainingCapacity, 1e-9)
}

func TestPlanSelectedCategory(t *testing.T) {
	svc, _ := newSeededService(t)

	plan, err := svc.Plan(context.Background(), []string{"movies"})
	require.NoError(t, err)
	require.Len(t, plan.Groups, 1)
	assert.Equal(t, "movies", plan.Groups[0].Category)
}

func TestPlanUnknownCategory(t *testing.T) {
	svc, _ := newSeededService(t)

	_, err := svc.Plan(context.Background(), []string{"audio"})
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestPlanSkipsPendingItemsWithoutCapacity(t *testing.T) {
	cat := catalog.NewMemoryCatalog()
	_, err := catalog.SeedSample(context.Background(), cat)
	require.NoError(t, err)

	store := &fixedStorage{capacities: map[string]float64{"movies": 23}}
	svc := New(cat, store, optimizer.New(), zaptest.NewLogger(t))

	plan, err := svc.Plan(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, plan.Groups, 1)
	assert.Equal(t, "movies", plan.Groups[0].Category)
}

func TestCommitRemovesItemsFromNextPlan(t *testing.T) {
	svc, cat := newSeededService(t)
	ctx := context.Background()

	first, err := svc.Plan(ctx, []string{"movies"})
	require.NoError(t, err)
	require.NoError(t, svc.Commit(ctx, first.ItemIDs()))

	pending, err := cat.List(ctx, catalog.Filter{Category: "movies", PendingOnly: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"Pulp Fiction", "Fight Club"}, titles(pending))

	second, err := svc.Plan(ctx, []string{"movies"})
	require.NoError(t, err)
	assert.InDelta(t, 4.9, second.Groups[0].Report.TotalSize, 1e-9)

	assert.NoError(t, svc.Commit(ctx, nil))
	assert.ErrorIs(t, svc.Commit(ctx, []string{"missing"}), catalog.ErrNotFound)
}

func TestOptimize(t *testing.T) {
	svc, _ := newSeededService(t)

	items := []optimizer.CandidateItem{
		{ID: "a", Size: 1.0, Category: "movies"},
		{ID: "b", Size: 1.0, Category: "movies"},
	}
	plan, err := svc.Optimize(items, map[string]float64{"movies": 1.0})
	require.NoError(t, err)
	require.Len(t, plan.Groups, 1)
	require.Len(t, plan.Groups[0].Items, 1)
	assert.Equal(t, "a", plan.Groups[0].Items[0].ID)
	assert.InDelta(t, 100.0, plan.Groups[0].Report.UtilizationPercent, 1e-9)

	_, err = svc.Optimize(items, map[string]float64{"tv-series": 1.0})
	assert.ErrorIs(t, err, optimizer.ErrInvalidInput)
}

func TestPlanPropagatesStorageErrors(t *testing.T) {
	svc := New(catalog.NewMemoryCatalog(), &fixedStorage{err: errors.New("boom")}, optimizer.New(), zaptest.NewLogger(t))

	_, err := svc.Plan(context.Background(), nil)
	assert.ErrorContains(t, err, "boom")
}

type fixedStorage struct {
	capacities map[string]float64
	err        error
}

func (f *fixedStorage) GetCapacities() (map[string]float64, error) {
	return f.capacities, f.err
}

func (f *fixedStorage) SetCapacities(map[string]float64) error {
	return f.err
}
