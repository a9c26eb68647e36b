package storage

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"strings"
	"sync"
)

// DefaultCapacityGB is the usable size of a single-layer BD-R burn.
const DefaultCapacityGB = 23.0

var (
	// ErrInvalidCapacities indicates the provided capacities violate validation rules.
	ErrInvalidCapacities = errors.New("capacities must map non-empty categories to finite non-negative sizes")
)

var defaultCategories = []string{"movies", "tv-series", "mini-series"}

// Storage provides access to the per-category capacities used by the planner.
type Storage interface {
	GetCapacities() (map[string]float64, error)
	SetCapacities(capacities map[string]float64) error
}

// MemoryStorage keeps capacities in-memory and guards access with a RWMutex.
type MemoryStorage struct {
	mu         sync.RWMutex
	capacities map[string]float64
}

// NewMemoryStorage initialises storage with the default capacities.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		capacities: DefaultCapacities(),
	}
}

// DefaultCapacities returns DefaultCapacityGB for every known category.
func DefaultCapacities() map[string]float64 {
	out := make(map[string]float64, len(defaultCategories))
	for _, category := range defaultCategories {
		out[category] = DefaultCapacityGB
	}
	return out
}

// GetCapacities returns a defensive copy of the configured capacities.
func (s *MemoryStorage) GetCapacities() (map[string]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return maps.Clone(s.capacities), nil
}

// SetCapacities validates the provided capacities and merges them into the stored ones.
func (s *MemoryStorage) SetCapacities(capacities map[string]float64) error {
	normalized, err := normalizeCapacities(capacities)
	if err != nil {
		return err
	}

	s.mu.Lock()
	maps.Copy(s.capacities, normalized)
	s.mu.Unlock()

	return nil
}

func normalizeCapacities(capacities map[string]float64) (map[string]float64, error) {
	if len(capacities) == 0 {
		return nil, ErrInvalidCapacities
	}

	out := make(map[string]float64, len(capacities))
	for category, capacity := range capacities {
		category = strings.TrimSpace(category)
		if category == "" {
			return nil, fmt.Errorf("%w: empty category", ErrInvalidCapacities)
		}
		if math.IsNaN(capacity) || math.IsInf(capacity, 0) || capacity < 0 {
			return nil, fmt.Errorf("%w: %q has capacity %v", ErrInvalidCapacities, category, capacity)
		}
		out[category] = capacity
	}
	return out, nil
}
