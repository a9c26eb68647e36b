package catalog

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Known media categories.
const (
	CategoryMovies     = "movies"
	CategoryTVSeries   = "tv-series"
	CategoryMiniSeries = "mini-series"
)

// Categories lists the known categories in display order.
func Categories() []string {
	return []string{CategoryMovies, CategoryTVSeries, CategoryMiniSeries}
}

// MediaItem is one owned title in the library.
type MediaItem struct {
	ID          string    `json:"id" yaml:"id"`
	Title       string    `json:"title" yaml:"title"`
	Category    string    `json:"category" yaml:"category"`
	SizeGB      float64   `json:"sizeGB" yaml:"size_gb"`
	MediaNumber string    `json:"mediaNumber,omitempty" yaml:"media_number,omitempty"`
	Quality     string    `json:"quality,omitempty" yaml:"quality,omitempty"`
	Episodes    int       `json:"episodes,omitempty" yaml:"episodes,omitempty"`
	Watched     bool      `json:"watched" yaml:"watched"`
	BackedUp    bool      `json:"backedUp" yaml:"backed_up"`
	CreatedAt   time.Time `json:"createdAt" yaml:"created_at,omitempty"`
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Category    string
	PendingOnly bool
}

func (f Filter) matches(item MediaItem) bool {
	if f.Category != "" && item.Category != f.Category {
		return false
	}
	if f.PendingOnly && item.BackedUp {
		return false
	}
	return true
}

// Catalog provides access to the media library.
type Catalog interface {
	List(ctx context.Context, filter Filter) ([]MediaItem, error)
	Get(ctx context.Context, id string) (MediaItem, error)
	Add(ctx context.Context, item MediaItem) (MediaItem, error)
	Update(ctx context.Context, item MediaItem) (MediaItem, error)
	Delete(ctx context.Context, id string) error
	MarkBackedUp(ctx context.Context, ids []string) error
	Close() error
}

// Option configures a catalog implementation.
type Option func(*options)

type options struct {
	clock func() time.Time
	newID func() string
}

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// WithIDGenerator overrides how ids are assigned to new items.
func WithIDGenerator(newID func() string) Option {
	return func(o *options) {
		o.newID = newID
	}
}

func buildOptions(opts []Option) options {
	o := options{
		clock: func() time.Time { return time.Now().UTC() },
		newID: func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// prepare validates and normalises an item before insert.
func (o options) prepare(item MediaItem) (MediaItem, error) {
	item.Title = strings.TrimSpace(item.Title)
	item.Category = strings.TrimSpace(item.Category)
	item.ID = strings.TrimSpace(item.ID)

	if err := Validate(item); err != nil {
		return MediaItem{}, err
	}
	if item.ID == "" {
		item.ID = o.newID()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = o.clock()
	}
	item.CreatedAt = item.CreatedAt.UTC()
	return item, nil
}

func normalizeUpdate(item MediaItem) (MediaItem, error) {
	item.Title = strings.TrimSpace(item.Title)
	item.Category = strings.TrimSpace(item.Category)
	item.ID = strings.TrimSpace(item.ID)
	if item.ID == "" {
		return MediaItem{}, fmt.Errorf("%w: id is required", ErrInvalidItem)
	}
	if err := Validate(item); err != nil {
		return MediaItem{}, err
	}
	return item, nil
}

// Validate reports whether an item can be stored.
func Validate(item MediaItem) error {
	if strings.TrimSpace(item.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidItem)
	}
	if !IsKnownCategory(item.Category) {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidItem, item.Category)
	}
	if math.IsNaN(item.SizeGB) || math.IsInf(item.SizeGB, 0) || item.SizeGB < 0 {
		return fmt.Errorf("%w: size must be a finite non-negative number, got %v", ErrInvalidItem, item.SizeGB)
	}
	if item.Episodes < 0 {
		return fmt.Errorf("%w: episodes must be non-negative, got %d", ErrInvalidItem, item.Episodes)
	}
	return nil
}

// IsKnownCategory reports whether category is one of Categories.
func IsKnownCategory(category string) bool {
	for _, known := range Categories() {
		if category == known {
			return true
		}
	}
	return false
}
