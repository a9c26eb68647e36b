package catalog

import "errors"

var (
	// ErrNotFound is returned when an item id does not exist.
	ErrNotFound = errors.New("media item not found")
	// ErrInvalidItem is returned when an item fails validation.
	ErrInvalidItem = errors.New("invalid media item")
	// ErrLocked is returned when another process holds the catalog file.
	ErrLocked = errors.New("catalog is locked by another process")
)
