package optimizer

import "errors"

var (
	// ErrInvalidInput is returned for negative, NaN or infinite sizes and capacities,
	// and for items whose category has no capacity.
	ErrInvalidInput = errors.New("invalid optimizer input")
	// ErrResourceLimitExceeded is returned when a solve would allocate beyond the configured ceilings.
	ErrResourceLimitExceeded = errors.New("optimizer resource limit exceeded")
)
