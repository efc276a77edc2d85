package ranking

import "errors"

// Sentinel kinds for ranking errors.
var (
	ErrInvalidCapacity = errors.New("ranking: capacity must be positive")
)
