package matching

import "errors"

// Sentinel kinds for matching errors.
var (
	ErrCorpusMismatch = errors.New("matching: corpus does not match the index")
	ErrOutOfRange     = errors.New("matching: position out of range")
)
