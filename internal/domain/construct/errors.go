package construct

import "errors"

// Sentinel kinds for construction errors.
var (
	ErrEmptyPattern = errors.New("construct: empty pattern")
	ErrInvalidEvent = errors.New("construct: invalid event kind")
	ErrDone         = errors.New("construct: run already finished")
)
