package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted   = errors.New("service: not started")
	ErrEmptyCorpus  = errors.New("service: corpus has no sequences")
	ErrEmptyPattern = errors.New("service: pattern has no events")
)
