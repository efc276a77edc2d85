package trie

import "errors"

// Sentinel kinds for trie errors.
var (
	ErrLengthMismatch = errors.New("trie: query bound lengths differ")
)
