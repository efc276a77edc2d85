package codec

import "errors"

// Sentinel kinds for codec errors.
var (
	ErrUnsupportedVersion = errors.New("codec: unsupported format version")
	ErrMalformedLine      = errors.New("codec: malformed line")
)
