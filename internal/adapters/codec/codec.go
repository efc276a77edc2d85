// Package codec reads and writes the line based event interchange format.
//
// A file may open with a "Mapperator file format v<N>" header; without one
// version 1 is assumed. Every other non-blank line is either an event of
// exactly ten space separated fields or the sequence sentinel.
//
//	kind beatGap spacing angle groupFlag curveKind curveLength curveSegments repeats rawPayload
//
// Optional fields are empty strings. The payload is the rest of the line and
// may itself contain spaces.
package codec

// Format constants.
const (
	Version      = 1
	HeaderPrefix = "Mapperator file format v"
	Sentinel     = `/-\_/-\_/-\`

	fieldCount = 10
)
