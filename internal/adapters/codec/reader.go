package codec

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/okian/mapperator/internal/domain/model"
)

const maxLineSize = 16 << 20

// Reader decodes sequences from the interchange format.
type Reader struct {
	sc      *bufio.Scanner
	line    int
	version int
}

// NewReader returns a reader over r.
func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), maxLineSize)
	return &Reader{sc: sc, version: Version}
}

// Version returns the declared format version. It is only meaningful after
// reading.
func (r *Reader) Version() int { return r.version }

// ReadSequences decodes every sequence. Events after the last sentinel form
// a final sequence; empty sequences are kept so sequence ids stay aligned
// with the file.
func (r *Reader) ReadSequences() ([][]model.Event, error) {
	var (
		seqs [][]model.Event
		cur  []model.Event
		open bool
	)
	for r.sc.Scan() {
		r.line++
		text := strings.TrimSuffix(r.sc.Text(), "\r")

		if r.line == 1 && strings.HasPrefix(text, HeaderPrefix) {
			if err := r.readHeader(text); err != nil {
				return nil, err
			}
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		if text == Sentinel {
			seqs = append(seqs, cur)
			cur, open = nil, false
			continue
		}

		e, err := ParseEvent(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", r.line, err)
		}
		cur = append(cur, e)
		open = true
	}
	if err := r.sc.Err(); err != nil {
		return nil, fmt.Errorf("read line %d: %w", r.line+1, err)
	}
	if open {
		seqs = append(seqs, cur)
	}
	return seqs, nil
}

// ReadEvents decodes every event, ignoring sequence boundaries.
func (r *Reader) ReadEvents() ([]model.Event, error) {
	seqs, err := r.ReadSequences()
	if err != nil {
		return nil, err
	}
	var out []model.Event
	for _, s := range seqs {
		out = append(out, s...)
	}
	return out, nil
}

func (r *Reader) readHeader(text string) error {
	v, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(text, HeaderPrefix)))
	if err != nil {
		return fmt.Errorf("line %d: %w: bad version %q", r.line, ErrMalformedLine, text)
	}
	if v != Version {
		return fmt.Errorf("%w: v%d", ErrUnsupportedVersion, v)
	}
	r.version = v
	return nil
}

// ParseEvent decodes one event line.
func ParseEvent(line string) (model.Event, error) {
	f := strings.SplitN(line, " ", fieldCount)
	if len(f) != fieldCount {
		return model.Event{}, fmt.Errorf("%w: %d fields, want %d", ErrMalformedLine, len(f), fieldCount)
	}

	var (
		e   model.Event
		err error
	)
	kind, err := strconv.Atoi(f[0])
	if err != nil || !model.Kind(kind).Valid() {
		return e, fmt.Errorf("%w: kind %q", ErrMalformedLine, f[0])
	}
	e.Kind = model.Kind(kind)

	if e.BeatGap, err = parseFloat(f[1], "beat gap"); err != nil {
		return e, err
	}
	if e.Spacing, err = parseFloat(f[2], "spacing"); err != nil {
		return e, err
	}
	if e.Angle, err = parseFloat(f[3], "angle"); err != nil {
		return e, err
	}
	if math.IsNaN(e.Angle) || math.IsInf(e.Angle, 0) {
		e.Angle = 0
	}

	switch f[4] {
	case "0":
	case "1":
		e.GroupFlag = true
	default:
		return e, fmt.Errorf("%w: group flag %q", ErrMalformedLine, f[4])
	}

	switch present := countPresent(f[5], f[6], f[7]); present {
	case 0:
	case 3:
		e.HasCurve = true
		if e.CurveKind, err = parseInt(f[5], "curve kind"); err != nil {
			return e, err
		}
		if e.CurveLength, err = parseFloat(f[6], "curve length"); err != nil {
			return e, err
		}
		if e.CurveSegments, err = parseInt(f[7], "curve segments"); err != nil {
			return e, err
		}
	default:
		return e, fmt.Errorf("%w: %d of 3 curve fields present", ErrMalformedLine, present)
	}

	if f[8] != "" {
		e.HasRepeats = true
		if e.Repeats, err = parseInt(f[8], "repeats"); err != nil {
			return e, err
		}
	}

	e.RawPayload = f[9]
	return e, nil
}

func countPresent(fields ...string) int {
	n := 0
	for _, f := range fields {
		if f != "" {
			n++
		}
	}
	return n
}

func parseFloat(s, name string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q", ErrMalformedLine, name, s)
	}
	return v, nil
}

func parseInt(s, name string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q", ErrMalformedLine, name, s)
	}
	return v, nil
}
