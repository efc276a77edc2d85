package codec

import (
	"bufio"
	"io"
	"strconv"

	"github.com/okian/mapperator/internal/domain/model"
)

// Writer encodes events in the interchange format. Call Flush when done.
type Writer struct {
	w   *bufio.Writer
	buf []byte
}

// NewWriter returns a writer to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// WriteHeader writes the version header.
func (w *Writer) WriteHeader() error {
	w.buf = append(w.buf[:0], HeaderPrefix...)
	w.buf = strconv.AppendInt(w.buf, Version, 10)
	w.buf = append(w.buf, '\n')
	_, err := w.w.Write(w.buf)
	return err
}

// WriteSequence writes events followed by the sentinel line.
func (w *Writer) WriteSequence(events []model.Event) error {
	if err := w.WriteEvents(events); err != nil {
		return err
	}
	_, err := w.w.WriteString(Sentinel + "\n")
	return err
}

// WriteEvents writes events without a sentinel.
func (w *Writer) WriteEvents(events []model.Event) error {
	for i := range events {
		w.buf = AppendEvent(w.buf[:0], &events[i])
		w.buf = append(w.buf, '\n')
		if _, err := w.w.Write(w.buf); err != nil {
			return err
		}
	}
	return nil
}

// Flush writes any buffered data.
func (w *Writer) Flush() error { return w.w.Flush() }

// AppendEvent appends the line encoding of e, without a newline.
func AppendEvent(b []byte, e *model.Event) []byte {
	b = strconv.AppendInt(b, int64(e.Kind), 10)
	b = append(b, ' ')
	b = strconv.AppendFloat(b, e.BeatGap, 'f', 4, 64)
	b = append(b, ' ')
	b = strconv.AppendFloat(b, e.Spacing, 'f', 0, 64)
	b = append(b, ' ')
	b = strconv.AppendFloat(b, e.Angle, 'f', 4, 64)
	b = append(b, ' ')
	if e.GroupFlag {
		b = append(b, '1')
	} else {
		b = append(b, '0')
	}
	b = append(b, ' ')
	if e.HasCurve {
		b = strconv.AppendInt(b, int64(e.CurveKind), 10)
		b = append(b, ' ')
		b = strconv.AppendFloat(b, e.CurveLength, 'f', 0, 64)
		b = append(b, ' ')
		b = strconv.AppendInt(b, int64(e.CurveSegments), 10)
		b = append(b, ' ')
	} else {
		b = append(b, "   "...)
	}
	if e.HasRepeats {
		b = strconv.AppendInt(b, int64(e.Repeats), 10)
	}
	b = append(b, ' ')
	return append(b, e.RawPayload...)
}
