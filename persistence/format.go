package persistence

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/hupe1980/colgo/model"
)

// ErrUnsupportedEncoding is returned when exporting a column whose encoding has
// no persisted form, such as a ReferenceColumn.
var ErrUnsupportedEncoding = errors.New("unsupported encoding")

// MaxStringLength is the longest string value the format can hold.
const MaxStringLength = math.MaxUint16

// writer appends little-endian fields to a buffer.
// The first error is sticky and turns later writes into no-ops.
type writer struct {
	buf []byte
	err error
}

func (w *writer) fail(err error) {
	if w.err == nil {
		w.err = err
	}
}

func (w *writer) u8(v uint8) {
	if w.err == nil {
		w.buf = append(w.buf, v)
	}
}

func (w *writer) u16(v uint16) {
	if w.err == nil {
		w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
	}
}

func (w *writer) u32(v uint32) {
	if w.err == nil {
		w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
	}
}

func (w *writer) u64(v uint64) {
	if w.err == nil {
		w.buf = binary.LittleEndian.AppendUint64(w.buf, v)
	}
}

func (w *writer) bool(v bool) {
	if v {
		w.u8(1)
	} else {
		w.u8(0)
	}
}

// string writes a u16 length prefix followed by the bytes.
func (w *writer) string(s string) {
	if len(s) > MaxStringLength {
		w.fail(fmt.Errorf("%w: string of %d bytes exceeds %d", model.ErrCapacityExceeded, len(s), MaxStringLength))
		return
	}
	w.u16(uint16(len(s)))
	if w.err == nil {
		w.buf = append(w.buf, s...)
	}
}

// code writes a dictionary code using width bytes.
func (w *writer) code(id model.ValueID, width int) {
	switch width {
	case 1:
		w.u8(uint8(id))
	case 2:
		w.u16(uint16(id))
	default:
		w.u32(uint32(id))
	}
}

func writeScalar[T model.Scalar](w *writer, v T) {
	switch x := any(v).(type) {
	case int32:
		w.u32(uint32(x))
	case int64:
		w.u64(uint64(x))
	case float32:
		w.u32(math.Float32bits(x))
	case float64:
		w.u64(math.Float64bits(x))
	case string:
		w.string(x)
	}
}

// writeValue writes a non-null Value in the layout of its type.
func writeValue(w *writer, v model.Value) {
	switch v.Type() {
	case model.TypeInt:
		writeScalar(w, v.AsInt())
	case model.TypeLong:
		writeScalar(w, v.AsLong())
	case model.TypeFloat:
		writeScalar(w, v.AsFloat())
	case model.TypeDouble:
		writeScalar(w, v.AsDouble())
	case model.TypeString:
		writeScalar(w, v.AsString())
	default:
		w.fail(fmt.Errorf("%w: cannot persist value of type %s", model.ErrUnsupportedNullValue, v.Type()))
	}
}

// reader decodes little-endian fields from an in-memory stream.
// Running past the end yields ErrCorruptFormat; the first error is sticky and
// later reads return zero values.
type reader struct {
	buf []byte
	off int
	err error
}

func (r *reader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *reader) remaining() int { return len(r.buf) - r.off }

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || n > r.remaining() {
		r.fail(fmt.Errorf("%w: truncated stream, need %d bytes at offset %d, have %d", model.ErrCorruptFormat, n, r.off, r.remaining()))
		return nil
	}
	b := r.buf[r.off : r.off+n : r.off+n]
	r.off += n
	return b
}

func (r *reader) u8() uint8 {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *reader) u16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *reader) u32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *reader) u64() uint64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (r *reader) bool(what string) bool {
	switch v := r.u8(); v {
	case 0:
		return false
	case 1:
		return true
	default:
		r.fail(fmt.Errorf("%w: %s flag %d", model.ErrCorruptFormat, what, v))
		return false
	}
}

func (r *reader) string() string {
	n := r.u16()
	return string(r.take(int(n)))
}

func (r *reader) code(width int) model.ValueID {
	switch width {
	case 1:
		return model.ValueID(r.u8())
	case 2:
		return model.ValueID(r.u16())
	default:
		return model.ValueID(r.u32())
	}
}

// count validates that n elements of at least minSize bytes each can still be
// present, so corrupt counts never drive large allocations.
func (r *reader) count(n uint32, minSize int, what string) int {
	if r.err != nil {
		return 0
	}
	if uint64(n)*uint64(minSize) > uint64(r.remaining()) {
		r.fail(fmt.Errorf("%w: %s count %d exceeds remaining %d bytes", model.ErrCorruptFormat, what, n, r.remaining()))
		return 0
	}
	return int(n)
}

func readScalar[T model.Scalar](r *reader) T {
	var out T
	switch p := any(&out).(type) {
	case *int32:
		*p = int32(r.u32())
	case *int64:
		*p = int64(r.u64())
	case *float32:
		*p = math.Float32frombits(r.u32())
	case *float64:
		*p = math.Float64frombits(r.u64())
	case *string:
		*p = r.string()
	}
	return out
}

func readValue(r *reader, typ model.DataType) model.Value {
	switch typ {
	case model.TypeInt:
		return model.Int(readScalar[int32](r))
	case model.TypeLong:
		return model.Long(readScalar[int64](r))
	case model.TypeFloat:
		return model.Float(readScalar[float32](r))
	case model.TypeDouble:
		return model.Double(readScalar[float64](r))
	case model.TypeString:
		return model.String(readScalar[string](r))
	default:
		r.fail(fmt.Errorf("%w: value type tag %d", model.ErrCorruptFormat, typ))
		return model.Null()
	}
}

// minWidth is the smallest encoded size of one value of typ.
func minWidth(typ model.DataType) int {
	if w := typ.FixedWidth(); w > 0 {
		return w
	}
	return 2
}
