package fixedstring

import (
	"bytes"
	"fmt"
	"iter"
	"sort"

	"github.com/hupe1980/colgo/model"
)

// Mode selects how a Vector treats strings longer than its slot size.
type Mode uint8

const (
	// Checked rejects oversized strings with model.ErrCapacityExceeded.
	Checked Mode = iota
	// Unchecked silently truncates oversized strings to the slot size.
	Unchecked
)

func (m Mode) String() string {
	if m == Unchecked {
		return "unchecked"
	}
	return "checked"
}

type options struct {
	mode     Mode
	capacity int
}

// Option configures a Vector.
type Option func(*options)

// WithMode sets the overflow policy. The default is Checked.
func WithMode(m Mode) Option {
	return func(o *options) {
		o.mode = m
	}
}

// WithCapacity preallocates room for n slots.
func WithCapacity(n int) Option {
	return func(o *options) {
		o.capacity = n
	}
}

// Vector stores strings in contiguous slots of maxLength bytes each.
//
// A slot is zero padded; the logical string ends at the first zero byte or at
// the slot boundary. The slot size never changes after construction.
//
// Thread safety: concurrent reads are safe; writes require external synchronization.
type Vector struct {
	maxLength int
	mode      Mode
	data      []byte // len(data) == size*maxLength
	size      int
	capSlots  int
}

// New creates an empty Vector with the given slot size in bytes.
// A negative maxLength is treated as 0.
func New(maxLength int, opts ...Option) *Vector {
	o := options{mode: Checked}
	for _, fn := range opts {
		fn(&o)
	}
	if maxLength < 0 {
		maxLength = 0
	}
	v := &Vector{
		maxLength: maxLength,
		mode:      o.mode,
	}
	if o.capacity > 0 {
		v.grow(o.capacity)
	}
	return v
}

// FromSeq builds a Vector from a sequence of strings, applying the overflow
// policy of the configured mode to each element.
func FromSeq(seq iter.Seq[string], maxLength int, opts ...Option) (*Vector, error) {
	v := New(maxLength, opts...)
	for s := range seq {
		if err := v.Append(s); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// FromStrings builds a Vector from a slice of strings.
func FromStrings(strs []string, maxLength int, opts ...Option) (*Vector, error) {
	return FromSeq(func(yield func(string) bool) {
		for _, s := range strs {
			if !yield(s) {
				return
			}
		}
	}, maxLength, append([]Option{WithCapacity(len(strs))}, opts...)...)
}

// MaxLength returns the slot size in bytes.
func (v *Vector) MaxLength() int { return v.maxLength }

// Mode returns the overflow policy.
func (v *Vector) Mode() Mode { return v.mode }

// Len returns the number of stored strings.
func (v *Vector) Len() int { return v.size }

// Cap returns the number of slots that fit without reallocation.
func (v *Vector) Cap() int { return v.capSlots }

// DataSize returns the byte footprint of the stored slots (Len * MaxLength).
func (v *Vector) DataSize() int { return v.size * v.maxLength }

// MemoryUsage estimates the allocated bytes including spare capacity.
func (v *Vector) MemoryUsage() int { return v.capSlots * v.maxLength }

// Append stores s in a new slot.
func (v *Vector) Append(s string) error {
	s, err := v.fit(s)
	if err != nil {
		return err
	}
	if v.size == v.capSlots {
		v.grow(v.size + 1)
	}
	v.data = v.data[:(v.size+1)*v.maxLength]
	v.writeSlot(v.size, s)
	v.size++
	return nil
}

// Set overwrites slot i with s.
func (v *Vector) Set(i int, s string) error {
	if i < 0 || i >= v.size {
		return fmt.Errorf("%w: slot %d of %d", model.ErrIndexOutOfBounds, i, v.size)
	}
	s, err := v.fit(s)
	if err != nil {
		return err
	}
	v.writeSlot(i, s)
	return nil
}

// At returns a read-only view of slot i.
func (v *Vector) At(i int) (FixedString, error) {
	if i < 0 || i >= v.size {
		return FixedString{}, fmt.Errorf("%w: slot %d of %d", model.ErrIndexOutOfBounds, i, v.size)
	}
	return v.slot(i), nil
}

// Get returns the logical string of slot i. It panics if i is out of range.
func (v *Vector) Get(i int) string {
	if i < 0 || i >= v.size {
		panic(fmt.Sprintf("fixedstring: index %d out of range [0:%d]", i, v.size))
	}
	return v.slot(i).String()
}

// All iterates slots front to back.
func (v *Vector) All() iter.Seq2[int, FixedString] {
	return func(yield func(int, FixedString) bool) {
		for i := 0; i < v.size; i++ {
			if !yield(i, v.slot(i)) {
				return
			}
		}
	}
}

// Backward iterates slots back to front.
func (v *Vector) Backward() iter.Seq2[int, FixedString] {
	return func(yield func(int, FixedString) bool) {
		for i := v.size - 1; i >= 0; i-- {
			if !yield(i, v.slot(i)) {
				return
			}
		}
	}
}

// Strings returns a copy of all logical strings.
func (v *Vector) Strings() []string {
	out := make([]string, v.size)
	for i := range out {
		out[i] = v.slot(i).String()
	}
	return out
}

// Erase removes slots [from, to) and shifts the following slots left.
func (v *Vector) Erase(from, to int) error {
	if from < 0 || to > v.size || from > to {
		return fmt.Errorf("%w: erase [%d:%d) of %d", model.ErrIndexOutOfBounds, from, to, v.size)
	}
	n := to - from
	if n == 0 {
		return nil
	}
	copy(v.data[from*v.maxLength:], v.data[to*v.maxLength:])
	v.size -= n
	tail := v.data[v.size*v.maxLength : len(v.data)]
	clear(tail)
	v.data = v.data[:v.size*v.maxLength]
	return nil
}

// Reserve ensures room for at least n slots, growing geometrically.
func (v *Vector) Reserve(n int) {
	if n > v.capSlots {
		v.grow(n)
	}
}

// ShrinkToFit releases unused capacity so that Cap() == Len().
func (v *Vector) ShrinkToFit() {
	if v.capSlots == v.size {
		return
	}
	data := make([]byte, v.size*v.maxLength)
	copy(data, v.data)
	v.data = data
	v.capSlots = v.size
}

// Clone returns an independent copy with the same slot size, mode and content.
func (v *Vector) Clone() *Vector {
	c := &Vector{
		maxLength: v.maxLength,
		mode:      v.mode,
		size:      v.size,
		capSlots:  v.size,
	}
	c.data = make([]byte, len(v.data))
	copy(c.data, v.data)
	return c
}

// LowerBound returns the first slot whose string is >= s.
// The Vector must be sorted; Len() is returned if no such slot exists.
func (v *Vector) LowerBound(s string) int {
	return sort.Search(v.size, func(i int) bool {
		return v.slot(i).String() >= s
	})
}

// UpperBound returns the first slot whose string is > s.
func (v *Vector) UpperBound(s string) int {
	return sort.Search(v.size, func(i int) bool {
		return v.slot(i).String() > s
	})
}

func (v *Vector) fit(s string) (string, error) {
	if len(s) <= v.maxLength {
		return s, nil
	}
	if v.mode == Checked {
		return "", fmt.Errorf("%w: string of %d bytes exceeds slot size %d", model.ErrCapacityExceeded, len(s), v.maxLength)
	}
	return s[:v.maxLength], nil
}

func (v *Vector) writeSlot(i int, s string) {
	slot := v.data[i*v.maxLength : (i+1)*v.maxLength]
	n := copy(slot, s)
	clear(slot[n:])
}

func (v *Vector) slot(i int) FixedString {
	return FixedString{b: v.data[i*v.maxLength : (i+1)*v.maxLength : (i+1)*v.maxLength]}
}

// grow reallocates to hold at least n slots, at least doubling the capacity.
func (v *Vector) grow(n int) {
	newCap := max(v.capSlots*2, n)
	data := make([]byte, len(v.data), newCap*v.maxLength)
	copy(data, v.data)
	v.data = data
	v.capSlots = newCap
}

// FixedString is a read-only view of one slot.
type FixedString struct {
	b []byte
}

// Len returns the logical length (bytes before the first zero byte).
func (f FixedString) Len() int {
	if i := bytes.IndexByte(f.b, 0); i >= 0 {
		return i
	}
	return len(f.b)
}

// MaxLength returns the slot size.
func (f FixedString) MaxLength() int { return len(f.b) }

// Bytes returns the logical bytes. The slice aliases the Vector; do not modify.
func (f FixedString) Bytes() []byte { return f.b[:f.Len()] }

func (f FixedString) String() string { return string(f.b[:f.Len()]) }
