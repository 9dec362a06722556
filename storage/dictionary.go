package storage

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/hupe1980/colgo/model"
)

// Dictionary is an immutable, strictly ascending sequence of distinct values.
//
// A value's position is its ValueID. Dictionaries may be shared by any number of
// columns once published.
type Dictionary[T model.Scalar] struct {
	values []T
}

// BuildDictionary collects the distinct values of vs in ascending order.
// vs is not modified.
func BuildDictionary[T model.Scalar](vs []T) *Dictionary[T] {
	sorted := slices.Clone(vs)
	slices.SortFunc(sorted, cmp.Compare[T])
	sorted = slices.CompactFunc(sorted, func(a, b T) bool { return cmp.Compare(a, b) == 0 })
	return &Dictionary[T]{values: slices.Clip(sorted)}
}

// NewDictionary wraps values that are already sorted and unique. It fails with
// model.ErrCorruptFormat on any ordering violation or duplicate. The dictionary
// takes ownership of the slice.
func NewDictionary[T model.Scalar](values []T) (*Dictionary[T], error) {
	for i := 1; i < len(values); i++ {
		if cmp.Compare(values[i-1], values[i]) >= 0 {
			return nil, fmt.Errorf("%w: dictionary not strictly ascending at %d", model.ErrCorruptFormat, i)
		}
	}
	return &Dictionary[T]{values: values}, nil
}

// Len returns the number of distinct values.
func (d *Dictionary[T]) Len() int { return len(d.values) }

// At returns the value for id.
func (d *Dictionary[T]) At(id model.ValueID) (T, error) {
	if int64(id) >= int64(len(d.values)) {
		var zero T
		return zero, fmt.Errorf("%w: value id %d of %d", model.ErrIndexOutOfBounds, id, len(d.values))
	}
	return d.values[id], nil
}

// Values returns the backing slice. Callers must not modify it.
func (d *Dictionary[T]) Values() []T { return d.values }

// Find returns the id of v, or model.InvalidValueID if v is absent.
func (d *Dictionary[T]) Find(v T) model.ValueID {
	i, ok := slices.BinarySearchFunc(d.values, v, cmp.Compare[T])
	if !ok {
		return model.InvalidValueID
	}
	return model.ValueID(i)
}

// LowerBound returns the smallest id whose value is >= v, or
// model.InvalidValueID if every value is smaller.
func (d *Dictionary[T]) LowerBound(v T) model.ValueID {
	i, _ := slices.BinarySearchFunc(d.values, v, cmp.Compare[T])
	return d.id(i)
}

// UpperBound returns the smallest id whose value is > v, or
// model.InvalidValueID if no value is greater.
func (d *Dictionary[T]) UpperBound(v T) model.ValueID {
	i, found := slices.BinarySearchFunc(d.values, v, cmp.Compare[T])
	if found {
		i++
	}
	return d.id(i)
}

// Copy returns an independent dictionary with the same values.
func (d *Dictionary[T]) Copy() *Dictionary[T] {
	return &Dictionary[T]{values: slices.Clone(d.values)}
}

// MemoryUsage estimates the heap bytes held by the dictionary.
func (d *Dictionary[T]) MemoryUsage() int { return sliceSize(d.values) }

func (d *Dictionary[T]) id(i int) model.ValueID {
	if i >= len(d.values) {
		return model.InvalidValueID
	}
	return model.ValueID(i)
}

// AttributeVector maps rows to dictionary ids using 1, 2 or 4 bytes per row.
//
// The largest representable code of the chosen width is reserved as the
// invalid sentinel and reads back as model.InvalidValueID. Attribute vectors
// are immutable.
type AttributeVector interface {
	Len() int
	Get(i int) model.ValueID
	// Width returns the bytes per code.
	Width() int
	MemoryUsage() int
	copyVector() AttributeVector
}

// AttributeVectorWidth returns the smallest width in {1, 2, 4} whose largest
// code, reserved as sentinel, is >= dictSize.
func AttributeVectorWidth(dictSize int) int {
	switch {
	case dictSize <= math.MaxUint8:
		return 1
	case dictSize <= math.MaxUint16:
		return 2
	default:
		return 4
	}
}

// NewAttributeVector packs codes at the width fitting dictSize. Codes must be
// < dictSize or model.InvalidValueID.
func NewAttributeVector(codes []model.ValueID, dictSize int) AttributeVector {
	switch AttributeVectorWidth(dictSize) {
	case 1:
		return packCodes[uint8](codes)
	case 2:
		return packCodes[uint16](codes)
	default:
		return packCodes[uint32](codes)
	}
}

type code interface {
	uint8 | uint16 | uint32
}

type fittedVector[U code] struct {
	codes []U
}

func packCodes[U code](ids []model.ValueID) *fittedVector[U] {
	sentinel := ^U(0)
	out := make([]U, len(ids))
	for i, id := range ids {
		if id == model.InvalidValueID {
			out[i] = sentinel
			continue
		}
		out[i] = U(id)
	}
	return &fittedVector[U]{codes: out}
}

func (v *fittedVector[U]) Len() int { return len(v.codes) }

func (v *fittedVector[U]) Get(i int) model.ValueID {
	c := v.codes[i]
	if c == ^U(0) {
		return model.InvalidValueID
	}
	return model.ValueID(c)
}

func (v *fittedVector[U]) Width() int {
	var zero U
	switch any(zero).(type) {
	case uint8:
		return 1
	case uint16:
		return 2
	default:
		return 4
	}
}

func (v *fittedVector[U]) MemoryUsage() int { return cap(v.codes) * v.Width() }

func (v *fittedVector[U]) copyVector() AttributeVector {
	return &fittedVector[U]{codes: slices.Clone(v.codes)}
}
