package storage

import (
	"fmt"
	"strings"

	"github.com/hupe1980/colgo/fixedstring"
	"github.com/hupe1980/colgo/model"
)

// DictionaryColumn stores each row as an id into a shared, sorted dictionary.
type DictionaryColumn[T model.Scalar] struct {
	dict  *Dictionary[T]
	codes AttributeVector
}

// NewDictionaryColumn combines a dictionary with an attribute vector. Every code
// must be < dict.Len() and the vector width must match AttributeVectorWidth.
func NewDictionaryColumn[T model.Scalar](dict *Dictionary[T], codes AttributeVector) (*DictionaryColumn[T], error) {
	if err := checkCodes(codes, dict.Len()); err != nil {
		return nil, err
	}
	return &DictionaryColumn[T]{dict: dict, codes: codes}, nil
}

// EncodeDictionary builds a dictionary column from non-null values.
func EncodeDictionary[T model.Scalar](vs []T) *DictionaryColumn[T] {
	dict := BuildDictionary(vs)
	ids := make([]model.ValueID, len(vs))
	for i, v := range vs {
		ids[i] = dict.Find(v)
	}
	return &DictionaryColumn[T]{dict: dict, codes: NewAttributeVector(ids, dict.Len())}
}

func (c *DictionaryColumn[T]) Len() int                 { return c.codes.Len() }
func (c *DictionaryColumn[T]) DataType() model.DataType { return model.TypeOf[T]() }
func (c *DictionaryColumn[T]) Encoding() EncodingType   { return EncodingDictionary }

// Dictionary returns the shared dictionary.
func (c *DictionaryColumn[T]) Dictionary() *Dictionary[T] { return c.dict }

// AttributeVector returns the per-row codes.
func (c *DictionaryColumn[T]) AttributeVector() AttributeVector { return c.codes }

// UniqueValuesCount returns the dictionary size.
func (c *DictionaryColumn[T]) UniqueValuesCount() int { return c.dict.Len() }

// ValueID returns the dictionary id of row i.
func (c *DictionaryColumn[T]) ValueID(i int) model.ValueID { return c.codes.Get(i) }

func (c *DictionaryColumn[T]) Value(i int) (model.Value, error) {
	if err := checkRow(i, c.Len()); err != nil {
		return model.Value{}, err
	}
	v, err := c.dict.At(c.codes.Get(i))
	if err != nil {
		return model.Value{}, err
	}
	return model.ValueOf(v), nil
}

// LowerBound returns the smallest id whose value is >= probe, or
// model.InvalidValueID. A probe of another type yields ErrSchemaMismatch.
func (c *DictionaryColumn[T]) LowerBound(probe model.Value) (model.ValueID, error) {
	v, ok := model.As[T](probe)
	if !ok {
		return model.InvalidValueID, probeMismatch(c.DataType(), probe)
	}
	return c.dict.LowerBound(v), nil
}

// UpperBound returns the smallest id whose value is > probe, or
// model.InvalidValueID.
func (c *DictionaryColumn[T]) UpperBound(probe model.Value) (model.ValueID, error) {
	v, ok := model.As[T](probe)
	if !ok {
		return model.InvalidValueID, probeMismatch(c.DataType(), probe)
	}
	return c.dict.UpperBound(v), nil
}

func (c *DictionaryColumn[T]) MemoryUsage() int {
	return c.dict.MemoryUsage() + c.codes.MemoryUsage()
}

// Copy returns a column with its own dictionary and attribute vector.
func (c *DictionaryColumn[T]) Copy() Column {
	return &DictionaryColumn[T]{dict: c.dict.Copy(), codes: c.codes.copyVector()}
}

// FixedStringDictionaryColumn is a string dictionary column whose dictionary
// lives in a fixed-width string pool.
type FixedStringDictionaryColumn struct {
	dict  *fixedstring.Vector
	codes AttributeVector
}

// NewFixedStringDictionaryColumn combines a sorted, unique pool with an
// attribute vector.
func NewFixedStringDictionaryColumn(dict *fixedstring.Vector, codes AttributeVector) (*FixedStringDictionaryColumn, error) {
	for i := 1; i < dict.Len(); i++ {
		if dict.Get(i-1) >= dict.Get(i) {
			return nil, fmt.Errorf("%w: dictionary not strictly ascending at %d", model.ErrCorruptFormat, i)
		}
	}
	if err := checkCodes(codes, dict.Len()); err != nil {
		return nil, err
	}
	return &FixedStringDictionaryColumn{dict: dict, codes: codes}, nil
}

// EncodeFixedStringDictionary builds a pool-backed dictionary column. The slot
// size is the longest distinct value, so no value is truncated. Pool slots end
// at the first NUL byte, so values containing one fail with
// model.ErrSchemaMismatch.
func EncodeFixedStringDictionary(vs []string) (*FixedStringDictionaryColumn, error) {
	sorted := BuildDictionary(vs)
	for _, s := range sorted.values {
		if strings.IndexByte(s, 0) >= 0 {
			return nil, fmt.Errorf("%w: fixed-string dictionary value %q contains a NUL byte", model.ErrSchemaMismatch, s)
		}
	}
	maxLen := 0
	for _, s := range sorted.values {
		maxLen = max(maxLen, len(s))
	}
	pool, err := fixedstring.FromStrings(sorted.values, maxLen)
	if err != nil {
		return nil, err
	}
	ids := make([]model.ValueID, len(vs))
	for i, v := range vs {
		ids[i] = sorted.Find(v)
	}
	return &FixedStringDictionaryColumn{dict: pool, codes: NewAttributeVector(ids, pool.Len())}, nil
}

func (c *FixedStringDictionaryColumn) Len() int                 { return c.codes.Len() }
func (c *FixedStringDictionaryColumn) DataType() model.DataType { return model.TypeString }
func (c *FixedStringDictionaryColumn) Encoding() EncodingType {
	return EncodingFixedStringDictionary
}

// Dictionary returns the shared string pool.
func (c *FixedStringDictionaryColumn) Dictionary() *fixedstring.Vector { return c.dict }

// AttributeVector returns the per-row codes.
func (c *FixedStringDictionaryColumn) AttributeVector() AttributeVector { return c.codes }

// UniqueValuesCount returns the dictionary size.
func (c *FixedStringDictionaryColumn) UniqueValuesCount() int { return c.dict.Len() }

// ValueID returns the dictionary id of row i.
func (c *FixedStringDictionaryColumn) ValueID(i int) model.ValueID { return c.codes.Get(i) }

func (c *FixedStringDictionaryColumn) Value(i int) (model.Value, error) {
	if err := checkRow(i, c.Len()); err != nil {
		return model.Value{}, err
	}
	fs, err := c.dict.At(int(c.codes.Get(i)))
	if err != nil {
		return model.Value{}, err
	}
	return model.String(fs.String()), nil
}

// LowerBound returns the smallest id whose value is >= probe, or
// model.InvalidValueID.
func (c *FixedStringDictionaryColumn) LowerBound(probe model.Value) (model.ValueID, error) {
	if probe.Type() != model.TypeString {
		return model.InvalidValueID, probeMismatch(model.TypeString, probe)
	}
	return c.id(c.dict.LowerBound(probe.AsString())), nil
}

// UpperBound returns the smallest id whose value is > probe, or
// model.InvalidValueID.
func (c *FixedStringDictionaryColumn) UpperBound(probe model.Value) (model.ValueID, error) {
	if probe.Type() != model.TypeString {
		return model.InvalidValueID, probeMismatch(model.TypeString, probe)
	}
	return c.id(c.dict.UpperBound(probe.AsString())), nil
}

func (c *FixedStringDictionaryColumn) MemoryUsage() int {
	return c.dict.MemoryUsage() + c.codes.MemoryUsage()
}

// Copy returns a column with its own pool and attribute vector.
func (c *FixedStringDictionaryColumn) Copy() Column {
	return &FixedStringDictionaryColumn{dict: c.dict.Clone(), codes: c.codes.copyVector()}
}

func (c *FixedStringDictionaryColumn) id(i int) model.ValueID {
	if i >= c.dict.Len() {
		return model.InvalidValueID
	}
	return model.ValueID(i)
}

func checkCodes(codes AttributeVector, dictSize int) error {
	if w := AttributeVectorWidth(dictSize); codes.Width() != w {
		return fmt.Errorf("%w: attribute vector width %d, want %d for %d values", model.ErrCorruptFormat, codes.Width(), w, dictSize)
	}
	for i := range codes.Len() {
		if id := codes.Get(i); int64(id) >= int64(dictSize) {
			return fmt.Errorf("%w: code %d at row %d exceeds dictionary size %d", model.ErrCorruptFormat, id, i, dictSize)
		}
	}
	return nil
}

func probeMismatch(want model.DataType, probe model.Value) error {
	return fmt.Errorf("%w: probe of type %s against %s dictionary", model.ErrSchemaMismatch, probe.Type(), want)
}
