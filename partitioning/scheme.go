package partitioning

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync/atomic"

	"github.com/hupe1980/colgo/internal/hash"
	"github.com/hupe1980/colgo/model"
)

// Kind enumerates the partitioning schemes.
//
// The numeric values are persisted as one-byte tags and must not change.
type Kind uint8

const (
	// KindNull keeps every row in a single partition.
	KindNull Kind = 0
	// KindRoundRobin distributes rows cyclically over the partitions.
	KindRoundRobin Kind = 1
	// KindRange routes rows by comparing one column against ascending bounds.
	KindRange Kind = 2
	// KindHash routes rows by hashing one column.
	KindHash Kind = 3
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindRoundRobin:
		return "round-robin"
	case KindRange:
		return "range"
	case KindHash:
		return "hash"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Valid reports whether k is a known scheme.
func (k Kind) Valid() bool { return k <= KindHash }

// MaxPartitions is the largest partition count the binary format can hold.
const MaxPartitions = math.MaxUint16

// ErrInvalidScheme is returned for inconsistent scheme parameters.
var ErrInvalidScheme = errors.New("invalid partitioning scheme")

// Scheme decides, per appended row, which partition the row lands in.
//
// It is a closed set of variants selected by Kind. Round-robin state is an
// atomic counter, so Route is safe for concurrent use.
type Scheme struct {
	kind      Kind
	count     int
	column    model.ColumnID
	boundType model.DataType
	bounds    []model.Value
	next      atomic.Uint64
}

// Null returns the single-partition scheme.
func Null() *Scheme {
	return &Scheme{kind: KindNull, count: 1}
}

// RoundRobin returns a scheme cycling over n partitions.
func RoundRobin(n int) (*Scheme, error) {
	if n < 1 || n > MaxPartitions {
		return nil, fmt.Errorf("%w: round-robin partition count %d", ErrInvalidScheme, n)
	}
	return &Scheme{kind: KindRoundRobin, count: n}, nil
}

// Range returns a scheme routing on column with len(bounds)+1 partitions.
// Bounds must be non-null, of one type and ascending.
func Range(column model.ColumnID, bounds []model.Value) (*Scheme, error) {
	if len(bounds) == 0 {
		return nil, fmt.Errorf("%w: range scheme needs at least one bound", ErrInvalidScheme)
	}
	if len(bounds)+1 > MaxPartitions {
		return nil, fmt.Errorf("%w: %d range bounds", ErrInvalidScheme, len(bounds))
	}
	typ := bounds[0].Type()
	if !typ.Valid() {
		return nil, fmt.Errorf("%w: range bound of type %s", ErrInvalidScheme, typ)
	}
	for i, b := range bounds {
		if b.Type() != typ {
			return nil, fmt.Errorf("%w: bound %d has type %s, want %s", ErrInvalidScheme, i, b.Type(), typ)
		}
		if i > 0 && bounds[i-1].Compare(b) > 0 {
			return nil, fmt.Errorf("%w: bounds are not ascending at %d", ErrInvalidScheme, i)
		}
	}
	return &Scheme{
		kind:      KindRange,
		count:     len(bounds) + 1,
		column:    column,
		boundType: typ,
		bounds:    append([]model.Value(nil), bounds...),
	}, nil
}

// Hash returns a scheme hashing column into n partitions.
func Hash(column model.ColumnID, n int) (*Scheme, error) {
	if n < 1 || n > MaxPartitions {
		return nil, fmt.Errorf("%w: hash partition count %d", ErrInvalidScheme, n)
	}
	return &Scheme{kind: KindHash, count: n, column: column}, nil
}

// Kind returns the scheme variant.
func (s *Scheme) Kind() Kind { return s.kind }

// PartitionCount returns the number of partitions.
func (s *Scheme) PartitionCount() int { return s.count }

// Column returns the designated column for Range and Hash schemes.
func (s *Scheme) Column() model.ColumnID { return s.column }

// BoundType returns the data type of the Range bounds.
func (s *Scheme) BoundType() model.DataType { return s.boundType }

// Bounds returns a copy of the Range bounds.
func (s *Scheme) Bounds() []model.Value {
	return append([]model.Value(nil), s.bounds...)
}

// Continuous reports whether the scheme keeps all rows in one ordered partition.
// Tables use this to allow chunk-level appends.
func (s *Scheme) Continuous() bool { return s.kind == KindNull }

// RoutedRows returns the number of rows routed by a round-robin scheme.
func (s *Scheme) RoutedRows() uint64 { return s.next.Load() }

// Resume sets the round-robin counter, e.g. after restoring a table with n rows.
func (s *Scheme) Resume(n uint64) { s.next.Store(n) }

// Validate checks the scheme against a table schema.
func (s *Scheme) Validate(defs []model.ColumnDefinition) error {
	switch s.kind {
	case KindRange:
		if int(s.column) >= len(defs) {
			return fmt.Errorf("%w: range column %d of %d", ErrInvalidScheme, s.column, len(defs))
		}
		if defs[s.column].Type != s.boundType {
			return fmt.Errorf("%w: range column %q is %s, bounds are %s", ErrInvalidScheme, defs[s.column].Name, defs[s.column].Type, s.boundType)
		}
	case KindHash:
		if int(s.column) >= len(defs) {
			return fmt.Errorf("%w: hash column %d of %d", ErrInvalidScheme, s.column, len(defs))
		}
	}
	return nil
}

// Route returns the partition for row.
// Rows with NULL in the designated column land in partition 0.
func (s *Scheme) Route(row []model.Value) (model.PartitionID, error) {
	switch s.kind {
	case KindNull:
		return 0, nil
	case KindRoundRobin:
		n := s.next.Add(1) - 1
		return model.PartitionID(n % uint64(s.count)), nil
	case KindRange:
		v, err := s.designated(row)
		if err != nil || v.IsNull() {
			return 0, err
		}
		if v.Type() != s.boundType {
			return 0, fmt.Errorf("%w: range column expects %s, got %s", model.ErrSchemaMismatch, s.boundType, v.Type())
		}
		return model.PartitionID(s.searchBounds(v)), nil
	case KindHash:
		v, err := s.designated(row)
		if err != nil || v.IsNull() {
			return 0, err
		}
		h := hash.Sum64(v.AppendKey(make([]byte, 0, 16)))
		return model.PartitionID(h % uint64(s.count)), nil
	default:
		return 0, fmt.Errorf("%w: unknown kind %d", ErrInvalidScheme, s.kind)
	}
}

// searchBounds returns the index of the first bound >= v, or the last partition.
func (s *Scheme) searchBounds(v model.Value) int {
	return sort.Search(len(s.bounds), func(i int) bool {
		return s.bounds[i].Compare(v) >= 0
	})
}

func (s *Scheme) designated(row []model.Value) (model.Value, error) {
	if int(s.column) >= len(row) {
		return model.Value{}, fmt.Errorf("%w: row has %d values, partition column is %d", model.ErrSchemaMismatch, len(row), s.column)
	}
	return row[s.column], nil
}

// Clone returns an independent copy including the round-robin counter.
func (s *Scheme) Clone() *Scheme {
	c := &Scheme{
		kind:      s.kind,
		count:     s.count,
		column:    s.column,
		boundType: s.boundType,
		bounds:    s.Bounds(),
	}
	c.next.Store(s.next.Load())
	return c
}

func (s *Scheme) String() string {
	switch s.kind {
	case KindRange:
		return fmt.Sprintf("range(column=%d, partitions=%d)", s.column, s.count)
	case KindHash:
		return fmt.Sprintf("hash(column=%d, partitions=%d)", s.column, s.count)
	default:
		return fmt.Sprintf("%s(partitions=%d)", s.kind, s.count)
	}
}
