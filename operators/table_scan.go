package operators

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/colgo/model"
	"github.com/hupe1980/colgo/storage"
)

// ErrInvalidOperator is returned for an unknown scan operator.
var ErrInvalidOperator = errors.New("invalid scan operator")

// Operator is the comparison applied by TableScan.
type Operator uint8

const (
	OpEqual Operator = iota
	OpNotEqual
	OpLessThan
	OpLessEqual
	OpGreaterThan
	OpGreaterEqual
)

func (op Operator) String() string {
	switch op {
	case OpEqual:
		return "="
	case OpNotEqual:
		return "!="
	case OpLessThan:
		return "<"
	case OpLessEqual:
		return "<="
	case OpGreaterThan:
		return ">"
	case OpGreaterEqual:
		return ">="
	default:
		return fmt.Sprintf("Operator(%d)", uint8(op))
	}
}

// matches applies op to the result of comparing a row value with the probe.
func (op Operator) matches(c int) bool {
	switch op {
	case OpEqual:
		return c == 0
	case OpNotEqual:
		return c != 0
	case OpLessThan:
		return c < 0
	case OpLessEqual:
		return c <= 0
	case OpGreaterThan:
		return c > 0
	default:
		return c >= 0
	}
}

// dictionaryColumn is implemented by *storage.DictionaryColumn[T] and
// *storage.FixedStringDictionaryColumn.
type dictionaryColumn interface {
	storage.Column
	ValueID(i int) model.ValueID
	UniqueValuesCount() int
	LowerBound(probe model.Value) (model.ValueID, error)
	UpperBound(probe model.Value) (model.ValueID, error)
}

// TableScan returns the rows of t whose value in column compares to value as
// op requires. NULL rows never qualify.
//
// Dictionary columns are scanned on value ids: the probe is located once with
// LowerBound and UpperBound and every row is decided by comparing integers.
// All columns of an output chunk share one position list.
func TableScan(ctx context.Context, t *storage.Table, column model.ColumnID, op Operator, value model.Value) (*storage.Table, error) {
	if op > OpGreaterEqual {
		return nil, fmt.Errorf("%w: %d", ErrInvalidOperator, op)
	}
	if int(column) >= t.ColumnCount() {
		return nil, fmt.Errorf("%w: column %d of %d", model.ErrIndexOutOfBounds, column, t.ColumnCount())
	}
	def := t.ColumnDefinitions()[column]
	if value.Type() != def.Type {
		return nil, fmt.Errorf("%w: column %q is %s, probe is %s", model.ErrSchemaMismatch, def.Name, def.Type, value.Type())
	}

	out, err := newOutputTable(t)
	if err != nil {
		return nil, err
	}
	for _, c := range t.Chunks() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		o := newChunkOutput(t, c)
		var scanErr error
		if dict, ok := c.Column(column).(dictionaryColumn); ok {
			scanErr = scanDictionary(dict, c.Size(), op, value, o)
		} else {
			scanErr = scanValues(c.Column(column), c.Size(), op, value, o)
		}
		if scanErr != nil {
			return nil, scanErr
		}
		if err := o.emit(out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func scanValues(col storage.Column, rows int, op Operator, value model.Value, o *chunkOutput) error {
	for offset := range rows {
		v, err := col.Value(offset)
		if err != nil {
			return err
		}
		if !v.IsNull() && op.matches(v.Compare(value)) {
			o.add(offset)
		}
	}
	return nil
}

func scanDictionary(col dictionaryColumn, rows int, op Operator, value model.Value, o *chunkOutput) error {
	lower, err := col.LowerBound(value)
	if err != nil {
		return err
	}
	upper, err := col.UpperBound(value)
	if err != nil {
		return err
	}
	size := model.ValueID(col.UniqueValuesCount())
	if lower == model.InvalidValueID {
		lower = size
	}
	if upper == model.InvalidValueID {
		upper = size
	}

	// Rows with ids in [lower, upper) equal the probe.
	var match func(id model.ValueID) bool
	switch op {
	case OpEqual:
		match = func(id model.ValueID) bool { return id >= lower && id < upper }
	case OpNotEqual:
		match = func(id model.ValueID) bool { return id < lower || id >= upper }
	case OpLessThan:
		match = func(id model.ValueID) bool { return id < lower }
	case OpLessEqual:
		match = func(id model.ValueID) bool { return id < upper }
	case OpGreaterThan:
		match = func(id model.ValueID) bool { return id >= upper }
	default:
		match = func(id model.ValueID) bool { return id >= lower }
	}

	for offset := range rows {
		id := col.ValueID(offset)
		if id != model.InvalidValueID && match(id) {
			o.add(offset)
		}
	}
	return nil
}
