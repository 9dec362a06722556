package bitmap

import (
	"iter"

	"github.com/RoaringBitmap/roaring/v2"
)

// NullBitmap tracks which rows of a column are NULL.
// It wraps a 32-bit Roaring bitmap; a set bit means the row is NULL.
type NullBitmap struct {
	rb *roaring.Bitmap
}

// NewNullBitmap creates an empty null bitmap.
func NewNullBitmap() *NullBitmap {
	return &NullBitmap{rb: roaring.New()}
}

// Set marks row as NULL.
func (b *NullBitmap) Set(row uint32) {
	b.rb.Add(row)
}

// IsNull reports whether row is NULL.
func (b *NullBitmap) IsNull(row uint32) bool {
	return b.rb.Contains(row)
}

// Count returns the number of NULL rows.
func (b *NullBitmap) Count() int {
	return int(b.rb.GetCardinality())
}

// Any reports whether at least one row is NULL.
func (b *NullBitmap) Any() bool {
	return !b.rb.IsEmpty()
}

// Rows iterates the NULL rows in ascending order.
func (b *NullBitmap) Rows() iter.Seq[uint32] {
	return func(yield func(uint32) bool) {
		it := b.rb.Iterator()
		for it.HasNext() {
			if !yield(it.Next()) {
				return
			}
		}
	}
}

// Clone returns a deep copy.
func (b *NullBitmap) Clone() *NullBitmap {
	return &NullBitmap{rb: b.rb.Clone()}
}

// Optimize converts containers to run-length form where smaller.
// Call it once the owning column is sealed.
func (b *NullBitmap) Optimize() {
	b.rb.RunOptimize()
}

// SizeInBytes estimates the serialized size of the bitmap.
func (b *NullBitmap) SizeInBytes() int {
	return int(b.rb.GetSizeInBytes())
}
