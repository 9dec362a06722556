// Package bitmap provides the NULL bitmaps of value columns.
//
// A NullBitmap wraps a 32-bit Roaring bitmap in which a set bit marks a NULL
// row. Columns without NULLs allocate none. Sealed columns call Optimize so
// that long runs of NULLs collapse into run containers.
package bitmap
