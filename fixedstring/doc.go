// Package fixedstring provides a pool of strings stored in uniform byte slots.
//
// A Vector packs strings into contiguous slots of a fixed MaxLength. It backs the
// dictionary of FixedStringDictionary columns, trading unbounded string length for
// compact, allocation-free storage.
//
// # Overflow Policy
//
// The behavior for strings longer than MaxLength is a runtime mode:
//
//	v := fixedstring.New(6)                                   // Checked
//	err := v.Append("opossum")                                // model.ErrCapacityExceeded
//
//	u := fixedstring.New(6, fixedstring.WithMode(fixedstring.Unchecked))
//	_ = u.Append("opossum")                                   // stores "opossu"
package fixedstring
