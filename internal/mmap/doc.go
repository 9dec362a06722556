// Package mmap maps table files read-only into memory.
//
// The local blob store serves range reads from a Mapping, and file imports
// decode directly from the mapped bytes without an intermediate copy.
//
//	m, err := mmap.Open("orders.tbl")
//	if err != nil { ... }
//	defer m.Close()
//
//	_ = m.Advise(mmap.AccessSequential)
//	data := m.Bytes()
//
// Unix systems use mmap(2) and madvise(2); Windows uses MapViewOfFile, where
// Advise is a no-op. Callers must not touch Bytes() after Close returns.
package mmap
