// Package fs abstracts the few filesystem calls of atomic file replacement so
// that tests can inject write, sync, close and rename failures.
//
// Production code uses [Default], which is [LocalFS]:
//
//	f, tmp, err := fs.CreateTemp(fs.Default, dir, "orders.colgo")
//
// Tests wrap it in a [FaultyFS]:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule(".tmp-", fs.Fault{FailAfterBytes: 1024})
//
// Calls take no context.Context; they are short and cannot be interrupted at
// the syscall level. Cancellation is checked by the writers layered on top.
package fs
