// Package libmumps isolates all cgo for the MUMPS C interface.
//
// No other package imports "C". The library is exposed as an Entry function
// taking the address of the versioned state block; configuration, inputs,
// outputs, and status all pass through fields of that block. The real entry points are compiled only with the 'mumps' build tag
// and resolved at link time against libdmumps/libzmumps; without the tag,
// the loaders return a descriptive error so callers can fail cleanly.
package libmumps

import "unsafe"

// Entry invokes the solver library on the state block at p. The call blocks
// until the library's computation for the configured job completes; there is
// no cancellation.
type Entry func(p unsafe.Pointer)
