// Package gomumps binds the MUMPS sparse direct solver through its native ABI.
//
// The MUMPS C interface is a single routine taking a pointer to a large
// configuration struct whose layout changes between releases. gomumps probes
// the version of the library actually loaded, materializes a byte-exact
// layout for it at runtime, and drives the job-based control protocol on top
// of that layout:
//   - gomumps/layout describes struct layouts as versioned field lists and
//     resolves them to fixed byte offsets
//   - gomumps/mumps owns the solver session: version handshake, matrix and
//     right-hand-side submission, job invocation, Schur complement workflow
//   - gomumps/mpi abstracts the communicator handed to the library
//
// The real binding is compiled only with the 'mumps' build tag; without it,
// opening a session returns an error. Sessions can also be driven against a
// custom entry point, which is how the test suite runs without the C library.
package gomumps

import (
	"github.com/blang/semver/v4"
)

var Version = semver.MustParse("0.1.0")
