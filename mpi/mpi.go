// Package mpi abstracts the communicator handed to the solver library.
//
// gomumps does not speak MPI itself; it only forwards a Fortran communicator
// handle and uses the local rank to decide which process submits centralized
// input. Programs running under MPI wrap the handle obtained from their MPI
// binding with Fortran; serial programs use Self.
package mpi

// Comm exposes the two communicator properties this layer needs: the
// identity of the local rank and the Fortran handle the solver library
// expects in its comm field.
type Comm interface {
	Rank() int
	Fortran() int32
}

// UseCommWorld is the sentinel handle understood by the solver library as
// "use MPI_COMM_WORLD". It lets serial programs, and programs linked against
// the sequential MPI stub, run without converting a real communicator.
const UseCommWorld int32 = -987654

type comm struct {
	rank   int
	handle int32
}

func (c comm) Rank() int      { return c.rank }
func (c comm) Fortran() int32 { return c.handle }

// Self returns the communicator used by serial programs: rank 0, world
// sentinel handle.
func Self() Comm {
	return comm{rank: 0, handle: UseCommWorld}
}

// Fortran wraps an existing Fortran communicator handle (for example the
// result of MPI_Comm_c2f or mpi4py's py2f) together with the caller's rank
// on that communicator.
func Fortran(handle int32, rank int) Comm {
	return comm{rank: rank, handle: handle}
}
