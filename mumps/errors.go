package mumps

import (
	"errors"
	"fmt"

	"github.com/blang/semver/v4"
)

var (
	// ErrVersionNotFound reports that no version-shaped substring was found
	// in the probe output. Treated as an unsupported library build rather
	// than retried with a looser heuristic.
	ErrVersionNotFound = errors.New("mumps: no version string found in probe output")

	// ErrNoSchur reports an ExpandSchur call without a completed GetSchur.
	ErrNoSchur = errors.New("mumps: ExpandSchur requires a completed GetSchur")

	// ErrReleased reports an operation on a released solver.
	ErrReleased = errors.New("mumps: solver already released")
)

// UnsupportedVersionError reports a detected library version outside the
// supported range. The caller may recover by loading a different library
// build; the failed session has already released its probe instance.
type UnsupportedVersionError struct {
	Detected semver.Version
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("mumps: library version %s outside supported range [%s, %s]",
		e.Detected, MinSupportedVersion, MaxSupportedVersion)
}

// SolverError reports a negative status after a job invocation. Code is
// INFOG(1) as reported by the library, which encodes every failure kind
// (singular matrix, memory exhaustion, invalid input) in one signed channel.
// Detail is INFOG(2), the error-specific complement. The wrapper surfaces
// the raw codes without interpreting them.
type SolverError struct {
	Job    int32
	Code   int32
	Detail int32
}

func (e *SolverError) Error() string {
	return fmt.Sprintf("mumps: job %d failed: INFOG(1)=%d INFOG(2)=%d", e.Job, e.Code, e.Detail)
}
