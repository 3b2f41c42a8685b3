package mumps

import (
	"fmt"

	"github.com/rc/gomumps/internal/libmumps"
	"github.com/rc/gomumps/mpi"
)

type config struct {
	comm     mpi.Comm
	sym      int32
	verbose  bool
	memRelax int32
	entry    libmumps.Entry
}

// Option alters the behavior of New. See the descriptions of functions
// returning instances of this type for implemented options.
type Option func(*config) error

func defaultConfig() config {
	return config{
		comm:     mpi.Self(),
		memRelax: 20,
	}
}

// WithComm sets the communicator the library runs on. Defaults to mpi.Self.
func WithComm(c mpi.Comm) Option {
	return func(cfg *config) error {
		cfg.comm = c
		return nil
	}
}

// WithSymmetric configures the library for a general symmetric matrix.
// Submissions then keep only the upper triangle of the input.
func WithSymmetric() Option {
	return func(cfg *config) error {
		cfg.sym = 2
		return nil
	}
}

// WithSymmetricPositiveDefinite configures the library for a symmetric
// positive definite matrix. Submissions then keep only the upper triangle of
// the input.
func WithSymmetricPositiveDefinite() Option {
	return func(cfg *config) error {
		cfg.sym = 1
		return nil
	}
}

// WithVerbose keeps the library's error, diagnostic, and statistics output
// enabled. By default the session silences it.
func WithVerbose() Option {
	return func(cfg *config) error {
		cfg.verbose = true
		return nil
	}
}

// WithMemRelax sets the percentage increase of the library's estimated
// working space (ICNTL(14)). Defaults to 20.
func WithMemRelax(pct int) Option {
	return func(cfg *config) error {
		if pct < 0 {
			return fmt.Errorf("mumps: memory relaxation must be non-negative, got %d", pct)
		}
		cfg.memRelax = int32(pct)
		return nil
	}
}

// WithEntry overrides the foreign entry point, bypassing the built-in
// library loaders. Intended for tests and for callers doing their own
// dynamic loading.
func WithEntry(e libmumps.Entry) Option {
	return func(cfg *config) error {
		if e == nil {
			return fmt.Errorf("mumps: entry must not be nil")
		}
		cfg.entry = e
		return nil
	}
}
