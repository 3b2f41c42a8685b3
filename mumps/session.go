// Package mumps drives the MUMPS sparse direct solver through its job-based
// control protocol.
//
// A Solver owns one instance of the library's opaque state. Construction
// runs a version handshake against the loaded library, resolves the struct
// layout matching that version, and initializes the instance on the
// resulting memory block. All configuration, inputs, and outputs then pass
// through fields of the block across blocking foreign calls.
//
// Matrix and right-hand-side buffers are borrowed, never copied: the caller
// must keep them alive and unmodified for the lifetime of any job that
// reads them. A Solver is single-threaded; job invocations must be strictly
// sequential. On multi-rank communicators, submissions are root-only while
// job invocations must be issued collectively by all ranks.
package mumps

import (
	"fmt"
	"regexp"
	"runtime"
	"strconv"
	"unsafe"

	"github.com/blang/semver/v4"

	"github.com/rc/gomumps/internal/libmumps"
	"github.com/rc/gomumps/layout"
	"github.com/rc/gomumps/logger"
	"github.com/rc/gomumps/mpi"
)

// auxLength is the size of the scratch buffer appended to the probe layout.
// The library's real struct fields, including its version string, land
// somewhere in this region during the handshake.
const auxLength = 16 * 1024

// System selects which build of the library a Solver drives.
type System uint8

const (
	// Real solves real-valued systems (dmumps_c).
	Real System = iota
	// Complex solves complex-valued systems (zmumps_c). Values are
	// submitted as interleaved re/im float64 pairs.
	Complex
)

func (s System) String() string {
	switch s {
	case Real:
		return "real"
	case Complex:
		return "complex"
	default:
		return "unknown"
	}
}

// stride is the number of float64 values per matrix entry.
func (s System) stride() int {
	if s == Complex {
		return 2
	}
	return 1
}

// fieldHandles caches the resolved field offsets the session touches, bound
// once after version detection and never re-inspected per access.
type fieldHandles struct {
	job, n, nz                   layout.Field
	irn, jcn, a, rhs             layout.Field
	redrhs, lredrhs              layout.Field
	sizeSchur, listvarSchur      layout.Field
	schur, schurLLD              layout.Field
	mblock, nblock, nprow, npcol layout.Field
	icntl, info, infog, rinfog   layout.Field

	nnz    layout.Field // 5.1.0 and later
	hasNNZ bool

	saveDir, savePrefix layout.Field // 5.1.0 and later
	hasSave             bool

	oocTmpdir, oocPrefix, writeProblem layout.Field
}

// schurContext is valid between a completed GetSchur and the following
// ExpandSchur; it is invalidated by teardown or by a new factorization.
type schurContext struct {
	vars      []int32
	condensed []float64
}

// Solver is one session against the library: one exclusively-owned foreign
// state block, released exactly once by Release.
type Solver struct {
	system  System
	comm    mpi.Comm
	entry   libmumps.Entry
	version semver.Version
	sym     int32

	layout *layout.Layout
	block  *layout.Block
	f      fieldHandles
	state  State

	// borrowed caller buffers: kept reachable for the GC and pinned for
	// the cgo pointer rules, for as long as their addresses live inside
	// the foreign state block
	pin  runtime.Pinner
	refs []any

	rhs   []float64
	schur *schurContext
}

// New opens a session for the given system.
//
// Construction probes the loaded library for its version using a minimal
// layout, releases the probe instance, resolves the full struct layout for
// the detected version, and initializes the real instance on it. It fails
// with ErrVersionNotFound or *UnsupportedVersionError when the probe output
// is unusable, with *layout.ResolutionError on a defect in the declared
// version data, and with *SolverError when the library rejects
// initialization; in every failure case the foreign resources acquired so
// far have been released.
func New(system System, opts ...Option) (*Solver, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	entry := cfg.entry
	if entry == nil {
		var err error
		switch system {
		case Real:
			entry, err = libmumps.Real()
		case Complex:
			entry, err = libmumps.Complex()
		default:
			err = fmt.Errorf("mumps: unknown system %d", system)
		}
		if err != nil {
			return nil, err
		}
	}

	s := &Solver{
		system: system,
		comm:   cfg.comm,
		entry:  entry,
		sym:    cfg.sym,
		state:  Probing,
	}

	v, err := probeVersion(entry, cfg.comm)
	if err != nil {
		return nil, err
	}
	if v.LT(MinSupportedVersion) || v.GT(MaxSupportedVersion) {
		return nil, &UnsupportedVersionError{Detected: v}
	}
	s.version = v

	specs, err := fieldsFor(v)
	if err != nil {
		return nil, err
	}
	l, err := layout.New(specs)
	if err != nil {
		return nil, err
	}
	s.layout = l
	s.block = l.NewBlock()
	s.bindFields()

	s.block.SetInt32(mustField(l, "par"), 1)
	s.block.SetInt32(mustField(l, "sym"), cfg.sym)
	s.block.SetInt32(s.f.n, 0)
	s.block.SetInt32(mustField(l, "comm_fortran"), cfg.comm.Fortran())

	if err := s.Invoke(JobInitialize); err != nil {
		_ = s.Release()
		return nil, err
	}

	if cfg.verbose {
		s.SetVerbose()
	} else {
		s.SetSilent()
	}
	s.SetICntl(icntlMemRelax, cfg.memRelax)

	log := logger.Logger()
	log.Debug().Str("version", v.String()).Str("system", system.String()).
		Int("rank", cfg.comm.Rank()).Msg("mumps session initialized")

	return s, nil
}

// Version returns the library version detected during construction.
func (s *Solver) Version() semver.Version {
	return s.version
}

// State returns the nominal phase reached by the last successful job.
func (s *Solver) State() State {
	return s.state
}

// Rank returns the session's rank on its communicator.
func (s *Solver) Rank() int {
	return s.comm.Rank()
}

// SetMatrix submits a square sparse matrix in coordinate form
// (0-based indices). The session converts to the library's 1-based indexing
// and, in symmetric configurations, keeps only entries on or above the
// diagonal. Derived index and value slices are owned by the session; a
// no-op on non-root ranks.
func (s *Solver) SetMatrix(m Matrix) error {
	if s.state == Released {
		return ErrReleased
	}
	if s.comm.Rank() != 0 {
		return nil
	}

	rows, cols, vals := m.Rows(), m.Cols(), m.Values()
	stride := s.system.stride()
	if len(rows) != len(cols) || len(vals) != stride*len(rows) {
		return fmt.Errorf("mumps: coordinate slices of inconsistent length: %d rows, %d cols, %d values",
			len(rows), len(cols), len(vals))
	}

	rr := make([]int32, 0, len(rows))
	cc := make([]int32, 0, len(cols))
	a := make([]float64, 0, len(vals))
	for k := range rows {
		i, j := rows[k]+1, cols[k]+1
		if s.sym > 0 && j < i {
			continue
		}
		rr = append(rr, i)
		cc = append(cc, j)
		a = append(a, vals[k*stride:(k+1)*stride]...)
	}

	return s.SetMatrixRCD(rr, cc, a, m.Dim())
}

// SetMatrixRCD submits the matrix as 1-based coordinate triplets. The
// slices are borrowed by foreign reference: the caller must keep them alive
// and unmodified until the last job reading them completes. For Complex
// systems, a holds interleaved re/im pairs of length 2*len(irn). A no-op on
// non-root ranks.
func (s *Solver) SetMatrixRCD(irn, jcn []int32, a []float64, n int) error {
	if s.state == Released {
		return ErrReleased
	}
	if s.comm.Rank() != 0 {
		return nil
	}
	if n <= 0 {
		return fmt.Errorf("mumps: matrix dimension must be positive, got %d", n)
	}
	stride := s.system.stride()
	if len(irn) != len(jcn) || len(a) != stride*len(irn) {
		return fmt.Errorf("mumps: triplet slices of inconsistent length: %d rows, %d cols, %d values",
			len(irn), len(jcn), len(a))
	}

	nz := len(irn)
	s.block.SetInt32(s.f.n, int32(n))
	s.block.SetInt32(s.f.nz, int32(nz))
	if s.f.hasNNZ {
		s.block.SetUint64(s.f.nnz, uint64(nz))
	}
	if nz > 0 {
		s.attach(s.f.irn, unsafe.Pointer(&irn[0]), irn)
		s.attach(s.f.jcn, unsafe.Pointer(&jcn[0]), jcn)
		s.attach(s.f.a, unsafe.Pointer(&a[0]), a)
	}

	return nil
}

// SetRHS submits the dense right-hand side. The buffer is borrowed; solve
// jobs overwrite it in place with the solution. For Complex systems it
// holds interleaved re/im pairs. A no-op on non-root ranks.
func (s *Solver) SetRHS(rhs []float64) error {
	if s.state == Released {
		return ErrReleased
	}
	if s.comm.Rank() != 0 {
		return nil
	}
	if len(rhs) == 0 {
		return fmt.Errorf("mumps: empty right-hand side")
	}

	s.rhs = rhs
	s.attach(s.f.rhs, unsafe.Pointer(&rhs[0]), rhs)
	return nil
}

// Invoke issues a job to the library and surfaces its status. A negative
// INFOG(1) is returned as *SolverError with the raw code; the wrapper does
// not retry or disambiguate. Issuing a job from a phase the library does
// not accept it in is a precondition violation with library-defined
// behavior; this layer does not pre-validate it.
func (s *Solver) Invoke(job int32) error {
	if job == JobTerminate {
		return s.Release()
	}
	if s.state == Released {
		return ErrReleased
	}
	switch job {
	case JobFactorize, JobAnalyzeFactorize, JobAnalyzeFactorizeSolve:
		// a new factorization overwrites any Schur context
		s.schur = nil
	}

	s.block.SetInt32(s.f.job, job)
	s.entry(s.block.Base())

	if code := s.block.Int32At(s.f.infog, 0); code < 0 {
		return &SolverError{Job: job, Code: code, Detail: s.block.Int32At(s.f.infog, 1)}
	}
	s.state = stateAfter(job, s.state)
	return nil
}

// GetSchur configures and computes a centralized Schur complement on the
// given variables (1-based), running analyze+factorize followed by the
// condensation solve. It returns the dense Schur matrix, stored by columns
// as a len(vars) x len(vars) block, and the condensed right-hand side. The
// condensed buffer stays owned by the session for the following
// ExpandSchur. vars is borrowed like any submission.
func (s *Solver) GetSchur(vars []int32) ([]float64, []float64, error) {
	if s.state == Released {
		return nil, nil, ErrReleased
	}
	n := len(vars)
	if n == 0 {
		return nil, nil, fmt.Errorf("mumps: empty Schur variable list")
	}

	stride := s.system.stride()
	schur := make([]float64, stride*n*n)
	condensed := make([]float64, stride*n)

	s.block.SetInt32(s.f.sizeSchur, int32(n))
	s.attach(s.f.listvarSchur, unsafe.Pointer(&vars[0]), vars)
	s.attach(s.f.schur, unsafe.Pointer(&schur[0]), schur)
	s.block.SetInt32(s.f.lredrhs, int32(n))
	s.attach(s.f.redrhs, unsafe.Pointer(&condensed[0]), condensed)

	// single-process block-cyclic layout for the dense Schur block
	s.block.SetInt32(s.f.schurLLD, int32(n))
	s.block.SetInt32(s.f.nprow, 1)
	s.block.SetInt32(s.f.npcol, 1)
	s.block.SetInt32(s.f.mblock, 100)
	s.block.SetInt32(s.f.nblock, 100)

	s.SetICntl(icntlSchur, 3) // centralized Schur complement stored by columns
	if err := s.Invoke(JobAnalyzeFactorize); err != nil {
		return nil, nil, err
	}

	s.SetICntl(icntlSchurSolve, 1) // reduction/condensation phase
	if err := s.Invoke(JobSolve); err != nil {
		return nil, nil, err
	}

	s.schur = &schurContext{vars: vars, condensed: condensed}
	return schur, condensed, nil
}

// ExpandSchur expands a solution of the condensed system to a solution of
// the full one. partial is written into the condensed buffer held since
// GetSchur; the returned slice is the right-hand-side buffer submitted with
// SetRHS, overwritten in place with the full solution.
func (s *Solver) ExpandSchur(partial []float64) ([]float64, error) {
	if s.state == Released {
		return nil, ErrReleased
	}
	if s.schur == nil {
		return nil, ErrNoSchur
	}
	if len(partial) != len(s.schur.condensed) {
		return nil, fmt.Errorf("mumps: partial solution of length %d, want %d",
			len(partial), len(s.schur.condensed))
	}

	copy(s.schur.condensed, partial)
	s.SetICntl(icntlSchurSolve, 2) // expansion phase
	if err := s.Invoke(JobSolve); err != nil {
		return nil, err
	}
	return s.rhs, nil
}

// Release terminates the foreign instance. It is idempotent: the release
// job is issued at most once, and calling Release on an already released
// (or construction-faulted) solver is a no-op. After Release the state
// block is never touched again and all pinned buffers are unpinned.
func (s *Solver) Release() error {
	if s == nil || s.state == Released {
		return nil
	}

	s.block.SetInt32(s.f.job, JobTerminate)
	s.entry(s.block.Base())
	code := s.block.Int32At(s.f.infog, 0)
	detail := s.block.Int32At(s.f.infog, 1)

	s.state = Released
	s.pin.Unpin()
	s.refs = nil
	s.rhs = nil
	s.schur = nil

	if code < 0 {
		return &SolverError{Job: JobTerminate, Code: code, Detail: detail}
	}
	return nil
}

// attach borrows a caller buffer into a foreign pointer field: pinned for
// the cgo pointer rules, kept reachable in refs, address stored in the
// block.
func (s *Solver) attach(fld layout.Field, p unsafe.Pointer, ref any) {
	s.pin.Pin(p)
	s.refs = append(s.refs, ref)
	s.block.SetPointer(fld, p)
}

func (s *Solver) bindFields() {
	l := s.layout
	s.f.job = mustField(l, "job")
	s.f.n = mustField(l, "n")
	s.f.nz = mustField(l, "nz")
	s.f.irn = mustField(l, "irn")
	s.f.jcn = mustField(l, "jcn")
	s.f.a = mustField(l, "a")
	s.f.rhs = mustField(l, "rhs")
	s.f.redrhs = mustField(l, "redrhs")
	s.f.lredrhs = mustField(l, "lredrhs")
	s.f.sizeSchur = mustField(l, "size_schur")
	s.f.listvarSchur = mustField(l, "listvar_schur")
	s.f.schur = mustField(l, "schur")
	s.f.schurLLD = mustField(l, "schur_lld")
	s.f.mblock = mustField(l, "mblock")
	s.f.nblock = mustField(l, "nblock")
	s.f.nprow = mustField(l, "nprow")
	s.f.npcol = mustField(l, "npcol")
	s.f.icntl = mustField(l, "icntl")
	s.f.info = mustField(l, "info")
	s.f.infog = mustField(l, "infog")
	s.f.rinfog = mustField(l, "rinfog")
	s.f.oocTmpdir = mustField(l, "ooc_tmpdir")
	s.f.oocPrefix = mustField(l, "ooc_prefix")
	s.f.writeProblem = mustField(l, "write_problem")

	s.f.nnz, s.f.hasNNZ = l.Field("nnz")
	s.f.saveDir, s.f.hasSave = l.Field("save_dir")
	if s.f.hasSave {
		s.f.savePrefix = mustField(l, "save_prefix")
	}
}

// mustField resolves a field that every supported layout declares; a miss
// is a defect in the field tables.
func mustField(l *layout.Layout, name string) layout.Field {
	fld, ok := l.Field(name)
	if !ok {
		panic(fmt.Sprintf("mumps: field table missing %q", name))
	}
	return fld
}

// probeVersion runs the version handshake: initialize an instance on the
// minimal layout, scan the scratch buffer for the version string, release
// the instance. The probe is released even when no version was found.
func probeVersion(entry libmumps.Entry, comm mpi.Comm) (semver.Version, error) {
	l, err := layout.New(probeFields())
	if err != nil {
		return semver.Version{}, err
	}
	b := l.NewBlock()

	fJob := mustField(l, "job")
	fICntl := mustField(l, "icntl")
	b.SetInt32(mustField(l, "par"), 1)
	b.SetInt32(mustField(l, "sym"), 0)
	b.SetInt32(mustField(l, "comm_fortran"), comm.Fortran())
	b.SetInt32(fJob, JobInitialize)
	entry(b.Base())

	v, perr := parseProbeVersion(b.Bytes(mustField(l, "aux")))

	// release the probe instance before reconfiguring, on the error path too
	b.SetInt32At(fICntl, 0, -1)
	b.SetInt32At(fICntl, 1, -1)
	b.SetInt32At(fICntl, 2, -1)
	b.SetInt32At(fICntl, 3, 0)
	b.SetInt32(fJob, JobTerminate)
	entry(b.Base())

	return v, perr
}

// The greedy prefix makes the last version-shaped run win when the scratch
// buffer carries several.
var versionPattern = regexp.MustCompile(`^.*(\d)\.(\d+)\.(\d+)`)

// parseProbeVersion extracts the library version from the probe scratch
// buffer: keep the bytes in the printable '.'..'9' range, then take the
// last major.minor.patch shaped run. Anything else is ErrVersionNotFound;
// no looser heuristic is attempted.
func parseProbeVersion(aux []byte) (semver.Version, error) {
	printable := make([]byte, 0, len(aux))
	for _, c := range aux {
		if c >= '.' && c <= '9' {
			printable = append(printable, c)
		}
	}

	m := versionPattern.FindSubmatch(printable)
	if m == nil {
		return semver.Version{}, ErrVersionNotFound
	}

	var v semver.Version
	var err error
	if v.Major, err = strconv.ParseUint(string(m[1]), 10, 64); err != nil {
		return semver.Version{}, ErrVersionNotFound
	}
	if v.Minor, err = strconv.ParseUint(string(m[2]), 10, 64); err != nil {
		return semver.Version{}, ErrVersionNotFound
	}
	if v.Patch, err = strconv.ParseUint(string(m[3]), 10, 64); err != nil {
		return semver.Version{}, ErrVersionNotFound
	}
	return v, nil
}
