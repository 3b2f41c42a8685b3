package mumps

import (
	"github.com/blang/semver/v4"

	"github.com/rc/gomumps/layout"
)

// MinSupportedVersion and MaxSupportedVersion bound the library versions
// whose struct layout is declared below. A probe result outside this range
// fails session construction with UnsupportedVersionError.
var (
	MinSupportedVersion = semver.MustParse("4.10.0")
	MaxSupportedVersion = semver.MustParse("5.7.999")
)

// Shorthands for the primitive types of the MUMPS C struct. Real and
// complex builds of the library share the double-precision representation,
// so a single field table covers both entry points.
var (
	mInt  = layout.Of(layout.Int32)
	mInt8 = layout.Of(layout.Uint64)
	mPtr  = layout.Of(layout.Ptr)
)

func mInts(n int) layout.Type  { return layout.ArrayOf(layout.Int32, n) }
func mInt8s(n int) layout.Type { return layout.ArrayOf(layout.Uint64, n) }
func mReals(n int) layout.Type { return layout.ArrayOf(layout.Float64, n) }
func mChars(n int) layout.Type { return layout.ArrayOf(layout.Bytes, n) }

func f(name string, t layout.Type) layout.FieldSpec {
	return layout.FieldSpec{Name: name, Type: t}
}

// baseFields is DMUMPS_STRUC_C as of MUMPS 4.10.0. Later versions are
// derived by folding changeSets onto it.
var baseFields = []layout.FieldSpec{
	f("sym", mInt),
	f("par", mInt),
	f("job", mInt),
	f("comm_fortran", mInt),
	f("icntl", mInts(40)),
	f("cntl", mReals(15)),
	f("n", mInt),
	f("nz_alloc", mInt),
	// assembled entry
	f("nz", mInt),
	f("irn", mPtr),
	f("jcn", mPtr),
	f("a", mPtr),
	// distributed entry
	f("nz_loc", mInt),
	f("irn_loc", mPtr),
	f("jcn_loc", mPtr),
	f("a_loc", mPtr),
	// element entry
	f("nelt", mInt),
	f("eltptr", mPtr),
	f("eltvar", mPtr),
	f("a_elt", mPtr),
	// ordering, if given by user
	f("perm_in", mPtr),
	// orderings returned to user
	f("sym_perm", mPtr),
	f("uns_perm", mPtr),
	// scaling
	f("colsca", mPtr),
	f("rowsca", mPtr),
	// RHS, solution, output data and statistics
	f("rhs", mPtr),
	f("redrhs", mPtr),
	f("rhs_sparse", mPtr),
	f("sol_loc", mPtr),
	f("irhs_sparse", mPtr),
	f("irhs_ptr", mPtr),
	f("isol_loc", mPtr),
	f("nrhs", mInt),
	f("lrhs", mInt),
	f("lredrhs", mInt),
	f("nz_rhs", mInt),
	f("lsol_loc", mInt),
	f("schur_mloc", mInt),
	f("schur_nloc", mInt),
	f("schur_lld", mInt),
	f("mblock", mInt),
	f("nblock", mInt),
	f("nprow", mInt),
	f("npcol", mInt),
	f("info", mInts(40)),
	f("infog", mInts(40)),
	f("rinfo", mReals(40)),
	f("rinfog", mReals(40)),
	// null space
	f("deficiency", mInt),
	f("pivnul_list", mPtr),
	f("mapping", mPtr),
	// Schur
	f("size_schur", mInt),
	f("listvar_schur", mPtr),
	f("schur", mPtr),
	// internal parameters
	f("instance_number", mInt),
	f("wk_user", mPtr),
	// version string: Fortran length + final NUL + alignment
	f("version_number", mChars(16)),
	// out-of-core
	f("ooc_tmpdir", mChars(256)),
	f("ooc_prefix", mChars(64)),
	// dump of the matrix in matrix market format
	f("write_problem", mChars(256)),
	f("lwk_user", mInt),
}

// changeSets lists the struct changes each MUMPS release introduced,
// relative to the layout of the immediately preceding version.
var changeSets = []layout.ChangeSet{
	{Version: semver.MustParse("5.0.0"), Deltas: []layout.Delta{
		layout.InsertAfter("icntl", f("keep", mInts(500))),
		layout.InsertAfter("cntl",
			f("dkeep", mReals(130)),
			f("keep8", mInt8s(150)),
		),
		layout.InsertAfter("rowsca",
			f("colsca_from_mumps", mInt),
			f("rowsca_from_mumps", mInt),
		),
		layout.Replace("version_number", mChars(27)),
	}},
	{Version: semver.MustParse("5.1.0"), Deltas: []layout.Delta{
		layout.Replace("dkeep", mReals(230)),
		layout.InsertAfter("nz", f("nnz", mInt8)),
		layout.InsertAfter("nz_loc", f("nnz_loc", mInt8)),
		layout.Replace("version_number", mChars(32)),
		// save/restore feature
		layout.InsertAfter("lwk_user",
			f("save_dir", mChars(256)),
			f("save_prefix", mChars(256)),
		),
	}},
	{Version: semver.MustParse("5.2.0"), Deltas: []layout.Delta{
		layout.Replace("icntl", mInts(60)),
		layout.InsertAfter("sol_loc", f("rhs_loc", mPtr)),
		layout.InsertAfter("isol_loc", f("irhs_loc", mPtr)),
		layout.InsertAfter("lsol_loc",
			f("nloc_rhs", mInt),
			f("lrhs_loc", mInt),
		),
		layout.Replace("info", mInts(80)),
		layout.Replace("infog", mInts(80)),
		layout.InsertAfter("save_prefix", f("metis_options", mInts(40))),
	}},
	{Version: semver.MustParse("5.3.0"), Deltas: []layout.Delta{
		layout.InsertAfter("n", f("nblk", mInt)),
		// matrix by blocks
		layout.InsertAfter("a_elt",
			f("blkptr", mPtr),
			f("blkvar", mPtr),
		),
	}},
	{Version: semver.MustParse("5.7.0"), Deltas: []layout.Delta{
		layout.InsertAfter("npcol", f("ld_rhsintr", mInt)),
		layout.InsertAfter("mapping", f("singular_values", mPtr)),
		layout.Delete("instance_number"),
		layout.Replace("ooc_tmpdir", mChars(1024)),
		layout.Replace("ooc_prefix", mChars(256)),
		layout.Replace("write_problem", mChars(1024)),
		layout.Replace("save_dir", mChars(1024)),
		layout.InsertAfter("metis_options", f("instance_number", mInt)),
	}},
}

// fieldsFor resolves the struct field list for the given library version.
func fieldsFor(v semver.Version) ([]layout.FieldSpec, error) {
	return layout.Resolve(baseFields, layout.Applicable(changeSets, v))
}

// probeFields is the minimal layout used for the version handshake: just
// enough fields to carry configuration flags, followed by a scratch buffer
// the library's real struct fields land in. The first five fields match
// every supported version, so the probe is layout-safe regardless of which
// library is loaded.
func probeFields() []layout.FieldSpec {
	specs := make([]layout.FieldSpec, 0, 6)
	specs = append(specs, baseFields[:5]...)
	specs = append(specs, f("aux", mChars(auxLength)))
	return specs
}
