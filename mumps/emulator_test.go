package mumps

// An in-process stand-in for the MUMPS library, driving the same resolved
// layouts the real library would. It answers the version handshake, keeps a
// dense copy of the submitted matrix, and implements the job protocol with
// textbook Gaussian elimination, including the centralized Schur complement
// and the condensation/expansion solve phases. Just enough numerics to
// exercise the session; precision is not the point.

import (
	"fmt"
	"math"
	"unsafe"

	"github.com/blang/semver/v4"

	"github.com/rc/gomumps/layout"
)

const statusSingular = -10

type fakeFields struct {
	sym, job, n, nz         layout.Field
	irn, jcn, a, rhs        layout.Field
	icntl, infog            layout.Field
	sizeSchur, listvarSchur layout.Field
	schur, redrhs           layout.Field
}

type fakeLib struct {
	banner []byte

	header *layout.Layout // sym..comm_fortran, shared by every layout
	probe  *layout.Layout
	full   *layout.Layout
	ff     fakeFields

	probeReleased bool
	initialized   bool
	releases      int

	sym bool
	n   int
	mat [][]float64

	factorized bool
	schurVars  []int32 // captured at factorization time when ICNTL(19)=3
}

func newFakeLib(version string) *fakeLib {
	v := semver.MustParse(version)
	banner := fmt.Sprintf("\x01\x02MUMPS VERSION_NUMBER %s compiled \x7f\xff", version)
	fk := &fakeLib{banner: []byte(banner)}

	var err error
	if fk.header, err = layout.New(baseFields[:4]); err != nil {
		panic(err)
	}
	if fk.probe, err = layout.New(probeFields()); err != nil {
		panic(err)
	}
	specs, err := fieldsFor(v)
	if err != nil {
		panic(err)
	}
	if fk.full, err = layout.New(specs); err != nil {
		panic(err)
	}

	fk.ff = fakeFields{
		sym:          mustField(fk.full, "sym"),
		job:          mustField(fk.full, "job"),
		n:            mustField(fk.full, "n"),
		nz:           mustField(fk.full, "nz"),
		irn:          mustField(fk.full, "irn"),
		jcn:          mustField(fk.full, "jcn"),
		a:            mustField(fk.full, "a"),
		rhs:          mustField(fk.full, "rhs"),
		icntl:        mustField(fk.full, "icntl"),
		infog:        mustField(fk.full, "infog"),
		sizeSchur:    mustField(fk.full, "size_schur"),
		listvarSchur: mustField(fk.full, "listvar_schur"),
		schur:        mustField(fk.full, "schur"),
		redrhs:       mustField(fk.full, "redrhs"),
	}
	return fk
}

func (fk *fakeLib) entry(p unsafe.Pointer) {
	// the first four fields agree across every layout, so the job code can
	// be read before deciding which layout the block carries
	job := fk.header.Wrap(p).Int32(mustField(fk.header, "job"))

	if !fk.probeReleased {
		b := fk.probe.Wrap(p)
		switch job {
		case JobInitialize:
			copy(b.Bytes(mustField(fk.probe, "aux")), fk.banner)
		case JobTerminate:
			fk.releases++
			fk.probeReleased = true
		}
		return
	}

	b := fk.full.Wrap(p)
	status := int32(0)
	switch job {
	case JobInitialize:
		fk.initialized = true
		fk.sym = b.Int32(fk.ff.sym) > 0
	case JobTerminate:
		fk.releases++
	case JobAnalyze:
		fk.load(b)
	case JobFactorize:
		status = fk.factorize(b)
	case JobSolve:
		status = fk.solve(b)
	case JobAnalyzeFactorize:
		fk.load(b)
		status = fk.factorize(b)
	case JobFactorizeSolve:
		status = fk.factorize(b)
		if status == 0 {
			status = fk.solve(b)
		}
	case JobAnalyzeFactorizeSolve:
		fk.load(b)
		status = fk.factorize(b)
		if status == 0 {
			status = fk.solve(b)
		}
	}
	b.SetInt32At(fk.ff.infog, 0, status)
	b.SetInt32At(fk.ff.infog, 1, 0)
}

// load expands the submitted triplets into a dense matrix, mirroring the
// upper triangle in symmetric mode.
func (fk *fakeLib) load(b *layout.Block) {
	n := int(b.Int32(fk.ff.n))
	nz := int(b.Int32(fk.ff.nz))
	irn := unsafe.Slice((*int32)(b.Pointer(fk.ff.irn)), nz)
	jcn := unsafe.Slice((*int32)(b.Pointer(fk.ff.jcn)), nz)
	a := unsafe.Slice((*float64)(b.Pointer(fk.ff.a)), nz)

	fk.n = n
	fk.mat = make([][]float64, n)
	for i := range fk.mat {
		fk.mat[i] = make([]float64, n)
	}
	for k := 0; k < nz; k++ {
		i, j := int(irn[k])-1, int(jcn[k])-1
		fk.mat[i][j] += a[k]
		if fk.sym && i != j {
			fk.mat[j][i] += a[k]
		}
	}
	fk.factorized = false
}

func (fk *fakeLib) factorize(b *layout.Block) int32 {
	if b.Int32At(fk.ff.icntl, 18) == 3 {
		return fk.factorizeSchur(b)
	}
	if _, ok := denseSolve(fk.mat, make([]float64, fk.n)); !ok {
		return statusSingular
	}
	fk.factorized = true
	fk.schurVars = nil
	return 0
}

// factorizeSchur factorizes the interior block and stores the centralized
// Schur complement S = A22 - A21 A11^-1 A12, by columns, into the caller's
// dense buffer.
func (fk *fakeLib) factorizeSchur(b *layout.Block) int32 {
	ns := int(b.Int32(fk.ff.sizeSchur))
	vars := unsafe.Slice((*int32)(b.Pointer(fk.ff.listvarSchur)), ns)
	schur := unsafe.Slice((*float64)(b.Pointer(fk.ff.schur)), ns*ns)

	interior, schurIdx := fk.partition(vars)
	a11 := pick(fk.mat, interior, interior)

	for k := 0; k < ns; k++ {
		col := make([]float64, len(interior))
		for i, r := range interior {
			col[i] = fk.mat[r][schurIdx[k]]
		}
		t, ok := denseSolve(a11, col)
		if !ok {
			return statusSingular
		}
		for i, r := range schurIdx {
			s := fk.mat[r][schurIdx[k]]
			for j, c := range interior {
				s -= fk.mat[r][c] * t[j]
			}
			schur[k*ns+i] = s
		}
	}

	fk.factorized = true
	fk.schurVars = append([]int32(nil), vars...)
	return 0
}

func (fk *fakeLib) solve(b *layout.Block) int32 {
	if !fk.factorized {
		return -99
	}
	rhs := unsafe.Slice((*float64)(b.Pointer(fk.ff.rhs)), fk.n)

	switch b.Int32At(fk.ff.icntl, 25) {
	case 1: // condensation: redrhs = b2 - A21 A11^-1 b1
		interior, schurIdx := fk.partition(fk.schurVars)
		redrhs := unsafe.Slice((*float64)(b.Pointer(fk.ff.redrhs)), len(schurIdx))
		b1 := pickVec(rhs, interior)
		t, ok := denseSolve(pick(fk.mat, interior, interior), b1)
		if !ok {
			return statusSingular
		}
		for i, r := range schurIdx {
			v := rhs[r]
			for j, c := range interior {
				v -= fk.mat[r][c] * t[j]
			}
			redrhs[i] = v
		}
	case 2: // expansion: x1 = A11^-1 (b1 - A12 x2)
		interior, schurIdx := fk.partition(fk.schurVars)
		x2 := unsafe.Slice((*float64)(b.Pointer(fk.ff.redrhs)), len(schurIdx))
		t := make([]float64, len(interior))
		for i, r := range interior {
			t[i] = rhs[r]
			for j, c := range schurIdx {
				t[i] -= fk.mat[r][c] * x2[j]
			}
		}
		x1, ok := denseSolve(pick(fk.mat, interior, interior), t)
		if !ok {
			return statusSingular
		}
		for i, r := range interior {
			rhs[r] = x1[i]
		}
		for j, c := range schurIdx {
			rhs[c] = x2[j]
		}
	default:
		x, ok := denseSolve(fk.mat, rhs)
		if !ok {
			return statusSingular
		}
		copy(rhs, x)
	}
	return 0
}

// partition splits 0-based row indices into interior rows and the 1-based
// Schur variables, both in ascending original order for the interior.
func (fk *fakeLib) partition(vars []int32) (interior, schurIdx []int) {
	inSchur := make(map[int]bool, len(vars))
	for _, v := range vars {
		idx := int(v) - 1
		inSchur[idx] = true
		schurIdx = append(schurIdx, idx)
	}
	for i := 0; i < fk.n; i++ {
		if !inSchur[i] {
			interior = append(interior, i)
		}
	}
	return interior, schurIdx
}

func pick(m [][]float64, rows, cols []int) [][]float64 {
	out := make([][]float64, len(rows))
	for i, r := range rows {
		out[i] = make([]float64, len(cols))
		for j, c := range cols {
			out[i][j] = m[r][c]
		}
	}
	return out
}

func pickVec(v []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, k := range idx {
		out[i] = v[k]
	}
	return out
}

// denseSolve solves Ax=b by Gaussian elimination with partial pivoting,
// leaving A and b untouched. ok is false for (near-)singular systems.
func denseSolve(a [][]float64, b []float64) (x []float64, ok bool) {
	n := len(b)
	m := make([][]float64, n)
	for i := range m {
		m[i] = append(append([]float64(nil), a[i]...), b[i])
	}

	for col := 0; col < n; col++ {
		piv := col
		for r := col + 1; r < n; r++ {
			if math.Abs(m[r][col]) > math.Abs(m[piv][col]) {
				piv = r
			}
		}
		if math.Abs(m[piv][col]) < 1e-12 {
			return nil, false
		}
		m[col], m[piv] = m[piv], m[col]
		for r := col + 1; r < n; r++ {
			f := m[r][col] / m[col][col]
			for c := col; c <= n; c++ {
				m[r][c] -= f * m[col][c]
			}
		}
	}

	x = make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		v := m[i][n]
		for j := i + 1; j < n; j++ {
			v -= m[i][j] * x[j]
		}
		x[i] = v / m[i][i]
	}
	return x, true
}
