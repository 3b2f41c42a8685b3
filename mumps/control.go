package mumps

import "fmt"

// ICNTL entries used by the session, numbered 1-based as in the library's
// user guide.
const (
	icntlErrOutput    = 1  // output stream for error messages
	icntlDiagOutput   = 2  // output stream for diagnostics
	icntlGlobalOutput = 3  // output stream for global information
	icntlPrintLevel   = 4  // verbosity level
	icntlMemRelax     = 14 // working-space increase, percent
	icntlSchur        = 19 // Schur complement: 3 = centralized, by columns
	icntlSchurSolve   = 26 // partial solve: 1 = condensation, 2 = expansion
)

// SetICntl writes the i-th control parameter (1-based, user-guide
// numbering). The session only manages the entries listed above; everything
// else is passed through to the library uninterpreted.
func (s *Solver) SetICntl(i int, v int32) {
	s.block.SetInt32At(s.f.icntl, i-1, v)
}

// ICntl reads the i-th control parameter (1-based).
func (s *Solver) ICntl(i int) int32 {
	return s.block.Int32At(s.f.icntl, i-1)
}

// SetSilent suppresses the library's error, diagnostic, and statistics
// output. This is the default.
func (s *Solver) SetSilent() {
	s.SetICntl(icntlErrOutput, -1)
	s.SetICntl(icntlDiagOutput, -1)
	s.SetICntl(icntlGlobalOutput, -1)
	s.SetICntl(icntlPrintLevel, 0)
}

// SetVerbose routes the library's error and statistics output to stdout.
func (s *Solver) SetVerbose() {
	s.SetICntl(icntlErrOutput, 6)
	s.SetICntl(icntlDiagOutput, 0)
	s.SetICntl(icntlGlobalOutput, 6)
	s.SetICntl(icntlPrintLevel, 2)
}

// Info reads INFO(i), the local statistics array (1-based).
func (s *Solver) Info(i int) int32 {
	return s.block.Int32At(s.f.info, i-1)
}

// InfoG reads INFOG(i), the global statistics array (1-based). INFOG(1) is
// the primary status code.
func (s *Solver) InfoG(i int) int32 {
	return s.block.Int32At(s.f.infog, i-1)
}

// RInfoG reads RINFOG(i), the global floating-point statistics array
// (1-based).
func (s *Solver) RInfoG(i int) float64 {
	return s.block.Float64At(s.f.rinfog, i-1)
}

// SetSaveDir sets the directory and file prefix for the library's native
// save/restore feature. The paths are passed through uninterpreted. Fails on
// library versions without the feature (before 5.1.0).
func (s *Solver) SetSaveDir(dir, prefix string) error {
	if !s.f.hasSave {
		return fmt.Errorf("mumps: save/restore not available in library version %s", s.version)
	}
	if err := s.block.SetString(s.f.saveDir, dir); err != nil {
		return err
	}
	return s.block.SetString(s.f.savePrefix, prefix)
}

// SetOOCDir sets the directory and file prefix for out-of-core working
// files. The paths are passed through uninterpreted.
func (s *Solver) SetOOCDir(dir, prefix string) error {
	if err := s.block.SetString(s.f.oocTmpdir, dir); err != nil {
		return err
	}
	return s.block.SetString(s.f.oocPrefix, prefix)
}

// SetWriteProblem makes the library dump the submitted matrix in matrix
// market format under the given path. The path is passed through
// uninterpreted.
func (s *Solver) SetWriteProblem(path string) error {
	return s.block.SetString(s.f.writeProblem, path)
}
