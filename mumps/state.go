package mumps

// Job codes of the library's control protocol. Job invocations on one
// Solver must be strictly sequential; issuing a job from the wrong state is
// left to the library to reject (a documented precondition, not validated
// here).
const (
	JobInitialize            int32 = -1
	JobTerminate             int32 = -2
	JobAnalyze               int32 = 1
	JobFactorize             int32 = 2
	JobSolve                 int32 = 3
	JobAnalyzeFactorize      int32 = 4
	JobFactorizeSolve        int32 = 5
	JobAnalyzeFactorizeSolve int32 = 6
)

// State is the nominal phase of a Solver, advanced on successful job
// invocations. It is observational: the session does not gate jobs on it,
// except for teardown idempotency.
type State uint8

const (
	Uninitialized State = iota
	Probing
	Configured
	Analyzed
	Factorized
	Solved
	Released
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Probing:
		return "probing"
	case Configured:
		return "configured"
	case Analyzed:
		return "analyzed"
	case Factorized:
		return "factorized"
	case Solved:
		return "solved"
	case Released:
		return "released"
	default:
		return "unknown"
	}
}

func stateAfter(job int32, cur State) State {
	switch job {
	case JobInitialize:
		return Configured
	case JobTerminate:
		return Released
	case JobAnalyze:
		return Analyzed
	case JobFactorize, JobAnalyzeFactorize:
		return Factorized
	case JobSolve, JobFactorizeSolve, JobAnalyzeFactorizeSolve:
		return Solved
	default:
		return cur
	}
}
