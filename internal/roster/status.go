package roster

// Status is the coarse outcome of a solve call, echoed verbatim in the
// external response (§6, §7).
type Status string

const (
	StatusOK          Status = "OK"
	StatusInfeasible  Status = "INFEASIBLE"
	StatusTimeLimit   Status = "TIME_LIMIT"
	StatusCancelled   Status = "CANCELLED"
)
