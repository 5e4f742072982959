package gemm

import "fmt"

// Status is a kernel-library status code. Kernels report these from
// Initialize and Run; the launch layer surfaces them unmodified inside its
// typed errors so no diagnostic fidelity is lost.
type Status int

const (
	StatusSuccess Status = iota
	StatusInvalidProblem
	StatusNotSupported
	StatusWorkspaceNull
	StatusWorkspaceInsufficient
	StatusInvalidStream
	StatusInternal
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusInvalidProblem:
		return "invalid problem"
	case StatusNotSupported:
		return "not supported by this specialization"
	case StatusWorkspaceNull:
		return "workspace required but absent"
	case StatusWorkspaceInsufficient:
		return "workspace too small"
	case StatusInvalidStream:
		return "invalid stream"
	case StatusInternal:
		return "internal kernel error"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}
