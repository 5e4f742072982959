package gemm

import (
	"fmt"
	"math"
	"strings"

	"github.com/samcharles93/gantry/pkg/device"
)

// Layout tags the element order of a matrix view. It is a property of the
// chosen kernel specialization, not a runtime branch inside a kernel.
type Layout int

const (
	RowMajor Layout = iota
	ColMajor
)

func (l Layout) String() string {
	switch l {
	case RowMajor:
		return "row"
	case ColMajor:
		return "col"
	default:
		return fmt.Sprintf("layout(%d)", int(l))
	}
}

// ParseLayout accepts "row"/"rowmajor" and "col"/"colmajor".
func ParseLayout(s string) (Layout, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "row", "rowmajor", "row-major":
		return RowMajor, nil
	case "col", "colmajor", "col-major", "column", "column-major":
		return ColMajor, nil
	default:
		return RowMajor, fmt.Errorf("unknown layout %q (expected row or col)", s)
	}
}

// Activation selects the fused activation applied in the kernel epilogue.
type Activation int

const (
	Identity Activation = iota
	ReLU
	GELU
)

func (a Activation) String() string {
	switch a {
	case Identity:
		return "identity"
	case ReLU:
		return "relu"
	case GELU:
		return "gelu"
	default:
		return fmt.Sprintf("activation(%d)", int(a))
	}
}

func ParseActivation(s string) (Activation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "identity", "none":
		return Identity, nil
	case "relu":
		return ReLU, nil
	case "gelu":
		return GELU, nil
	default:
		return Identity, fmt.Errorf("unknown activation %q (expected identity, relu, or gelu)", s)
	}
}

// ProblemShape is the logical GEMM size: C[M,N] = A[M,K] * B[K,N].
type ProblemShape struct {
	M, N, K int
}

// Check validates that the shape is positive and representable in the kernel
// index type (int32).
func (p ProblemShape) Check() Status {
	if p.M < 1 || p.N < 1 || p.K < 1 {
		return StatusInvalidProblem
	}
	if p.M > math.MaxInt32 || p.N > math.MaxInt32 || p.K > math.MaxInt32 {
		return StatusInvalidProblem
	}
	return StatusSuccess
}

func (p ProblemShape) String() string {
	return fmt.Sprintf("%dx%dx%d", p.M, p.N, p.K)
}

// MatrixView is a non-owning, layout-tagged reference into device memory.
// The zero value is the null view: kernels treat it as "no matrix here".
// Views are built fresh per launch and are immutable for the call's duration.
type MatrixView struct {
	Buf    device.Buffer
	LD     int
	Layout Layout
}

// IsNull reports whether the view references no memory.
func (v MatrixView) IsNull() bool { return v.Buf.IsNil() }

// MinLD returns the smallest legal leading dimension for an r x c matrix in
// this view's layout.
func (v MatrixView) MinLD(rows, cols int) int {
	if v.Layout == RowMajor {
		return cols
	}
	return rows
}

// EpilogueParams configures the fused transform applied as the kernel writes
// its output: D = act(alpha*AB + beta*Csource + bias). It is forwarded to the
// kernel verbatim. Bias, when present, is a length-N vector broadcast across
// output rows.
type EpilogueParams struct {
	Alpha      float32
	Beta       float32
	Activation Activation
	Bias       device.Buffer
}

// IdentityEpilogue returns the pass-through epilogue (alpha=1, beta=0).
func IdentityEpilogue() EpilogueParams {
	return EpilogueParams{Alpha: 1}
}

// Arguments is the argument record handed to a kernel specialization. The
// source view for C is null when the launch computes C fresh instead of
// accumulating into existing output.
type Arguments struct {
	Problem      ProblemShape
	A            MatrixView
	B            MatrixView
	CSource      MatrixView
	CDest        MatrixView
	Epilogue     EpilogueParams
	SplitKSlices int
}
