package kernels

import (
	"errors"
	"testing"

	"github.com/samcharles93/gantry/pkg/device"
	"github.com/samcharles93/gantry/pkg/gemm"
)

func TestSplitKMatchesSingleSlice(t *testing.T) {
	t.Parallel()

	const m, n, k = 24, 16, 100
	p := gemm.ProblemShape{M: m, N: n, K: k}
	a := make([]float32, m*k)
	b := make([]float32, k*n)
	fillTestData(a, 0.3)
	fillTestData(b, 0.25)

	e := gemm.EpilogueParams{Alpha: 1.5, Activation: gemm.ReLU}
	want := refCompute(p, a, b, nil, nil, e)

	// Uneven slice counts exercise the boundary arithmetic: 100 does not
	// divide by 3 or 7.
	for _, slices := range []int{2, 3, 7, 16} {
		slices := slices
		stream := newTestStream(t)
		dev := stream.Device()

		req := gemm.LaunchRequest{
			A: uploadFloats(t, dev, a), B: uploadFloats(t, dev, b), C: allocFloats(t, dev, m*n),
			LDA: k, LDB: n, LDC: n,
			Problem: p, Epilogue: e,
			SplitKSlices: slices,
			Stream:       stream,
		}
		spec := mustFind(t, "sgemm_splitk_nn_32x32x16")
		if err := launchAndSync(t, spec, req); err != nil {
			t.Fatalf("slices=%d: launch: %v", slices, err)
		}
		compareSlices(t, req.C.Float32s()[:m*n], want, 1e-4)
	}
}

func TestSplitKAccumulateAndBias(t *testing.T) {
	t.Parallel()

	const m, n, k = 17, 19, 64
	p := gemm.ProblemShape{M: m, N: n, K: k}
	a := make([]float32, m*k)
	b := make([]float32, k*n)
	src := make([]float32, m*n)
	bias := make([]float32, n)
	fillTestData(a, 0.2)
	fillTestData(b, 0.35)
	fillTestData(src, 0.4)
	fillTestData(bias, 0.1)

	e := gemm.EpilogueParams{Alpha: 0.75, Beta: 0.5}
	want := refCompute(p, a, b, src, bias, e)

	spec := mustFind(t, "sgemm_splitk_nn_32x32x16")
	stream := newTestStream(t)
	dev := stream.Device()

	e.Bias = uploadFloats(t, dev, bias)
	req := gemm.LaunchRequest{
		A: uploadFloats(t, dev, a), B: uploadFloats(t, dev, b),
		C:   uploadFloats(t, dev, src),
		LDA: k, LDB: n, LDC: n,
		Problem: p, Epilogue: e,
		AccumulateC:  true,
		SplitKSlices: 4,
		Stream:       stream,
	}
	if err := launchAndSync(t, spec, req); err != nil {
		t.Fatalf("launch: %v", err)
	}
	compareSlices(t, req.C.Float32s()[:m*n], want, 1e-4)
}

func TestSplitKWorkspaceValidation(t *testing.T) {
	t.Parallel()

	const m, n, k = 16, 16, 64
	const slices = 4
	stream := newTestStream(t)
	dev := stream.Device()
	spec := mustFind(t, "sgemm_splitk_nn_32x32x16")

	args := &gemm.Arguments{
		Problem:      gemm.ProblemShape{M: m, N: n, K: k},
		A:            gemm.MatrixView{Buf: allocFloats(t, dev, m*k), LD: k, Layout: gemm.RowMajor},
		B:            gemm.MatrixView{Buf: allocFloats(t, dev, k*n), LD: n, Layout: gemm.RowMajor},
		CDest:        gemm.MatrixView{Buf: allocFloats(t, dev, m*n), LD: n, Layout: gemm.RowMajor},
		Epilogue:     gemm.IdentityEpilogue(),
		SplitKSlices: slices,
	}

	need := spec.WorkspaceSize(args)
	if want := int64(slices * m * n * 4); need != want {
		t.Fatalf("workspace size: got %d, want %d", need, want)
	}

	if st := spec.NewKernel().Initialize(args, device.Buffer{}); st != gemm.StatusWorkspaceNull {
		t.Fatalf("missing workspace: got %s, want %s", st, gemm.StatusWorkspaceNull)
	}

	small, err := dev.Alloc(need / 2)
	if err != nil {
		t.Fatalf("alloc: %v", err)
	}
	if st := spec.NewKernel().Initialize(args, small); st != gemm.StatusWorkspaceInsufficient {
		t.Fatalf("short workspace: got %s, want %s", st, gemm.StatusWorkspaceInsufficient)
	}

	full, err := dev.Alloc(need)
	if err != nil {
		t.Fatalf("alloc: %v", err)
	}
	if st := spec.NewKernel().Initialize(args, full); st != gemm.StatusSuccess {
		t.Fatalf("sized workspace: got %s, want success", st)
	}
}

func TestSplitKMissingWorkspaceClassifiesInvalidArgument(t *testing.T) {
	t.Parallel()

	const m, n, k = 16, 16, 32
	p := gemm.ProblemShape{M: m, N: n, K: k}
	spec := mustFind(t, "sgemm_splitk_nn_32x32x16")
	stream := newTestStream(t)
	dev := stream.Device()

	req := gemm.LaunchRequest{
		A: allocFloats(t, dev, m*k), B: allocFloats(t, dev, k*n), C: allocFloats(t, dev, m*n),
		LDA: k, LDB: n, LDC: n,
		Problem: p, Epilogue: gemm.IdentityEpilogue(),
		SplitKSlices: 2,
		Stream:       stream,
	}

	// Deliberately no workspace.
	err := gemm.NewOperation(spec).Launch(req)
	if !errors.Is(err, gemm.ErrInvalidArgument) {
		t.Fatalf("got %v, want ErrInvalidArgument", err)
	}
	var initErr *gemm.InitError
	if !errors.As(err, &initErr) || initErr.Status != gemm.StatusWorkspaceNull {
		t.Fatalf("got %v, want InitError carrying %s", err, gemm.StatusWorkspaceNull)
	}
}

func TestSingleSliceNeedsNoWorkspace(t *testing.T) {
	t.Parallel()

	spec := mustFind(t, "sgemm_splitk_nn_32x32x16")
	args := &gemm.Arguments{
		Problem:      gemm.ProblemShape{M: 32, N: 32, K: 32},
		SplitKSlices: 1,
	}
	if got := spec.WorkspaceSize(args); got != 0 {
		t.Fatalf("workspace size: got %d, want 0", got)
	}
}
