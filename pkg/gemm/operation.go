package gemm

import (
	"math"

	"github.com/samcharles93/gantry/pkg/device"
)

// LaunchRequest carries one GEMM invocation: raw operand buffers with their
// leading dimensions, the problem shape, the epilogue, the execution stream,
// and the split-K factor. SplitKSlices of 1 (or 0, treated as 1) is an
// ordinary GEMM; values above 1 select the parallel-reduction path and
// require a workspace sized by the specialization's WorkspaceSize.
//
// AccumulateC makes the epilogue read the existing output as its beta term.
// When false the kernel receives a null source view and computes C fresh;
// beta is ignored on that path.
type LaunchRequest struct {
	A, B, C       device.Buffer
	LDA, LDB, LDC int

	Problem  ProblemShape
	Epilogue EpilogueParams

	AccumulateC  bool
	SplitKSlices int
	Workspace    device.Buffer

	Stream *device.Stream
}

// Operation binds one kernel specialization into a launchable GEMM. It holds
// no per-call state; a fresh kernel instance is built for every launch.
type Operation struct {
	spec Specialization
}

// NewOperation wraps a specialization.
func NewOperation(spec Specialization) *Operation {
	return &Operation{spec: spec}
}

// Specialization returns the bound specialization.
func (op *Operation) Specialization() Specialization { return op.spec }

// WorkspaceSize reports the scratch bytes a request needs before launching.
func (op *Operation) WorkspaceSize(req LaunchRequest) int64 {
	args := op.buildArguments(&req)
	return op.spec.WorkspaceSize(args)
}

// Launch assembles the argument record, initializes a fresh kernel instance
// against the caller's workspace, and submits it on the stream.
//
// The call returns once submission succeeds; it never waits for the device.
// Any failure aborts the remaining steps immediately: a failed initialization
// enqueues nothing, and a failed submission leaves no device-visible effect.
// Errors carry the underlying kernel status unmodified and classify under
// ErrInvalidArgument, ErrLaunchFailed, or ErrDeviceFault.
func (op *Operation) Launch(req LaunchRequest) error {
	name := op.spec.Name()

	if req.SplitKSlices < 1 {
		req.SplitKSlices = 1
	}
	if req.LDA > math.MaxInt32 || req.LDB > math.MaxInt32 || req.LDC > math.MaxInt32 {
		return &InitError{Kernel: name, Status: StatusInvalidProblem}
	}

	args := op.buildArguments(&req)

	k := op.spec.NewKernel()
	if st := k.Initialize(args, req.Workspace); st != StatusSuccess {
		return &InitError{Kernel: name, Status: st}
	}
	if st := k.Run(req.Stream); st != StatusSuccess {
		return &LaunchError{Kernel: name, Status: st}
	}
	if err := req.Stream.LastError(); err != nil {
		return &DeviceError{Kernel: name, Err: err}
	}
	return nil
}

func (op *Operation) buildArguments(req *LaunchRequest) *Arguments {
	args := &Arguments{
		Problem:      req.Problem,
		A:            MatrixView{Buf: req.A, LD: req.LDA, Layout: op.spec.LayoutA()},
		B:            MatrixView{Buf: req.B, LD: req.LDB, Layout: op.spec.LayoutB()},
		CDest:        MatrixView{Buf: req.C, LD: req.LDC, Layout: op.spec.LayoutC()},
		Epilogue:     req.Epilogue,
		SplitKSlices: req.SplitKSlices,
	}
	if req.AccumulateC {
		args.CSource = args.CDest
	}
	return args
}
