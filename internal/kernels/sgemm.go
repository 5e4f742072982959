package kernels

import (
	"fmt"

	"github.com/samcharles93/gantry/pkg/device"
	"github.com/samcharles93/gantry/pkg/gemm"
)

// simtSpec is one compile-time-style f32 GEMM configuration: fixed operand
// layouts and tile policy, optionally capable of split-K parallel reduction.
// C is always row-major in this set.
type simtSpec struct {
	name             string
	layoutA, layoutB gemm.Layout
	tiles            TileConfig
	splitK           bool
}

func newSimtSpec(layoutA, layoutB gemm.Layout, tiles TileConfig, splitK bool) *simtSpec {
	tiles = tiles.clamped()
	variant := ""
	if splitK {
		variant = "splitk_"
	}
	return &simtSpec{
		name: fmt.Sprintf("sgemm_%s%c%c_%dx%dx%d",
			variant, layoutLetter(layoutA), layoutLetter(layoutB), tiles.M, tiles.N, tiles.K),
		layoutA: layoutA,
		layoutB: layoutB,
		tiles:   tiles,
		splitK:  splitK,
	}
}

// layoutLetter follows the BLAS transpose convention for row-major C:
// a row-major operand is 'n', a column-major one 't'.
func layoutLetter(l gemm.Layout) byte {
	if l == gemm.ColMajor {
		return 't'
	}
	return 'n'
}

func (s *simtSpec) Name() string         { return s.name }
func (s *simtSpec) LayoutA() gemm.Layout { return s.layoutA }
func (s *simtSpec) LayoutB() gemm.Layout { return s.layoutB }
func (s *simtSpec) LayoutC() gemm.Layout { return gemm.RowMajor }

func (s *simtSpec) CanImplement(args *gemm.Arguments) gemm.Status {
	if st := args.Problem.Check(); st != gemm.StatusSuccess {
		return st
	}
	if args.SplitKSlices < 1 {
		return gemm.StatusInvalidProblem
	}
	if args.SplitKSlices > 1 && !s.splitK {
		return gemm.StatusNotSupported
	}
	if args.A.Layout != s.layoutA || args.B.Layout != s.layoutB {
		return gemm.StatusNotSupported
	}
	if args.CDest.Layout != gemm.RowMajor {
		return gemm.StatusNotSupported
	}
	if !args.CSource.IsNull() && args.CSource.Layout != gemm.RowMajor {
		return gemm.StatusNotSupported
	}
	return gemm.StatusSuccess
}

// WorkspaceSize reports the scratch requirement: split-K keeps one M x N f32
// partial per slice in the workspace, everything else runs workspace-free.
func (s *simtSpec) WorkspaceSize(args *gemm.Arguments) int64 {
	if args.SplitKSlices <= 1 {
		return 0
	}
	p := args.Problem
	return int64(args.SplitKSlices) * int64(p.M) * int64(p.N) * 4
}

func (s *simtSpec) NewKernel() gemm.Kernel {
	return &simtKernel{spec: s}
}

// simtKernel is one ephemeral kernel instance. It holds the validated
// argument record between Initialize and Run and nothing across launches.
type simtKernel struct {
	spec  *simtSpec
	args  gemm.Arguments
	ws    device.Buffer
	ready bool
}

func (k *simtKernel) Initialize(args *gemm.Arguments, workspace device.Buffer) gemm.Status {
	if st := k.spec.CanImplement(args); st != gemm.StatusSuccess {
		return st
	}
	if args.A.IsNull() || args.B.IsNull() || args.CDest.IsNull() {
		return gemm.StatusInvalidProblem
	}

	p := args.Problem
	if st := checkView(args.A, p.M, p.K); st != gemm.StatusSuccess {
		return st
	}
	if st := checkView(args.B, p.K, p.N); st != gemm.StatusSuccess {
		return st
	}
	if st := checkView(args.CDest, p.M, p.N); st != gemm.StatusSuccess {
		return st
	}
	if !args.CSource.IsNull() {
		if st := checkView(args.CSource, p.M, p.N); st != gemm.StatusSuccess {
			return st
		}
	}
	if b := args.Epilogue.Bias; !b.IsNil() && b.Size() < int64(p.N)*4 {
		return gemm.StatusInvalidProblem
	}

	if need := k.spec.WorkspaceSize(args); need > 0 {
		if workspace.IsNil() {
			return gemm.StatusWorkspaceNull
		}
		if workspace.Size() < need {
			return gemm.StatusWorkspaceInsufficient
		}
	}

	k.args = *args
	k.ws = workspace
	k.ready = true
	return gemm.StatusSuccess
}

// checkView validates the leading dimension and buffer extent of a rows x cols
// view.
func checkView(v gemm.MatrixView, rows, cols int) gemm.Status {
	if v.LD < v.MinLD(rows, cols) {
		return gemm.StatusInvalidProblem
	}
	var elems int64
	if v.Layout == gemm.RowMajor {
		elems = int64(rows-1)*int64(v.LD) + int64(cols)
	} else {
		elems = int64(cols-1)*int64(v.LD) + int64(rows)
	}
	if v.Buf.Size() < elems*4 {
		return gemm.StatusInvalidProblem
	}
	return gemm.StatusSuccess
}

// Run submits the kernel on the stream and returns once it is enqueued. A
// grid that exceeds the simulated device limits is reported through the
// stream's sticky launch error, the way an asynchronous launch-configuration
// fault surfaces on real hardware, rather than through the return status.
func (k *simtKernel) Run(stream *device.Stream) gemm.Status {
	if !k.ready {
		return gemm.StatusInternal
	}
	if stream == nil {
		return gemm.StatusInvalidStream
	}

	p := k.args.Problem
	gridX := (p.N + k.spec.tiles.N - 1) / k.spec.tiles.N
	gridY := (p.M + k.spec.tiles.M - 1) / k.spec.tiles.M
	gridZ := k.args.SplitKSlices
	if gridX > maxGridXY || gridY > maxGridXY || gridZ > maxGridZ {
		stream.RecordLaunchError(fmt.Errorf("kernel %s: grid (%d,%d,%d) exceeds device limits (%d,%d,%d)",
			k.spec.name, gridX, gridY, gridZ, maxGridXY, maxGridXY, maxGridZ))
		return gemm.StatusSuccess
	}

	args := k.args
	ws := k.ws
	tiles := k.spec.tiles
	err := stream.Enqueue(func(*device.Device) error {
		execute(tiles, &args, ws)
		return nil
	})
	if err != nil {
		return gemm.StatusInvalidStream
	}
	return gemm.StatusSuccess
}

// execute runs on the stream worker: it computes the product and applies the
// epilogue, via the workspace reduction path when the launch was split.
func execute(tiles TileConfig, args *gemm.Arguments, ws device.Buffer) {
	if args.SplitKSlices > 1 {
		executeSplitK(tiles, args, ws)
		return
	}

	p := args.Problem
	aData := args.A.Buf.Float32s()
	bData := args.B.Buf.Float32s()
	acc := make([]float32, p.M*p.N)
	parallelRows(p.M, func(lo, hi int) {
		partialProduct(tiles, args, aData, bData, acc, lo, hi, 0, p.K)
		epilogueRows(args, acc, lo, hi)
	})
}
