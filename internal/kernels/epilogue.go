package kernels

import (
	"math"

	"github.com/samcharles93/gantry/pkg/gemm"
)

// epilogueRows applies D = act(alpha*acc + beta*Csource + bias) to rows
// [rs,re), reading accumulators from the row-major M x N scratch acc. The
// source term is skipped entirely when the argument record carries a null
// source view: on that path the kernel computes C fresh and beta is inert.
func epilogueRows(args *gemm.Arguments, acc []float32, rs, re int) {
	n := args.Problem.N
	alpha := args.Epilogue.Alpha
	beta := args.Epilogue.Beta
	act := args.Epilogue.Activation

	dst := args.CDest.Buf.Float32s()
	ldc := args.CDest.LD

	var src []float32
	var lds int
	if !args.CSource.IsNull() {
		src = args.CSource.Buf.Float32s()
		lds = args.CSource.LD
	}

	var bias []float32
	if !args.Epilogue.Bias.IsNil() {
		bias = args.Epilogue.Bias.Float32s()[:n]
	}

	for i := rs; i < re; i++ {
		accRow := acc[i*n : i*n+n]
		dstBase := i * ldc
		srcBase := i * lds
		for j := 0; j < n; j++ {
			v := alpha * accRow[j]
			if src != nil {
				v += beta * src[srcBase+j]
			}
			if bias != nil {
				v += bias[j]
			}
			dst[dstBase+j] = activate(act, v)
		}
	}
}

func activate(act gemm.Activation, x float32) float32 {
	switch act {
	case gemm.ReLU:
		if x < 0 {
			return 0
		}
		return x
	case gemm.GELU:
		return gelu(x)
	default:
		return x
	}
}

// gelu is the tanh approximation of the Gaussian error linear unit.
func gelu(x float32) float32 {
	const c = 0.7978845608028654 // sqrt(2/pi)
	x64 := float64(x)
	return float32(0.5 * x64 * (1 + math.Tanh(c*(x64+0.044715*x64*x64*x64))))
}
