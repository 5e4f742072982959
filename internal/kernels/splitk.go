package kernels

import (
	"sync"

	"github.com/samcharles93/gantry/pkg/device"
	"github.com/samcharles93/gantry/pkg/gemm"
)

// executeSplitK partitions the K dimension into contiguous slices, computes
// one M x N partial product per slice into the caller's workspace, then runs
// a reduction pass that sums the partials and applies the epilogue exactly
// once. The result is bitwise-independent of how work was scheduled: slice
// boundaries are deterministic and the reduction sums slices in index order.
func executeSplitK(tiles TileConfig, args *gemm.Arguments, ws device.Buffer) {
	p := args.Problem
	slices := args.SplitKSlices
	aData := args.A.Buf.Float32s()
	bData := args.B.Buf.Float32s()
	wsData := ws.Float32s()[:slices*p.M*p.N]

	var wg sync.WaitGroup
	for s := 0; s < slices; s++ {
		wg.Add(1)
		go func(s int) {
			defer wg.Done()
			kLo := s * p.K / slices
			kHi := (s + 1) * p.K / slices
			part := wsData[s*p.M*p.N : (s+1)*p.M*p.N]
			partialProduct(tiles, args, aData, bData, part, 0, p.M, kLo, kHi)
		}(s)
	}
	wg.Wait()

	parallelRows(p.M, func(lo, hi int) {
		reduceRows(args, wsData, lo, hi)
	})
}

// reduceRows sums the per-slice partials for rows [lo,hi) and applies the
// epilogue to the combined accumulator.
func reduceRows(args *gemm.Arguments, wsData []float32, lo, hi int) {
	p := args.Problem
	slices := args.SplitKSlices
	acc := make([]float32, (hi-lo)*p.N)

	for i := lo; i < hi; i++ {
		row := acc[(i-lo)*p.N : (i-lo+1)*p.N]
		copy(row, wsData[i*p.N:i*p.N+p.N])
		for s := 1; s < slices; s++ {
			part := wsData[s*p.M*p.N+i*p.N:]
			for j := 0; j < p.N; j++ {
				row[j] += part[j]
			}
		}
		epilogueRow(args, row, i)
	}
}

// epilogueRow applies the epilogue to a single output row from a standalone
// accumulator row.
func epilogueRow(args *gemm.Arguments, accRow []float32, i int) {
	n := args.Problem.N
	alpha := args.Epilogue.Alpha
	beta := args.Epilogue.Beta
	act := args.Epilogue.Activation

	dst := args.CDest.Buf.Float32s()
	dstBase := i * args.CDest.LD

	var src []float32
	srcBase := 0
	if !args.CSource.IsNull() {
		src = args.CSource.Buf.Float32s()
		srcBase = i * args.CSource.LD
	}

	var bias []float32
	if !args.Epilogue.Bias.IsNil() {
		bias = args.Epilogue.Bias.Float32s()[:n]
	}

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
