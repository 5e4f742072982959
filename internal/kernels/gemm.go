package kernels

import (
	"runtime"
	"sync"

	"github.com/samcharles93/gantry/pkg/gemm"
)

// strides maps a layout-tagged view onto (rowStride, colStride) addressing.
func strides(v gemm.MatrixView) (int, int) {
	if v.Layout == gemm.RowMajor {
		return v.LD, 1
	}
	return 1, v.LD
}

// partialProduct accumulates rows [rs,re) of A*B over the K range [kLo,kHi)
// into out, a row-major M x N scratch. The rows are cleared first, so each
// call produces exactly the partial sum for its K slice.
func partialProduct(cfg TileConfig, args *gemm.Arguments, aData, bData, out []float32, rs, re, kLo, kHi int) {
	n := args.Problem.N
	rsA, csA := strides(args.A)
	rsB, csB := strides(args.B)

	for i := rs; i < re; i++ {
		clear(out[i*n : i*n+n])
	}

	for i0 := rs; i0 < re; i0 += cfg.M {
		iMax := min(i0+cfg.M, re)
		for k0 := kLo; k0 < kHi; k0 += cfg.K {
			kMax := min(k0+cfg.K, kHi)
			for j0 := 0; j0 < n; j0 += cfg.N {
				jMax := min(j0+cfg.N, n)
				for i := i0; i < iMax; i++ {
					row := out[i*n : i*n+n]
					aBase := i * rsA
					for kk := k0; kk < kMax; kk++ {
						av := aData[aBase+kk*csA]
						bBase := kk * rsB
						for j := j0; j < jMax; j++ {
							row[j] += av * bData[bBase+j*csB]
						}
					}
				}
			}
		}
	}
}

// minParallelRows is the grain below which row ranges are not split across
// goroutines.
const minParallelRows = 8

// parallelRows partitions [0,total) into contiguous chunks and runs fn on
// each, one goroutine per chunk. Chunks are disjoint so workers never touch
// the same output rows.
func parallelRows(total int, fn func(lo, hi int)) {
	workers := runtime.GOMAXPROCS(0)
	if byGrain := (total + minParallelRows - 1) / minParallelRows; workers > byGrain {
		workers = byGrain
	}
	if workers <= 1 {
		fn(0, total)
		return
	}

	chunk := (total + workers - 1) / workers
	var wg sync.WaitGroup
	for lo := 0; lo < total; lo += chunk {
		hi := min(lo+chunk, total)
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			fn(lo, hi)
		}(lo, hi)
	}
	wg.Wait()
}
