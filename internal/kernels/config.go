// Package kernels provides the simulated kernel-template library: concrete
// f32 GEMM specializations satisfying the pkg/gemm capability contract, with
// fused epilogues and an optional split-K parallel-reduction path, plus the
// registry the dispatch surfaces select from.
package kernels

// Default tile sizes, tuned for the bench suite shapes.
const (
	defaultTileM = 32
	defaultTileN = 32
	defaultTileK = 16

	maxTileM = 64
	maxTileN = 64
	maxTileK = 64
)

// Simulated device launch limits. A grid exceeding these is a configuration
// fault surfaced through the stream's sticky error, not through the enqueue
// call.
const (
	maxGridXY = 65535
	maxGridZ  = 64
)

// TileConfig is the blocking policy of one specialization.
type TileConfig struct {
	M, N, K int
}

func DefaultTileConfig() TileConfig {
	return TileConfig{M: defaultTileM, N: defaultTileN, K: defaultTileK}
}

func (t TileConfig) clamped() TileConfig {
	t.M = clampTile(t.M, maxTileM)
	t.N = clampTile(t.N, maxTileN)
	t.K = clampTile(t.K, maxTileK)
	return t
}

func clampTile(v, max int) int {
	if v < 1 {
		return 1
	}
	if v > max {
		return max
	}
	return v
}
