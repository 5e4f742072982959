//go:build cuda

package main

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/samcharles93/gantry/internal/backend/cuda"
	"github.com/samcharles93/gantry/internal/logger"
)

// runCUDA launches one GEMM through cuBLAS. The cuda path supports the
// alpha/beta linear-combination epilogue only.
func runCUDA(log logger.Logger, m, n, k int, alpha, beta float32, seed int64) error {
	launcher, err := cuda.NewLauncher()
	if err != nil {
		return err
	}
	defer launcher.Close()

	rng := rand.New(rand.NewSource(seed))
	a := make([]float32, m*k)
	b := make([]float32, k*n)
	c := make([]float32, m*n)
	for i := range a {
		a[i] = (rng.Float32()*2 - 1) * 0.1
	}
	for i := range b {
		b[i] = (rng.Float32()*2 - 1) * 0.1
	}

	start := time.Now()
	if err := launcher.Gemm(m, n, k, alpha, beta, a, b, c); err != nil {
		return err
	}
	elapsed := time.Since(start)

	var sum float64
	for _, v := range c {
		sum += float64(v)
	}

	log.Info("cuda launch completed", "problem", fmt.Sprintf("%dx%dx%d", m, n, k))
	fmt.Printf("backend:   cuda\n")
	fmt.Printf("problem:   %dx%dx%d\n", m, n, k)
	fmt.Printf("duration:  %.3f ms\n", float64(elapsed.Nanoseconds())/1e6)
	fmt.Printf("checksum:  %.6f\n", sum)
	return nil
}
