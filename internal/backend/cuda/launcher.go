//go:build cuda

// Package cuda runs launches on a real device through cuBLAS. It follows the
// same submission discipline as the simulated path: initialize and validate
// host-side, enqueue asynchronously, then query the sticky launch error
// before reporting success.
package cuda

import (
	"fmt"
	"unsafe"

	"github.com/samcharles93/gantry/internal/backend/cuda/native"
)

// Launcher owns one stream and one cuBLAS handle bound to it.
type Launcher struct {
	stream native.Stream
	blas   native.BlasHandle
}

func NewLauncher() (*Launcher, error) {
	count, err := native.DeviceCount()
	if err != nil {
		return nil, fmt.Errorf("cuda device query failed: %w", err)
	}
	if count < 1 {
		return nil, fmt.Errorf("no cuda devices detected")
	}
	stream, err := native.NewStream()
	if err != nil {
		return nil, fmt.Errorf("cuda stream create failed: %w", err)
	}
	blas, err := native.NewBlasHandle(stream)
	if err != nil {
		_ = stream.Destroy()
		return nil, fmt.Errorf("cublas init failed: %w", err)
	}
	return &Launcher{stream: stream, blas: blas}, nil
}

func (l *Launcher) Close() error {
	var err error
	if e := l.blas.Destroy(); e != nil {
		err = e
	}
	if e := l.stream.Destroy(); e != nil && err == nil {
		err = e
	}
	return err
}

// Gemm computes C = alpha*A*B + beta*C for packed row-major host matrices and
// synchronizes before returning. cuBLAS is column-major, so the row-major
// product is issued as C^T = B^T * A^T.
func (l *Launcher) Gemm(m, n, k int, alpha, beta float32, a, b, c []float32) error {
	if len(a) < m*k || len(b) < k*n || len(c) < m*n {
		return fmt.Errorf("cuda gemm: operand slice shorter than its shape")
	}

	const elem = int64(unsafe.Sizeof(float32(0)))
	aDev, err := native.AllocDevice(int64(m*k) * elem)
	if err != nil {
		return fmt.Errorf("cuda gemm: alloc A: %w", err)
	}
	defer aDev.Free()
	bDev, err := native.AllocDevice(int64(k*n) * elem)
	if err != nil {
		return fmt.Errorf("cuda gemm: alloc B: %w", err)
	}
	defer bDev.Free()
	cDev, err := native.AllocDevice(int64(m*n) * elem)
	if err != nil {
		return fmt.Errorf("cuda gemm: alloc C: %w", err)
	}
	defer cDev.Free()

	if err := native.MemcpyH2DAsync(aDev, unsafe.Pointer(&a[0]), int64(m*k)*elem, l.stream); err != nil {
		return fmt.Errorf("cuda gemm: upload A: %w", err)
	}
	if err := native.MemcpyH2DAsync(bDev, unsafe.Pointer(&b[0]), int64(k*n)*elem, l.stream); err != nil {
		return fmt.Errorf("cuda gemm: upload B: %w", err)
	}
	if beta != 0 {
		if err := native.MemcpyH2DAsync(cDev, unsafe.Pointer(&c[0]), int64(m*n)*elem, l.stream); err != nil {
			return fmt.Errorf("cuda gemm: upload C: %w", err)
		}
	}

	if err := native.GemmEx(
		l.blas,
		native.BlasOpN,
		native.BlasOpN,
		n,
		m,
		k,
		alpha,
		bDev,
		native.BlasF32,
		n,
		aDev,
		native.BlasF32,
		k,
		beta,
		cDev,
		native.BlasF32,
		n,
		native.BlasComputeF32,
		native.BlasGemmDefault,
	); err != nil {
		return fmt.Errorf("cuda gemm: launch failed: %w", err)
	}
	if err := native.LastError(); err != nil {
		return fmt.Errorf("cuda gemm: device fault after launch: %w", err)
	}

	if err := native.MemcpyD2HAsync(unsafe.Pointer(&c[0]), cDev, int64(m*n)*elem, l.stream); err != nil {
		return fmt.Errorf("cuda gemm: download C: %w", err)
	}
	if err := l.stream.Synchronize(); err != nil {
		return fmt.Errorf("cuda gemm: synchronize: %w", err)
	}
	return nil
}
