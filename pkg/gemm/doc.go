// Package gemm is the launch layer for dense matrix-multiplication kernels.
//
// It translates a generic GEMM request (operand buffers, leading dimensions,
// problem shape, epilogue, optional split-K factor) into the argument record a
// concrete kernel specialization expects, drives the specialization's
// initialize/run contract, and maps kernel-library status codes onto typed
// errors. The package never owns memory and never waits for device
// completion: a nil return from Launch means the kernel was submitted, and the
// caller observes completion through stream synchronization.
//
// Operand, output, and workspace buffers must remain valid and unmodified
// until the stream operation completes; the launch layer documents but cannot
// enforce this, since execution is asynchronous.
package gemm
