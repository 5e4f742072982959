package gemm

import (
	"errors"
	"fmt"
)

// Taxonomy sentinels. Every launch failure matches exactly one of these via
// errors.Is, while the concrete error types preserve the underlying kernel
// status code unmodified.
var (
	// ErrInvalidArgument covers argument-record or workspace problems detected
	// during kernel initialization. Nothing was enqueued.
	ErrInvalidArgument = errors.New("gemm: invalid argument")

	// ErrLaunchFailed covers submission-time faults from the kernel's run
	// entry point. Nothing device-visible happened.
	ErrLaunchFailed = errors.New("gemm: launch failed")

	// ErrDeviceFault covers configuration faults detected by the post-launch
	// diagnostic check, after the enqueue call itself succeeded.
	ErrDeviceFault = errors.New("gemm: device fault after launch")
)

// InitError reports a failed kernel initialization.
type InitError struct {
	Kernel string
	Status Status
}

func (e *InitError) Error() string {
	return fmt.Sprintf("gemm: kernel %s initialization failed: %s", e.Kernel, e.Status)
}

func (e *InitError) Is(target error) bool { return target == ErrInvalidArgument }

// LaunchError reports a failed kernel submission.
type LaunchError struct {
	Kernel string
	Status Status
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("gemm: kernel %s launch failed: %s", e.Kernel, e.Status)
}

func (e *LaunchError) Is(target error) bool { return target == ErrLaunchFailed }

// DeviceError reports a fault surfaced by the post-launch diagnostic query.
type DeviceError struct {
	Kernel string
	Err    error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("gemm: kernel %s device fault: %v", e.Kernel, e.Err)
}

func (e *DeviceError) Is(target error) bool { return target == ErrDeviceFault }

func (e *DeviceError) Unwrap() error { return e.Err }
