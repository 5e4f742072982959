package gemm

import "github.com/samcharles93/gantry/pkg/device"

// Kernel is one ephemeral kernel instance: constructed fresh per launch,
// initialized once, run once, then discarded. Initialize performs the
// synchronous host-side validation and setup; Run enqueues execution on the
// stream and returns as soon as submission completes.
type Kernel interface {
	Initialize(args *Arguments, workspace device.Buffer) Status
	Run(stream *device.Stream) Status
}

// Specialization describes one compile-time kernel configuration: fixed
// element type, operand layouts, and tile/epilogue policy. Concrete
// combinations are distinct implementations selected at configuration time;
// there is no runtime layout branching inside a kernel.
type Specialization interface {
	// Name identifies the specialization, e.g. "sgemm_nt_32x32x16".
	Name() string

	// LayoutA, LayoutB, and LayoutC are the operand layouts this
	// specialization was built for. The launch layer tags its views with
	// these when assembling the argument record.
	LayoutA() Layout
	LayoutB() Layout
	LayoutC() Layout

	// CanImplement reports whether this specialization can serve the given
	// argument record, without initializing anything.
	CanImplement(args *Arguments) Status

	// WorkspaceSize returns the scratch bytes the caller must provide for the
	// given argument record. Zero means no workspace is needed.
	WorkspaceSize(args *Arguments) int64

	// NewKernel constructs a fresh, stateless kernel instance.
	NewKernel() Kernel
}
