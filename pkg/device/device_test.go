package device

import (
	"testing"
)

func newDevice(t *testing.T, bytes int64) *Device {
	t.Helper()
	dev, err := New(bytes)
	if err != nil {
		t.Fatalf("new device: %v", err)
	}
	t.Cleanup(func() { dev.Close() })
	return dev
}

func TestAllocFreeCoalesce(t *testing.T) {
	t.Parallel()

	dev := newDevice(t, 1024)
	if got := dev.ArenaBytes(); got != 1024 {
		t.Fatalf("arena bytes: got %d, want 1024", got)
	}

	bufs := make([]Buffer, 4)
	for i := range bufs {
		b, err := dev.Alloc(256)
		if err != nil {
			t.Fatalf("alloc %d: %v", i, err)
		}
		bufs[i] = b
	}
	if _, err := dev.Alloc(64); err == nil {
		t.Fatal("alloc on full arena should fail")
	}
	if got := dev.LiveAllocs(); got != 4 {
		t.Fatalf("live allocs: got %d, want 4", got)
	}

	// A freed interior span is reusable at the same size.
	if err := dev.Free(bufs[1]); err != nil {
		t.Fatalf("free: %v", err)
	}
	reused, err := dev.Alloc(256)
	if err != nil {
		t.Fatalf("alloc into freed span: %v", err)
	}
	if err := dev.Free(reused); err != nil {
		t.Fatalf("free reused: %v", err)
	}

	// Freeing everything must coalesce back into one arena-sized span.
	for _, b := range []Buffer{bufs[0], bufs[2], bufs[3]} {
		if err := dev.Free(b); err != nil {
			t.Fatalf("free: %v", err)
		}
	}
	if got := dev.LiveAllocs(); got != 0 {
		t.Fatalf("live allocs after free: got %d, want 0", got)
	}
	whole, err := dev.Alloc(1024)
	if err != nil {
		t.Fatalf("alloc whole arena after coalesce: %v", err)
	}
	if whole.Size() != 1024 {
		t.Fatalf("whole size: got %d, want 1024", whole.Size())
	}
}

func TestAllocRejectsBadSizes(t *testing.T) {
	t.Parallel()

	dev := newDevice(t, 4096)
	if _, err := dev.Alloc(0); err == nil {
		t.Fatal("alloc of zero bytes should fail")
	}
	if _, err := dev.Alloc(-8); err == nil {
		t.Fatal("alloc of negative bytes should fail")
	}
	if _, err := dev.Alloc(1 << 20); err == nil {
		t.Fatal("alloc beyond arena should fail")
	}
}

func TestFreeRejectsDoubleAndForeign(t *testing.T) {
	t.Parallel()

	dev := newDevice(t, 4096)
	other := newDevice(t, 4096)

	b, err := dev.Alloc(64)
	if err != nil {
		t.Fatalf("alloc: %v", err)
	}
	if err := dev.Free(b); err != nil {
		t.Fatalf("free: %v", err)
	}
	if err := dev.Free(b); err == nil {
		t.Fatal("double free should fail")
	}
	if err := dev.Free(Buffer{}); err != nil {
		t.Fatalf("freeing the zero buffer should be a no-op, got %v", err)
	}

	fb, err := other.Alloc(64)
	if err != nil {
		t.Fatalf("alloc: %v", err)
	}
	if err := dev.Free(fb); err == nil {
		t.Fatal("freeing a foreign buffer should fail")
	}
}

func TestBufferViews(t *testing.T) {
	t.Parallel()

	dev := newDevice(t, 4096)
	b, err := dev.Alloc(100)
	if err != nil {
		t.Fatalf("alloc: %v", err)
	}
	// Sizes round up to the allocation alignment.
	if b.Size() != 128 {
		t.Fatalf("size: got %d, want 128", b.Size())
	}
	f := b.Float32s()
	if len(f) != 32 {
		t.Fatalf("float32 view length: got %d, want 32", len(f))
	}
	f[0] = 1.5
	f[31] = -2.25
	again := b.Float32s()
	if again[0] != 1.5 || again[31] != -2.25 {
		t.Fatal("float32 view does not alias the buffer")
	}

	var zero Buffer
	if !zero.IsNil() {
		t.Fatal("zero buffer should be nil")
	}
	if zero.Bytes() != nil || zero.Float32s() != nil {
		t.Fatal("zero buffer views should be nil")
	}
}

func TestCloseInvalidatesDevice(t *testing.T) {
	t.Parallel()

	dev, err := New(4096)
	if err != nil {
		t.Fatalf("new device: %v", err)
	}
	if err := dev.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := dev.Alloc(64); err == nil {
		t.Fatal("alloc on closed device should fail")
	}
	if err := dev.Close(); err != nil {
		t.Fatalf("second close should be a no-op, got %v", err)
	}
}
