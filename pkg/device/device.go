// Package device provides the simulated execution substrate the gantry launch
// layer runs against: a Device with a fixed arena of device memory, Buffer
// handles carved out of it, and Streams that execute enqueued work
// asynchronously in FIFO order.
//
// The model mirrors the CUDA runtime surface the real backend wraps: memory is
// allocated and freed explicitly, streams are ordered queues, and completion is
// observed through Synchronize rather than through the enqueue call.
package device

import (
	"fmt"
	"sort"
	"sync"
	"unsafe"
)

// allocAlign is the alignment of every buffer handed out by Alloc.
const allocAlign = 64

// Device owns a fixed-size arena of simulated device memory.
//
// On linux the arena is an anonymous mmap region so large test devices do not
// count against the Go heap; elsewhere it falls back to a heap slice.
type Device struct {
	mu    sync.Mutex
	arena []byte
	unmap func([]byte) error

	free []span          // free spans, sorted by offset
	used map[int64]int64 // offset -> size of live allocations
}

type span struct {
	off  int64
	size int64
}

// New creates a device with an arena of at least the given number of bytes.
func New(arenaBytes int64) (*Device, error) {
	if arenaBytes <= 0 {
		return nil, fmt.Errorf("device arena size must be > 0")
	}
	arenaBytes = alignUp(arenaBytes)
	arena, unmap, err := mapArena(arenaBytes)
	if err != nil {
		return nil, fmt.Errorf("device arena map failed: %w", err)
	}
	return &Device{
		arena: arena,
		unmap: unmap,
		free:  []span{{off: 0, size: int64(len(arena))}},
		used:  make(map[int64]int64),
	}, nil
}

// Close releases the arena. Outstanding buffers become invalid, and buffer
// views are not synchronized against Close: destroy every stream bound to
// this device first, so no work item can touch the arena while it is
// unmapped.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.arena == nil {
		return nil
	}
	arena := d.arena
	d.arena = nil
	d.free = nil
	d.used = nil
	if d.unmap != nil {
		return d.unmap(arena)
	}
	return nil
}

// Alloc carves a buffer out of the arena using first-fit placement.
func (d *Device) Alloc(bytes int64) (Buffer, error) {
	if bytes <= 0 {
		return Buffer{}, fmt.Errorf("device alloc size must be > 0")
	}
	bytes = alignUp(bytes)

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.arena == nil {
		return Buffer{}, fmt.Errorf("device is closed")
	}
	for i, s := range d.free {
		if s.size < bytes {
			continue
		}
		off := s.off
		if s.size == bytes {
			d.free = append(d.free[:i], d.free[i+1:]...)
		} else {
			d.free[i] = span{off: s.off + bytes, size: s.size - bytes}
		}
		d.used[off] = bytes
		return Buffer{dev: d, off: off, size: bytes}, nil
	}
	return Buffer{}, fmt.Errorf("device out of memory: need %d bytes, arena %d", bytes, len(d.arena))
}

// Free returns a buffer's span to the arena. Freeing the zero Buffer is a no-op.
func (d *Device) Free(b Buffer) error {
	if b.IsNil() {
		return nil
	}
	if b.dev != d {
		return fmt.Errorf("buffer does not belong to this device")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	size, ok := d.used[b.off]
	if !ok {
		return fmt.Errorf("double free or foreign buffer at offset %d", b.off)
	}
	delete(d.used, b.off)
	d.free = append(d.free, span{off: b.off, size: size})
	sort.Slice(d.free, func(i, j int) bool { return d.free[i].off < d.free[j].off })
	d.coalesce()
	return nil
}

// coalesce merges adjacent free spans. Caller holds d.mu.
func (d *Device) coalesce() {
	out := d.free[:0]
	for _, s := range d.free {
		if n := len(out); n > 0 && out[n-1].off+out[n-1].size == s.off {
			out[n-1].size += s.size
			continue
		}
		out = append(out, s)
	}
	d.free = out
}

// LiveAllocs reports the number of outstanding allocations.
func (d *Device) LiveAllocs() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.used)
}

// ArenaBytes reports the arena capacity.
func (d *Device) ArenaBytes() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.arena))
}

// Buffer is a non-owning handle to a span of device memory. The zero value is
// the absent buffer, used by the launch layer to signal "no view here".
type Buffer struct {
	dev  *Device
	off  int64
	size int64
}

// IsNil reports whether this is the absent buffer.
func (b Buffer) IsNil() bool { return b.dev == nil }

// Size returns the buffer size in bytes (after alignment rounding).
func (b Buffer) Size() int64 { return b.size }

// Bytes exposes the underlying span. The slice aliases device memory and is
// only valid while the device is open and the buffer not freed; see Close for
// the stream-teardown ordering this relies on.
func (b Buffer) Bytes() []byte {
	if b.IsNil() {
		return nil
	}
	return b.dev.arena[b.off : b.off+b.size : b.off+b.size]
}

// Float32s views the buffer as a float32 slice.
func (b Buffer) Float32s() []float32 {
	raw := b.Bytes()
	if len(raw) == 0 {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&raw[0])), len(raw)/4)
}

func alignUp(n int64) int64 {
	return (n + allocAlign - 1) &^ (allocAlign - 1)
}
