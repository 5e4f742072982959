//go:build linux

package device

import "golang.org/x/sys/unix"

// mapArena reserves the device arena as an anonymous private mapping so large
// simulated devices stay off the Go heap.
func mapArena(bytes int64) ([]byte, func([]byte) error, error) {
	data, err := unix.Mmap(
		-1,
		0,
		int(bytes),
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANONYMOUS,
	)
	if err != nil {
		return nil, nil, err
	}
	return data, unix.Munmap, nil
}
