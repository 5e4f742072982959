//go:build !linux

package device

// mapArena falls back to a heap-backed arena on platforms without the mmap path.
func mapArena(bytes int64) ([]byte, func([]byte) error, error) {
	return make([]byte, bytes), nil, nil
}
