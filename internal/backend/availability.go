package backend

import "strings"

// Available returns a comma-separated list of backends this build supports.
func Available() string {
	entries := []string{Sim}
	if Has(CUDA) {
		entries = append(entries, CUDA)
	}
	return strings.Join(entries, ",")
}
