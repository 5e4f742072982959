// Package backend names and resolves the execution backends a launch can
// target: the simulated device that is always present, and real CUDA when the
// binary is built with the cuda tag.
package backend

import (
	"fmt"
	"strings"
)

const (
	Sim  = "sim"
	CUDA = "cuda"
	Auto = "auto"
)

// Normalize canonicalizes a user-supplied backend name.
func Normalize(name string) (string, error) {
	backend := strings.ToLower(strings.TrimSpace(name))
	if backend == "" {
		return Auto, nil
	}
	switch backend {
	case Sim, CUDA, Auto:
		return backend, nil
	default:
		return "", fmt.Errorf("unknown backend %q (expected auto, sim, or cuda)", backend)
	}
}

// Select resolves a normalized name to a concrete backend, preferring CUDA
// for auto when this build carries it.
func Select(name string) (string, error) {
	switch name {
	case Auto:
		if Has(CUDA) {
			return CUDA, nil
		}
		return Sim, nil
	case Sim:
		return Sim, nil
	case CUDA:
		if !Has(CUDA) {
			return "", fmt.Errorf("cuda backend is not available in this build")
		}
		return CUDA, nil
	default:
		return "", fmt.Errorf("unknown backend %q", name)
	}
}
