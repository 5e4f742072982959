package kernels

import (
	"fmt"
	"sync"

	"github.com/samcharles93/gantry/pkg/gemm"
)

// The registry is the configuration-time catalogue of built specializations.
// Selection is first-fit only; shape-aware heuristics and autotuning belong
// to the dispatch layer above, not here.
var (
	regMu     sync.RWMutex
	regOrder  []gemm.Specialization
	regByName = make(map[string]gemm.Specialization)
)

// Register adds a specialization. Registering a duplicate name panics, since
// the set is assembled once at startup.
func Register(s gemm.Specialization) {
	regMu.Lock()
	defer regMu.Unlock()
	if _, dup := regByName[s.Name()]; dup {
		panic("kernels: duplicate specialization " + s.Name())
	}
	regByName[s.Name()] = s
	regOrder = append(regOrder, s)
}

// Find returns the specialization with the given name.
func Find(name string) (gemm.Specialization, bool) {
	regMu.RLock()
	defer regMu.RUnlock()
	s, ok := regByName[name]
	return s, ok
}

// List returns the registered specializations in registration order.
func List() []gemm.Specialization {
	regMu.RLock()
	defer regMu.RUnlock()
	out := make([]gemm.Specialization, len(regOrder))
	copy(out, regOrder)
	return out
}

// Default returns the first registered specialization that can implement the
// argument record.
func Default(args *gemm.Arguments) (gemm.Specialization, error) {
	regMu.RLock()
	defer regMu.RUnlock()
	for _, s := range regOrder {
		if s.CanImplement(args) == gemm.StatusSuccess {
			return s, nil
		}
	}
	return nil, fmt.Errorf("kernels: no specialization can implement problem %s (split=%d, layouts %s/%s)",
		args.Problem, args.SplitKSlices, args.A.Layout, args.B.Layout)
}

func init() {
	layouts := []struct{ a, b gemm.Layout }{
		{gemm.RowMajor, gemm.RowMajor},
		{gemm.RowMajor, gemm.ColMajor},
		{gemm.ColMajor, gemm.RowMajor},
		{gemm.ColMajor, gemm.ColMajor},
	}
	for _, l := range layouts {
		Register(newSimtSpec(l.a, l.b, DefaultTileConfig(), false))
	}
	Register(newSimtSpec(gemm.RowMajor, gemm.RowMajor, TileConfig{M: 64, N: 64, K: 16}, false))
	for _, l := range layouts {
		Register(newSimtSpec(l.a, l.b, DefaultTileConfig(), true))
	}
}
