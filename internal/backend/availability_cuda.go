//go:build cuda

package backend

func Has(name string) bool {
	switch name {
	case CUDA, Sim:
		return true
	default:
		return false
	}
}
