//go:build !cuda

package main

import (
	"fmt"

	"github.com/samcharles93/gantry/internal/logger"
)

func runCUDA(logger.Logger, int, int, int, float32, float32, int64) error {
	return fmt.Errorf("cuda backend is not available in this build")
}
