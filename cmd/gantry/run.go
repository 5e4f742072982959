package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/gantry/internal/api"
	"github.com/samcharles93/gantry/internal/backend"
)

func runCmd() *cli.Command {
	var (
		m, n, k    int64
		layoutA    string
		layoutB    string
		alpha      float64
		beta       float64
		activation string
		bias       bool
		accumulate bool
		splitK     int64
		kernelName string
		seed       int64
		arenaMB    int64
	)

	return &cli.Command{
		Name:  "run",
		Usage: "Launch a single GEMM and report the result",
		Flags: append(commonFlags(),
			&cli.Int64Flag{Name: "m", Value: 256, Usage: "output rows", Destination: &m},
			&cli.Int64Flag{Name: "n", Value: 256, Usage: "output columns", Destination: &n},
			&cli.Int64Flag{Name: "k", Value: 256, Usage: "reduction depth", Destination: &k},
			&cli.StringFlag{Name: "layout-a", Value: "row", Usage: "layout of A (row, col)", Destination: &layoutA},
			&cli.StringFlag{Name: "layout-b", Value: "row", Usage: "layout of B (row, col)", Destination: &layoutB},
			&cli.FloatFlag{Name: "alpha", Value: 1, Usage: "epilogue alpha scale", Destination: &alpha},
			&cli.FloatFlag{Name: "beta", Value: 0, Usage: "epilogue beta scale", Destination: &beta},
			&cli.StringFlag{Name: "activation", Value: "identity", Usage: "fused activation (identity, relu, gelu)", Destination: &activation},
			&cli.BoolFlag{Name: "bias", Usage: "fuse a bias vector into the epilogue", Destination: &bias},
			&cli.BoolFlag{Name: "accumulate", Usage: "accumulate into existing output (beta path)", Destination: &accumulate},
			&cli.Int64Flag{Name: "split-k", Value: 1, Usage: "split-K slices (1 = ordinary GEMM)", Destination: &splitK},
			&cli.StringFlag{Name: "kernel", Usage: "pin a kernel specialization by name", Destination: &kernelName},
			&cli.Int64Flag{Name: "seed", Value: 42, Usage: "operand fill seed", Destination: &seed},
			&cli.Int64Flag{Name: "arena-mb", Value: 256, Usage: "simulated device arena size in MiB", Destination: &arenaMB},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := LoadConfig()
			applyCommonConfig(cmd, cfg)
			applyArenaConfig(cmd, cfg, &arenaMB)
			log := newLog()

			name, err := backend.Normalize(backendName)
			if err != nil {
				return err
			}
			selected, err := backend.Select(name)
			if err != nil {
				return err
			}
			log.Debug("backend selected", "backend", selected, "available", backend.Available())

			if selected == backend.CUDA {
				return runCUDA(log, int(m), int(n), int(k), float32(alpha), float32(beta), seed)
			}

			svc, err := api.NewLaunchService(log, arenaMB<<20)
			if err != nil {
				return err
			}
			defer svc.Close()

			a := float32(alpha)
			launch, err := svc.Run(&api.LaunchRequest{
				M: int(m), N: int(n), K: int(k),
				LayoutA:      layoutA,
				LayoutB:      layoutB,
				Alpha:        &a,
				Beta:         float32(beta),
				Activation:   activation,
				Bias:         bias,
				AccumulateC:  accumulate,
				SplitKSlices: int(splitK),
				Kernel:       kernelName,
				Seed:         seed,
			})
			if err != nil {
				return err
			}
			if launch.Status != "completed" {
				return fmt.Errorf("launch failed: %s", launch.Error)
			}

			fmt.Printf("kernel:    %s\n", launch.Kernel)
			fmt.Printf("problem:   %dx%dx%d (split-k %d)\n", launch.M, launch.N, launch.K, launch.SplitK)
			fmt.Printf("duration:  %.3f ms\n", launch.DurationMS)
			fmt.Printf("gflops:    %.2f\n", launch.GFlops)
			fmt.Printf("checksum:  %.6f\n", launch.Checksum)
			return nil
		},
	}
}
