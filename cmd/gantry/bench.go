package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/samcharles93/gantry/internal/api"
)

type benchShape struct {
	M      int `yaml:"m"`
	N      int `yaml:"n"`
	K      int `yaml:"k"`
	SplitK int `yaml:"split_k"`
}

type benchSuite struct {
	Repeat int          `yaml:"repeat"`
	Shapes []benchShape `yaml:"shapes"`
}

func defaultSuite() benchSuite {
	return benchSuite{
		Repeat: 3,
		Shapes: []benchShape{
			{M: 256, N: 256, K: 256},
			{M: 512, N: 512, K: 512},
			{M: 64, N: 64, K: 4096},
			{M: 64, N: 64, K: 4096, SplitK: 8},
		},
	}
}

func benchCmd() *cli.Command {
	var (
		suitePath string
		repeat    int64
		arenaMB   int64
	)

	return &cli.Command{
		Name:  "bench",
		Usage: "Run a suite of GEMM shapes and report throughput",
		Flags: append(commonFlags(),
			&cli.StringFlag{Name: "suite", Usage: "path to a YAML shape suite", Destination: &suitePath},
			&cli.Int64Flag{Name: "repeat", Usage: "runs per shape (best is reported)", Destination: &repeat},
			&cli.Int64Flag{Name: "arena-mb", Value: 512, Usage: "simulated device arena size in MiB", Destination: &arenaMB},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := LoadConfig()
			applyCommonConfig(cmd, cfg)
			applyArenaConfig(cmd, cfg, &arenaMB)
			log := newLog()

			suite := defaultSuite()
			if suitePath != "" {
				data, err := os.ReadFile(suitePath)
				if err != nil {
					return fmt.Errorf("read suite: %w", err)
				}
				if err := yaml.Unmarshal(data, &suite); err != nil {
					return fmt.Errorf("parse suite: %w", err)
				}
			}
			if cmd.IsSet("repeat") {
				suite.Repeat = int(repeat)
			}
			if suite.Repeat < 1 {
				suite.Repeat = 1
			}
			if len(suite.Shapes) == 0 {
				return fmt.Errorf("suite has no shapes")
			}

			svc, err := api.NewLaunchService(log, arenaMB<<20)
			if err != nil {
				return err
			}
			defer svc.Close()

			fmt.Printf("%-18s %8s %-26s %10s %12s\n", "problem", "split-k", "kernel", "ms", "gflops")
			for _, shape := range suite.Shapes {
				best, err := benchShapeRun(svc, shape, suite.Repeat)
				if err != nil {
					return fmt.Errorf("shape %dx%dx%d: %w", shape.M, shape.N, shape.K, err)
				}
				fmt.Printf("%-18s %8d %-26s %10.3f %12.2f\n",
					fmt.Sprintf("%dx%dx%d", shape.M, shape.N, shape.K),
					best.SplitK, best.Kernel, best.DurationMS, best.GFlops)
			}
			return nil
		},
	}
}

func benchShapeRun(svc *api.LaunchService, shape benchShape, repeat int) (api.Launch, error) {
	var best api.Launch
	for i := 0; i < repeat; i++ {
		launch, err := svc.Run(&api.LaunchRequest{
			M: shape.M, N: shape.N, K: shape.K,
			SplitKSlices: shape.SplitK,
			Seed:         int64(i + 1),
		})
		if err != nil {
			return api.Launch{}, err
		}
		if launch.Status != "completed" {
			return api.Launch{}, fmt.Errorf("launch failed: %s", launch.Error)
		}
		if best.ID == "" || launch.DurationMS < best.DurationMS {
			best = launch
		}
	}
	return best, nil
}
