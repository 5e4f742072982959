package main

import (
	"context"
	"fmt"
	"os"

	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/gantry/internal/api"
)

func kernelsCmd() *cli.Command {
	var asJSON bool

	return &cli.Command{
		Name:  "kernels",
		Usage: "List the registered kernel specializations",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "emit JSON", Destination: &asJSON},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			infos := api.KernelList()
			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(infos)
			}

			fmt.Printf("%-28s %6s %6s %6s %8s\n", "name", "a", "b", "c", "split-k")
			for _, info := range infos {
				fmt.Printf("%-28s %6s %6s %6s %8v\n",
					info.Name, info.LayoutA, info.LayoutB, info.LayoutC, info.SplitK)
			}
			return nil
		},
	}
}
