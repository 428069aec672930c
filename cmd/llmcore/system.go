package main

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"llmcore/internal/engine"
)

func newSystemCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "system",
		Short: "Show backend, GPU and CPU details",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := a.newManager()
			if err != nil {
				return err
			}
			defer mgr.Close()
			s := mgr.System()
			gpu := "none"
			if s.GPU {
				gpu = s.GPUBackend
			}
			tw := a.newTable()
			tw.AppendRows([]table.Row{
				{"version", s.Version},
				{"backend", s.Backend + " " + s.BackendVersion},
				{"gpu", gpu},
				{"vram", humanBytes(s.VRAMBytes)},
				{"cpu", s.CPUBrand},
				{"cores", fmt.Sprintf("%d physical, %d logical", s.PhysicalCores, s.LogicalCores)},
				{"default threads", s.DefaultThreads},
				{"cpu features", strings.Join(s.CPUFeatures, " ")},
			})
			tw.Render()
			return nil
		},
	}
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the llmcore version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(a.out, engine.Version)
		},
	}
}
