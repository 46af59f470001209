package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/mrsinham/calciumforge/cmd/calciumforge/wizard"
	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calciumforge",
		Short: "Generate synthetic calcium-imaging datasets with ground truth",
		Long: `calciumforge generates synthetic two-photon calcium-imaging movies together
with their ground truth: cell footprints, spike trains, calcium traces and
a correlated background. Datasets are written as a SQLite store, HDF5 or a
DICOM series.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(
		newGenerateCmd(),
		newInspectCmd(),
		newParseDescriptionCmd(),
		newWizardCmd(),
		newVersionCmd(),
	)
	return cmd
}

func newWizardCmd() *cobra.Command {
	var from string
	cmd := &cobra.Command{
		Use:   "wizard",
		Short: "Configure and run a generation interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return wizard.Run(from)
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "Start from a YAML configuration file")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "calciumforge %s\n", version)
		},
	}
}
