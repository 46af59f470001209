package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mrsinham/calciumforge/internal/metadata"
	"github.com/mrsinham/calciumforge/internal/persist"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <dataset.db>",
		Short: "Print the structure of a stored dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := persist.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, args[0])
			persist.Walk(m, func(path string, value any) {
				depth := strings.Count(path, "/") - 1
				name := path[strings.LastIndex(path, "/")+1:]
				fmt.Fprintf(out, "%s%-*s %s\n", strings.Repeat("  ", depth+1), 24-2*depth, name, persist.Describe(value))
			})
			return nil
		},
	}
}

func newParseDescriptionCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "parse-description <file|->",
		Short: "Parse a ScanImage-style image description into JSON or YAML",
		Long: `parse-description reads "key = value" lines, as embedded in the image
description of ScanImage TIFF files, and prints them as typed values.
Use "-" to read from standard input.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("reading description: %w", err)
				}
				defer f.Close()
				r = f
			}

			desc, err := metadata.ParseDescription(r)
			if err != nil {
				return err
			}
			return writeDescription(cmd.OutOrStdout(), desc, format)
		},
	}
	cmd.Flags().StringVar(&format, "output", "json", "Output format: json or yaml")
	return cmd
}

func writeDescription(w io.Writer, desc metadata.Description, format string) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(desc)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(map[string]any(desc)); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q: expected json or yaml", format)
	}
}
