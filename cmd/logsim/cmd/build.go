package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pborges/logsim"
	"github.com/pborges/logsim/internal/circuit"
	"github.com/pborges/logsim/internal/netlist"
)

func newBuildCmd(opts *rootOptions) *cobra.Command {
	var (
		outPath string
		format  string
	)
	cmd := &cobra.Command{
		Use:   "build <file>",
		Short: "Build a circuit definition and write its netlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, opts)
			if err != nil {
				return err
			}
			if format == "" {
				format = s.cfg.Output.Format
			}
			inPath := args[0]

			n := circuit.NewNetwork(circuit.WithLogger(s.logger))
			if _, err := s.parseFile(cmd, inPath, n); err != nil {
				return err
			}
			if err := n.Check(); err != nil {
				return fmt.Errorf("%s: %w", inPath, err)
			}

			var out []byte
			ext := ".net"
			switch format {
			case "text":
				out = []byte(netlist.Write(netlist.Config{Header: headerLines(inPath)}, n))
			case "yaml":
				if out, err = netlist.MarshalYAML(n); err != nil {
					return err
				}
				ext = ".yaml"
			default:
				return fmt.Errorf("unknown output format %q", format)
			}

			if outPath == "-" {
				_, err := cmd.OutOrStdout().Write(out)
				return err
			}
			if outPath == "" {
				outPath = strings.TrimSuffix(inPath, filepath.Ext(inPath)) + ext
			}
			s.logger.Info("writing netlist", "file", outPath, "format", format)
			return os.WriteFile(outPath, out, 0644)
		},
	}
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "output file, - for stdout (default <file>.net or <file>.yaml)")
	cmd.Flags().StringVar(&format, "format", "", "output format: text or yaml (default from config)")
	return cmd
}

func headerLines(inPath string) []string {
	return []string{
		fmt.Sprintf("logsim         %s", logsim.Version()),
		fmt.Sprintf("source         %s", filepath.Base(inPath)),
	}
}
