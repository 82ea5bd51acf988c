package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pborges/logsim/internal/circuit"
)

func newCheckCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check <file>",
		Short: "Report every fault in a circuit definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, opts)
			if err != nil {
				return err
			}
			n := circuit.NewNetwork(circuit.WithLogger(s.logger))
			p, err := s.parseFile(cmd, args[0], n)
			if err != nil {
				return err
			}
			if err := n.Check(); err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d devices, %d connections, %d monitors)\n",
				args[0], len(p.Devices()), len(p.Connections()), len(p.Monitors()))
			return nil
		},
	}
}
