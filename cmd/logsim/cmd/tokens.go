package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pborges/logsim/internal/scanner"
)

func newTokensCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tokens <file>",
		Short: "Print the token stream of a circuit definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := newSession(cmd, opts); err != nil {
				return err
			}
			src, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			s := scanner.New(src, scanner.DefaultVocabulary())
			toks, err := s.Tokens()
			w := cmd.OutOrStdout()
			for _, tok := range toks {
				fmt.Fprintf(w, "%-16s %-8s %s\n", s.Decode(tok), tok.Kind, tok.Pos())
			}
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			return nil
		},
	}
}
