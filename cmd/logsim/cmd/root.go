package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pborges/logsim/internal/config"
	"github.com/pborges/logsim/internal/diag"
	"github.com/pborges/logsim/internal/logging"
	"github.com/pborges/logsim/internal/parse"
	"github.com/pborges/logsim/internal/scanner"
)

type rootOptions struct {
	cfgFile string
	envFile string
	verbose bool
	noColor bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "logsim",
		Short: "logsim - logic circuit definition checker",
		Long: `logsim reads a circuit definition file (DEVICES, CONNECTIONS and
MONITORS sections), reports every syntax and semantic fault it finds and,
when the definition is clean, builds the circuit and writes its netlist.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (TOML or YAML)")
	root.PersistentFlags().StringVar(&opts.envFile, "env", ".env", "dotenv file with LOGSIM_* overrides")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")
	root.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "disable coloured diagnostics")

	root.AddCommand(
		newCheckCmd(opts),
		newBuildCmd(opts),
		newTokensCmd(opts),
		newVersionCmd(),
	)
	return root
}

func Execute() error {
	return newRootCmd().Execute()
}

// session is the per-invocation state shared by the subcommands.
type session struct {
	cfg    config.Config
	logger *slog.Logger
	runID  string
}

func newSession(cmd *cobra.Command, opts *rootOptions) (*session, error) {
	cfg := config.Default()
	if opts.cfgFile != "" {
		var err error
		if cfg, err = config.Load(opts.cfgFile); err != nil {
			return nil, err
		}
	}
	cfg, err := config.LoadEnv(cfg, opts.envFile)
	if err != nil {
		return nil, err
	}
	if opts.verbose {
		cfg.Log.Level = "debug"
	}
	if opts.noColor {
		cfg.Diagnostics.Color = false
	}

	runID := uuid.NewString()
	logger := logging.New(cfg.Log, cmd.ErrOrStderr()).With("run_id", runID)
	logger.Debug("session started", "command", cmd.Name(), "config", opts.cfgFile)
	return &session{cfg: cfg, logger: logger, runID: runID}, nil
}

// parseFile runs the parser over path, feeding b, and prints diagnostics
// as they are found.
func (s *session) parseFile(cmd *cobra.Command, path string, b parse.Builder) (*parse.Parser, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	log := s.logger.With("file", path)

	var printer *diag.Printer
	opts := []parse.Option{parse.WithLogger(log)}
	if s.cfg.Diagnostics.Enabled {
		printer = diag.NewPrinter(cmd.ErrOrStderr(), s.cfg.Diagnostics.Color)
		printer.File = path
		opts = append(opts, parse.WithReporter(printer))
	}

	p := parse.New(scanner.New(src, scanner.DefaultVocabulary()), b, opts...)
	err = p.ParseNetwork()

	var failure *parse.Failure
	if errors.As(err, &failure) {
		if printer != nil {
			printer.Summary(failure.Counts)
		}
		log.Info("definition rejected", "errors", failure.Total())
		return p, fmt.Errorf("%s: %w", path, err)
	}
	if err != nil {
		return p, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}
