package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/edp1096/toy-acdc/internal/config"
)

var (
	// Global flags
	configPath string
	verbose    bool

	// run flags
	plotPath    string
	workers     int
	printSystem bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "acdc",
	Short: "Linear DC and AC circuit solver",
	Long: `acdc solves linear circuits described by a SPICE style netlist using
modified nodal analysis.

Supported directives: .op, .dc SRC START STOP STEP, .ac DEC|OCT|LIN N FSTART FSTOP

Examples:
  acdc run divider.cir                   # Operating point
  acdc run filter.cir --plot bode.png    # AC sweep with a Bode plot
  acdc run filter.cir --workers 4 -v     # Bounded parallel sweep, debug logs`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}

		level, err := cfg.LogLevel()
		if err != nil {
			return err
		}
		zcfg := zap.NewProductionConfig()
		zcfg.Level = zap.NewAtomicLevelAt(level)
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		}
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var runCmd = &cobra.Command{
	Use:   "run <netlist>",
	Short: "Parse a netlist and run its analysis",
	Args:  cobra.ExactArgs(1),
	RunE:  runNetlist,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "acdc.yaml", "config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runCmd.Flags().StringVar(&plotPath, "plot", "", "write a Bode plot PNG for .ac runs")
	runCmd.Flags().IntVarP(&workers, "workers", "j", 0, "concurrent sweep samples (default from config)")
	runCmd.Flags().BoolVar(&printSystem, "print-system", false, "print the MNA equations before solving")

	rootCmd.AddCommand(runCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
