// Command framefsm drives the demo player machine headlessly, either frame
// by frame from a script or in real time, and records a trace of every
// callback.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/comalice/framefsm/internal/config"
)

var (
	envFile     string
	scriptPath  string
	frames      int
	realtime    bool
	dotPath     string
	metricsAddr string
)

var rootCmd = &cobra.Command{
	Use:   "framefsm",
	Short: "Frame-driven state machine harness",
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the demo player machine",
	Long: `The run command builds the demo player machine, steps it for a number of
frames while feeding scripted inputs, and saves the recorded trace.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(envFile)
		if err != nil {
			return fmt.Errorf("error loading config: %w", err)
		}
		if cmd.Flags().Changed("metrics-addr") {
			cfg.MetricsAddr = metricsAddr
		}

		var script config.Script
		if scriptPath != "" {
			if script, err = config.LoadScript(scriptPath); err != nil {
				return fmt.Errorf("error loading script: %w", err)
			}
		}

		return run(cmd.Context(), cfg, runOptions{
			Script:   script,
			Frames:   frames,
			Realtime: realtime,
			DOTPath:  dotPath,
		}, cmd.OutOrStdout())
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate <script>",
	Short: "Check an input script",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		script, err := config.LoadScript(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d inputs over %d frames\n", args[0], len(script.Inputs), script.Frames)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Dotenv file to load before reading FRAMEFSM_* variables")
	runCmd.Flags().StringVarP(&scriptPath, "script", "s", "", "YAML input script")
	runCmd.Flags().IntVarP(&frames, "frames", "n", 0, "Number of frames to run (overrides FRAMEFSM_FRAMES and the script)")
	runCmd.Flags().BoolVar(&realtime, "realtime", false, "Drive the loop from a ticker instead of stepping as fast as possible")
	runCmd.Flags().StringVar(&dotPath, "dot", "", "Write a Graphviz diagram of the observed transitions to this file")
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve prometheus metrics on this address while running")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
