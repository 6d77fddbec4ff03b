package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/synapse/internal/config"
	"github.com/papapumpkin/synapse/internal/ledger"
	"github.com/papapumpkin/synapse/internal/model"
	"github.com/papapumpkin/synapse/internal/sched"
	"github.com/papapumpkin/synapse/internal/trace"
	"github.com/papapumpkin/synapse/internal/ui"
)

// errMaxPasses aborts a runaway trial at the driver level.
var errMaxPasses = errors.New("max passes exceeded")

var runCmd = &cobra.Command{
	Use:   "run <model.toml>",
	Short: "Run one trial of a network model",
	Args:  cobra.ExactArgs(1),
	RunE:  runRun,
}

func init() {
	runCmd.Flags().String("trace", "", "append run events to a JSONL trace file")
	runCmd.Flags().String("ledger", "", "record the run in a SQLite ledger")
	runCmd.Flags().Int("max-passes", 0, "abort after this many passes (0 = config default)")
	runCmd.Flags().BoolP("watch", "w", false, "re-run whenever the model file changes")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	applyFlagOverrides(cmd, &cfg)
	printer := &ui.Printer{Quiet: cfg.Quiet, NoColor: cfg.NoColor}

	modelPath := args[0]
	watch, _ := cmd.Flags().GetBool("watch")

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := runOnce(ctx, modelPath, &cfg, printer); err != nil && !watch {
		return err
	} else if err != nil {
		printer.Error(err.Error())
	}
	if !watch {
		return nil
	}

	w, err := model.NewWatcher(modelPath)
	if err != nil {
		return fmt.Errorf("watching %s: %w", modelPath, err)
	}
	if err := w.Start(); err != nil {
		return fmt.Errorf("watching %s: %w", modelPath, err)
	}
	defer w.Stop()

	printer.Watching(modelPath)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.Changes:
			printer.Info("model changed, re-running")
			if err := runOnce(ctx, modelPath, &cfg, printer); err != nil {
				printer.Error(err.Error())
			}
			printer.Watching(modelPath)
		}
	}
}

// applyFlagOverrides applies CLI flag values to the loaded config.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	if v, _ := cmd.Flags().GetString("trace"); v != "" {
		cfg.TracePath = v
	}
	if v, _ := cmd.Flags().GetString("ledger"); v != "" {
		cfg.LedgerPath = v
	}
	if v, _ := cmd.Flags().GetInt("max-passes"); v > 0 {
		cfg.MaxPasses = v
	}
	if v, _ := rootCmd.PersistentFlags().GetBool("quiet"); v {
		cfg.Quiet = true
	}
	if v, _ := rootCmd.PersistentFlags().GetBool("no-color"); v {
		cfg.NoColor = true
	}
}

// runOnce loads the model, drives one trial to completion, and records it.
func runOnce(ctx context.Context, modelPath string, cfg *config.Config, printer *ui.Printer) error {
	m, err := model.Load(modelPath)
	if err != nil {
		return err
	}
	s, term, err := m.Build()
	if err != nil {
		return err
	}

	var emitter *trace.Emitter
	if cfg.TracePath != "" {
		emitter, err = trace.NewEmitter(cfg.TracePath)
		if err != nil {
			return err
		}
		defer emitter.Close()
	}

	var store *ledger.Store
	var runID int64
	if useLedger := cfg.LedgerPath != ""; useLedger {
		store, err = ledger.Open(ctx, cfg.LedgerPath)
		if err != nil {
			return err
		}
		defer store.Close()
		runID, err = store.BeginRun(ctx, m.Network.Name, modelPath)
		if err != nil {
			return err
		}
	}

	printer.RunStart(m.Network.Name, len(s.Nodes()))
	steps, runErr := driveRun(ctx, s, term, cfg.MaxPasses, printer, emitter, store, runID)

	if store != nil {
		status := ledger.StatusDone
		if runErr != nil {
			status = ledger.StatusError
		}
		if err := store.FinishRun(ctx, runID, status, steps); err != nil {
			return err
		}
	}
	if runErr != nil {
		emitter.Emit(trace.Event{ //nolint:errcheck // trace failure must not mask the run error
			Timestamp: time.Now(),
			Kind:      trace.KindRunError,
			Network:   m.Network.Name,
			Data:      map[string]string{"error": runErr.Error()},
		})
		return runErr
	}
	printer.RunDone(steps)
	return emitter.Emit(trace.Event{
		Timestamp: time.Now(),
		Kind:      trace.KindRunDone,
		Network:   m.Network.Name,
		Data:      map[string]int{"time_steps": steps},
	})
}

// driveRun pulls the generator to completion, printing and recording each
// time-step. It returns the number of time-steps produced.
func driveRun(ctx context.Context, s *sched.Scheduler, term map[sched.TimeScale]sched.Condition,
	maxPasses int, printer *ui.Printer, emitter *trace.Emitter, store *ledger.Store, runID int64) (int, error) {

	run, err := s.Run(term)
	if err != nil {
		return 0, err
	}
	defer run.Stop()

	for _, w := range run.Warnings() {
		printer.Warning(w)
	}
	if err := emitter.Emit(trace.Event{
		Timestamp: time.Now(),
		Kind:      trace.KindRunStart,
		Trial:     s.Clock().Time(sched.ScaleRun, sched.ScaleTrial),
	}); err != nil {
		return 0, err
	}

	seq := 0
	for run.Next() {
		if err := ctx.Err(); err != nil {
			return seq, err
		}
		if maxPasses > 0 && s.Clock().Time(sched.ScaleTrial, sched.ScalePass) >= maxPasses {
			return seq, fmt.Errorf("%w: %d", errMaxPasses, maxPasses)
		}

		fired := run.Fired().Sorted()
		printer.TimeStep(seq, fired)
		if err := emitter.Emit(trace.Event{
			Timestamp: time.Now(),
			Kind:      trace.KindTimeStep,
			Trial:     s.Clock().Time(sched.ScaleRun, sched.ScaleTrial),
			TimeStep:  seq,
			Fired:     fired,
		}); err != nil {
			return seq, err
		}
		if store != nil {
			if err := store.RecordStep(ctx, runID, seq, fired); err != nil {
				return seq, err
			}
		}
		seq++
	}
	return seq, run.Err()
}
