package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/papapumpkin/synapse/internal/config"
	"github.com/papapumpkin/synapse/internal/ledger"
	"github.com/papapumpkin/synapse/internal/ui"
)

const chainModel = `
[network]
name = "chain"

[[mechanism]]
name = "A"

[[mechanism]]
name = "B"
condition = { kind = "every_n_calls", node = "A", n = 2 }

[[projection]]
sender = "A"
receiver = "B"

[termination]
trial = { kind = "after_n_calls", node = "B", n = 1 }
`

func writeModel(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "network.synapse.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing model: %v", err)
	}
	return path
}

func quietPrinter() *ui.Printer {
	return &ui.Printer{Quiet: true, NoColor: true}
}

func TestRunOnce_RecordsLedgerAndTrace(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Config{
		LedgerPath: filepath.Join(dir, "ledger.db"),
		TracePath:  filepath.Join(dir, "trace.jsonl"),
		Quiet:      true,
	}
	ctx := context.Background()

	if err := runOnce(ctx, writeModel(t, chainModel), &cfg, quietPrinter()); err != nil {
		t.Fatalf("runOnce: %v", err)
	}

	store, err := ledger.Open(ctx, cfg.LedgerPath)
	if err != nil {
		t.Fatalf("opening ledger: %v", err)
	}
	defer store.Close()

	runs, err := store.Runs(ctx, 0)
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("got %d runs, want 1", len(runs))
	}
	if runs[0].Status != ledger.StatusDone {
		t.Errorf("run status = %q, want %q", runs[0].Status, ledger.StatusDone)
	}
	// A, A, B.
	if runs[0].TimeSteps != 3 {
		t.Errorf("time steps = %d, want 3", runs[0].TimeSteps)
	}

	steps, err := store.Steps(ctx, runs[0].ID)
	if err != nil {
		t.Fatalf("Steps: %v", err)
	}
	if len(steps) != 3 || steps[2].Fired[0] != "B" {
		t.Errorf("recorded steps = %+v", steps)
	}

	data, err := os.ReadFile(cfg.TracePath)
	if err != nil {
		t.Fatalf("reading trace: %v", err)
	}
	out := string(data)
	for _, kind := range []string{"run_start", "time_step", "run_done"} {
		if !strings.Contains(out, kind) {
			t.Errorf("trace missing %q events:\n%s", kind, out)
		}
	}
}

func TestRunOnce_CreatesLedgerDirectory(t *testing.T) {
	// The default ledger path lives under a dot-directory that does not
	// exist in a fresh working directory.
	dir := t.TempDir()
	cfg := config.Config{
		LedgerPath: filepath.Join(dir, ".synapse", "ledger.db"),
		Quiet:      true,
	}

	if err := runOnce(context.Background(), writeModel(t, chainModel), &cfg, quietPrinter()); err != nil {
		t.Fatalf("runOnce with fresh ledger directory: %v", err)
	}
	if _, err := os.Stat(cfg.LedgerPath); err != nil {
		t.Errorf("ledger database not created: %v", err)
	}
}

func TestRunOnce_MaxPassesGuard(t *testing.T) {
	// A mechanism that never fires with an unreachable default
	// termination: the driver guard has to cut the trial off.
	stuck := `
[[mechanism]]
name = "A"
condition = { kind = "never" }
`
	cfg := config.Config{MaxPasses: 5, Quiet: true}

	err := runOnce(context.Background(), writeModel(t, stuck), &cfg, quietPrinter())
	if !errors.Is(err, errMaxPasses) {
		t.Errorf("got %v, want errMaxPasses", err)
	}
}

func TestRunOnce_MissingModel(t *testing.T) {
	cfg := config.Config{Quiet: true}
	err := runOnce(context.Background(), filepath.Join(t.TempDir(), "absent.toml"), &cfg, quietPrinter())
	if err == nil {
		t.Fatal("runOnce accepted a missing model file")
	}
}

func TestValidateCommand(t *testing.T) {
	t.Run("valid model", func(t *testing.T) {
		if err := runValidate(validateCmd, []string{writeModel(t, chainModel)}); err != nil {
			t.Errorf("runValidate: %v", err)
		}
	})

	t.Run("cyclic model", func(t *testing.T) {
		cyclic := `
[[mechanism]]
name = "A"
[[mechanism]]
name = "B"
[[projection]]
sender = "A"
receiver = "B"
[[projection]]
sender = "B"
receiver = "A"
`
		err := runValidate(validateCmd, []string{writeModel(t, cyclic)})
		if !errors.Is(err, errInvalidModel) {
			t.Errorf("got %v, want errInvalidModel", err)
		}
	})
}

func TestShowCommand(t *testing.T) {
	var buf bytes.Buffer
	showCmd.SetOut(&buf)
	defer showCmd.SetOut(nil)

	if err := runShow(showCmd, []string{writeModel(t, chainModel)}); err != nil {
		t.Fatalf("runShow: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "chain") {
		t.Errorf("output missing network name:\n%s", out)
	}
	if !strings.Contains(out, "[A]") || !strings.Contains(out, "[B]") {
		t.Errorf("output missing queue boxes:\n%s", out)
	}
}
