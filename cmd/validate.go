package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/synapse/internal/config"
	"github.com/papapumpkin/synapse/internal/model"
	"github.com/papapumpkin/synapse/internal/ui"
)

var errInvalidModel = errors.New("model validation failed")

var validateCmd = &cobra.Command{
	Use:   "validate <model.toml>",
	Short: "Check a network model without running it",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	applyFlagOverrides(cmd, &cfg)
	printer := &ui.Printer{Quiet: cfg.Quiet, NoColor: cfg.NoColor}

	m, err := model.Load(args[0])
	if err != nil {
		return err
	}

	var errMsgs []string
	g, err := m.Graph()
	if err != nil {
		errMsgs = append(errMsgs, err.Error())
	}
	var layers [][]string
	if g != nil {
		if layers, err = g.Layers(); err != nil {
			errMsgs = append(errMsgs, err.Error())
		}
	}
	if _, _, err := m.Build(); err != nil && len(errMsgs) == 0 {
		errMsgs = append(errMsgs, err.Error())
	}

	printer.ValidateResult(m.Network.Name, len(m.Mechanisms), len(layers), errMsgs)
	if len(errMsgs) > 0 {
		return fmt.Errorf("%w: %s", errInvalidModel, args[0])
	}

	if g != nil {
		subnets, err := g.Subnetworks()
		if err != nil {
			return err
		}
		r := &ui.QueueRenderer{UseColor: !cfg.NoColor}
		if out := r.RenderSubnetworks(subnets); out != "" {
			fmt.Fprint(cmd.OutOrStdout(), out)
		}
	}
	return nil
}
