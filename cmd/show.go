package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/synapse/internal/config"
	"github.com/papapumpkin/synapse/internal/model"
	"github.com/papapumpkin/synapse/internal/ui"
)

var showCmd = &cobra.Command{
	Use:   "show <model.toml>",
	Short: "Render a model's consideration queue",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	applyFlagOverrides(cmd, &cfg)

	m, err := model.Load(args[0])
	if err != nil {
		return err
	}
	g, err := m.Graph()
	if err != nil {
		return err
	}
	layers, err := g.Layers()
	if err != nil {
		return err
	}

	subnets, err := g.Subnetworks()
	if err != nil {
		return err
	}

	r := &ui.QueueRenderer{UseColor: !cfg.NoColor}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s\n\n", m.Network.Name)
	fmt.Fprint(out, r.Render(layers))
	if rendered := r.RenderSubnetworks(subnets); rendered != "" {
		fmt.Fprintln(out)
		fmt.Fprint(out, rendered)
	}
	return nil
}
