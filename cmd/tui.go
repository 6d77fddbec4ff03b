package cmd

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/papapumpkin/synapse/internal/model"
	"github.com/papapumpkin/synapse/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui <model.toml>",
	Short: "Step through a run interactively",
	Args:  cobra.ExactArgs(1),
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	m, err := model.Load(args[0])
	if err != nil {
		return err
	}
	s, term, err := m.Build()
	if err != nil {
		return err
	}

	view, err := tui.New(m.Network.Name, s, term)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(view, tea.WithAltScreen()).Run()
	return err
}
