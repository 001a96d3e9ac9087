package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/qslice/pipedeck/internal/backend"
	"github.com/qslice/pipedeck/internal/config"
)

func newScenariosCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scenarios",
		Short: "List the demo scenarios offered by the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}
			api := backend.NewClient(cfg.Backend.HTTPBase(), cfg.Backend.APIKey, log)
			scenarios := api.Scenarios()
			if len(scenarios) == 0 {
				return fmt.Errorf("no scenarios from %s (is the backend running?)", cfg.Backend.HTTPBase())
			}
			for _, sc := range scenarios {
				turns := len(sc.Turns())
				fmt.Printf("%2d. %-28s %d turn(s)  customer %s\n", sc.ID, sc.Name, turns, sc.CustomerID)
				if sc.Description != "" {
					fmt.Printf("    %s\n", sc.Description)
				}
			}
			return nil
		},
	}
}
