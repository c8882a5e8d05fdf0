package main

import (
	"github.com/Aethermaxx/ChefCulina/internal/infrastructure/container"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fx.New(container.Module(opts.configPath))
			if err := app.Err(); err != nil {
				return err
			}
			// Run blocks until SIGINT or SIGTERM and then stops the app.
			app.Run()
			return nil
		},
	}
}
