package main

import (
	"github.com/Aethermaxx/ChefCulina/internal/infrastructure/config"
	"github.com/Aethermaxx/ChefCulina/pkg/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

type rootOptions struct {
	configPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "chefculina",
		Short: "AI recipe generation service and cookbook tools",
		Long: `ChefCulina turns pantry ingredients or a dish idea into recipes using
Gemini, OpenAI or DeepSeek, and keeps a cookbook per user.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (default: ./config.yaml, ./config/config.yaml, /etc/chefculina/config.yaml)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(
		newServeCmd(opts),
		newGenerateCmd(opts),
		newCookbookCmd(opts),
		newShareCmd(),
	)
	return cmd
}

// cliLogger writes human readable logs to stderr so stdout stays clean for
// command output.
func (o *rootOptions) cliLogger() (*zap.Logger, error) {
	level := "warn"
	if o.verbose {
		level = "debug"
	}
	return logger.New(logger.Config{
		Level:       level,
		Format:      "console",
		Development: o.verbose,
		OutputPaths: []string{"stderr"},
	})
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	return config.Load(o.configPath)
}
