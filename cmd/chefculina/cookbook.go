package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Aethermaxx/ChefCulina/internal/domain/recipe"
	"github.com/Aethermaxx/ChefCulina/internal/domain/user"
	"github.com/Aethermaxx/ChefCulina/internal/infrastructure/container"
	"github.com/Aethermaxx/ChefCulina/internal/ports/inbound"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	formatYAML = "yaml"
	formatJSON = "json"
)

type cookbookOptions struct {
	email  string
	format string
}

func newCookbookCmd(root *rootOptions) *cobra.Command {
	opts := &cookbookOptions{}

	cmd := &cobra.Command{
		Use:   "cookbook",
		Short: "Export or import a user's cookbook",
	}
	cmd.PersistentFlags().StringVarP(&opts.email, "user", "u", user.GuestEmail, "cookbook owner email")
	cmd.PersistentFlags().StringVarP(&opts.format, "format", "f", "", "yaml or json (default: from file extension, else yaml)")

	cmd.AddCommand(newCookbookExportCmd(root, opts), newCookbookImportCmd(root, opts))
	return cmd
}

func newCookbookExportCmd(root *rootOptions, opts *cookbookOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the cookbook to stdout or a file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCookbook(cmd.Context(), root, func(svc inbound.CookbookService) error {
				entries, err := svc.Export(cmd.Context(), opts.email)
				if err != nil {
					return err
				}

				w := cmd.OutOrStdout()
				if output != "" {
					f, err := os.Create(output)
					if err != nil {
						return err
					}
					defer f.Close()
					w = f
				}
				if err := encodeCookbook(w, resolveFormat(opts.format, output), entries); err != nil {
					return err
				}
				if output != "" {
					fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d recipes to %s\n", len(entries), output)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

func newCookbookImportCmd(root *rootOptions, opts *cookbookOptions) *cobra.Command {
	var replace bool

	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Load recipes from a file, or stdin when no file is given",
		Long: `Import upserts every recipe by the slug of its name. With --replace the
cookbook is emptied first.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r := cmd.InOrStdin()
			path := ""
			if len(args) == 1 {
				path = args[0]
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}

			entries, err := decodeCookbook(r, resolveFormat(opts.format, path))
			if err != nil {
				return fmt.Errorf("read cookbook: %w", err)
			}

			return withCookbook(cmd.Context(), root, func(svc inbound.CookbookService) error {
				n, err := svc.Import(cmd.Context(), opts.email, entries, replace)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d recipes for %s\n", n, opts.email)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&replace, "replace", false, "delete existing recipes before importing")
	return cmd
}

// withCookbook starts the core container against the configured database,
// runs fn and stops the container.
func withCookbook(ctx context.Context, root *rootOptions, fn func(inbound.CookbookService) error) error {
	log, err := root.cliLogger()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	var svc inbound.CookbookService
	app := fx.New(
		container.Core(root.configPath),
		fx.NopLogger,
		fx.Decorate(func(*zap.Logger) *zap.Logger { return log }),
		fx.Populate(&svc),
	)
	if err := app.Err(); err != nil {
		return err
	}
	if err := app.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := app.Stop(context.Background()); err != nil {
			log.Warn("Failed to stop cleanly", zap.Error(err))
		}
	}()

	return fn(svc)
}

func resolveFormat(flag, path string) string {
	if flag != "" {
		return strings.ToLower(flag)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return formatJSON
	}
	return formatYAML
}

func encodeCookbook(w io.Writer, format string, entries []recipe.SavedRecipe) error {
	switch format {
	case formatJSON:
		return writeJSON(w, entries)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(entries); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func decodeCookbook(r io.Reader, format string) ([]recipe.SavedRecipe, error) {
	var entries []recipe.SavedRecipe
	switch format {
	case formatJSON:
		if err := json.NewDecoder(r).Decode(&entries); err != nil {
			return nil, err
		}
	case formatYAML:
		if err := yaml.NewDecoder(r).Decode(&entries); err != nil && err != io.EOF {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
	return entries, nil
}
