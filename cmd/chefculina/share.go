package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/Aethermaxx/ChefCulina/internal/domain/recipe"
	"github.com/spf13/cobra"
)

func newShareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "share",
		Short: "Encode or decode recipe share links",
	}
	cmd.AddCommand(newShareEncodeCmd(), newShareDecodeCmd())
	return cmd
}

func newShareEncodeCmd() *cobra.Command {
	var base string

	cmd := &cobra.Command{
		Use:   "encode [recipe.json]",
		Short: "Print the share token for a recipe read from a file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r := cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}

			var rec recipe.Recipe
			if err := json.NewDecoder(r).Decode(&rec); err != nil {
				return fmt.Errorf("read recipe: %w", err)
			}
			if rec.Name == "" {
				return recipe.ErrNameRequired
			}

			out := ""
			var err error
			if base != "" {
				out, err = recipe.ShareURL(base, rec)
			} else {
				out, err = recipe.EncodeShare(rec)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&base, "url", "", "print a full link on this base URL instead of the bare token")
	return cmd
}

func newShareDecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <token>",
		Short: "Print the recipe carried by a share token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := recipe.DecodeShare(args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), rec)
		},
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
