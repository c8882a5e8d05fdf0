package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/Aethermaxx/ChefCulina/internal/domain/ai"
	aiinfra "github.com/Aethermaxx/ChefCulina/internal/infrastructure/ai"
	"github.com/spf13/cobra"
)

// apiKeyEnv is read when --api-key is not given.
const apiKeyEnv = "CHEFCULINA_API_KEY"

type generateOptions struct {
	provider     string
	apiKey       string
	ingredients  []string
	prompt       string
	adults       int
	children     int
	seniors      int
	restrictions []string
}

func newGenerateCmd(root *rootOptions) *cobra.Command {
	opts := &generateOptions{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate recipes once and print them as JSON",
		Long: `Generate calls one provider directly. Pass --ingredients for three pantry
recipes or --prompt for a single recipe. The key comes from --api-key, then
$` + apiKeyEnv + `, then the server key in the config file.`,
		Example: `  chefculina generate --ingredients tomato,basil,pasta
  chefculina generate --provider openai --prompt "a rainy day soup" --adults 4`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, root, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.provider, "provider", "p", string(ai.DefaultProvider), "gemini, openai or deepseek")
	f.StringVar(&opts.apiKey, "api-key", "", "provider API key")
	f.StringSliceVarP(&opts.ingredients, "ingredients", "i", nil, "pantry ingredients, comma separated")
	f.StringVar(&opts.prompt, "prompt", "", "describe a single dish instead of listing ingredients")
	f.IntVar(&opts.adults, "adults", 2, "adults to serve")
	f.IntVar(&opts.children, "children", 0, "children to serve")
	f.IntVar(&opts.seniors, "seniors", 0, "seniors to serve")
	f.StringSliceVarP(&opts.restrictions, "restriction", "r", nil, "dietary restriction, repeatable")
	cmd.MarkFlagsMutuallyExclusive("ingredients", "prompt")

	return cmd
}

func (o *generateOptions) request() ai.Request {
	req := ai.Request{
		PromptType:   ai.PromptPantry,
		Ingredients:  o.ingredients,
		ServingSize:  ai.ServingSize{Adults: o.adults, Children: o.children, Seniors: o.seniors},
		Restrictions: o.restrictions,
	}
	if strings.TrimSpace(o.prompt) != "" {
		req.PromptType = ai.PromptSingle
		req.SinglePrompt = o.prompt
		req.Ingredients = nil
	}
	return req
}

func runGenerate(cmd *cobra.Command, root *rootOptions, opts *generateOptions) error {
	provider := ai.Provider(strings.ToLower(opts.provider))
	if !provider.Valid() {
		return fmt.Errorf("unknown provider %q", opts.provider)
	}

	req := opts.request().Normalize()
	if err := req.Validate(); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}

	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	log, err := root.cliLogger()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	registry := aiinfra.NewRegistry(&cfg.AI, log)
	client, _ := registry.Provider(provider)

	key := opts.apiKey
	if key == "" {
		key = os.Getenv(apiKeyEnv)
	}
	if key == "" {
		key = registry.DefaultKeys()[provider]
	}

	recipes, err := client.Generate(cmd.Context(), key, ai.BuildPrompt(req))
	if err != nil {
		return err
	}

	return writeJSON(cmd.OutOrStdout(), recipes)
}
