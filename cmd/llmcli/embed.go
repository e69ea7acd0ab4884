package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eurora-labs/ferrous-llm/llm"
)

var embedCmd = &cobra.Command{
	Use:   "embed [text]...",
	Short: "Embed texts and print vector dimensions",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := loadSettings()
		if err != nil {
			return err
		}
		provider, err := settings.Build(providerName)
		if err != nil {
			return err
		}
		embedder, ok := llm.AsEmbeddings(provider)
		if !ok {
			return fmt.Errorf("provider %s does not serve embeddings", llm.NameOf(provider))
		}

		embeddings, err := embedder.Embed(cmd.Context(), args)
		if err != nil {
			return err
		}
		for _, emb := range embeddings {
			fmt.Fprintf(cmd.OutOrStdout(), "%d: %d dims\n", emb.Index, len(emb.Vector))
		}
		return nil
	},
}
