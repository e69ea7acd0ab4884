package main

import (
	"fmt"
	"sort"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/eurora-labs/ferrous-llm/config"
	"github.com/eurora-labs/ferrous-llm/llm"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List configured providers and their capabilities",
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := loadSettings()
		if err != nil {
			return err
		}

		names := make([]string, 0, len(settings.Providers))
		for name := range settings.Providers {
			names = append(names, name)
		}
		sort.Strings(names)

		table := uitable.New()
		table.AddRow("NAME", "KIND", "MODEL", "CAPABILITIES", "")

		for _, name := range names {
			ps := settings.Providers[name]
			marker := ""
			if name == settings.Default {
				marker = "(default)"
			}
			caps, err := capabilities(settings, name)
			if err != nil {
				caps = "error: " + err.Error()
			}
			table.AddRow(name, ps.Kind, ps.Model, caps, marker)
		}
		fmt.Fprintln(cmd.OutOrStdout(), table.String())
		return nil
	},
}

// capabilities probes the optional interfaces of a built provider.
func capabilities(settings config.Settings, name string) (string, error) {
	provider, err := settings.Build(name)
	if err != nil {
		return "", err
	}

	caps := "chat"
	if _, ok := llm.AsStreaming(provider); ok {
		caps += ",stream"
	}
	if _, ok := llm.AsTools(provider); ok {
		caps += ",tools"
	}
	if _, ok := llm.AsCompletions(provider); ok {
		caps += ",completions"
	}
	if _, ok := llm.AsEmbeddings(provider); ok {
		caps += ",embeddings"
	}
	return caps, nil
}
