// llmcli is a small terminal frontend over the provider abstraction: chat,
// streaming chat, embeddings, and an inventory of configured backends.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/eurora-labs/ferrous-llm/config"
	"github.com/eurora-labs/ferrous-llm/version"
)

var (
	cfgPath      string
	providerName string
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:           "llmcli",
	Short:         "Talk to LLM backends through one interface",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "llmcli.yaml", "Path to the configuration file")
	rootCmd.PersistentFlags().StringVarP(&providerName, "provider", "p", "", "Provider entry to use (defaults to the file's default)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(embedCmd)
	rootCmd.AddCommand(providersCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Get().Text())
	},
}

func loadSettings() (config.Settings, error) {
	store, err := config.Load[config.Settings](cfgPath, config.WithEnv[config.Settings]("LLMCLI"))
	if err != nil {
		return config.Settings{}, fmt.Errorf("load config %s: %w", cfgPath, err)
	}
	return store.Get(), nil
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
