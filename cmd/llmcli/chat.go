package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/eurora-labs/ferrous-llm/llm"
)

var (
	chatSystem   string
	chatModel    string
	chatNoStream bool
)

var chatCmd = &cobra.Command{
	Use:   "chat [prompt]",
	Short: "Send a prompt and print the reply",
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

		logger := newLogger()
		logger.Debug("chat", "provider", llm.NameOf(provider))

		var messages []llm.Message
		if chatSystem != "" {
			messages = append(messages, llm.System(chatSystem))
		}
		messages = append(messages, llm.User(strings.Join(args, " ")))

		opts := []llm.RequestOption{}
		if chatModel != "" {
			opts = append(opts, llm.WithExtension("model", chatModel))
		}
		req := llm.NewChatRequest(messages, opts...)

		if streaming, ok := llm.AsStreaming(provider); ok && !chatNoStream {
			return streamChat(cmd, streaming, req)
		}

		resp, err := provider.Chat(cmd.Context(), req)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), resp.Content())
		printUsage(resp.Usage())
		return nil
	},
}

func init() {
	chatCmd.Flags().StringVarP(&chatSystem, "system", "s", "", "System prompt")
	chatCmd.Flags().StringVarP(&chatModel, "model", "m", "", "Model override")
	chatCmd.Flags().BoolVar(&chatNoStream, "no-stream", false, "Wait for the full reply instead of streaming")
}

func streamChat(cmd *cobra.Command, provider llm.StreamingProvider, req llm.ChatRequest) error {
	stream, err := provider.ChatStream(cmd.Context(), req)
	if err != nil {
		return err
	}
	defer stream.Close()

	out := cmd.OutOrStdout()
	var final llm.StreamChunk
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		if chunk.IsFinal() {
			final = chunk
			continue
		}
		fmt.Fprint(out, chunk.Content())
	}
	fmt.Fprintln(out)
	printUsage(final.Usage())
	return nil
}

func printUsage(usage *llm.Usage) {
	if usage == nil || !verbose {
		return
	}
	fmt.Fprintf(os.Stderr, "tokens: %d prompt, %d completion\n",
		usage.PromptTokens, usage.CompletionTokens)
}
