package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hrygo/geminichat/ai/chat"
	"github.com/hrygo/geminichat/ai/core/llm"
	"github.com/hrygo/geminichat/ai/render"
	"github.com/hrygo/geminichat/internal/version"
	"github.com/hrygo/geminichat/server"
)

var askCmd = &cobra.Command{
	Use:   "ask <message>",
	Short: "Send one message and print the formatted reply",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		message := strings.Join(args, " ")
		if strings.TrimSpace(message) == "" {
			return fmt.Errorf("message must not be empty")
		}

		p, err := loadProfile()
		if err != nil {
			return err
		}
		provider, err := llm.NewProvider(server.LLMConfig(p))
		if err != nil {
			return err
		}
		dispatcher := chat.NewDispatcher(provider,
			chat.WithDefaultModel(p.LLMModel),
			chat.WithIntentHints(p.IntentHints),
		)

		model, _ := cmd.Flags().GetString("model")
		decision := chat.SendMessage(context.Background(), dispatcher, message, model)
		fmt.Fprintln(cmd.OutOrStdout(), render.Terminal(decision))
		return nil
	},
}

func init() {
	askCmd.Flags().StringP("model", "m", "", "model for this message, e.g. gemini-1.5-flash")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "geminichat", version.StringFull())
	},
}
