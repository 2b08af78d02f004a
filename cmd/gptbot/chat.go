package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gptbotio/gptbot/config"
)

// newChatCmd provides an interactive terminal conversation against the
// configured model, reusing the same session lifecycle as the HTTP service.
func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session in the terminal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := config.Load(configPath)
			if err != nil {
				return err
			}

			bot, _, _, _ := buildBot(settings)

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "gptbot interactive chat. Type 'quit' to exit.")

			var sessionID string
			scanner := bufio.NewScanner(cmd.InOrStdin())
			for {
				fmt.Fprint(out, "you> ")
				if !scanner.Scan() {
					return scanner.Err()
				}
				message := strings.TrimSpace(scanner.Text())
				if message == "" {
					continue
				}
				if message == "quit" || message == "exit" {
					fmt.Fprintln(out, "bye")
					return nil
				}

				reply, id, err := bot.Chat(cmd.Context(), sessionID, message)
				if err != nil {
					fmt.Fprintln(out, "error:", err)
					continue
				}
				sessionID = id
				fmt.Fprintln(out, "bot>", reply)
			}
		},
	}
}
