// Package main is the entry point for the gptbot chat service CLI.
package main

import (
	"fmt"
	"os"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/spf13/cobra"

	"github.com/gptbotio/gptbot"
	"github.com/gptbotio/gptbot/config"
	"github.com/gptbotio/gptbot/logging"
	"github.com/gptbotio/gptbot/model"
	"github.com/gptbotio/gptbot/model/anthropic"
	"github.com/gptbotio/gptbot/model/openai"
	"github.com/gptbotio/gptbot/session"
	"github.com/gptbotio/gptbot/telemetry"
)

// Version information set at build time.
var version = "0.1.0"

// Global flags.
var configPath string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "gptbot",
		Short:         "LLM chat service with in-memory session management",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file")

	root.AddCommand(newServeCmd())
	root.AddCommand(newChatCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the gptbot version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "gptbot", version)
		},
	}
}

// buildModel selects the provider adapter from configuration.
func buildModel(settings config.Settings) model.Model {
	switch settings.Model.Provider {
	case "openai":
		return openai.NewModel(func(o *openai.Options) {
			if settings.Model.Name != "" {
				o.Model = settings.Model.Name
			}
			o.Temperature = settings.Model.Temperature
			o.MaxCompletionTokens = settings.Model.MaxTokens
		})
	case "anthropic":
		return anthropic.NewModel(func(o *anthropic.Options) {
			if settings.Model.Name != "" {
				o.Model = anthropicsdk.Model(settings.Model.Name)
			}
			o.Temperature = settings.Model.Temperature
			o.MaxTokens = settings.Model.MaxTokens
		})
	default:
		return model.NewMockModel("mock")
	}
}

// buildBot wires logger, store, metrics and model into a ready Bot. The
// returned store is the concrete type so callers can start background sweeps.
func buildBot(settings config.Settings) (*gptbot.Bot, *session.InMemoryStore, *telemetry.Metrics, logging.Logger) {
	logger := logging.New(logging.ParseLevel(settings.LogLevel), settings.LogFormat, os.Stdout)

	// The eviction hook closes over the metrics variable because metrics
	// needs the store's ActiveSessions and the store needs the hook.
	var metrics *telemetry.Metrics
	store := session.NewInMemoryStore(func(o *session.Options) {
		o.IdleTimeout = settings.SessionTimeout()
		o.CleanupInterval = settings.Session.CleanupInterval
		o.Logger = logger
		o.EvictionHook = func(n int) {
			if metrics != nil {
				metrics.AddEvicted(n)
			}
		}
	})
	metrics = telemetry.New(store.ActiveSessions)

	bot := gptbot.New(func(o *gptbot.Options) {
		o.SessionStore = store
		o.Model = buildModel(settings)
		o.Instructions = settings.Model.Instructions
		o.Logger = logger
	})
	return bot, store, metrics, logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
