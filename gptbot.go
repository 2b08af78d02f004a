// Package gptbot provides a high-level façade over the session store and
// model abstractions enabling construction of a multi-turn chat service.
// Most applications interact with this package by:
//  1. Creating a Bot via New() (optionally overriding the default in-memory
//     store, mock model and no-op logger)
//  2. Calling Chat once per inbound user message
//
// The façade owns the per-request session choreography: resolve-or-create
// the session, fetch prior history, generate the assistant reply and persist
// the full updated history. All defaults are safe for local development and
// testing; production deployments supply a real model adapter and a
// structured logger.
package gptbot

import (
	"context"
	"errors"
	"fmt"

	"github.com/gptbotio/gptbot/core"
	"github.com/gptbotio/gptbot/logging"
	"github.com/gptbotio/gptbot/model"
	"github.com/gptbotio/gptbot/session"
)

// ErrEmptyMessage is returned by Chat when the user message is blank.
var ErrEmptyMessage = fmt.Errorf("message must not be empty")

// Options configures the Bot instance.
type Options struct {
	// SessionStore holds conversation histories (defaults to in-memory).
	SessionStore core.SessionStore
	// Model generates assistant replies (defaults to the mock model).
	Model model.Model
	// Instructions is the system prompt passed to the model on every turn.
	Instructions string
	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Bot is the high-level façade aggregating the session store and the model.
type Bot struct {
	store        core.SessionStore
	model        model.Model
	instructions string
	logger       logging.Logger
}

// New creates a new Bot with optional overrides. Any unset service is
// initialized with an in-memory / mock implementation.
func New(optFns ...func(o *Options)) *Bot {
	opts := Options{
		SessionStore: session.NewInMemoryStore(),
		Model:        model.NewMockModel("mock"),
		Logger:       logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Bot{
		store:        opts.SessionStore,
		model:        opts.Model,
		instructions: opts.Instructions,
		logger:       opts.Logger,
	}
}

// Store exposes the session store for observability wiring (metrics, sweeps).
func (b *Bot) Store() core.SessionStore { return b.store }

// Model exposes the configured model.
func (b *Bot) Model() model.Model { return b.model }

// Chat handles one conversational turn. An empty sessionID starts a new
// conversation; otherwise the prior history under that id is used. An
// unknown or evicted id is treated as a fresh conversation under the same
// id rather than rejected, matching the store's upsert policy.
//
// On success the returned session id is either the echoed input id or the
// newly minted one, and the full history including both new turns has been
// persisted.
func (b *Bot) Chat(ctx context.Context, sessionID, message string) (reply, id string, err error) {
	if message == "" {
		return "", "", ErrEmptyMessage
	}

	var turns []core.Turn
	if sessionID == "" {
		sess, err := b.store.Create()
		if err != nil {
			return "", "", fmt.Errorf("create session: %w", err)
		}
		sessionID = sess.ID
	} else {
		sess, err := b.store.Get(sessionID)
		switch {
		case errors.Is(err, core.ErrSessionNotFound):
			// Unknown or evicted id: start fresh under the same id.
			b.logger.Warn("unknown session id, starting fresh conversation", "session_id", sessionID)
		case err != nil:
			return "", "", fmt.Errorf("get session: %w", err)
		default:
			turns = sess.Turns
		}
	}

	log := logging.WithSession(b.logger, sessionID)

	turns = append(turns, core.NewUserTurn(message))
	reply, err = b.model.Generate(ctx, b.instructions, turns)
	if err != nil {
		log.Error("model generation failed", "error", err)
		return "", "", fmt.Errorf("generate reply: %w", err)
	}

	turns = append(turns, core.NewAssistantTurn(reply))
	if err := b.store.Update(sessionID, turns); err != nil {
		return "", "", fmt.Errorf("update session: %w", err)
	}

	log.Debug("chat turn completed", "history_len", len(turns))
	return reply, sessionID, nil
}
