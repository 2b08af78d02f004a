package model

import (
	"context"
	"fmt"

	"github.com/gptbotio/gptbot/core"
)

// Info contains metadata about a model implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "mock", etc.
}

// Model is the interface the chat service drives generation through.
// Generate receives the full ordered conversation history (the new user turn
// last) and returns the assistant reply text.
type Model interface {
	Generate(ctx context.Context, instructions string, turns []core.Turn) (string, error)

	// Info returns information about the model implementation.
	Info() Info
}

// MockModel is a lightweight in-memory Model useful for tests, examples and
// running the service without provider credentials.
type MockModel struct {
	info      Info
	responses map[string]string
}

// NewMockModel constructs a MockModel.
func NewMockModel(name string) *MockModel {
	return &MockModel{
		info:      Info{Name: name, Provider: "mock"},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned reply for a user message.
func (m *MockModel) AddResponse(userMessage, reply string) {
	m.responses[userMessage] = reply
}

// Generate implements Model; echoes a canned or derived reply for the last
// user turn.
func (m *MockModel) Generate(ctx context.Context, _ string, turns []core.Turn) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(turns) == 0 {
		return "", fmt.Errorf("no turns provided")
	}
	last := turns[len(turns)-1]
	if reply, ok := m.responses[last.Text]; ok {
		return reply, nil
	}
	return fmt.Sprintf("Mock response to: %s", last.Text), nil
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }
