package model

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gptbotio/gptbot/core"
)

func TestMockModel_CannedResponse(t *testing.T) {
	m := NewMockModel("test")
	m.AddResponse("ping", "pong")

	reply, err := m.Generate(context.Background(), "", []core.Turn{core.NewUserTurn("ping")})
	require.NoError(t, err)
	assert.Equal(t, "pong", reply)
}

func TestMockModel_DefaultResponse(t *testing.T) {
	m := NewMockModel("test")

	reply, err := m.Generate(context.Background(), "", []core.Turn{core.NewUserTurn("hello")})
	require.NoError(t, err)
	assert.Equal(t, "Mock response to: hello", reply)
}

func TestMockModel_NoTurns(t *testing.T) {
	m := NewMockModel("test")
	_, err := m.Generate(context.Background(), "", nil)
	assert.Error(t, err)
}

func TestMockModel_CancelledContext(t *testing.T) {
	m := NewMockModel("test")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Generate(ctx, "", []core.Turn{core.NewUserTurn("hi")})
	assert.ErrorIs(t, err, context.Canceled)
}
