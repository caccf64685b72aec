package provider

import (
	"context"
	"testing"

	"github.com/abdrabosoliman1973/Soliman25/internal/anthropic"
	"github.com/abdrabosoliman1973/Soliman25/internal/google"
	"github.com/abdrabosoliman1973/Soliman25/internal/llm"
	"github.com/abdrabosoliman1973/Soliman25/internal/lmstudio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLocal(t *testing.T) {
	client, mode, err := New(context.Background(), Config{Mode: llm.ModeInstruct})
	require.NoError(t, err)
	assert.Equal(t, llm.ModeInstruct, mode)
	require.IsType(t, &lmstudio.Client{}, client)
	assert.Equal(t, llm.ModeInstruct, client.(*lmstudio.Client).Mode())
}

func TestNewHostedForcesChat(t *testing.T) {
	client, mode, err := New(context.Background(), Config{Provider: Anthropic, Mode: llm.ModeInstruct, AnthropicAPIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, llm.ModeChat, mode)
	assert.IsType(t, &anthropic.Client{}, client)

	client, mode, err = New(context.Background(), Config{Provider: Google, GoogleAPIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, llm.ModeChat, mode)
	assert.IsType(t, &google.Client{}, client)
}

func TestNewErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"missing anthropic key", Config{Provider: Anthropic}},
		{"missing google key", Config{Provider: Google}},
		{"unknown provider", Config{Provider: "openai"}},
		{"unknown mode", Config{Mode: "completion"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := New(context.Background(), tt.cfg)
			assert.Error(t, err)
		})
	}
}
