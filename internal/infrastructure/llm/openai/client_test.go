package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/dramanet/internal/domain/ports"
	"github.com/ersonp/dramanet/internal/infrastructure/config"
)

func TestNewClient(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.LLMConfig
		wantErr bool
		errMsg  string
	}{
		{
			name: "valid config",
			cfg: config.LLMConfig{
				APIKey: "test-key",
			},
			wantErr: false,
		},
		{
			name: "valid config with model and base url",
			cfg: config.LLMConfig{
				APIKey:  "test-key",
				Model:   "gpt-4",
				BaseURL: "http://localhost:8080/v1",
			},
			wantErr: false,
		},
		{
			name:    "missing API key",
			cfg:     config.LLMConfig{},
			wantErr: true,
			errMsg:  "API key is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.cfg)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				assert.Nil(t, client)
			} else {
				require.NoError(t, err)
				assert.NotNil(t, client)
			}
		})
	}
}

// chatServer answers every chat completion with the given content and
// records the user message it received.
func chatServer(t *testing.T, content string, gotUser *string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)

		var req struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if gotUser != nil && len(req.Messages) > 1 {
			*gotUser = req.Messages[1].Content
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]string{"role": "assistant", "content": content},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	client, err := NewClient(config.LLMConfig{APIKey: "test-key", BaseURL: srv.URL + "/v1"})
	require.NoError(t, err)
	return client
}

func TestClient_Narrate(t *testing.T) {
	requests := []ports.NarrationRequest{
		{Network: "elsinore", ActionID: "isolated_character:osric/add_relationship", Category: "isolated_character", Description: "Connect Osric to Hamlet"},
		{Network: "elsinore", ActionID: "weak_relationship:r6/strengthen", Category: "weak_relationship", Description: "Strengthen r6", Context: "Horatio and Marcellus"},
	}

	t.Run("one paragraph per request", func(t *testing.T) {
		var user string
		srv := chatServer(t, "```json\n[\" Osric delivers the challenge. \", \"A shared watch on the battlements.\"]\n```", &user)

		paragraphs, err := newTestClient(t, srv).Narrate(context.Background(), requests)
		require.NoError(t, err)
		assert.Equal(t, []string{"Osric delivers the challenge.", "A shared watch on the battlements."}, paragraphs)

		var sent []rawRequest
		require.NoError(t, json.Unmarshal([]byte(user), &sent))
		require.Len(t, sent, 2)
		assert.Equal(t, "weak_relationship:r6/strengthen", sent[1].ActionID)
		assert.Equal(t, "Horatio and Marcellus", sent[1].Context)
	})

	t.Run("count mismatch", func(t *testing.T) {
		srv := chatServer(t, `["only one"]`, nil)

		_, err := newTestClient(t, srv).Narrate(context.Background(), requests)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "expected 2 paragraphs, got 1")
	})

	t.Run("invalid JSON", func(t *testing.T) {
		srv := chatServer(t, "Sure! Here are some ideas.", nil)

		_, err := newTestClient(t, srv).Narrate(context.Background(), requests)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parsing narration JSON")
	})

	t.Run("no requests", func(t *testing.T) {
		client, err := NewClient(config.LLMConfig{APIKey: "test-key"})
		require.NoError(t, err)

		paragraphs, err := client.Narrate(context.Background(), nil)
		require.NoError(t, err)
		assert.Nil(t, paragraphs)
	})
}

func TestCleanJSONResponse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain JSON",
			input:    `["a scene"]`,
			expected: `["a scene"]`,
		},
		{
			name:     "JSON with json code block",
			input:    "```json\n[\"a scene\"]\n```",
			expected: `["a scene"]`,
		},
		{
			name:     "JSON with plain code block",
			input:    "```\n[\"a scene\"]\n```",
			expected: `["a scene"]`,
		},
		{
			name:     "JSON with whitespace",
			input:    "  \n[\"a scene\"]\n  ",
			expected: `["a scene"]`,
		},
		{
			name:     "empty array",
			input:    "[]",
			expected: "[]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, cleanJSONResponse(tt.input))
		})
	}
}
