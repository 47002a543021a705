// Package openai provides a Narrator implementation using OpenAI.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/ersonp/dramanet/internal/domain/ports"
	"github.com/ersonp/dramanet/internal/infrastructure/config"
)

const narrationPrompt = `You are a story editor helping a novelist revise the cast of a story.
You receive a JSON array of recommended revisions for the story network %q.
Each item has an action id, a diagnostic category, a terse description of the fix,
and context about the characters involved.

For each item, write one short paragraph (2-4 sentences) suggesting how the
writer could carry out the revision inside the story: a scene, an event, or a
change in how characters treat each other. Stay concrete and use the names given.

Return ONLY a valid JSON array of strings, one per item, in the same order. No other text.`

// Client implements the Narrator interface using OpenAI.
type Client struct {
	client *openai.Client
	model  string
}

var _ ports.Narrator = (*Client)(nil)

// NewClient creates a new OpenAI narration client.
func NewClient(cfg config.LLMConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	model := "gpt-4o-mini"
	if cfg.Model != "" {
		model = cfg.Model
	}

	return &Client{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
	}, nil
}

// Narrate returns one paragraph per request, in request order. All requests
// must belong to the same network.
func (c *Client) Narrate(ctx context.Context, requests []ports.NarrationRequest) ([]string, error) {
	if len(requests) == 0 {
		return nil, nil
	}

	payload, err := json.Marshal(requestsToRaw(requests))
	if err != nil {
		return nil, fmt.Errorf("marshaling narration requests: %w", err)
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: fmt.Sprintf(narrationPrompt, requests[0].Network),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: string(payload),
			},
		},
		Temperature: 0.7,
	})
	if err != nil {
		return nil, fmt.Errorf("calling OpenAI: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, errors.New("no response from OpenAI")
	}

	content := cleanJSONResponse(resp.Choices[0].Message.Content)

	var paragraphs []string
	if err := json.Unmarshal([]byte(content), &paragraphs); err != nil {
		return nil, fmt.Errorf("parsing narration JSON: %w (response: %s)", err, content)
	}

	if len(paragraphs) != len(requests) {
		return nil, fmt.Errorf("expected %d paragraphs, got %d", len(requests), len(paragraphs))
	}

	for i := range paragraphs {
		paragraphs[i] = strings.TrimSpace(paragraphs[i])
	}

	return paragraphs, nil
}

// rawRequest is the JSON structure sent to the model.
type rawRequest struct {
	ActionID    string `json:"action_id"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Context     string `json:"context,omitempty"`
}

func requestsToRaw(requests []ports.NarrationRequest) []rawRequest {
	raw := make([]rawRequest, 0, len(requests))
	for _, r := range requests {
		raw = append(raw, rawRequest{
			ActionID:    r.ActionID,
			Category:    r.Category,
			Description: r.Description,
			Context:     r.Context,
		})
	}
	return raw
}

// cleanJSONResponse removes markdown code blocks if present.
func cleanJSONResponse(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimSuffix(content, "```")
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
	}

	return strings.TrimSpace(content)
}
