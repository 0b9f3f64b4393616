// Package providers holds the concrete LLM Capability backends: the hosted
// Anthropic client, a generic OpenAI-compatible client (for OpenRouter-style
// hosted models and local model servers), and a deterministic lorem-ipsum
// mock used in local development and tests.
package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"fathom/internal/domain/models/research"
	"fathom/internal/llmcap"
)

// AnthropicProvider implements llmcap.Provider directly against the
// anthropic-sdk-go client, the same approach the chat turn executor uses for
// its hosted backend.
type AnthropicProvider struct {
	client *anthropic.Client
}

func NewAnthropicProvider(apiKey string) (*AnthropicProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic: API key is required")
	}
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &AnthropicProvider{client: &client}, nil
}

func (p *AnthropicProvider) Name() string { return "anthropic" }

func (p *AnthropicProvider) SupportsModel(model string) bool {
	return strings.HasPrefix(model, "claude-")
}

func toAnthropicMessages(messages []research.CanonicalPair) ([]anthropic.MessageParam, error) {
	out := make([]anthropic.MessageParam, 0, len(messages))
	for i, m := range messages {
		block := anthropic.NewTextBlock(m.Content)
		switch m.Role {
		case "user", "tool", "function":
			out = append(out, anthropic.NewUserMessage(block))
		case "assistant":
			out = append(out, anthropic.NewAssistantMessage(block))
		case "system", "developer":
			// System/developer turns are folded into the System parameter by
			// the caller; skip here rather than emit an unsupported role.
			continue
		default:
			return nil, fmt.Errorf("anthropic: message %d: unsupported role %q", i, m.Role)
		}
	}
	return out, nil
}

func systemPrompt(messages []research.CanonicalPair) string {
	var sb strings.Builder
	for _, m := range messages {
		if m.Role == "system" || m.Role == "developer" {
			if sb.Len() > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(m.Content)
		}
	}
	return sb.String()
}

func (p *AnthropicProvider) buildParams(messages []research.CanonicalPair, model string, opts llmcap.Options) (anthropic.MessageNewParams, error) {
	msgs, err := toAnthropicMessages(messages)
	if err != nil {
		return anthropic.MessageNewParams{}, err
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		Messages:  msgs,
		MaxTokens: 4096,
	}
	if s := systemPrompt(messages); s != "" {
		params.System = []anthropic.TextBlockParam{{Type: "text", Text: s}}
	}
	if opts.Temperature != nil {
		params.Temperature = anthropic.Float(*opts.Temperature)
	}
	if opts.TopP != nil {
		params.TopP = anthropic.Float(*opts.TopP)
	}
	if opts.ReasoningEnabled {
		params.Thinking = anthropic.ThinkingConfigParamOfEnabled(2048)
	}
	return params, nil
}

func (p *AnthropicProvider) Complete(ctx context.Context, messages []research.CanonicalPair, model string, opts llmcap.Options) (string, error) {
	params, err := p.buildParams(messages, model, opts)
	if err != nil {
		return "", err
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic: %w", err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}

func (p *AnthropicProvider) Stream(ctx context.Context, messages []research.CanonicalPair, model string, opts llmcap.Options) (<-chan llmcap.Fragment, error) {
	params, err := p.buildParams(messages, model, opts)
	if err != nil {
		return nil, err
	}

	out := make(chan llmcap.Fragment, 16)
	go func() {
		defer close(out)

		stream := p.client.Messages.NewStreaming(ctx, params)
		for stream.Next() {
			event := stream.Current()
			if delta, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent); ok {
				if delta.Delta.Type == "text_delta" {
					out <- llmcap.Fragment{Text: delta.Delta.Text}
				}
			}
		}
		if err := stream.Err(); err != nil {
			out <- llmcap.Fragment{Err: fmt.Errorf("anthropic: stream: %w", err)}
		}
	}()
	return out, nil
}
