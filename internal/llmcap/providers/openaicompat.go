package providers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"fathom/internal/domain/models/research"
	"fathom/internal/llmcap"
)

// OpenAICompatProvider talks a generic OpenAI-compatible chat-completions
// HTTP contract. It stands in for both an OpenRouter-hosted backend and a
// local model server exposing the same contract — the two OpenAI-compatible backends
// LLM Capability's three-backend contract names, distinguished only by
// baseURL/apiKey at construction, with the caller none the wiser.
type OpenAICompatProvider struct {
	name       string
	baseURL    string
	apiKey     string
	modelPrefix string
	client     *http.Client
}

func NewOpenAICompatProvider(name, baseURL, apiKey, modelPrefix string) *OpenAICompatProvider {
	return &OpenAICompatProvider{
		name:        name,
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		modelPrefix: modelPrefix,
		client:      &http.Client{},
	}
}

func (p *OpenAICompatProvider) Name() string { return p.name }

func (p *OpenAICompatProvider) SupportsModel(model string) bool {
	if p.modelPrefix == "" {
		return true
	}
	return strings.HasPrefix(model, p.modelPrefix)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Stream      bool          `json:"stream"`
	Temperature *float64      `json:"temperature,omitempty"`
	TopP        *float64      `json:"top_p,omitempty"`
	Seed        *int64        `json:"seed,omitempty"`
}

func toChatMessages(messages []research.CanonicalPair) []chatMessage {
	out := make([]chatMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, chatMessage{Role: m.Role, Content: m.Content})
	}
	return out
}

func (p *OpenAICompatProvider) request(ctx context.Context, body chatRequest) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%s: encode request: %w", p.name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", p.name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.name, err)
	}
	return resp, nil
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (p *OpenAICompatProvider) Complete(ctx context.Context, messages []research.CanonicalPair, model string, opts llmcap.Options) (string, error) {
	resp, err := p.request(ctx, chatRequest{
		Model:       model,
		Messages:    toChatMessages(messages),
		Temperature: opts.Temperature,
		TopP:        opts.TopP,
		Seed:        opts.Seed,
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%s: read response: %w", p.name, err)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("%s: status %d: %s", p.name, resp.StatusCode, string(body))
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("%s: decode response: %w", p.name, err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%s: empty response", p.name)
	}
	return parsed.Choices[0].Message.Content, nil
}

type chatStreamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

func (p *OpenAICompatProvider) Stream(ctx context.Context, messages []research.CanonicalPair, model string, opts llmcap.Options) (<-chan llmcap.Fragment, error) {
	resp, err := p.request(ctx, chatRequest{
		Model:       model,
		Messages:    toChatMessages(messages),
		Stream:      true,
		Temperature: opts.Temperature,
		TopP:        opts.TopP,
		Seed:        opts.Seed,
	})
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%s: status %d: %s", p.name, resp.StatusCode, string(body))
	}

	out := make(chan llmcap.Fragment, 16)
	go func() {
		defer close(out)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || !strings.HasPrefix(line, "data:") {
				continue
			}
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if data == "[DONE]" {
				return
			}

			var chunk chatStreamChunk
			if err := json.Unmarshal([]byte(data), &chunk); err != nil {
				continue
			}
			if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
				out <- llmcap.Fragment{Text: chunk.Choices[0].Delta.Content}
			}
		}
		if err := scanner.Err(); err != nil {
			out <- llmcap.Fragment{Err: fmt.Errorf("%s: stream: %w", p.name, err)}
		}
	}()

	return out, nil
}
