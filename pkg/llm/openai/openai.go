// Package openai provides an OpenAI-compatible reasoning provider.
//
// The base URL override makes the same implementation serve any
// chat-completions-compatible API, including Groq:
//
//	provider, _ := openai.NewProvider(key, "https://api.groq.com/openai/v1",
//	    openai.WithModel("llama3-70b-8192"),
//	    openai.WithoutVision())
package openai

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	// DefaultModel is used when no model override is configured.
	DefaultModel = "gpt-4o"

	maxResponseTokens = 8192
)

// Provider implements llm.Provider against OpenAI-compatible chat APIs.
type Provider struct {
	client openai.Client
	model  string
	vision bool
}

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithModel sets the model to use for completions.
func WithModel(model string) ProviderOption {
	return func(p *Provider) {
		if model != "" {
			p.model = model
		}
	}
}

// WithoutVision disables image attachments for models that reject them.
// Screenshots are silently dropped from requests instead of failing the call.
func WithoutVision() ProviderOption {
	return func(p *Provider) {
		p.vision = false
	}
}

// NewProvider creates a provider for the given API key. An empty key falls
// back to the OPENAI_API_KEY environment variable. baseURL is optional; when
// empty the standard OpenAI endpoint is used.
func NewProvider(apiKey, baseURL string, opts ...ProviderOption) (*Provider, error) {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required (provide via parameter or OPENAI_API_KEY)")
	}

	clientOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(baseURL))
	}

	p := &Provider{
		client: openai.NewClient(clientOpts...),
		model:  DefaultModel,
		vision: true,
	}
	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

// Respond sends one prompt pair, optionally with PNG screenshots, and
// returns the model's text output.
func (p *Provider) Respond(ctx context.Context, systemPrompt, userPrompt string, images []string) (string, error) {
	parts := []openai.ChatCompletionContentPartUnionParam{
		openai.TextContentPart(userPrompt),
	}

	if p.vision {
		for _, path := range images {
			dataURL, err := encodeImage(path)
			if err != nil {
				return "", err
			}
			parts = append(parts, openai.ImageContentPart(
				openai.ChatCompletionContentPartImageImageURLParam{URL: dataURL},
			))
		}
	}

	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(parts),
		},
		MaxTokens: openai.Int(maxResponseTokens),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func encodeImage(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read image %s: %w", path, err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(data), nil
}
