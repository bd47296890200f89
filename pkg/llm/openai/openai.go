// Package openai implements the llm.Provider interface on top of the
// official openai-go SDK, for OpenAI and OpenAI-compatible APIs.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/entrhq/surf/pkg/llm"
	"github.com/entrhq/surf/pkg/types"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Provider implements llm.Provider using the openai-go client.
type Provider struct {
	client  openai.Client
	model   string
	baseURL string
}

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithModel sets the model used for completions.
func WithModel(model string) ProviderOption {
	return func(p *Provider) {
		p.model = model
	}
}

// WithBaseURL sets a custom base URL for OpenAI-compatible APIs (Azure,
// local gateways, test servers).
func WithBaseURL(baseURL string) ProviderOption {
	return func(p *Provider) {
		p.baseURL = baseURL
	}
}

// NewProvider creates an OpenAI provider. If apiKey is empty it falls back to
// the OPENAI_API_KEY environment variable; an unset base URL falls back to
// OPENAI_BASE_URL and then to the SDK default.
func NewProvider(apiKey string, opts ...ProviderOption) (*Provider, error) {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required (provide via parameter or OPENAI_API_KEY environment variable)")
	}

	p := &Provider{model: "gpt-4o"}
	for _, opt := range opts {
		opt(p)
	}
	if p.baseURL == "" {
		p.baseURL = os.Getenv("OPENAI_BASE_URL")
	}

	clientOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if p.baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(p.baseURL))
	}
	p.client = openai.NewClient(clientOpts...)

	return p, nil
}

// Model returns the model name being used.
func (p *Provider) Model() string {
	return p.model
}

// StreamToolCompletion streams a tool-bound chat completion. Content deltas
// are emitted as they arrive; the final chunk carries the accumulated
// tool-call list for the turn.
func (p *Provider) StreamToolCompletion(ctx context.Context, messages []*types.Message, tools []llm.ToolDefinition) (<-chan *llm.StreamChunk, error) {
	params := openai.ChatCompletionNewParams{
		Model:    p.model,
		Messages: convertMessages(messages),
	}
	if len(tools) > 0 {
		params.Tools = convertTools(tools)
	}

	chunks := make(chan *llm.StreamChunk, 10)
	stream := p.client.Chat.Completions.NewStreaming(ctx, params)

	go func() {
		defer close(chunks)
		defer stream.Close()

		acc := openai.ChatCompletionAccumulator{}
		for stream.Next() {
			select {
			case <-ctx.Done():
				chunks <- &llm.StreamChunk{Err: ctx.Err()}
				return
			default:
			}

			chunk := stream.Current()
			acc.AddChunk(chunk)

			if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
				chunks <- &llm.StreamChunk{Content: chunk.Choices[0].Delta.Content}
			}
		}
		if err := stream.Err(); err != nil {
			chunks <- &llm.StreamChunk{Err: fmt.Errorf("stream failed: %w", err)}
			return
		}

		final := &llm.StreamChunk{Finished: true}
		if len(acc.Choices) > 0 {
			for _, call := range acc.Choices[0].Message.ToolCalls {
				final.ToolCalls = append(final.ToolCalls, llm.ToolCall{
					ID:        call.ID,
					Name:      call.Function.Name,
					Arguments: json.RawMessage(call.Function.Arguments),
				})
			}
		}
		chunks <- final
	}()

	return chunks, nil
}

// CompleteStructured performs a non-streaming completion with a strict JSON
// schema response format and returns the raw JSON document.
func (p *Provider) CompleteStructured(ctx context.Context, messages []*types.Message, schemaName string, schema map[string]interface{}) (json.RawMessage, error) {
	params := openai.ChatCompletionNewParams{
		Model:    p.model,
		Messages: convertMessages(messages),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   schemaName,
					Schema: schema,
					Strict: openai.Bool(true),
				},
			},
		},
	}

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("structured completion failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("structured completion returned no choices")
	}
	return json.RawMessage(completion.Choices[0].Message.Content), nil
}

// convertMessages maps the agent's message model onto the OpenAI chat API,
// preserving tool-call correlation: AI messages carry their tool calls and
// tool messages answer them by ID.
func convertMessages(messages []*types.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))

	for _, msg := range messages {
		switch msg.Role {
		case types.RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case types.RoleAI:
			if len(msg.ToolCalls) == 0 {
				out = append(out, openai.AssistantMessage(msg.Content))
				continue
			}
			assistant := openai.ChatCompletionAssistantMessageParam{}
			if msg.Content != "" {
				assistant.Content.OfString = openai.String(msg.Content)
			}
			for _, call := range msg.ToolCalls {
				assistant.ToolCalls = append(assistant.ToolCalls, openai.ChatCompletionMessageToolCallParam{
					ID: call.ID,
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      call.Name,
						Arguments: call.Arguments,
					},
				})
			}
			out = append(out, openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant})
		case types.RoleTool:
			out = append(out, openai.ToolMessage(msg.Content, msg.ToolCallID))
		default:
			// Human messages and typed variants (browser state, screenshots)
			// all travel as user content.
			out = append(out, openai.UserMessage(msg.Content))
		}
	}
	return out
}

func convertTools(tools []llm.ToolDefinition) []openai.ChatCompletionToolParam {
	out := make([]openai.ChatCompletionToolParam, 0, len(tools))
	for _, tool := range tools {
		out = append(out, openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        tool.Name,
				Description: openai.String(tool.Description),
				Parameters:  openai.FunctionParameters(tool.Parameters),
			},
		})
	}
	return out
}
