package geminiprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/attache-ai/attache/pkg/logger"
	"github.com/attache-ai/attache/pkg/providers/protocoltypes"
)

type (
	ToolCall       = protocoltypes.ToolCall
	FunctionCall   = protocoltypes.FunctionCall
	LLMResponse    = protocoltypes.LLMResponse
	UsageInfo      = protocoltypes.UsageInfo
	Message        = protocoltypes.Message
	ToolDefinition = protocoltypes.ToolDefinition
)

const (
	defaultModel = "gemini-2.0-flash"
	// Gemini's OpenAI-compatible surface; tool calling works the same way
	// as a native chat/completions endpoint.
	defaultBaseURL        = "https://generativelanguage.googleapis.com/v1beta/openai"
	defaultRequestTimeout = 120 * time.Second
)

type Provider struct {
	apiKey     string
	apiBase    string
	httpClient *http.Client
}

func NewProvider(apiKey string) *Provider {
	return NewProviderWithBaseURL(apiKey, "")
}

func NewProviderWithBaseURL(apiKey, apiBase string) *Provider {
	if strings.TrimSpace(apiBase) == "" {
		apiBase = defaultBaseURL
	}
	return &Provider{
		apiKey:     apiKey,
		apiBase:    strings.TrimRight(apiBase, "/"),
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
	}
}

func (p *Provider) GetDefaultModel() string {
	return defaultModel
}

// chatRequest is the typed wire format. Explicit structs instead of
// map[string]any so malformed payloads fail at construction, not at the API.
type chatRequest struct {
	Model       string           `json:"model"`
	Messages    []wireMessage    `json:"messages"`
	Tools       []ToolDefinition `json:"tools,omitempty"`
	ToolChoice  string           `json:"tool_choice,omitempty"`
	MaxTokens   int              `json:"max_tokens,omitempty"`
	Temperature *float64         `json:"temperature,omitempty"`
}

type wireMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	ToolCalls  []wireToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
}

type wireToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function wireFunctionCall `json:"function"`
}

type wireFunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content   string         `json:"content"`
			ToolCalls []wireToolCall `json:"tool_calls"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage *UsageInfo `json:"usage"`
}

func (p *Provider) Chat(
	ctx context.Context,
	messages []Message,
	tools []ToolDefinition,
	model string,
	options map[string]any,
) (*LLMResponse, error) {
	reqBody := chatRequest{
		Model:    strings.TrimPrefix(model, "google/"),
		Messages: toWireMessages(messages),
	}
	if len(tools) > 0 {
		reqBody.Tools = tools
		reqBody.ToolChoice = "auto"
	}
	if maxTokens, ok := options["max_tokens"].(int); ok {
		reqBody.MaxTokens = maxTokens
	}
	if temp, ok := options["temperature"].(float64); ok {
		reqBody.Temperature = &temp
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.apiBase+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gemini API call: %w",
			&protocoltypes.APIError{Status: resp.StatusCode, Body: string(body)})
	}

	return parseResponse(body)
}

func toWireMessages(messages []Message) []wireMessage {
	out := make([]wireMessage, 0, len(messages))
	for _, m := range messages {
		wm := wireMessage{
			Role:       m.Role,
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
		}
		for _, tc := range m.ToolCalls {
			norm := protocoltypes.NormalizeToolCall(tc)
			wm.ToolCalls = append(wm.ToolCalls, wireToolCall{
				ID:   norm.ID,
				Type: "function",
				Function: wireFunctionCall{
					Name:      norm.Function.Name,
					Arguments: norm.Function.Arguments,
				},
			})
		}
		out = append(out, wm)
	}
	return out
}

func parseResponse(body []byte) (*LLMResponse, error) {
	var apiResponse chatResponse
	if err := json.Unmarshal(body, &apiResponse); err != nil {
		return nil, fmt.Errorf("unmarshaling response: %w: %v", protocoltypes.ErrInvalidResponse, err)
	}
	if len(apiResponse.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response: %w", protocoltypes.ErrInvalidResponse)
	}

	choice := apiResponse.Choices[0]
	toolCalls := make([]ToolCall, 0, len(choice.Message.ToolCalls))
	for _, tc := range choice.Message.ToolCalls {
		args := map[string]any{}
		if tc.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
				logger.WarnCF("providers.gemini", "Undecodable tool arguments",
					map[string]any{"tool": tc.Function.Name, "error": err.Error()})
				args = map[string]any{"raw": tc.Function.Arguments}
			}
		}
		id := tc.ID
		if id == "" {
			// Gemini sometimes omits call ids on the compat endpoint.
			id = "call-" + uuid.NewString()
		}
		toolCalls = append(toolCalls, ToolCall{
			ID:        id,
			Name:      tc.Function.Name,
			Arguments: args,
			Function: &FunctionCall{
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			},
		})
	}

	return &LLMResponse{
		Content:      choice.Message.Content,
		ToolCalls:    toolCalls,
		FinishReason: choice.FinishReason,
		Usage:        apiResponse.Usage,
	}, nil
}
