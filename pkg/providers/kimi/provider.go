package kimiprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/attache-ai/attache/pkg/providers/protocoltypes"
)

type (
	LLMResponse    = protocoltypes.LLMResponse
	UsageInfo      = protocoltypes.UsageInfo
	Message        = protocoltypes.Message
	ToolDefinition = protocoltypes.ToolDefinition
)

const (
	defaultModel          = "moonshot-v1-8k"
	defaultBaseURL        = "https://api.moonshot.ai/v1"
	defaultRequestTimeout = 120 * time.Second
)

// Provider is the plain-chat Kimi (Moonshot) adapter. It advertises no tool
// catalog and never parses tool calls; the orchestrator checks
// SupportsTools and skips tool wiring for this provider.
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

func (p *Provider) SupportsTools() bool {
	return false
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []wireMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature *float64      `json:"temperature,omitempty"`
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
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
		Model:    strings.TrimPrefix(model, "moonshot/"),
		Messages: flattenMessages(messages),
	}
	if maxTokens, ok := options["max_tokens"].(int); ok {
		reqBody.MaxTokens = maxTokens
	}
	if temp, ok := options["temperature"].(float64); ok {
		// kimi k2 models only accept temperature=1
		if strings.Contains(strings.ToLower(reqBody.Model), "k2") {
			temp = 1.0
		}
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
		return nil, fmt.Errorf("kimi API call: %w",
			&protocoltypes.APIError{Status: resp.StatusCode, Body: string(body)})
	}

	var apiResponse chatResponse
	if err := json.Unmarshal(body, &apiResponse); err != nil {
		return nil, fmt.Errorf("unmarshaling response: %w: %v", protocoltypes.ErrInvalidResponse, err)
	}
	if len(apiResponse.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response: %w", protocoltypes.ErrInvalidResponse)
	}

	choice := apiResponse.Choices[0]
	return &LLMResponse{
		Content:      choice.Message.Content,
		FinishReason: choice.FinishReason,
		Usage:        apiResponse.Usage,
	}, nil
}

// flattenMessages drops tool-call structure: tool results become plain user
// context lines so a turn that ran tools elsewhere still replays sensibly.
func flattenMessages(messages []Message) []wireMessage {
	out := make([]wireMessage, 0, len(messages))
	for _, m := range messages {
		role := m.Role
		content := m.Content
		if role == "tool" {
			role = "user"
			content = "Tool result:\n" + content
		}
		if content == "" {
			continue
		}
		out = append(out, wireMessage{Role: role, Content: content})
	}
	return out
}
