package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/attache-ai/attache/pkg/auth"
	"github.com/attache-ai/attache/pkg/logger"
	"github.com/attache-ai/attache/pkg/providers"
	"github.com/attache-ai/attache/pkg/providers/protocoltypes"
	"github.com/attache-ai/attache/pkg/tools"
)

// turnState tracks where a turn is for logging; it never persists between
// turns.
type turnState int

const (
	stateIdle turnState = iota
	stateAwaitingFirstResponse
	stateAwaitingToolResult
	stateAwaitingFinalResponse
	stateDone
)

func (s turnState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateAwaitingFirstResponse:
		return "awaiting_first_response"
	case stateAwaitingToolResult:
		return "awaiting_tool_result"
	case stateAwaitingFinalResponse:
		return "awaiting_final_response"
	case stateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Orchestrator drives one conversation: it assembles the prompt, calls the
// provider, executes at most one tool round per turn, and keeps the
// message history.
type Orchestrator struct {
	provider providers.LLMProvider
	registry *tools.ToolRegistry
	contextB *ContextBuilder
	tokens   *auth.TokenManager // nil unless the provider uses OAuth credentials
	model    string
	limiter  *rate.Limiter
	history  []providers.Message
}

type OrchestratorOption func(*Orchestrator)

// WithModel overrides the provider's default model.
func WithModel(model string) OrchestratorOption {
	return func(o *Orchestrator) {
		o.model = model
	}
}

// WithOAuthTokens enables the single 401 refresh-and-retry against the
// given credential.
func WithOAuthTokens(tm *auth.TokenManager) OrchestratorOption {
	return func(o *Orchestrator) {
		o.tokens = tm
	}
}

func NewOrchestrator(provider providers.LLMProvider, registry *tools.ToolRegistry, contextBuilder *ContextBuilder, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		provider: provider,
		registry: registry,
		contextB: contextBuilder,
		limiter:  rate.NewLimiter(rate.Limit(2), 4),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.model == "" {
		o.model = provider.GetDefaultModel()
	}
	return o
}

// History returns the accumulated conversation messages.
func (o *Orchestrator) History() []providers.Message {
	return o.history
}

// Reset clears the conversation history.
func (o *Orchestrator) Reset() {
	o.history = nil
}

// SendTurn runs one user message through to one final assistant reply,
// including at most one tool-execution round trip.
func (o *Orchestrator) SendTurn(ctx context.Context, userText string) (string, error) {
	state := stateIdle

	var toolDefs []providers.ToolDefinition
	if providers.SupportsTools(o.provider) && o.registry != nil {
		toolDefs = o.registry.ToProviderDefs()
	}

	messages := o.contextB.BuildMessages(ctx, o.history, userText)

	state = stateAwaitingFirstResponse
	logger.DebugCF("assistant", "Turn state", map[string]any{"state": state.String()})

	response, err := o.chat(ctx, messages, toolDefs)
	if err != nil {
		return "", &TurnError{Phase: "request", Err: err}
	}

	o.history = append(o.history, providers.Message{Role: "user", Content: userText})

	if len(response.ToolCalls) == 0 {
		state = stateDone
		o.history = append(o.history, providers.Message{Role: "assistant", Content: response.Content})
		logger.InfoCF("assistant", "Turn complete", map[string]any{
			"state":         state.String(),
			"content_chars": len(response.Content),
		})
		return response.Content, nil
	}

	// One tool round per turn: only the first call is executed.
	state = stateAwaitingToolResult
	tc := providers.NormalizeToolCall(response.ToolCalls[0])
	logger.InfoCF("assistant", "Tool call requested", map[string]any{
		"state": state.String(),
		"tool":  tc.Name,
	})

	result := o.registry.Execute(tools.WithUserMessage(ctx, userText), tc.Name, tc.Arguments)

	assistantMsg := providers.Message{Role: "assistant", Content: response.Content}
	argumentsJSON, _ := json.Marshal(tc.Arguments)
	assistantMsg.ToolCalls = append(assistantMsg.ToolCalls, providers.ToolCall{
		ID:   tc.ID,
		Type: "function",
		Name: tc.Name,
		Function: &protocoltypes.FunctionCall{
			Name:      tc.Name,
			Arguments: string(argumentsJSON),
		},
	})

	toolMsg := providers.Message{
		Role:       "tool",
		Content:    result.ForLLM,
		ToolCallID: tc.ID,
	}
	if toolMsg.Content == "" && result.Err != nil {
		toolMsg.Content = result.Err.Error()
	}

	messages = append(messages, assistantMsg, toolMsg)
	o.history = append(o.history, assistantMsg, toolMsg)

	state = stateAwaitingFinalResponse
	logger.DebugCF("assistant", "Turn state", map[string]any{"state": state.String()})

	followUp, err := o.chat(ctx, messages, toolDefs)
	if err != nil {
		return "", &TurnError{Phase: "follow-up", Err: err}
	}

	// The follow-up is final text; a tool call nested in it is not
	// re-executed. When the model sends no text at all, the tool's own
	// output is the best available reply.
	final := followUp.Content
	if final == "" {
		final = result.ForLLM
	}

	state = stateDone
	o.history = append(o.history, providers.Message{Role: "assistant", Content: final})
	logger.InfoCF("assistant", "Turn complete", map[string]any{
		"state":         state.String(),
		"tool":          tc.Name,
		"content_chars": len(final),
	})
	return final, nil
}

// chat issues one provider request. On a 401 from an OAuth-backed
// provider it refreshes the token exactly once and retries once; a second
// 401 surfaces as an authentication error with no third attempt.
func (o *Orchestrator) chat(ctx context.Context, messages []providers.Message, toolDefs []providers.ToolDefinition) (*providers.LLMResponse, error) {
	if err := o.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	// Snapshot the credential the provider is about to use, so a 401 can
	// name it as stale and the refresh stays single-flight.
	var stale string
	if o.tokens != nil {
		var err error
		stale, err = o.tokens.AccessToken(ctx)
		if err != nil {
			return nil, err
		}
	}

	response, err := o.provider.Chat(ctx, messages, toolDefs, o.model, nil)
	if err == nil {
		return response, nil
	}
	if !providers.IsUnauthorized(err) || o.tokens == nil {
		return nil, err
	}

	logger.WarnCF("assistant", "Provider returned 401, refreshing token", map[string]any{
		"model": o.model,
	})
	if _, refreshErr := o.tokens.RefreshAfterUnauthorized(ctx, stale); refreshErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthentication, refreshErr)
	}

	response, err = o.provider.Chat(ctx, messages, toolDefs, o.model, nil)
	if err != nil {
		if providers.IsUnauthorized(err) {
			return nil, fmt.Errorf("%w: %v", ErrAuthentication, err)
		}
		return nil, err
	}
	return response, nil
}

// ToolDescriptions lists the registered tools for display.
func (o *Orchestrator) ToolDescriptions() []string {
	if o.registry == nil {
		return nil
	}
	return o.registry.GetSummaries()
}

// IsAuthError reports whether a turn failed on credentials.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrAuthentication) || errors.Is(err, auth.ErrNotSignedIn)
}
