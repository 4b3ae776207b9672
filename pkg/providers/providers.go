// Package providers re-exports the wire-neutral chat types and constructs
// the concrete LLM adapters.
package providers

import (
	"fmt"

	anthropicprovider "github.com/attache-ai/attache/pkg/providers/anthropic"
	geminiprovider "github.com/attache-ai/attache/pkg/providers/gemini"
	kimiprovider "github.com/attache-ai/attache/pkg/providers/kimi"
	openaiprovider "github.com/attache-ai/attache/pkg/providers/openai"
	"github.com/attache-ai/attache/pkg/providers/protocoltypes"
)

type (
	ToolCall               = protocoltypes.ToolCall
	FunctionCall           = protocoltypes.FunctionCall
	LLMResponse            = protocoltypes.LLMResponse
	UsageInfo              = protocoltypes.UsageInfo
	Message                = protocoltypes.Message
	ToolDefinition         = protocoltypes.ToolDefinition
	ToolFunctionDefinition = protocoltypes.ToolFunctionDefinition
	LLMProvider            = protocoltypes.LLMProvider
	APIError               = protocoltypes.APIError
)

var (
	ErrInvalidResponse = protocoltypes.ErrInvalidResponse
	ErrNotConfigured   = protocoltypes.ErrNotConfigured
)

func NormalizeToolCall(tc ToolCall) ToolCall { return protocoltypes.NormalizeToolCall(tc) }
func SupportsTools(p LLMProvider) bool       { return protocoltypes.SupportsTools(p) }
func IsUnauthorized(err error) bool          { return protocoltypes.IsUnauthorized(err) }

// Names lists the supported providers in display order.
var Names = []string{"claude", "openai", "gemini", "kimi"}

// Options carries per-provider construction settings.
type Options struct {
	APIKey  string
	BaseURL string
	// TokenSource, when set on an OAuth-capable provider (claude), supplies
	// a fresh access token per request.
	TokenSource func() (string, error)
}

// Create is the single construction point for an LLMProvider. Swapping a
// vendor SDK means touching only this function and the adapter it names.
func Create(name string, opts Options) (LLMProvider, error) {
	if opts.APIKey == "" && opts.TokenSource == nil {
		return nil, fmt.Errorf("%w: %s has no API key", ErrNotConfigured, name)
	}
	switch name {
	case "claude":
		if opts.TokenSource != nil {
			return anthropicprovider.NewProviderWithTokenSource(opts.APIKey, opts.TokenSource), nil
		}
		return anthropicprovider.NewProviderWithBaseURL(opts.APIKey, opts.BaseURL), nil
	case "openai":
		return openaiprovider.NewProviderWithBaseURL(opts.APIKey, opts.BaseURL), nil
	case "gemini":
		return geminiprovider.NewProviderWithBaseURL(opts.APIKey, opts.BaseURL), nil
	case "kimi":
		return kimiprovider.NewProviderWithBaseURL(opts.APIKey, opts.BaseURL), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", name)
	}
}
