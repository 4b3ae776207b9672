package main

import (
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/gmail/v1"

	"github.com/attache-ai/attache/pkg/assistant"
	"github.com/attache-ai/attache/pkg/auth"
	"github.com/attache-ai/attache/pkg/calendar"
	"github.com/attache-ai/attache/pkg/config"
	"github.com/attache-ai/attache/pkg/email"
	"github.com/attache-ai/attache/pkg/providers"
	"github.com/attache-ai/attache/pkg/tools"
)

// services bundles the wired-up collaborators behind one conversation.
type services struct {
	cfg          *config.Config
	tokens       *auth.TokenManager
	orchestrator *assistant.Orchestrator
	contextB     *assistant.ContextBuilder
}

func googleOAuthConfig(cfg *config.Config) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes: []string{
			gcal.CalendarScope,
			gmail.GmailSendScope,
			gmail.GmailReadonlyScope,
		},
	}
}

func newTokenManager(cfg *config.Config) (*auth.TokenManager, error) {
	return auth.NewTokenManager(googleOAuthConfig(cfg), cfg.Google.TokenPath)
}

// buildServices wires provider, tools, and context for the configured LLM.
func buildServices(cfg *config.Config) (*services, error) {
	providerCfg, err := cfg.ForProvider(cfg.Provider)
	if err != nil {
		return nil, err
	}

	provider, err := providers.Create(cfg.Provider, providers.Options{
		APIKey: providerCfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("creating %s provider: %w", cfg.Provider, err)
	}

	tokens, err := newTokenManager(cfg)
	if err != nil {
		return nil, fmt.Errorf("loading Google credentials: %w", err)
	}

	googleCal := calendar.NewGoogleProvider(tokens)
	appleCal := calendar.NewAppleProvider("")
	gmailProvider := email.NewGmailProvider(tokens, cfg.User.Name, cfg.User.Email)

	registry := tools.NewToolRegistry()
	registry.Register(tools.NewCalendarCreateTool(googleCal, appleCal))
	registry.Register(tools.NewCalendarListTool(googleCal, appleCal))
	registry.Register(tools.NewEmailSendTool(gmailProvider))
	registry.Register(tools.NewEmailDraftTool())
	registry.Register(tools.NewEmailSearchTool(gmailProvider))
	registry.Register(tools.NewMeetingPrepTool(googleCal, gmailProvider))

	contextBuilder := assistant.NewContextBuilder(
		googleCal, gmailProvider,
		cfg.User.Name, cfg.User.Email,
		tokens.SignedIn,
	)

	var opts []assistant.OrchestratorOption
	if providerCfg.Model != "" {
		opts = append(opts, assistant.WithModel(providerCfg.Model))
	}

	return &services{
		cfg:          cfg,
		tokens:       tokens,
		orchestrator: assistant.NewOrchestrator(provider, registry, contextBuilder, opts...),
		contextB:     contextBuilder,
	}, nil
}
