package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/attache-ai/attache/pkg/auth"
	"github.com/attache-ai/attache/pkg/config"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the Google sign-in used for Calendar and Gmail",
	}
	cmd.AddCommand(
		newAuthLoginCmd(),
		newAuthLogoutCmd(),
		newAuthStatusCmd(),
	)
	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Sign in to Google in the browser",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Google.ClientID == "" || cfg.Google.ClientSecret == "" {
				return fmt.Errorf("google client_id/client_secret missing; set them with `attache config set google.client_id ...`")
			}

			tokens, err := newTokenManager(cfg)
			if err != nil {
				return err
			}

			flow := auth.NewSignInFlow(googleOAuthConfig(cfg), tokens)
			if err := flow.Run(cmd.Context()); err != nil {
				return fmt.Errorf("sign-in failed: %w", err)
			}
			fmt.Println("Signed in to Google.")
			return nil
		},
	}
}

func newAuthLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored Google token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := os.Remove(cfg.Google.TokenPath); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("removing token: %w", err)
			}
			fmt.Println("Signed out.")
			return nil
		},
	}
}

func newAuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show sign-in status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			tokens, err := newTokenManager(cfg)
			if err != nil {
				return err
			}

			if tokens.SignedIn() {
				fmt.Printf("Google: signed in (token at %s)\n", cfg.Google.TokenPath)
			} else {
				fmt.Println("Google: not signed in. Run `attache auth login`.")
			}
			printProviderStatus(cfg)
			return nil
		},
	}
}

func printProviderStatus(cfg *config.Config) {
	for _, name := range []string{"claude", "openai", "gemini", "kimi"} {
		pc, err := cfg.ForProvider(name)
		if err != nil {
			continue
		}
		state := "no API key"
		if pc.APIKey != "" {
			state = "configured"
		}
		marker := " "
		if name == cfg.Provider {
			marker = "*"
		}
		fmt.Printf("%s %-7s %s\n", marker, name, state)
	}
}
