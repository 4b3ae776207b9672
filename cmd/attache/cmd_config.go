package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/attache-ai/attache/pkg/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change configuration",
	}
	cmd.AddCommand(newConfigShowCmd(), newConfigSetCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration (keys masked)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			fmt.Printf("config file: %s\n\n", config.DefaultPath())
			fmt.Printf("provider: %s\n", cfg.Provider)
			fmt.Printf("user: %s <%s>\n", cfg.User.Name, cfg.User.Email)
			for _, p := range []struct {
				name string
				pc   config.ProviderConfig
			}{
				{"claude", cfg.Claude},
				{"openai", cfg.OpenAI},
				{"gemini", cfg.Gemini},
				{"kimi", cfg.Kimi},
			} {
				fmt.Printf("%s: api_key=%s model=%s\n", p.name, maskKey(p.pc.APIKey), p.pc.Model)
			}
			fmt.Printf("google: client_id=%s token_path=%s\n", cfg.Google.ClientID, cfg.Google.TokenPath)
			fmt.Printf("calendar: default=%s\n", cfg.Calendar.DefaultType)
			fmt.Printf("logging: level=%s file=%s\n", cfg.Logging.Level, cfg.Logging.File)
			return nil
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration value and save the config file.

Keys:
  provider                       claude | openai | gemini | kimi
  user.name, user.email
  claude.api_key, claude.model   (same for openai, gemini, kimi)
  google.client_id, google.client_secret
  calendar.default_type          google | apple
  logging.level, logging.file`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := setConfigKey(cfg, args[0], args[1]); err != nil {
				return err
			}
			if err := cfg.Save(); err != nil {
				return err
			}
			fmt.Printf("Set %s.\n", args[0])
			return nil
		},
	}
}

func setConfigKey(cfg *config.Config, key, value string) error {
	providerBlock := func(name string) *config.ProviderConfig {
		switch name {
		case "claude":
			return &cfg.Claude
		case "openai":
			return &cfg.OpenAI
		case "gemini":
			return &cfg.Gemini
		case "kimi":
			return &cfg.Kimi
		default:
			return nil
		}
	}

	switch key {
	case "provider":
		if _, err := cfg.ForProvider(value); err != nil {
			return err
		}
		cfg.SetProvider(value)
	case "user.name":
		cfg.User.Name = value
	case "user.email":
		cfg.User.Email = value
	case "google.client_id":
		cfg.Google.ClientID = value
	case "google.client_secret":
		cfg.Google.ClientSecret = value
	case "calendar.default_type":
		if value != "google" && value != "apple" {
			return fmt.Errorf("calendar.default_type must be google or apple")
		}
		cfg.Calendar.DefaultType = value
	case "logging.level":
		cfg.Logging.Level = value
	case "logging.file":
		cfg.Logging.File = value
	default:
		parts := strings.SplitN(key, ".", 2)
		if len(parts) == 2 {
			if block := providerBlock(parts[0]); block != nil {
				switch parts[1] {
				case "api_key":
					block.APIKey = value
					return nil
				case "model":
					block.Model = value
					return nil
				}
			}
		}
		return fmt.Errorf("unknown config key %q", key)
	}
	return nil
}

func maskKey(key string) string {
	if key == "" {
		return "(unset)"
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
