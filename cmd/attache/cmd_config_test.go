package main

import (
	"testing"

	"github.com/attache-ai/attache/pkg/config"
)

func TestSetConfigKey(t *testing.T) {
	cfg := config.DefaultConfig()

	if err := setConfigKey(cfg, "provider", "openai"); err != nil {
		t.Fatalf("set provider: %v", err)
	}
	if cfg.Provider != "openai" {
		t.Errorf("provider = %q", cfg.Provider)
	}

	if err := setConfigKey(cfg, "claude.api_key", "sk-test"); err != nil {
		t.Fatalf("set claude.api_key: %v", err)
	}
	if cfg.Claude.APIKey != "sk-test" {
		t.Errorf("claude api key = %q", cfg.Claude.APIKey)
	}

	if err := setConfigKey(cfg, "user.email", "pat@example.com"); err != nil {
		t.Fatalf("set user.email: %v", err)
	}

	if err := setConfigKey(cfg, "provider", "bedrock"); err == nil {
		t.Error("unknown provider accepted")
	}
	if err := setConfigKey(cfg, "calendar.default_type", "outlook"); err == nil {
		t.Error("invalid calendar type accepted")
	}
	if err := setConfigKey(cfg, "does.not.exist", "x"); err == nil {
		t.Error("unknown key accepted")
	}
}

func TestMaskKey(t *testing.T) {
	if got := maskKey(""); got != "(unset)" {
		t.Errorf("empty = %q", got)
	}
	if got := maskKey("short"); got != "****" {
		t.Errorf("short = %q", got)
	}
	got := maskKey("sk-ant-api03-verylongkey")
	if got != "sk-a...gkey" {
		t.Errorf("long = %q", got)
	}
}
