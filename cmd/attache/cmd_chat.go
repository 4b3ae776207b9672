package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/attache-ai/attache/pkg/assistant"
)

func newChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the assistant",
		RunE:  runChat,
	}
	cmd.Flags().StringP("message", "m", "", "Send one message and exit")
	cmd.Flags().String("provider", "", "Override the configured LLM provider (claude, openai, gemini, kimi)")
	return cmd
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if override, _ := cmd.Flags().GetString("provider"); override != "" {
		if _, err := cfg.ForProvider(override); err != nil {
			return err
		}
		cfg.SetProvider(override)
	}

	svc, err := buildServices(cfg)
	if err != nil {
		return err
	}

	if message, _ := cmd.Flags().GetString("message"); message != "" {
		reply, err := svc.orchestrator.SendTurn(cmd.Context(), message)
		if err != nil {
			fmt.Println(assistant.Describe(err))
			return err
		}
		fmt.Printf("\n%s %s\n", logo, reply)
		return nil
	}

	fmt.Printf("%s Attaché (%s). Ctrl+C or 'exit' to quit, /reset to clear history.\n\n", logo, cfg.Provider)
	return chatLoop(cmd.Context(), svc.orchestrator)
}

func chatLoop(ctx context.Context, orchestrator *assistant.Orchestrator) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          fmt.Sprintf("%s You: ", logo),
		HistoryFile:     filepath.Join(os.TempDir(), ".attache_history"),
		HistoryLimit:    100,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("initializing readline: %w", err)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
				fmt.Println("\nGoodbye!")
				return nil
			}
			fmt.Printf("Error reading input: %v\n", err)
			continue
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			fmt.Println("Goodbye!")
			return nil
		}
		if input == "/reset" {
			orchestrator.Reset()
			fmt.Println("History cleared.")
			continue
		}
		if input == "/tools" {
			for _, line := range orchestrator.ToolDescriptions() {
				fmt.Println(line)
			}
			continue
		}

		reply, err := orchestrator.SendTurn(ctx, input)
		if err != nil {
			fmt.Printf("%s\n\n", assistant.Describe(err))
			continue
		}
		fmt.Printf("\n%s %s\n\n", logo, reply)
	}
}
