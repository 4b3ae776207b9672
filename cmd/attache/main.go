// Attaché - personal calendar and email assistant
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/attache-ai/attache/pkg/config"
	"github.com/attache-ai/attache/pkg/logger"
)

var (
	version   = "dev"
	gitCommit string
	buildTime string
)

const logo = "📎"

func formatVersion() string {
	v := version
	if gitCommit != "" {
		v += fmt.Sprintf(" (git: %s)", gitCommit)
	}
	return v
}

func loadConfig() (*config.Config, error) {
	// .env is optional; real config lives in the config file plus
	// ATTACHE_* environment overrides.
	_ = godotenv.Load()

	cfg, err := config.Load(config.DefaultPath())
	if err != nil {
		return nil, err
	}

	logger.SetLevel(logger.ParseLevel(cfg.Logging.Level))
	if cfg.Logging.File != "" {
		if err := logger.EnableFileLogging(cfg.Logging.File); err != nil {
			logger.WarnCF("main", "File logging disabled", map[string]any{"error": err.Error()})
		}
	}
	return cfg, nil
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "attache",
		Short:         "Attaché - personal calendar and email assistant",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().Bool("debug", false, "enable debug logging")
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if debug, _ := cmd.Flags().GetBool("debug"); debug {
			logger.SetLevel(logger.DEBUG)
		}
	}

	root.AddCommand(
		newChatCmd(),
		newBriefingCmd(),
		newAuthCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s attache %s\n", logo, formatVersion())
			if buildTime != "" {
				fmt.Printf("  Build: %s\n", buildTime)
			}
			fmt.Printf("  Go: %s\n", runtime.Version())
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
