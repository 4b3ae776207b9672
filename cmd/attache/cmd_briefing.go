package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newBriefingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "briefing",
		Short: "Print today's schedule and unread email highlights",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			svc, err := buildServices(cfg)
			if err != nil {
				return err
			}

			fmt.Println(svc.contextB.DailyBriefing(cmd.Context()))
			return nil
		},
	}
}
