package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"animedb/internal/daemonrun"
	"animedb/internal/notifications"
	"animedb/internal/preflight"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var logLevel string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{LogLevel: logLevel})
		},
	}
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override the configured log level")
	return cmd
}

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check directories, catalog storage, and the LLM connection",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			checks := preflight.RunAll(cmd.Context(), cfg)
			if !cfg.LLMEnabled() {
				checks = append(checks, preflight.CheckLLMFromConfig(cmd.Context(), cfg))
			}
			checks = append(checks, preflight.CheckNotificationsFromConfig(cfg))
			if ctx.wantJSON() {
				if err := writeJSON(cmd, checks); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Config: %s\n", ctx.configPath)
				rows := make([][]string, 0, len(checks))
				for _, check := range checks {
					status := "ok"
					if !check.Passed {
						status = "FAIL"
						if check.Optional {
							status = "warn"
						}
					}
					rows = append(rows, []string{check.Name, status, check.Detail})
				}
				fmt.Fprintln(out, renderTable([]string{"Check", "Status", "Detail"}, rows))
			}
			if blocking := preflight.Blocking(checks); len(blocking) > 0 {
				names := make([]string, 0, len(blocking))
				for _, b := range blocking {
					names = append(names, b.Name)
				}
				return fmt.Errorf("doctor: failed checks: %s", strings.Join(names, ", "))
			}
			return nil
		},
	}
}

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if strings.TrimSpace(cfg.Notifications.NtfyTopic) == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "ntfy topic not configured")
				return nil
			}
			notifier := notifications.NewService(cfg)
			if err := notifier.Publish(cmd.Context(), notifications.EventTest, nil); err != nil {
				return fmt.Errorf("send test notification: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Test notification sent")
			return nil
		},
	}
}
