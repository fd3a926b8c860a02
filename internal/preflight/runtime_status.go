package preflight

import (
	"context"

	"animedb/internal/config"
)

// CheckLLMFromConfig reports the LLM as disabled, or probes it when enabled.
func CheckLLMFromConfig(ctx context.Context, cfg *config.Config) Result {
	const name = "LLM"
	switch {
	case cfg == nil:
		return optional(fail(name, "Unknown"))
	case !cfg.LLMEnabled():
		return optional(pass(name, "Disabled (pattern parsing only)"))
	}
	check := optional(CheckLLM(ctx, name, cfg.GetLLM()))
	if check.Passed {
		check.Detail += " (" + cfg.LLM.Model + ")"
	}
	return check
}

// CheckNotificationsFromConfig reports the configured ntfy topic, if any.
func CheckNotificationsFromConfig(cfg *config.Config) Result {
	const name = "Notifications"
	switch {
	case cfg == nil:
		return optional(fail(name, "Unknown"))
	case cfg.Notifications.NtfyTopic == "":
		return optional(pass(name, "Disabled"))
	default:
		return optional(pass(name, "%s", cfg.Notifications.NtfyTopic))
	}
}
