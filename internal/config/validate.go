package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Validate checks Config for production-critical problems.
// It collects all errors into a single joined error.
func (c *Config) Validate() error {
	var errs []string

	if c.Completion.APIKey == "" {
		errs = append(errs, "COMPLETION_API_KEY is required")
	}
	if c.DB.Password == "" {
		errs = append(errs, "DB_PASSWORD is required")
	}

	// Port ranges
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT must be 1-65535, got %d", c.Server.Port))
	}
	if c.DB.Port < 1 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Sprintf("DB_PORT must be 1-65535, got %d", c.DB.Port))
	}
	if c.Redis.Port < 1 || c.Redis.Port > 65535 {
		errs = append(errs, fmt.Sprintf("REDIS_PORT must be 1-65535, got %d", c.Redis.Port))
	}

	if c.Pipeline.ReplyTokenReserve >= c.Pipeline.TokenBudget {
		errs = append(errs, fmt.Sprintf("PIPELINE_REPLY_TOKEN_RESERVE (%d) must be below PIPELINE_TOKEN_BUDGET (%d)",
			c.Pipeline.ReplyTokenReserve, c.Pipeline.TokenBudget))
	}
	if c.Pipeline.RateLimitMax < 1 {
		errs = append(errs, "PIPELINE_RATE_LIMIT_MAX must be at least 1")
	}
	if c.TTS.DailyCharLimit < 1 {
		errs = append(errs, "TTS_DAILY_CHAR_LIMIT must be at least 1")
	}

	// Optional providers: warn only, the features degrade when unset.
	if c.Pipeline.EnableSearch && c.Search.APIKey == "" {
		slog.Warn("SEARCH_API_KEY is empty, search augmentation will be skipped")
	}
	if c.TTS.APIKey == "" {
		slog.Warn("TTS_API_KEY is empty, speech synthesis is unavailable")
	}

	if len(errs) > 0 {
		return errors.New("config validation failed:\n  " + strings.Join(errs, "\n  "))
	}
	return nil
}
