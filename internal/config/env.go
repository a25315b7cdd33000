package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// envOverlay lists secrets and deployment knobs that may come from the environment.
type envOverlay struct {
	LLMAPIKey             string `env:"PARLA_LLM_API_KEY"`
	OpenAIAPIKey          string `env:"PARLA_OPENAI_API_KEY"`
	TencentSecretID       string `env:"PARLA_TENCENT_SECRET_ID"`
	TencentSecretKey      string `env:"PARLA_TENCENT_SECRET_KEY"`
	GoogleProject         string `env:"PARLA_GOOGLE_PROJECT"`
	GoogleCredentialsJSON string `env:"PARLA_GOOGLE_CREDENTIALS_JSON"`
	MetricsListen         string `env:"PARLA_METRICS_LISTEN"`
	LogLevel              string `env:"PARLA_LOG_LEVEL"`
}

// ApplyEnv overlays non-empty PARLA_* variables onto cfg.
func ApplyEnv(cfg *Config) error {
	var raw envOverlay
	if err := env.Parse(&raw); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}

	set := func(dst *string, value string) {
		if value != "" {
			*dst = value
		}
	}
	set(&cfg.LLM.APIKey, raw.LLMAPIKey)
	set(&cfg.STT.OpenAI.APIKey, raw.OpenAIAPIKey)
	set(&cfg.STT.Tencent.SecretID, raw.TencentSecretID)
	set(&cfg.STT.Tencent.SecretKey, raw.TencentSecretKey)
	set(&cfg.STT.Google.Project, raw.GoogleProject)
	set(&cfg.STT.Google.CredentialsJSON, raw.GoogleCredentialsJSON)
	set(&cfg.Metrics.Listen, raw.MetricsListen)
	if raw.LogLevel != "" {
		level := strings.ToLower(strings.TrimSpace(raw.LogLevel))
		if err := oneOf("PARLA_LOG_LEVEL", level, logLevels); err != nil {
			return err
		}
		cfg.Log.Level = level
	}
	return nil
}
