package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// envOverrides lists the environment variables that override file settings.
// Unset variables leave the file value in place.
type envOverrides struct {
	OpenAIKey     string        `env:"OPENAI_API_KEY"`
	QdrantKey     string        `env:"QDRANT_API_KEY"`
	QdrantHost    string        `env:"DRAMANET_QDRANT_HOST"`
	QdrantPort    int           `env:"DRAMANET_QDRANT_PORT"`
	SQLitePath    string        `env:"DRAMANET_SQLITE_PATH"`
	LLMModel      string        `env:"DRAMANET_LLM_MODEL"`
	EmbedderModel string        `env:"DRAMANET_EMBEDDER_MODEL"`
	LogLevel      string        `env:"DRAMANET_LOG_LEVEL"`
	LogFormat     string        `env:"DRAMANET_LOG_FORMAT"`
	WeakStrength  *int          `env:"DRAMANET_WEAK_STRENGTH"`
	OverloadK     *float64      `env:"DRAMANET_OVERLOAD_K"`
	StaleAfter    time.Duration `env:"DRAMANET_STALE_AFTER"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// ApplyEnv applies environment variable overrides. API keys from the
// environment only fill in keys the config file leaves empty.
func (c *Config) ApplyEnv() error {
	var o envOverrides
	if err := ParseEnv(&o); err != nil {
		return err
	}

	if o.OpenAIKey != "" {
		if c.LLM.APIKey == "" {
			c.LLM.APIKey = o.OpenAIKey
		}
		if c.Embedder.APIKey == "" {
			c.Embedder.APIKey = o.OpenAIKey
		}
	}
	if o.QdrantKey != "" && c.Qdrant.APIKey == "" {
		c.Qdrant.APIKey = o.QdrantKey
	}

	setString(&c.Qdrant.Host, o.QdrantHost)
	setString(&c.SQLite.Path, o.SQLitePath)
	setString(&c.LLM.Model, o.LLMModel)
	setString(&c.Embedder.Model, o.EmbedderModel)
	setString(&c.Logging.Level, o.LogLevel)
	setString(&c.Logging.Format, o.LogFormat)
	if o.QdrantPort != 0 {
		c.Qdrant.Port = o.QdrantPort
	}
	if o.WeakStrength != nil {
		c.Analysis.WeakStrength = *o.WeakStrength
	}
	if o.OverloadK != nil {
		c.Analysis.OverloadK = *o.OverloadK
	}
	if o.StaleAfter != 0 {
		c.Analysis.StaleAfter = o.StaleAfter
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
