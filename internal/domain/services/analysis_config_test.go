package services

import (
	"testing"
	"time"

	"github.com/ersonp/dramanet/internal/domain/entities"
	"github.com/stretchr/testify/assert"
)

func TestAnalysisConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *AnalysisConfig)
		wantErr bool
	}{
		{name: "defaults", mutate: func(_ *AnalysisConfig) {}},
		{name: "zero weak threshold", mutate: func(c *AnalysisConfig) { c.WeakStrength = 0 }},
		{name: "negative weak threshold", mutate: func(c *AnalysisConfig) { c.WeakStrength = -1 }, wantErr: true},
		{name: "weak threshold covers every strength", mutate: func(c *AnalysisConfig) { c.WeakStrength = entities.MaxStrength }, wantErr: true},
		{name: "negative k", mutate: func(c *AnalysisConfig) { c.OverloadK = -0.5 }, wantErr: true},
		{name: "negative min characters", mutate: func(c *AnalysisConfig) { c.OverloadMinCharacters = -1 }, wantErr: true},
		{name: "negative stale window", mutate: func(c *AnalysisConfig) { c.StaleAfter = -time.Hour }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultAnalysisConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()

			if tt.wantErr {
				assert.ErrorIs(t, err, entities.ErrValidation)
				return
			}
			assert.NoError(t, err)
		})
	}
}
