package services

import (
	"time"

	"github.com/ersonp/dramanet/internal/domain/entities"
)

// Analysis defaults.
const (
	DefaultWeakStrength          = 3
	DefaultOverloadK             = 1.5
	DefaultOverloadMinCharacters = 3
)

// AnalysisConfig holds the thresholds shared by every analysis engine so
// that diagnostics, treatment and efficiency never disagree about what
// counts as weak or overloaded.
type AnalysisConfig struct {
	// WeakStrength is the highest strength still considered weak.
	WeakStrength int `yaml:"weak_strength" json:"weak_strength"`
	// OverloadK is the number of standard deviations above the mean
	// involvement a character must exceed to be flagged as overloaded.
	OverloadK float64 `yaml:"overload_k" json:"overload_k"`
	// OverloadMinCharacters disables overload detection on smaller networks.
	OverloadMinCharacters int `yaml:"overload_min_characters" json:"overload_min_characters"`
	// StaleAfter flags unresolved conflicts not touched within this window.
	// Zero disables the recency check.
	StaleAfter time.Duration `yaml:"stale_after" json:"stale_after"`
	// AsOf is the reference time for the recency check.
	AsOf time.Time `yaml:"-" json:"as_of,omitempty"`
}

// DefaultAnalysisConfig returns the default thresholds.
func DefaultAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		WeakStrength:          DefaultWeakStrength,
		OverloadK:             DefaultOverloadK,
		OverloadMinCharacters: DefaultOverloadMinCharacters,
	}
}

// Validate rejects out-of-range thresholds.
func (c AnalysisConfig) Validate() error {
	if c.WeakStrength < 0 || c.WeakStrength >= entities.MaxStrength {
		return entities.NewValidationError("config", "weak_strength", "must be in [0,%d), got %d", entities.MaxStrength, c.WeakStrength)
	}
	if c.OverloadK < 0 {
		return entities.NewValidationError("config", "overload_k", "must not be negative, got %g", c.OverloadK)
	}
	if c.OverloadMinCharacters < 0 {
		return entities.NewValidationError("config", "overload_min_characters", "must not be negative, got %d", c.OverloadMinCharacters)
	}
	if c.StaleAfter < 0 {
		return entities.NewValidationError("config", "stale_after", "must not be negative, got %s", c.StaleAfter)
	}
	return nil
}

// recencyEnabled reports whether stale-conflict detection is active.
func (c AnalysisConfig) recencyEnabled() bool {
	return c.StaleAfter > 0 && !c.AsOf.IsZero()
}

// isWeak reports whether a strength falls at or below the weak threshold.
func (c AnalysisConfig) isWeak(strength int) bool {
	return strength <= c.WeakStrength
}
