package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/dramanet/internal/domain/services"
	"github.com/ersonp/dramanet/internal/infrastructure/config"
)

func TestParseProfile(t *testing.T) {
	tests := []struct {
		name    string
		pairs   []string
		want    map[string]string
		wantErr bool
	}{
		{name: "none", pairs: nil, want: nil},
		{
			name:  "normalizes keys",
			pairs: []string{"Personality Traits = brooding", "goal=revenge"},
			want:  map[string]string{"personality_traits": "brooding", "goal": "revenge"},
		},
		{name: "value may contain equals", pairs: []string{"motto=a=b"}, want: map[string]string{"motto": "a=b"}},
		{name: "missing equals", pairs: []string{"goal"}, wantErr: true},
		{name: "empty key", pairs: []string{"=x"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseProfile(tt.pairs)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTime(t *testing.T) {
	got, err := parseTime("")
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	got, err = parseTime("2024-06-10")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), got)

	got, err = parseTime("2024-06-10T12:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, 12, got.Hour())

	_, err = parseTime("last week")
	assert.Error(t, err)
}

func TestAnalysisConfigFromFile(t *testing.T) {
	cfg := config.Default()
	got := analysisConfig(cfg.Analysis)

	assert.Equal(t, services.DefaultAnalysisConfig(), got)
	assert.NoError(t, got.Validate())
}

func TestAnalysisFlags_Options(t *testing.T) {
	f := analysisFlags{snapshot: "act-1", asOf: "2024-01-02", narrate: 3}
	opts, err := f.options()
	require.NoError(t, err)
	assert.Equal(t, "act-1", opts.Snapshot)
	assert.Equal(t, 3, opts.Narrate)
	assert.Equal(t, 2024, opts.AsOf.Year())

	f.narrate = -1
	_, err = f.options()
	assert.Error(t, err)
}

func TestJoinSections(t *testing.T) {
	assert.Equal(t, "a\n\nb", joinSections("a\n", "", "b"))
	assert.Equal(t, "", joinSections("", "\n"))
}

func TestEnsureNewline(t *testing.T) {
	assert.Equal(t, "", ensureNewline(""))
	assert.Equal(t, "x\n", ensureNewline("x"))
	assert.Equal(t, "x\n", ensureNewline("x\n"))
}
