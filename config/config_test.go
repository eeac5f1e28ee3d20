package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDefaults(t *testing.T) {
	var c AppConfig
	applyDefaults(&c)

	assert.Equal(t, "8080", c.AppPort)
	assert.Equal(t, "release", c.GinMode)
	assert.Equal(t, 60, c.RateLimitPerMinute)
	assert.Equal(t, []string{"*"}, c.AllowedOrigins)
	assert.Equal(t, 330, c.DayOffsetMinutes)
	assert.Equal(t, 30, c.RetentionDays)
	assert.Equal(t, 300, c.ResetCheckIntervalS)
	assert.Equal(t, 20, c.BonusRewardCurrency)
	assert.Equal(t, 60, c.CacheTTLSeconds)
}

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadJSONConfig(t *testing.T) {
	path := writeConfigFile(t, `{
		"app": {"AppPort": "9000", "RateLimitPerMinute": 120},
		"settlement": {"DayOffsetMinutes": 330, "RetentionDays": 7, "BonusRewardCurrency": 50},
		"log": {"Level": "debug"}
	}`)

	var c AppConfig
	require.NoError(t, loadJSONConfig(path, &c))
	applyDefaults(&c)

	assert.Equal(t, "9000", c.AppPort)
	assert.Equal(t, 120, c.RateLimitPerMinute)
	assert.Equal(t, 330, c.DayOffsetMinutes)
	assert.Equal(t, 7, c.RetentionDays)
	assert.Equal(t, 50, c.BonusRewardCurrency)
	assert.Equal(t, "debug", c.LogLevel)
}

func TestExplicitZeroOffsetMeansUTC(t *testing.T) {
	path := writeConfigFile(t, `{"settlement": {"DayOffsetMinutes": 0}}`)

	var c AppConfig
	require.NoError(t, loadJSONConfig(path, &c))
	applyDefaults(&c)

	assert.Equal(t, 0, c.DayOffsetMinutes)
}

func TestMissingConfigFileIsIgnored(t *testing.T) {
	var c AppConfig
	assert.NoError(t, loadJSONConfig(filepath.Join(t.TempDir(), "nope.json"), &c))
}

func TestInvalidJSONReportsError(t *testing.T) {
	path := writeConfigFile(t, `{not json`)

	var c AppConfig
	assert.Error(t, loadJSONConfig(path, &c))
}

func TestSplitAndTrim(t *testing.T) {
	assert.Equal(t,
		[]string{"https://a.example", "https://b.example"},
		splitAndTrim(" https://a.example , https://b.example ,"))
}
