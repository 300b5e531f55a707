package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettings_Defaults(t *testing.T) {
	s, err := LoadSettings(viper.New(), "", "")
	require.NoError(t, err)

	assert.Equal(t, "", s.Rules.Dir)
	assert.Equal(t, 0, s.TaxYear)
	assert.Equal(t, 0, s.Batch.Workers)
	assert.Equal(t, "console", s.Output.Format)
	assert.Equal(t, "warn", s.Log.Level)
	assert.Equal(t, "console", s.Log.Format)
}

func TestLoadSettings_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	rulesDir := filepath.Join(dir, "rules")
	require.NoError(t, os.Mkdir(rulesDir, 0o755))
	cfg := filepath.Join(dir, "taxengine.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte(`
rules:
  dir: `+rulesDir+`
tax_year: 2025
batch:
  workers: 4
output:
  format: json
log:
  level: debug
  format: json
`), 0o644))

	s, err := LoadSettings(viper.New(), cfg, "")
	require.NoError(t, err)

	assert.Equal(t, rulesDir, s.Rules.Dir)
	assert.Equal(t, 2025, s.TaxYear)
	assert.Equal(t, 4, s.Batch.Workers)
	assert.Equal(t, "json", s.Output.Format)
	assert.Equal(t, "debug", s.Log.Level)
}

func TestLoadSettings_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "taxengine.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("batch:\n  workers: 4\n"), 0o644))
	t.Setenv("TAXENGINE_BATCH_WORKERS", "16")
	t.Setenv("TAXENGINE_OUTPUT_FORMAT", "csv")

	s, err := LoadSettings(viper.New(), cfg, "")
	require.NoError(t, err)

	assert.Equal(t, 16, s.Batch.Workers)
	assert.Equal(t, "csv", s.Output.Format)
}

func TestLoadSettings_DotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("TAXENGINE_TAX_YEAR=2024\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("TAXENGINE_TAX_YEAR") })

	s, err := LoadSettings(viper.New(), "", envFile)
	require.NoError(t, err)
	assert.Equal(t, 2024, s.TaxYear)
}

func TestLoadSettings_MissingDotEnvIsFine(t *testing.T) {
	_, err := LoadSettings(viper.New(), "", filepath.Join(t.TempDir(), ".env"))
	assert.NoError(t, err)
}

func TestLoadSettings_MissingExplicitConfig(t *testing.T) {
	_, err := LoadSettings(viper.New(), filepath.Join(t.TempDir(), "nope.yaml"), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config")
}

func TestSettings_Validate(t *testing.T) {
	valid := func() Settings {
		return Settings{Log: LogSettings{Level: "info", Format: "console"}, Output: OutputSettings{Format: "json"}}
	}
	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr string
	}{
		{"valid", func(*Settings) {}, ""},
		{"old tax year", func(s *Settings) { s.TaxYear = 1900 }, "tax_year"},
		{"negative workers", func(s *Settings) { s.Batch.Workers = -1 }, "batch.workers"},
		{"bad log level", func(s *Settings) { s.Log.Level = "loud" }, "invalid log level"},
		{"bad log format", func(s *Settings) { s.Log.Format = "xml" }, "invalid log format"},
		{"missing rules dir", func(s *Settings) { s.Rules.Dir = "/does/not/exist" }, "rules.dir"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			tt.mutate(&s)
			err := s.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
