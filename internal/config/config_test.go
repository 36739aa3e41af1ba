package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"physlab/domain/plot"
	"physlab/internal/errors"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultMaxEvaluations, cfg.Fit.MaxEvaluations)
	assert.Equal(t, DefaultSheet, cfg.Live.Sheet)
	assert.Equal(t, time.Second, cfg.Live.RefreshInterval)
	assert.Equal(t, plot.FormatPNG, cfg.Plot.Theme.Format)
	assert.Equal(t, 2.0, cfg.Plot.Theme.FontScale)
	assert.NotEmpty(t, cfg.Wolfram.AppID)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PLOT_FONT_SCALE", "1.5")
	t.Setenv("PLOT_GRID", "false")
	t.Setenv("PLOT_FORMAT", "SVG")
	t.Setenv("FIT_MAX_EVALUATIONS", "500")
	t.Setenv("WOLFRAM_APP_ID", "TEST-ID")
	t.Setenv("WOLFRAM_TIMEOUT", "5s")
	t.Setenv("LIVE_REFRESH", "250ms")
	t.Setenv("LIVE_SHEET", "Data")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 1.5, cfg.Plot.Theme.FontScale)
	assert.False(t, cfg.Plot.Theme.Grid)
	assert.Equal(t, plot.FormatSVG, cfg.Plot.Theme.Format)
	assert.Equal(t, 500, cfg.Fit.MaxEvaluations)
	assert.Equal(t, "TEST-ID", cfg.Wolfram.AppID)
	assert.Equal(t, 5*time.Second, cfg.Wolfram.Timeout)
	assert.Equal(t, 250*time.Millisecond, cfg.Live.RefreshInterval)
	assert.Equal(t, "Data", cfg.Live.Sheet)
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("PLOT_WIDTH", "wide")
	t.Setenv("LIVE_REFRESH", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, plot.DefaultTheme().Width, cfg.Plot.Theme.Width)
	assert.Equal(t, DefaultRefreshInterval, cfg.Live.RefreshInterval)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"PLOT_FORMAT":         "gif",
		"PLOT_HEIGHT":         "-1",
		"FIT_MAX_EVALUATIONS": "0",
		"LIVE_REFRESH":        "-1s",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load()
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.CodeConfigInvalid))
		})
	}
}
