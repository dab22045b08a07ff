package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "clickhouse", cfg.Warehouse.Driver)
	assert.Equal(t, "default_db", cfg.Warehouse.Database)
	assert.Equal(t, 250, cfg.AmoCRM.PageLimit)
	assert.Equal(t, 30, cfg.AmoCRM.TimeoutSecs)
	assert.Equal(t, "artroyal-detailing.ru", cfg.Normalize.SiteMarker)
	assert.Equal(t, "artroyal_detailing", cfg.Clients.DefaultSlug)
	assert.Equal(t, int64(1), cfg.Clients.Map["artroyal_detailing"])
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("LEADS_LOG_LEVEL", "debug")
	t.Setenv("LEADS_WAREHOUSE_DRIVER", "postgres")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "postgres", cfg.Warehouse.Driver)
}

func TestInitLoggerRejectsBadLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "chatty", Format: "json"})
	assert.Error(t, err)
}
