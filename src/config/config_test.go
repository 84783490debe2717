package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"assetfolio/src/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSettings(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "settings")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestLoadConfig(t *testing.T) {
	t.Run("base file with defaults", func(t *testing.T) {
		dir := writeSettings(t, map[string]string{
			"appsettings.yaml": `
databases:
  sql:
    host: db
    port: "5432"
    username: u
    password: p
    database: folio
`,
		})

		cfg, err := config.LoadConfig(dir, "")
		require.NoError(t, err)
		assert.Equal(t, config.API, cfg.Service.Type)
		assert.Equal(t, "8088", cfg.Service.Port)
		assert.Equal(t, 10*time.Second, cfg.Service.RequestTimeout)
		assert.Equal(t, config.DriverPostgres, cfg.Databases.SQL.Driver)
		assert.Equal(t, "host=db user=u password=p dbname=folio port=5432 sslmode=disable", cfg.Databases.SQL.DSN())
	})

	t.Run("environment overlay", func(t *testing.T) {
		dir := writeSettings(t, map[string]string{
			"appsettings.yaml": `
service:
  port: "9000"
databases:
  sql:
    connection_string: postgres://base
`,
			"appsettings.TESTING.yaml": `
databases:
  sql:
    driver: memory
reports:
  cacheTTL: 45s
`,
		})

		cfg, err := config.LoadConfig(dir, "TESTING")
		require.NoError(t, err)
		assert.Equal(t, "9000", cfg.Service.Port)
		assert.Equal(t, config.DriverMemory, cfg.Databases.SQL.Driver)
		assert.Equal(t, 45*time.Second, cfg.Reports.CacheTTL)
		assert.Equal(t, "postgres://base", cfg.Databases.SQL.DSN())
	})

	t.Run("missing overlay is ignored", func(t *testing.T) {
		dir := writeSettings(t, map[string]string{"appsettings.yaml": "service:\n  type: WORKER\n"})

		cfg, err := config.LoadConfig(dir, "STAGING")
		require.NoError(t, err)
		assert.Equal(t, config.WORKER, cfg.Service.Type)
	})

	t.Run("unknown driver is rejected", func(t *testing.T) {
		dir := writeSettings(t, map[string]string{"appsettings.yaml": "databases:\n  sql:\n    driver: oracle\n"})

		_, err := config.LoadConfig(dir, "")
		assert.Error(t, err)
	})

	t.Run("missing base file", func(t *testing.T) {
		_, err := config.LoadConfig(t.TempDir(), "")
		assert.Error(t, err)
	})
}
