package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "battle_engine.cfg.json"), []byte(body), 0644))
	return dir
}

func TestLoad_WithValidConfigFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := writeConfig(t, `{
		"logLevel": "debug",
		"defaultTag": "tournament",
		"engine": { "defaultFormat": "gen9ubers" },
		"storage": { "postgres": { "host": "10.0.0.1", "port": "5433" } }
	}`)

	err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "debug", viper.GetString("logLevel"))
	assert.Equal(t, "tournament", viper.GetString("defaultTag"))
	assert.Equal(t, "gen9ubers", viper.GetString("engine.defaultFormat"))
	assert.Equal(t, "10.0.0.1", viper.GetString("storage.postgres.host"))
	assert.Equal(t, "5433", viper.GetString("storage.postgres.port"))
}

func TestLoad_DefaultValues(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := writeConfig(t, `{}`)

	err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "info", viper.GetString("logLevel"))
	assert.Equal(t, "ladder", viper.GetString("defaultTag"))
	assert.Equal(t, "./battlelogs", viper.GetString("logsDir"))
	assert.Equal(t, "gen9ou", viper.GetString("engine.defaultFormat"))
	assert.Equal(t, 1000, viper.GetInt("engine.maxTurns"))
	assert.Equal(t, "http://localhost:5000", viper.GetString("api.serverUrl"))
	assert.Equal(t, "", viper.GetString("api.apiKey"))
	assert.Equal(t, "memory", viper.GetString("storage.type"))
	assert.Equal(t, "./replays", viper.GetString("storage.memory.outputDir"))
	assert.Equal(t, true, viper.GetBool("storage.memory.compressOutput"))
	assert.Equal(t, "./battles.db", viper.GetString("storage.sqlite.path"))
	assert.Equal(t, "3m", viper.GetString("storage.sqlite.dumpInterval"))
	assert.Equal(t, "localhost", viper.GetString("storage.postgres.host"))
	assert.Equal(t, "5432", viper.GetString("storage.postgres.port"))
	assert.Equal(t, "pokebattles", viper.GetString("storage.postgres.database"))
	assert.Equal(t, 4, viper.GetInt("worker.count"))
	assert.Equal(t, false, viper.GetBool("influx.enabled"))
	assert.Equal(t, false, viper.GetBool("otel.enabled"))
	assert.Equal(t, "battle-engine", viper.GetString("otel.serviceName"))
	assert.Equal(t, "5s", viper.GetString("otel.batchTimeout"))
	assert.Equal(t, "", viper.GetString("otel.endpoint"))
	assert.Equal(t, true, viper.GetBool("otel.insecure"))
}

func TestLoad_MissingFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	err := Load("/nonexistent/path")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestGetString(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("testKey", "testValue")
	assert.Equal(t, "testValue", GetString("testKey"))
}

func TestGetInt(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("testInt", 42)
	assert.Equal(t, 42, GetInt("testInt"))
}

func TestGetBool(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("testBool", true)
	assert.Equal(t, true, GetBool("testBool"))
}

func TestGetStorageConfig_Defaults(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := writeConfig(t, `{}`)
	require.NoError(t, Load(dir))

	cfg := GetStorageConfig()
	assert.Equal(t, "memory", cfg.Type)
	assert.Equal(t, "./replays", cfg.Memory.OutputDir)
	assert.Equal(t, true, cfg.Memory.CompressOutput)
	assert.Equal(t, 3*time.Minute, cfg.SQLite.DumpInterval)
	assert.Equal(t, "disable", cfg.Postgres.SSLMode)
	assert.Equal(t, 10*time.Second, cfg.Websocket.ConnectTimeout)
}

func TestGetStorageConfig_Override(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := writeConfig(t, `{
		"storage": {
			"type": "sqlite",
			"memory": { "outputDir": "/tmp/out", "compressOutput": false },
			"sqlite": { "dumpInterval": "10m" }
		}
	}`)
	require.NoError(t, Load(dir))

	sc := GetStorageConfig()
	assert.Equal(t, "sqlite", sc.Type)
	assert.Equal(t, "/tmp/out", sc.Memory.OutputDir)
	assert.Equal(t, false, sc.Memory.CompressOutput)
	assert.Equal(t, 10*time.Minute, sc.SQLite.DumpInterval)
}

func TestGetOTelConfig_Defaults(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := writeConfig(t, `{}`)
	require.NoError(t, Load(dir))

	cfg := GetOTelConfig()
	assert.Equal(t, false, cfg.Enabled)
	assert.Equal(t, "battle-engine", cfg.ServiceName)
	assert.Equal(t, 5*time.Second, cfg.BatchTimeout)
	assert.Equal(t, "", cfg.Endpoint)
	assert.Equal(t, true, cfg.Insecure)
}

func TestGetOTelConfig_Override(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := writeConfig(t, `{
		"otel": {
			"enabled": true,
			"serviceName": "my-service",
			"batchTimeout": "30s",
			"endpoint": "localhost:4317",
			"insecure": false
		}
	}`)
	require.NoError(t, Load(dir))

	oc := GetOTelConfig()
	assert.Equal(t, true, oc.Enabled)
	assert.Equal(t, "my-service", oc.ServiceName)
	assert.Equal(t, 30*time.Second, oc.BatchTimeout)
	assert.Equal(t, "localhost:4317", oc.Endpoint)
	assert.Equal(t, false, oc.Insecure)
}
