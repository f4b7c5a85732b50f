package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("SENSOR_SERVICE_URL", "http://sensor:8001/")
	t.Setenv("SENSOR_SERVICE_TIMEOUT", "2.5")
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "")
	t.Setenv("SENSOR_REFRESH_INTERVAL", "")

	cfg := Load()
	assert.Equal(t, ":8000", cfg.HTTPAddr)
	assert.Equal(t, "http://sensor:8001", cfg.SensorServiceURL)
	assert.Equal(t, 2500*time.Millisecond, cfg.SensorServiceTimeout)
	assert.Equal(t, 30*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 10*time.Second, cfg.SensorRefreshInterval)
}

func TestForServiceKeepsExplicitEnvironment(t *testing.T) {
	t.Setenv("APP_SERVICE", "")
	t.Setenv("HTTP_ADDR", "")
	cfg := Config{AppName: "fieldwatch", HTTPAddr: ":8000"}.ForService("sensor", ":8001")
	assert.Equal(t, "sensor", cfg.AppName)
	assert.Equal(t, ":8001", cfg.HTTPAddr)

	t.Setenv("HTTP_ADDR", ":9000")
	cfg = Config{AppName: "fieldwatch", HTTPAddr: ":9000"}.ForService("sensor", ":8001")
	assert.Equal(t, ":9000", cfg.HTTPAddr)
}

func TestSensorsConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sensors.yml")
	body := `sensors:
  ranges:
    - type: soil_moisture
      min: 10
      max: 20
      unit: "%"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	holder, err := NewSensorsConfigHolder(Config{SensorConfigPath: path}, zap.NewNop())
	require.NoError(t, err)

	got := holder.Get()
	require.Len(t, got.Ranges, 1)
	assert.Equal(t, SensorRange{Type: "soil_moisture", Min: 10, Max: 20, Unit: "%"}, got.Ranges[0])
}

func TestSensorsConfigRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sensors.yml")
	body := `sensors:
  ranges:
    - type: light
      min: 10
      max: 1
      unit: lux
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	_, err := NewSensorsConfigHolder(Config{SensorConfigPath: path}, zap.NewNop())
	require.Error(t, err)
}

func TestValidateSensorsConfig(t *testing.T) {
	require.NoError(t, ValidateSensorsConfig(DefaultSensorsConfig()))
	require.Error(t, ValidateSensorsConfig(SensorsConfig{}))
	require.Error(t, ValidateSensorsConfig(SensorsConfig{Ranges: []SensorRange{{Type: "a", Unit: "%"}, {Type: "a", Unit: "%"}}}))
	require.Error(t, ValidateSensorsConfig(SensorsConfig{Ranges: []SensorRange{{Min: 1, Max: 2, Unit: "%"}}}))
	require.Error(t, ValidateSensorsConfig(SensorsConfig{Ranges: []SensorRange{{Type: "light", Min: 0, Max: 10, Unit: " "}}}))
}

func TestSensorsConfigRejectsMissingUnit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sensors.yml")
	body := `sensors:
  ranges:
    - type: humidity
      min: 40
      max: 90
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	_, err := NewSensorsConfigHolder(Config{SensorConfigPath: path}, zap.NewNop())
	require.ErrorContains(t, err, "unit is required")
}
