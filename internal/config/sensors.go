package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// SensorRange describes how synthetic readings are drawn for one sensor type.
type SensorRange struct {
	Type string  `mapstructure:"type"`
	Min  float64 `mapstructure:"min"`
	Max  float64 `mapstructure:"max"`
	Unit string  `mapstructure:"unit"`
}

type SensorsConfig struct {
	Ranges []SensorRange `mapstructure:"ranges"`
}

func DefaultSensorsConfig() SensorsConfig {
	return SensorsConfig{
		Ranges: []SensorRange{
			{Type: "soil_moisture", Min: 20, Max: 80, Unit: "%"},
			{Type: "temperature", Min: 15, Max: 35, Unit: "°C"},
			{Type: "humidity", Min: 40, Max: 90, Unit: "%"},
			{Type: "light", Min: 0, Max: 1000, Unit: "lux"},
		},
	}
}

type SensorsConfigHolder struct {
	current atomic.Value // holds SensorsConfig
}

// NewStaticSensorsConfigHolder returns a holder that never reloads.
func NewStaticSensorsConfigHolder(cfg SensorsConfig) *SensorsConfigHolder {
	holder := &SensorsConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

// NewSensorsConfigHolder loads sensors.yml and keeps it hot-reloaded.
func NewSensorsConfigHolder(cfg Config, log *zap.Logger) (*SensorsConfigHolder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("sensors.config")

	path := strings.TrimSpace(cfg.SensorConfigPath)
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("sensors")
		v.SetConfigType("yml")
		v.AddConfigPath("/etc/fieldwatch")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("FIELDWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	fileLoaded := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			if path != "" {
				return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
			}
			return nil, err
		}
		fileLoaded = false
	}

	loaded := DefaultSensorsConfig()
	if fileLoaded {
		var fromFile SensorsConfig
		if err := v.UnmarshalKey("sensors", &fromFile); err != nil {
			return nil, err
		}
		if err := ValidateSensorsConfig(fromFile); err != nil {
			return nil, err
		}
		loaded = fromFile
	}

	holder := NewStaticSensorsConfigHolder(loaded)
	if !fileLoaded {
		return holder, nil
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		var updated SensorsConfig
		if err := v.UnmarshalKey("sensors", &updated); err != nil {
			log.Warn("sensors config reload failed", zap.String("file", e.Name), zap.Error(err))
			return
		}
		if err := ValidateSensorsConfig(updated); err != nil {
			log.Warn("invalid sensors config ignored", zap.String("file", e.Name), zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("sensors config reloaded", zap.String("file", e.Name))
	})
	v.WatchConfig()

	return holder, nil
}

func (h *SensorsConfigHolder) Get() SensorsConfig {
	return h.current.Load().(SensorsConfig)
}

// ValidateSensorsConfig requires every range to be named, unique, ordered and to carry a unit.
func ValidateSensorsConfig(cfg SensorsConfig) error {
	if len(cfg.Ranges) == 0 {
		return errors.New("sensors.ranges cannot be empty")
	}
	seen := make(map[string]struct{}, len(cfg.Ranges))
	for _, r := range cfg.Ranges {
		name := strings.TrimSpace(r.Type)
		if name == "" {
			return errors.New("sensors.ranges.type is required")
		}
		if _, ok := seen[name]; ok {
			return fmt.Errorf("sensors.ranges.type %q is duplicated", name)
		}
		seen[name] = struct{}{}
		if r.Max < r.Min {
			return fmt.Errorf("sensors.ranges %q: max below min", name)
		}
		if strings.TrimSpace(r.Unit) == "" {
			return fmt.Errorf("sensors.ranges %q: unit is required", name)
		}
	}
	return nil
}
