package main

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"controlling_window/internal/hardware"
	"controlling_window/internal/logger"
	"controlling_window/internal/mqtt"
	"controlling_window/internal/service"
	"controlling_window/internal/tsdb"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	envPrefix = "WINDOW"

	sensorSourceIIO  = "iio"
	sensorSourceMQTT = "mqtt"
)

type gpioConfig struct {
	Chip         string
	PowerPin     int
	DirectionPin int
	ActiveLow    bool
}

// appConfig is the validated configuration of one process.
type appConfig struct {
	Port            string
	LogLevel        string
	DBPath          string
	SigningKey      string
	TokenTTL        time.Duration
	Window          service.WindowConfig
	MonitorInterval time.Duration
	GPIO            gpioConfig
	SensorSource    string
	IIODevice       string
	MQTT            mqtt.Config
	Influx          tsdb.Config
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("log_level", logger.InfoLevel)
	v.SetDefault("db.path", "window.db")
	v.SetDefault("auth.signing_key", "")
	v.SetDefault("auth.token_ttl", time.Hour)

	v.SetDefault("window.max_runtime", 8*time.Second)
	v.SetDefault("window.auto_open_length", 10*time.Minute)
	v.SetDefault("window.auto_open_rest", time.Hour)
	v.SetDefault("window.max_humidity", 60.0)
	v.SetDefault("window.min_temperature", 20.0)
	v.SetDefault("window.quiet_hours.start", 0)
	v.SetDefault("window.quiet_hours.end", 0)
	v.SetDefault("monitor.interval", time.Minute)

	v.SetDefault("gpio.chip", hardware.DefaultChip)
	v.SetDefault("gpio.power_pin", hardware.DefaultPowerPin)
	v.SetDefault("gpio.direction_pin", hardware.DefaultDirectionPin)
	v.SetDefault("gpio.active_low", false)

	v.SetDefault("sensor.source", sensorSourceIIO)
	v.SetDefault("sensor.iio_device", hardware.DefaultIIODevice)

	v.SetDefault("mqtt.broker", "")
	v.SetDefault("mqtt.client_id", "window-controller")
	v.SetDefault("mqtt.sensor_topic", mqtt.DefaultSensorTopic)
	v.SetDefault("mqtt.status_topic", mqtt.DefaultStatusTopic)
	v.SetDefault("mqtt.system_topic", mqtt.DefaultSystemTopic)
	v.SetDefault("mqtt.max_age", 5*time.Minute)

	v.SetDefault("influx.enabled", false)
	v.SetDefault("influx.url", "")
	v.SetDefault("influx.token", "")
	v.SetDefault("influx.org", "")
	v.SetDefault("influx.bucket", "")
}

// loadConfig reads an optional .env, then the YAML file, then WINDOW_* environment overrides.
// An empty path looks for configs/config.yml; a missing default file is not an error.
func loadConfig(v *viper.Viper, path string) (appConfig, error) {
	_ = godotenv.Load()

	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return appConfig{}, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.AddConfigPath("configs")
		v.SetConfigName("config")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return appConfig{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := appConfig{
		Port:       v.GetString("port"),
		LogLevel:   v.GetString("log_level"),
		DBPath:     v.GetString("db.path"),
		SigningKey: v.GetString("auth.signing_key"),
		TokenTTL:   v.GetDuration("auth.token_ttl"),
		Window: service.WindowConfig{
			MaxRuntime:     v.GetDuration("window.max_runtime"),
			AutoOpenLength: v.GetDuration("window.auto_open_length"),
			AutoOpenRest:   v.GetDuration("window.auto_open_rest"),
			MaxHumidity:    v.GetFloat64("window.max_humidity"),
			MinTemperature: v.GetFloat64("window.min_temperature"),
			QuietStart:     v.GetInt("window.quiet_hours.start"),
			QuietEnd:       v.GetInt("window.quiet_hours.end"),
		},
		MonitorInterval: v.GetDuration("monitor.interval"),
		GPIO: gpioConfig{
			Chip:         v.GetString("gpio.chip"),
			PowerPin:     v.GetInt("gpio.power_pin"),
			DirectionPin: v.GetInt("gpio.direction_pin"),
			ActiveLow:    v.GetBool("gpio.active_low"),
		},
		SensorSource: strings.ToLower(strings.TrimSpace(v.GetString("sensor.source"))),
		IIODevice:    v.GetString("sensor.iio_device"),
		MQTT: mqtt.Config{
			Broker:      v.GetString("mqtt.broker"),
			ClientID:    v.GetString("mqtt.client_id"),
			SensorTopic: v.GetString("mqtt.sensor_topic"),
			StatusTopic: v.GetString("mqtt.status_topic"),
			SystemTopic: v.GetString("mqtt.system_topic"),
			MaxAge:      v.GetDuration("mqtt.max_age"),
		},
		Influx: tsdb.Config{
			Enabled: v.GetBool("influx.enabled"),
			URL:     v.GetString("influx.url"),
			Token:   v.GetString("influx.token"),
			Org:     v.GetString("influx.org"),
			Bucket:  v.GetString("influx.bucket"),
		},
	}
	return cfg, cfg.validate()
}

func (c appConfig) validate() error {
	var errs []error
	positive := map[string]time.Duration{
		"window.max_runtime":      c.Window.MaxRuntime,
		"window.auto_open_length": c.Window.AutoOpenLength,
		"window.auto_open_rest":   c.Window.AutoOpenRest,
		"monitor.interval":        c.MonitorInterval,
	}
	for key, d := range positive {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be > 0, got %s", key, d))
		}
	}
	for key, f := range map[string]float64{
		"window.max_humidity":    c.Window.MaxHumidity,
		"window.min_temperature": c.Window.MinTemperature,
	} {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			errs = append(errs, fmt.Errorf("%s must be finite", key))
		}
	}
	for key, h := range map[string]int{
		"window.quiet_hours.start": c.Window.QuietStart,
		"window.quiet_hours.end":   c.Window.QuietEnd,
	} {
		if h < 0 || h > 23 {
			errs = append(errs, fmt.Errorf("%s must be an hour in [0,23], got %d", key, h))
		}
	}
	switch c.SensorSource {
	case sensorSourceIIO:
	case sensorSourceMQTT:
		if c.MQTT.Broker == "" {
			errs = append(errs, errors.New("sensor.source=mqtt requires mqtt.broker"))
		}
	default:
		errs = append(errs, fmt.Errorf("sensor.source must be %q or %q, got %q", sensorSourceIIO, sensorSourceMQTT, c.SensorSource))
	}
	if c.Influx.Enabled && (c.Influx.URL == "" || c.Influx.Bucket == "") {
		errs = append(errs, errors.New("influx.enabled requires influx.url and influx.bucket"))
	}
	return errors.Join(errs...)
}
