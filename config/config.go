// Package config loads the YAML configuration shared by the hd44780
// executables: display geometry, pin names, bus timing, logging and MQTT.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Display DisplayConfig `yaml:"display"`
	Pins    PinsConfig    `yaml:"pins"`
	Timing  TimingConfig  `yaml:"timing"`
	Log     LogConfig     `yaml:"log"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
}

// ---- DISPLAY ----

type DisplayConfig struct {
	Rows int `yaml:"rows"`
	Cols int `yaml:"cols"`
}

// ---- PINS ----

// PinsConfig holds host pin names, as understood by gpioreg.ByName.
type PinsConfig struct {
	RS string `yaml:"rs"`
	E  string `yaml:"e"`
	D4 string `yaml:"d4"`
	D5 string `yaml:"d5"`
	D6 string `yaml:"d6"`
	D7 string `yaml:"d7"`
}

// ---- TIMING ----

type TimingConfig struct {
	SettleUs int `yaml:"settle_us"` // 0 keeps the controller minimum
}

// Settle returns the configured settle interval, 0 when unset.
func (t TimingConfig) Settle() time.Duration {
	return time.Duration(t.SettleUs) * time.Microsecond
}

// ---- LOG ----

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console, json
}

// ---- MQTT ----

type MQTTConfig struct {
	Broker   string `yaml:"broker"` // e.g. tcp://localhost:1883; empty disables the bridge
	ClientID string `yaml:"client_id"`
	Topic    string `yaml:"topic"` // prefix; <topic>/text and <topic>/control are used
	QoS      byte   `yaml:"qos"`
}

// Default returns the configuration for the reference wiring: a 2x16
// display on a Raspberry Pi.
func Default() *Config {
	return &Config{
		Display: DisplayConfig{Rows: 2, Cols: 16},
		Pins: PinsConfig{
			RS: "GPIO7",
			E:  "GPIO8",
			D4: "GPIO25",
			D5: "GPIO24",
			D6: "GPIO23",
			D7: "GPIO18",
		},
		Log: LogConfig{Level: "info", Format: "console"},
		MQTT: MQTTConfig{
			ClientID: "hd44780",
			Topic:    "lcd",
		},
	}
}

// Parse decodes data over the defaults, then validates and normalizes it.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	Normalize(cfg)
	return cfg, nil
}

// Load reads and parses the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return Parse(data)
}
