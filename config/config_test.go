package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Display.Rows != 2 || cfg.Display.Cols != 16 {
		t.Errorf("display = %dx%d, want 2x16", cfg.Display.Rows, cfg.Display.Cols)
	}
	if cfg.Pins.RS != "GPIO7" || cfg.Pins.D7 != "GPIO18" {
		t.Errorf("pins = %+v, want reference wiring", cfg.Pins)
	}
	if cfg.Timing.Settle() != 0 {
		t.Errorf("Settle() = %s, want 0", cfg.Timing.Settle())
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "console" {
		t.Errorf("log = %+v", cfg.Log)
	}
}

func TestParse(t *testing.T) {
	data := []byte(`
display:
  rows: 4
  cols: 20
pins:
  rs: " GPIO5 "
  e: GPIO6
  d4: GPIO12
  d5: GPIO13
  d6: GPIO19
  d7: GPIO26
timing:
  settle_us: 50
log:
  level: DEBUG
  format: json
mqtt:
  broker: tcp://localhost:1883
  topic: /home/lcd/
  qos: 1
`)
	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Display.Rows != 4 || cfg.Display.Cols != 20 {
		t.Errorf("display = %+v", cfg.Display)
	}
	if cfg.Pins.RS != "GPIO5" {
		t.Errorf("pins.rs = %q, want trimmed", cfg.Pins.RS)
	}
	if cfg.Timing.Settle() != 50*time.Microsecond {
		t.Errorf("Settle() = %s, want 50µs", cfg.Timing.Settle())
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("log = %+v", cfg.Log)
	}
	if cfg.MQTT.Topic != "home/lcd" || cfg.MQTT.QoS != 1 {
		t.Errorf("mqtt = %+v", cfg.MQTT)
	}
	if cfg.MQTT.ClientID != "hd44780" {
		t.Errorf("mqtt.client_id = %q, want default", cfg.MQTT.ClientID)
	}
}

func TestParseMalformed(t *testing.T) {
	if _, err := Parse([]byte("display: [")); err == nil {
		t.Error("Parse() should fail on malformed YAML")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"rows zero", func(c *Config) { c.Display.Rows = 0 }, "display.rows"},
		{"cols too wide", func(c *Config) { c.Display.Cols = 41 }, "display.cols"},
		{"too many characters", func(c *Config) { c.Display.Rows, c.Display.Cols = 4, 40 }, "exceeds 80"},
		{"missing pin", func(c *Config) { c.Pins.D5 = " " }, "pins.d5"},
		{"duplicate pin", func(c *Config) { c.Pins.E = c.Pins.RS }, "both use"},
		{"negative settle", func(c *Config) { c.Timing.SettleUs = -1 }, "negative"},
		{"settle too short", func(c *Config) { c.Timing.SettleUs = 10 }, "37us"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"bad qos", func(c *Config) { c.MQTT.QoS = 3 }, "mqtt.qos"},
		{"broker without topic", func(c *Config) { c.MQTT.Broker, c.MQTT.Topic = "tcp://x:1883", "/" }, "mqtt.topic"},
		{"wildcard topic", func(c *Config) { c.MQTT.Topic = "lcd/#" }, "wildcards"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := Validate(cfg)
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("Validate() error = %v, want ErrInvalid", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.want)
			}
		})
	}

	if err := Validate(Default()); err != nil {
		t.Errorf("Validate(Default()) error = %v", err)
	}
	if err := Validate(nil); !errors.Is(err, ErrInvalid) {
		t.Errorf("Validate(nil) error = %v", err)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hd44780.yaml")
	if err := os.WriteFile(path, []byte("display:\n  rows: 1\n  cols: 8\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Display.Rows != 1 || cfg.Display.Cols != 8 {
		t.Errorf("display = %+v", cfg.Display)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() should fail for a missing file")
	}
}

func TestResolve(t *testing.T) {
	pins := map[string]*gpiotest.Pin{}
	lookup := func(name string) gpio.PinIO {
		if p, ok := pins[name]; ok {
			return p
		}
		return nil
	}
	cfg := Default()
	for i, name := range []string{"GPIO7", "GPIO8", "GPIO25", "GPIO24", "GPIO23", "GPIO18"} {
		pins[name] = &gpiotest.Pin{N: name, Num: i}
	}

	got, err := cfg.Pins.Resolve(lookup)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got.RS != pins["GPIO7"] || got.E != pins["GPIO8"] || got.D[0] != pins["GPIO25"] || got.D[3] != pins["GPIO18"] {
		t.Errorf("Resolve() = %+v, wired to the wrong pins", got)
	}
	if err := got.Validate(); err != nil {
		t.Errorf("resolved pins invalid: %v", err)
	}

	delete(pins, "GPIO23")
	if _, err := cfg.Pins.Resolve(lookup); err == nil || !strings.Contains(err.Error(), "pins.d6") {
		t.Errorf("Resolve() error = %v, want missing pins.d6", err)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := LogConfig{Level: "warn", Format: "json"}.NewLogger(&buf, "test")
	if err != nil {
		t.Fatal(err)
	}
	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info entry logged at warn level: %s", out)
	}
	if !strings.Contains(out, `"message":"shown"`) || !strings.Contains(out, `"app":"test"`) {
		t.Errorf("log output = %s", out)
	}

	if _, err := (LogConfig{Level: "loud"}).NewLogger(&buf, "test"); err == nil {
		t.Error("NewLogger() should fail on an unknown level")
	}
}
