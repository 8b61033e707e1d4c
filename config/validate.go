package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("config: invalid")

// Validate checks configuration correctness.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: nil config", ErrInvalid)
	}

	d := cfg.Display
	if d.Rows < 1 || d.Rows > 4 {
		return fmt.Errorf("%w: display.rows %d not in 1..4", ErrInvalid, d.Rows)
	}
	if d.Cols < 1 || d.Cols > 40 {
		return fmt.Errorf("%w: display.cols %d not in 1..40", ErrInvalid, d.Cols)
	}
	if d.Rows*d.Cols > 80 {
		return fmt.Errorf("%w: display %dx%d exceeds 80 characters", ErrInvalid, d.Rows, d.Cols)
	}

	// Every line must be named, and no line may be used twice.
	seen := map[string]string{}
	for _, p := range cfg.Pins.named() {
		name := strings.TrimSpace(p.pin)
		if name == "" {
			return fmt.Errorf("%w: pins.%s is required", ErrInvalid, p.key)
		}
		if other, ok := seen[name]; ok {
			return fmt.Errorf("%w: pins.%s and pins.%s both use %s", ErrInvalid, other, p.key, name)
		}
		seen[name] = p.key
	}

	if cfg.Timing.SettleUs < 0 {
		return fmt.Errorf("%w: timing.settle_us must not be negative", ErrInvalid)
	}
	if cfg.Timing.SettleUs > 0 && cfg.Timing.SettleUs < 37 {
		return fmt.Errorf("%w: timing.settle_us %d below the 37us controller minimum", ErrInvalid, cfg.Timing.SettleUs)
	}

	switch strings.ToLower(cfg.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log.level %q", ErrInvalid, cfg.Log.Level)
	}
	switch strings.ToLower(cfg.Log.Format) {
	case "", "console", "json":
	default:
		return fmt.Errorf("%w: log.format %q", ErrInvalid, cfg.Log.Format)
	}

	if cfg.MQTT.QoS > 2 {
		return fmt.Errorf("%w: mqtt.qos %d not in 0..2", ErrInvalid, cfg.MQTT.QoS)
	}
	if cfg.MQTT.Broker != "" && strings.Trim(cfg.MQTT.Topic, "/ ") == "" {
		return fmt.Errorf("%w: mqtt.topic is required with a broker", ErrInvalid)
	}
	if strings.ContainsAny(cfg.MQTT.Topic, "#+") {
		return fmt.Errorf("%w: mqtt.topic %q must not contain wildcards", ErrInvalid, cfg.MQTT.Topic)
	}
	return nil
}

// Normalize applies post-validation normalization.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}
	p := &cfg.Pins
	for _, s := range []*string{&p.RS, &p.E, &p.D4, &p.D5, &p.D6, &p.D7} {
		*s = strings.TrimSpace(*s)
	}
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	cfg.Log.Format = strings.ToLower(cfg.Log.Format)
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	cfg.MQTT.Topic = strings.Trim(cfg.MQTT.Topic, "/ ")
}
