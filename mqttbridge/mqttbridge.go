// Package mqttbridge drives an HD44780 display from MQTT messages.
//
// Two topics are used under a configurable prefix:
//
//	<prefix>/text     payload replaces the display content
//	<prefix>/control  payload is a control command, e.g. "clear"
package mqttbridge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/flavioheleno/hd44780"
	"github.com/flavioheleno/hd44780/config"
)

const (
	connectTimeout    = 10 * time.Second
	subscribeTimeout  = 10 * time.Second
	disconnectQuiesce = 250 // milliseconds
)

// ErrNotConnected is returned by Close before Connect.
var ErrNotConnected = errors.New("mqttbridge: not connected")

// Display is the part of *hd44780.Dev the bridge drives.
type Display interface {
	Replace(ctx context.Context, p []byte) (int, error)
	Control(ctx context.Context, cmd hd44780.Command) error
}

// Bridge forwards MQTT messages to a display.
type Bridge struct {
	disp   Display
	cfg    config.MQTTConfig
	log    zerolog.Logger
	client pahomqtt.Client
}

// New returns a bridge for disp. Connect must be called to start receiving.
func New(disp Display, cfg config.MQTTConfig, log zerolog.Logger) *Bridge {
	return &Bridge{
		disp: disp,
		cfg:  cfg,
		log:  log.With().Str("component", "mqttbridge").Logger(),
	}
}

// TextTopic is the topic whose payloads are written to the display.
func (b *Bridge) TextTopic() string {
	return b.cfg.Topic + "/text"
}

// ControlTopic is the topic whose payloads are control commands.
func (b *Bridge) ControlTopic() string {
	return b.cfg.Topic + "/control"
}

// Handle applies one message to the display. Messages on other topics are
// ignored.
func (b *Bridge) Handle(ctx context.Context, topic string, payload []byte) error {
	switch topic {
	case b.TextTopic():
		n, err := b.disp.Replace(ctx, payload)
		if err != nil {
			return fmt.Errorf("mqttbridge: text: %w", err)
		}
		b.log.Debug().Int("bytes", n).Msg("text written")
		return nil
	case b.ControlTopic():
		cmd := hd44780.Command(strings.ToLower(strings.TrimSpace(string(payload))))
		if err := b.disp.Control(ctx, cmd); err != nil {
			return fmt.Errorf("mqttbridge: control %q: %w", cmd, err)
		}
		b.log.Debug().Str("command", string(cmd)).Msg("control applied")
		return nil
	default:
		b.log.Debug().Str("topic", topic).Msg("ignored message")
		return nil
	}
}

// Connect connects to the broker and subscribes to both topics.
func (b *Bridge) Connect() error {
	opts := pahomqtt.NewClientOptions().
		AddBroker(b.cfg.Broker).
		SetClientID(b.cfg.ClientID).
		SetAutoReconnect(true).
		SetCleanSession(true).
		SetOrderMatters(true)

	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		b.log.Warn().Err(err).Msg("connection lost")
	})
	opts.SetOnConnectHandler(func(c pahomqtt.Client) {
		// Subscriptions are restored on every reconnect since the session is clean.
		b.awaitSubscribe(c.Subscribe(b.cfg.Topic+"/#", b.cfg.QoS, b.onMessage))
	})

	b.client = pahomqtt.NewClient(opts)
	token := b.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return fmt.Errorf("mqttbridge: connect to %s: timeout after %v", b.cfg.Broker, connectTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqttbridge: connect to %s: %w", b.cfg.Broker, err)
	}
	return nil
}

// Close disconnects from the broker.
func (b *Bridge) Close() error {
	if b.client == nil {
		return ErrNotConnected
	}
	b.client.Disconnect(disconnectQuiesce)
	return nil
}

// awaitSubscribe waits for a subscription and reports whether it took effect.
func (b *Bridge) awaitSubscribe(token pahomqtt.Token) bool {
	topic := b.cfg.Topic + "/#"
	if !token.WaitTimeout(subscribeTimeout) {
		b.log.Error().Str("topic", topic).Dur("timeout", subscribeTimeout).Msg("subscribe timed out")
		return false
	}
	if err := token.Error(); err != nil {
		b.log.Error().Err(err).Str("topic", topic).Msg("subscribe failed")
		return false
	}
	b.log.Info().Str("topic", topic).Msg("subscribed")
	return true
}

func (b *Bridge) onMessage(_ pahomqtt.Client, msg pahomqtt.Message) {
	if err := b.Handle(context.Background(), msg.Topic(), msg.Payload()); err != nil {
		b.log.Error().Err(err).Str("topic", msg.Topic()).Msg("message rejected")
	}
}
