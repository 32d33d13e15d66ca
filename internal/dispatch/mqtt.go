package dispatch

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"fermmon/internal/providers"
	"fermmon/internal/structures"
)

const fermentationPlaceholder = "{fermentation_id}"

type mqttPublisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// MqttNotifier publishes alert payloads with QoS 1. The topic may contain
// {fermentation_id}.
type MqttNotifier struct {
	client mqttPublisher
	topic  string
}

func NewMqttNotifier(conf structures.MqttConfig, logger providers.Logger) (*MqttNotifier, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(conf.Broker)
	opts.SetClientID(conf.ClientID)
	opts.SetUsername(conf.Username)
	opts.SetPassword(conf.Password)
	opts.SetAutoReconnect(true)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetOnConnectHandler(func(mqtt.Client) {
		logger.Infof(providers.TypeDispatch, "MQTT connected to %s", conf.Broker)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warnf(providers.TypeDispatch, "MQTT connection lost: %s", err)
	})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("timed out connecting to MQTT broker %s", conf.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", err)
	}

	return newMqttNotifier(client, conf.Topic), nil
}

func newMqttNotifier(client mqttPublisher, topic string) *MqttNotifier {
	return &MqttNotifier{client: client, topic: topic}
}

func (m *MqttNotifier) Name() string {
	return "mqtt"
}

func (m *MqttNotifier) Topic(fermentationID int64) string {
	return strings.ReplaceAll(m.topic, fermentationPlaceholder, strconv.FormatInt(fermentationID, 10))
}

func (m *MqttNotifier) Notify(ctx context.Context, msg Message) error {
	payload, err := msg.Payload()
	if err != nil {
		return err
	}

	token := m.client.Publish(m.Topic(msg.Record.FermentationID), 1, false, payload)
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *MqttNotifier) Close() error {
	m.client.Disconnect(250)
	return nil
}
