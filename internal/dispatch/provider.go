package dispatch

import (
	"fermmon/internal/providers"
	"fermmon/internal/structures"
)

// NewNotifierProvider builds the fan-out from the enabled transports. A broker
// that cannot be reached at start-up is logged and left out.
func NewNotifierProvider(conf *structures.Config, logger providers.Logger) *MultiNotifier {
	notifiers := []Notifier{NewLogNotifier(logger)}

	if conf.Telegram.Enabled {
		notifiers = append(notifiers, NewTelegramNotifier(conf.Telegram))
	}
	if conf.Mqtt.Enabled {
		n, err := NewMqttNotifier(conf.Mqtt, logger)
		if err != nil {
			logger.Errorf(providers.TypeDispatch, "MQTT notifier disabled: %s", err)
		} else {
			notifiers = append(notifiers, n)
		}
	}
	if conf.Kafka.Enabled {
		notifiers = append(notifiers, NewKafkaNotifier(conf.Kafka))
	}

	multi := NewMultiNotifier(logger, notifiers...)
	logger.Infof(providers.TypeApp, "Alert notifiers: %v", multi.Names())
	return multi
}
