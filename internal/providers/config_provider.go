package providers

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"fermmon/internal/analysis"
	"fermmon/internal/structures"
)

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config

	// .env is optional
	_ = godotenv.Load(filepath.Join(filepath.Dir(flags.ConfigPath), ".env"))

	v := viper.New()
	filename := filepath.Base(flags.ConfigPath)
	v.AddConfigPath(filepath.Dir(flags.ConfigPath))
	v.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	v.SetConfigType("yaml")

	setDefaults(v)

	v.BindEnv("logger.level", "FERMMON_LOG_LEVEL")
	v.BindEnv("webServer.port", "FERMMON_PORT")
	v.BindEnv("poller.username", "RAPT_USERNAME")
	v.BindEnv("poller.secret", "RAPT_API_SECRET")
	v.BindEnv("poller.deviceId", "RAPT_DEVICE_ID")
	v.BindEnv("telegram.botToken", "TELEGRAM_BOT_TOKEN")
	v.BindEnv("telegram.chatId", "TELEGRAM_CHAT_ID")
	v.BindEnv("telegram.webhookSecret", "TELEGRAM_WEBHOOK_SECRET")
	v.BindEnv("mqtt.broker", "MQTT_BROKER")
	v.BindEnv("kafka.brokers", "KAFKA_BROKERS")

	err := v.ReadInConfig()
	if err != nil {
		return nil, err
	}

	err = v.Unmarshal(&conf)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	cnfValidator := NewCnfValidator(&conf)
	err = cnfValidator.Validate()
	if err != nil {
		return nil, err
	}
	if _, err = NewAlertConfigProvider(&conf); err != nil {
		return nil, err
	}

	conf.AppName = "FermentationMonitor"
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	return &conf, nil
}

func setDefaults(v *viper.Viper) {
	def := analysis.DefaultAlertConfig()
	v.SetDefault("alerts.attenuationThreshold", def.AttenuationThreshold)
	v.SetDefault("alerts.gravityStabilityWindowHours", def.GravityStabilityWindowHours)
	v.SetDefault("alerts.gravityStabilityThreshold", def.GravityStabilityThreshold)
	v.SetDefault("alerts.temperatureDescentWindowHours", def.TemperatureDescentWindowHours)
	v.SetDefault("alerts.temperatureDescentThreshold", def.TemperatureDescentThreshold)

	v.SetDefault("analysis.timeBasis", "ingested")
	v.SetDefault("analysis.lookbackHours", 24)

	v.SetDefault("cache.ttl", "60s")

	v.SetDefault("poller.interval", "1h")
	v.SetDefault("poller.timeout", "10s")
	v.SetDefault("poller.authUrl", "https://id.rapt.io")
	v.SetDefault("poller.apiUrl", "https://api.rapt.io")

	v.SetDefault("telegram.apiUrl", "https://api.telegram.org")
	v.SetDefault("mqtt.clientId", "fermmon")
	v.SetDefault("mqtt.topic", "fermmon/{fermentation_id}/alerts")
	v.SetDefault("kafka.topic", "fermmon.alerts")
}

// NewAlertConfigProvider builds the validated engine config from the alerts section.
func NewAlertConfigProvider(conf *structures.Config) (analysis.AlertConfig, error) {
	a := conf.Alerts
	alertConf, err := analysis.NewAlertConfig(
		a.AttenuationThreshold,
		a.GravityStabilityWindowHours,
		a.GravityStabilityThreshold,
		a.TemperatureDescentWindowHours,
		a.TemperatureDescentThreshold,
	)
	if err != nil {
		return analysis.AlertConfig{}, fmt.Errorf("alerts section: %w", err)
	}
	return alertConf, nil
}
