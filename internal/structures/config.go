package structures

import "time"

type Server struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"required|uint|min:1"`
}

type Persistence struct {
	FilePath     string        `yaml:"filePath" validate:"required|unixPath"`
	SaveInterval time.Duration `yaml:"saveInterval" validate:"required|min:1"`
}

type LoggerConfig struct {
	Level string `yaml:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Mode  uint32 `yaml:"mode" validate:"required|uint"`
	Dir   string `yaml:"dir" validate:"required|unixPath"`
}

type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Size    int           `yaml:"size"`
	TTL     time.Duration `yaml:"ttl"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type AnalysisConfig struct {
	TimeBasis     string  `yaml:"timeBasis" validate:"in:ingested,sensor"`
	LookbackHours float64 `yaml:"lookbackHours"`
}

// AlertsConfig mirrors analysis.AlertConfig; it is checked again by
// analysis.NewAlertConfig when the config is loaded.
type AlertsConfig struct {
	AttenuationThreshold          float64 `yaml:"attenuationThreshold"`
	GravityStabilityWindowHours   float64 `yaml:"gravityStabilityWindowHours"`
	GravityStabilityThreshold     float64 `yaml:"gravityStabilityThreshold"`
	TemperatureDescentWindowHours float64 `yaml:"temperatureDescentWindowHours"`
	TemperatureDescentThreshold   float64 `yaml:"temperatureDescentThreshold"`
}

type PollerConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
	AuthURL  string        `yaml:"authUrl"`
	ApiURL   string        `yaml:"apiUrl"`
	Username string        `yaml:"username"`
	Secret   string        `yaml:"secret"`
	DeviceID string        `yaml:"deviceId"`
	Timeout  time.Duration `yaml:"timeout"`
}

type TelegramConfig struct {
	Enabled       bool   `yaml:"enabled"`
	ApiURL        string `yaml:"apiUrl"`
	BotToken      string `yaml:"botToken"`
	ChatID        string `yaml:"chatId"`
	WebhookSecret string `yaml:"webhookSecret"`
}

type MqttConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"clientId"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Topic    string `yaml:"topic"`
}

type KafkaConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type Config struct {
	AppName     string
	Debug       bool
	Path        string
	WebServer   Server         `yaml:"webServer"`
	Persistence Persistence    `yaml:"persistence"`
	Logger      LoggerConfig   `yaml:"logger"`
	Cache       CacheConfig    `yaml:"cache"`
	Metrics     MetricsConfig  `yaml:"metrics"`
	Analysis    AnalysisConfig `yaml:"analysis"`
	Alerts      AlertsConfig   `yaml:"alerts"`
	Poller      PollerConfig   `yaml:"poller"`
	Telegram    TelegramConfig `yaml:"telegram"`
	Mqtt        MqttConfig     `yaml:"mqtt"`
	Kafka       KafkaConfig    `yaml:"kafka"`
}
