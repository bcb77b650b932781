package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// envPrefix 环境变量前缀，例如 VEDIRECT_SERVER_PORT 覆盖 server.port
const envPrefix = "VEDIRECT"

type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Serial       SerialConfig       `mapstructure:"serial"`
	Log          LogConfig          `mapstructure:"log"`
	Devices      DevicesConfig      `mapstructure:"devices"`
	MessageQueue MessageQueueConfig `mapstructure:"message_queue"`
	Dispatcher   DispatcherConfig   `mapstructure:"dispatcher"`
	Registry     RegistryConfig     `mapstructure:"registry"`
}

type MessageQueueConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Type     string         `mapstructure:"type"`
	Topic    string         `mapstructure:"topic"`
	RabbitMQ RabbitMQConfig `mapstructure:"rabbitmq"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
}

type RabbitMQConfig struct {
	URL         string `mapstructure:"url"`
	VirtualHost string `mapstructure:"virtual_host"`
	Exchange    string `mapstructure:"exchange"`
	RoutingKey  string `mapstructure:"routing_key"`
	QueueName   string `mapstructure:"queue_name"`
	Confirm     bool   `mapstructure:"confirm"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// ServerConfig TCP 接入 (ser2net 等串口转网络设备)
type ServerConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Port         int    `mapstructure:"port"`
	Host         string `mapstructure:"host"`
	Multicore    bool   `mapstructure:"multicore"`
	MaxFrameSize int    `mapstructure:"max_frame_size"`
}

// SerialConfig 本地串口接入
type SerialConfig struct {
	Ports []SerialPortConfig `mapstructure:"ports"`
}

type SerialPortConfig struct {
	Name string `mapstructure:"name"`
	Baud int    `mapstructure:"baud"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// DevicesConfig 设备白名单，列表为空表示不限制
type DevicesConfig struct {
	Serials        []string `mapstructure:"serials"`
	ProductIDs     []string `mapstructure:"product_ids"`
	PingOnDiscover bool     `mapstructure:"ping_on_discover"`
}

type DispatcherConfig struct {
	Workers    int `mapstructure:"workers"`
	BufferSize int `mapstructure:"buffer_size"`
}

type RegistryConfig struct {
	StaleTimeout  time.Duration `mapstructure:"stale_timeout"`
	CheckInterval time.Duration `mapstructure:"check_interval"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.enabled", true)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 9020)
	v.SetDefault("server.multicore", true)
	v.SetDefault("server.max_frame_size", 1024)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.filename", "logs/gateway.log")
	v.SetDefault("log.max_size", 100)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age", 30)

	v.SetDefault("message_queue.type", "kafka")
	v.SetDefault("message_queue.topic", "vedirect_data")
	v.SetDefault("message_queue.rabbitmq.exchange", "vedirect")
	v.SetDefault("message_queue.rabbitmq.routing_key", "vedirect_data.#")

	v.SetDefault("dispatcher.workers", 4)
	v.SetDefault("dispatcher.buffer_size", 10000)

	v.SetDefault("registry.stale_timeout", 60*time.Second)
	v.SetDefault("registry.check_interval", 10*time.Second)
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// 默认波特率 19200 (VE.Direct 8N1)
	for i := range cfg.Serial.Ports {
		if cfg.Serial.Ports[i].Baud == 0 {
			cfg.Serial.Ports[i].Baud = 19200
		}
	}

	if cfg.Registry.CheckInterval <= 0 {
		cfg.Registry.CheckInterval = 10 * time.Second
	}

	return &cfg, nil
}
