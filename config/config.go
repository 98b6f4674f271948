package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type AppConfig struct {
	ServerName  string          `mapstructure:"server_name" yaml:"server_name"`
	Version     string          `mapstructure:"version" yaml:"version"`
	Environment string          `mapstructure:"environment" yaml:"environment"`
	Port        int             `mapstructure:"port" yaml:"port"`
	WorkerPort  int             `mapstructure:"worker_port" yaml:"worker_port"`
	Redis       RedisConfig     `mapstructure:"redis" yaml:"redis"`
	Postgres    PostgresConfig  `mapstructure:"postgres" yaml:"postgres"`
	Consul      ConsulConfig    `mapstructure:"consul" yaml:"consul"`
	RocketMQ    RocketMQConfig  `mapstructure:"rocketmq" yaml:"rocketmq"`
	Session     SessionConfig   `mapstructure:"session" yaml:"session"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit"`
	Rag         RagConfig       `mapstructure:"rag" yaml:"rag"`
	Translate   TranslateConfig `mapstructure:"translate" yaml:"translate"`
	Sms         SmsConfig       `mapstructure:"sms" yaml:"sms"`
}

type RedisConfig struct {
	Address      string        `mapstructure:"address" yaml:"address"`
	Port         int           `mapstructure:"port" yaml:"port"`
	Password     string        `mapstructure:"password" yaml:"password"`
	Database     int           `mapstructure:"database" yaml:"database"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout" yaml:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	MaxRetries   int           `mapstructure:"max_retries" yaml:"max_retries"`
	PoolSize     int           `mapstructure:"pool_size" yaml:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns" yaml:"min_idle_conns"`
}

type PostgresConfig struct {
	Address  string        `mapstructure:"address" yaml:"address"`
	Port     int           `mapstructure:"port" yaml:"port"`
	User     string        `mapstructure:"user" yaml:"user"`
	Password string        `mapstructure:"password" yaml:"password"`
	DBName   string        `mapstructure:"db_name" yaml:"db_name"`
	MaxIdle  int           `mapstructure:"max_idle" yaml:"max_idle"`
	MaxOpen  int           `mapstructure:"max_open" yaml:"max_open"`
	MaxLife  time.Duration `mapstructure:"max_life" yaml:"max_life"`
}

type ConsulConfig struct {
	Address    string `mapstructure:"address" yaml:"address"`
	Scheme     string `mapstructure:"scheme" yaml:"scheme"`
	Datacenter string `mapstructure:"datacenter" yaml:"datacenter"`
}

type RocketMQConfig struct {
	Enabled       bool     `mapstructure:"enabled" yaml:"enabled"`
	NameServers   []string `mapstructure:"name_servers" yaml:"name_servers"`
	MaxRetries    int      `mapstructure:"max_retries" yaml:"max_retries"`
	GroupName     string   `mapstructure:"group_name" yaml:"group_name"`
	ConsumerGroup string   `mapstructure:"consumer_group" yaml:"consumer_group"`
	MessageModel  string   `mapstructure:"message_model" yaml:"message_model"`
	Topics        struct {
		SmsOutbound string `mapstructure:"sms_outbound" yaml:"sms_outbound"`
	} `mapstructure:"topics" yaml:"topics"`
}

type SessionConfig struct {
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout"`
	KeyPrefix string        `mapstructure:"key_prefix" yaml:"key_prefix"`
}

type RateLimitConfig struct {
	DailyCeiling  int `mapstructure:"daily_ceiling" yaml:"daily_ceiling"`
	HourlyCeiling int `mapstructure:"hourly_ceiling" yaml:"hourly_ceiling"`
}

type RagConfig struct {
	URL           string        `mapstructure:"url" yaml:"url"`
	QueryEndpoint string        `mapstructure:"query_endpoint" yaml:"query_endpoint"`
	Timeout       time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxLength     int           `mapstructure:"max_length" yaml:"max_length"`
}

type TranslateConfig struct {
	APIKey  string        `mapstructure:"api_key" yaml:"api_key"`
	BaseURL string        `mapstructure:"base_url" yaml:"base_url"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

type SmsConfig struct {
	Username string `mapstructure:"username" yaml:"username"`
	APIKey   string `mapstructure:"api_key" yaml:"api_key"`
	BaseURL  string `mapstructure:"base_url" yaml:"base_url"`
	SenderID string `mapstructure:"sender_id" yaml:"sender_id"`
}

func LoadConfig() (*AppConfig, error) {
	var config AppConfig

	viper.SetConfigFile("config/config.yml")
	viper.SetConfigType("yaml")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return &config, err
	}
	if err := viper.Unmarshal(&config); err != nil {
		return &config, err
	}
	return &config, nil
}

func setDefaults() {
	viper.SetDefault("worker_port", 8081)
	viper.SetDefault("session.timeout", "300s")
	viper.SetDefault("session.key_prefix", "session:")
	viper.SetDefault("rate_limit.daily_ceiling", 50)
	viper.SetDefault("rate_limit.hourly_ceiling", 15)
	viper.SetDefault("rag.url", "http://localhost:8000")
	viper.SetDefault("rag.query_endpoint", "/api/v1/query")
	viper.SetDefault("rag.timeout", "60s")
	viper.SetDefault("rag.max_length", 140)
	viper.SetDefault("translate.base_url", "https://translation.googleapis.com")
	viper.SetDefault("translate.timeout", "10s")
	viper.SetDefault("sms.base_url", "https://api.sandbox.africastalking.com")
	viper.SetDefault("sms.username", "sandbox")
}
