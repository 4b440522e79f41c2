package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type TopicsConfig struct {
	VerifyRequests  string `yaml:"verify_requests"`
	VerifyResponses string `yaml:"verify_responses"`
	RevokeRequests  string `yaml:"revoke_requests"`
	RevokeResponses string `yaml:"revoke_responses"`
}

type KafkaConfig struct {
	Brokers []string     `yaml:"brokers"`
	GroupID string       `yaml:"group_id"`
	Workers int          `yaml:"workers"`
	Topics  TopicsConfig `yaml:"topics"`
}

type VerificationConfig struct {
	CodeTTLMinutes          int `yaml:"code_ttl_minutes"`
	SessionRetentionMinutes int `yaml:"session_retention_minutes"`
	SweepIntervalMinutes    int `yaml:"sweep_interval_minutes"`
	MaxCodeAttempts         int `yaml:"max_code_attempts"`
}

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Database struct {
		DSN string `yaml:"url"`
	} `yaml:"database"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
	} `yaml:"telegram"`
	Kafka        KafkaConfig        `yaml:"kafka"`
	Verification VerificationConfig `yaml:"verification"`
}

func LoadConfig() *Config {
	f, err := os.Open("config/config.yaml")
	if err != nil {
		panic("Failed to open config.yaml: " + err.Error())
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		panic("Failed to parse config.yaml: " + err.Error())
	}

	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = "chatauth-verifier"
	}
	if cfg.Kafka.Workers <= 0 {
		cfg.Kafka.Workers = 4
	}
	if cfg.Kafka.Topics.VerifyRequests == "" {
		cfg.Kafka.Topics.VerifyRequests = "verify-requests"
	}
	if cfg.Kafka.Topics.VerifyResponses == "" {
		cfg.Kafka.Topics.VerifyResponses = "verify-responses"
	}
	if cfg.Kafka.Topics.RevokeRequests == "" {
		cfg.Kafka.Topics.RevokeRequests = "revoke-requests"
	}
	if cfg.Kafka.Topics.RevokeResponses == "" {
		cfg.Kafka.Topics.RevokeResponses = "revoke-responses"
	}
	if cfg.Verification.CodeTTLMinutes <= 0 {
		cfg.Verification.CodeTTLMinutes = 5
	}
	if cfg.Verification.SessionRetentionMinutes <= 0 {
		cfg.Verification.SessionRetentionMinutes = 30
	}
	if cfg.Verification.SweepIntervalMinutes <= 0 {
		cfg.Verification.SweepIntervalMinutes = 5
	}
	if cfg.Verification.MaxCodeAttempts <= 0 {
		cfg.Verification.MaxCodeAttempts = 100
	}
	return &cfg
}
