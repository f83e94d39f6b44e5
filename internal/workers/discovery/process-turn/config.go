package processturn

import "time"

type Config struct {
	Timeout       time.Duration
	NotifyTimeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout:       30 * time.Second,
		NotifyTimeout: 2 * time.Second,
	}
}
