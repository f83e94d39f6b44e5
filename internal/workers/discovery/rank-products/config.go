package rankproducts

import "time"

type Config struct {
	Timeout time.Duration
	// MaxCandidates caps how many candidates one job may submit.
	MaxCandidates int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:       10 * time.Second,
		MaxCandidates: 200,
	}
}
