package config

import "time"

// Config holds runtime settings for the gophchat CLI.
type Config struct {
	ServerURL           string
	OnlineCheckInterval time.Duration
	CachePath           string
}

func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.OnlineCheckInterval = 3 * time.Second
	c.CachePath = "gophchat.db"
}

// LoadConfig applies defaults, then the JSON file, then flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
