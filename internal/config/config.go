package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		Port    int    `yaml:"port"`
		DataDir string `yaml:"data_dir"`
	} `yaml:"app"`

	Source struct {
		ListURL          string `yaml:"list_url"`
		UserAgent        string `yaml:"user_agent"`
		DelayMS          int    `yaml:"delay_ms"`            // politeness delay between requests
		RetryMax         int    `yaml:"retry_max"`
		ConnectTimeoutMS int    `yaml:"connect_timeout_ms"`
		ReadTimeoutMS    int    `yaml:"read_timeout_ms"`
	} `yaml:"source"`

	Scrape struct {
		BackfillDays int    `yaml:"backfill_days"` // first-run lookback when no watermark exists
		Since        string `yaml:"since"`         // optional YYYY-MM-DD cutoff override
	} `yaml:"scrape"`

	Polling struct {
		PullSeconds int `yaml:"pull_seconds"` // 0 disables the periodic pull
	} `yaml:"polling"`
}

func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}
