// internal/workers/listing/rank-listing/config.go
package ranklisting

import (
	"time"

	"github.com/hazlijohar95/creatorschapter-sub000/internal/common/config"
)

type Config struct {
	Timeout     time.Duration
	MaxPageSize int
}

func LoadConfig(wc config.WorkerConfig, engine config.EngineConfig) *Config {
	cfg := &Config{
		Timeout:     config.GetDuration(wc.Timeout),
		MaxPageSize: engine.ListingMaxPageSize,
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = 100
	}
	return cfg
}
