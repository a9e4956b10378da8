// internal/workers/listing/parse-listing-filters/config.go
package parselistingfilters

import (
	"time"

	"github.com/hazlijohar95/creatorschapter-sub000/internal/common/config"
)

const defaultMaxPageSize = 100

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
		cfg.Timeout = 5 * time.Second
	}
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = defaultMaxPageSize
	}
	return cfg
}
