// internal/workers/application/bulk-transition-applications/config.go
package bulktransitionapplications

import (
	"time"

	"github.com/hazlijohar95/creatorschapter-sub000/internal/common/config"
)

// Config bounds the whole job. Per-item deadlines belong to the coordinator.
type Config struct {
	Timeout time.Duration
}

func LoadConfig(wc config.WorkerConfig) *Config {
	timeout := config.GetDuration(wc.Timeout)
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Config{Timeout: timeout}
}
