// internal/workers/application/transition-application/config.go
package transitionapplication

import (
	"time"

	"github.com/hazlijohar95/creatorschapter-sub000/internal/common/config"
)

type Config struct {
	Timeout time.Duration
}

func LoadConfig(wc config.WorkerConfig) *Config {
	timeout := config.GetDuration(wc.Timeout)
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Config{Timeout: timeout}
}
