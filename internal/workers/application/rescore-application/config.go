// internal/workers/application/rescore-application/config.go
package rescoreapplication

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
		timeout = 15 * time.Second
	}
	return &Config{Timeout: timeout}
}
