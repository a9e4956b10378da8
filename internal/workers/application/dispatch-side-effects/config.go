// internal/workers/application/dispatch-side-effects/config.go
package dispatchsideeffects

import (
	"time"

	"github.com/hazlijohar95/creatorschapter-sub000/internal/common/config"
)

type Config struct {
	Timeout   time.Duration
	BatchSize int // used when the job does not set one
}

func LoadConfig(wc config.WorkerConfig, engine config.EngineConfig) *Config {
	timeout := config.GetDuration(wc.Timeout)
	if timeout <= 0 {
		timeout = time.Minute
	}
	batch := engine.DispatchBatchSize
	if batch <= 0 {
		batch = 100
	}
	return &Config{Timeout: timeout, BatchSize: batch}
}
