// internal/workers/application/send-notification/config.go
package sendnotification

import (
	"time"

	"github.com/hazlijohar95/creatorschapter-sub000/internal/common/config"
)

type Config struct {
	Enabled   bool
	Transport string
	Timeout   time.Duration
}

func LoadConfig(wc config.WorkerConfig, nc config.NotificationConfig) *Config {
	cfg := &Config{
		Enabled:   nc.Transport != "" && nc.Transport != config.TransportNone,
		Transport: nc.Transport,
		Timeout:   config.GetDuration(wc.Timeout),
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return cfg
}
