package services

import (
	"github.com/benbjohnson/clock"
)

// Option customises a service.
type Option func(*serviceConfig)

type serviceConfig struct {
	clock clock.Clock
	audit *AuditService
}

// WithClock overrides the clock used for timestamps.
func WithClock(c clock.Clock) Option {
	return func(cfg *serviceConfig) {
		if c != nil {
			cfg.clock = c
		}
	}
}

// WithAudit records mutations through audit.
func WithAudit(audit *AuditService) Option {
	return func(cfg *serviceConfig) {
		cfg.audit = audit
	}
}

func applyOptions(opts []Option) serviceConfig {
	cfg := serviceConfig{clock: clock.New()}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}
