package model

import "time"

// GenerateOption tunes a single generation call.
type GenerateOption interface {
	apply(*GenerateConfig)
}

type generateOptionFunc func(*GenerateConfig)

func (f generateOptionFunc) apply(cfg *GenerateConfig) {
	f(cfg)
}

// GenerateConfig is the resolved option set a provider receives.
type GenerateConfig struct {
	Temperature *float64
	MaxTokens   *int
	Model       *string
	Timeout     *time.Duration
}

func ResolveGenerateOpts(opts ...GenerateOption) GenerateConfig {
	cfg := GenerateConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt.apply(&cfg)
		}
	}
	return cfg
}

func WithTemperature(value float64) GenerateOption {
	return generateOptionFunc(func(cfg *GenerateConfig) {
		cfg.Temperature = &value
	})
}

func WithMaxTokens(value int) GenerateOption {
	return generateOptionFunc(func(cfg *GenerateConfig) {
		cfg.MaxTokens = &value
	})
}

func WithModel(value string) GenerateOption {
	return generateOptionFunc(func(cfg *GenerateConfig) {
		cfg.Model = &value
	})
}

// WithTimeout bounds one external call. The provider applies it per attempt,
// so a timed-out attempt can still be retried under the caller's context.
func WithTimeout(value time.Duration) GenerateOption {
	return generateOptionFunc(func(cfg *GenerateConfig) {
		cfg.Timeout = &value
	})
}
