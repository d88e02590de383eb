package schedule

import (
	"github.com/okian/quals/pkg/logger"
)

// Option applies a configuration option to the Generator.
type Option func(*Generator)

// WithMaxRetries sets how many candidate draws a match may take before the
// generator accepts a repeated alliance.
func WithMaxRetries(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxRetries = n
		}
	}
}

// WithSplitAttempts sets how many red/blue splits are tried per candidate draw.
func WithSplitAttempts(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.splitAttempts = n
		}
	}
}

// WithLogger sets a custom logger for the generator.
func WithLogger(l logger.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}
