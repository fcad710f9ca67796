package geoproj

import (
	"log/slog"

	"github.com/pspoerri/geoproj/internal/registry"
)

// Option configures an Engine at construction.
type Option func(*options)

type options struct {
	resolver registry.Resolver
	logger   *slog.Logger
}

func defaultOptions() options {
	return options{
		resolver: registry.Default(),
		logger:   slog.Default(),
	}
}

// Resolver looks up CRS identifiers for NewKnownCRS.
type Resolver = registry.Resolver

// CRS is a resolved coordinate reference system.
type CRS = registry.CRS

// WithResolver replaces the built-in CRS table.
func WithResolver(r Resolver) Option {
	return func(o *options) {
		if r != nil {
			o.resolver = r
		}
	}
}

// WithLogger sets the logger used for construction diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
