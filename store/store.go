// Package store defines the composite Store interface for all fanout
// persistence.
//
// Each subsystem defines its own store interface; the aggregate Store
// composes them all, so a backend implements every subsystem in one type.
package store

import (
	"context"

	"github.com/fairlx/fanout/deadletter"
	"github.com/fairlx/fanout/delivery"
	"github.com/fairlx/fanout/project"
	"github.com/fairlx/fanout/webhook"
)

// Store is the aggregate persistence interface.
type Store interface {
	webhook.Store
	project.Store
	delivery.Store
	deadletter.Store

	// Migrate runs all schema migrations.
	Migrate(ctx context.Context) error

	// Ping checks backend connectivity.
	Ping(ctx context.Context) error

	// Close closes the store connection.
	Close() error
}
