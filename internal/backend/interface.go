package backend

import (
	"context"
	"time"

	"conti/internal/amqp"
	"conti/internal/services"
	"conti/internal/storage"
)

// CleanupFunc releases the resources held by a backend.
type CleanupFunc func() error

// BackendResult is a ready ledger plus the handles needed to shut it down.
// Publisher is nil when event publishing is disabled.
type BackendResult struct {
	Ledger    *services.Ledger
	Store     *storage.Store
	Publisher *amqp.Client
	Cleanup   CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds everything needed to assemble a ledger backend.
type Config struct {
	Store storage.Options

	// AMQP, optional
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	BalanceCacheSize     int
	BalanceCacheTTL      time.Duration
	CacheCleanupInterval time.Duration
	DefaultPageSize      int
}
