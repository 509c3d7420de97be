package backend

import (
	"context"
	"errors"
	"fmt"

	"conti/internal/amqp"
	"conti/internal/cache"
	"conti/internal/log"
	"conti/internal/services"
	"conti/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{logger: logger}
}

// CreateBackend opens the store, connects the optional event publisher and
// assembles the ledger services on top of them.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	store, err := storage.Open(ctx, config.Store)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger store: %w", err)
	}

	// AMQP is optional; a broker outage at start-up disables publishing.
	var client *amqp.Client
	var publisher services.EventPublisher
	if config.AMQPURL != "" {
		client, err = amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
			client = nil
		} else {
			publisher = client
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	balances := cache.NewBalances(config.BalanceCacheSize, config.BalanceCacheTTL)
	manager := cache.NewManager(f.logger)
	if balances.Enabled() {
		manager.Register(balances)
	}
	manager.StartCleanup(config.cleanupInterval())

	ledger := services.NewLedger(store, services.Options{
		Publisher:       publisher,
		Balances:        balances,
		Logger:          f.logger,
		DefaultPageSize: config.DefaultPageSize,
	})

	f.logger.Info("Initialized ledger backend",
		"driver", string(config.Store.Driver),
		"amqp_enabled", client != nil,
		"balance_cache", balances.Enabled())

	return &BackendResult{
		Ledger:    ledger,
		Store:     store,
		Publisher: client,
		Cleanup: func() error {
			manager.Stop()
			var errs []error
			if client != nil {
				errs = append(errs, client.Close())
			}
			errs = append(errs, store.Close())
			return errors.Join(errs...)
		},
	}, nil
}
