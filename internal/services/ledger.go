package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"conti/internal/amqp"
	"conti/internal/cache"
	"conti/internal/core"
	"conti/internal/log"
	"conti/internal/storage"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// EventPublisher receives an event after every committed mutation.
type EventPublisher interface {
	Publish(ctx context.Context, e *amqp.LedgerEvent) error
}

// Options tunes a Ledger. Zero values select defaults.
type Options struct {
	Publisher       EventPublisher
	// Balances memoises account balances. Nil reads every balance from the
	// store, which is required when other processes write the same database.
	Balances        *cache.Balances
	Logger          *log.Logger
	DefaultPageSize int
	Now             func() time.Time
	NewID           func() string
}

// Ledger bundles the four ledger components over one store.
type Ledger struct {
	Accounts     *AccountService
	Categories   *CategoryService
	Transactions *TransactionService
	Aggregation  *AggregationService

	store *storage.Store
}

func NewLedger(store *storage.Store, opts Options) *Ledger {
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig())
	}
	if opts.DefaultPageSize <= 0 || opts.DefaultPageSize > MaxPageSize {
		opts.DefaultPageSize = DefaultPageSize
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}

	d := &deps{
		store:     store,
		publisher: opts.Publisher,
		balances:  opts.Balances,
		logger:    opts.Logger,
		now:       opts.Now,
		newID:     opts.NewID,
	}
	return &Ledger{
		Accounts:     &AccountService{deps: d, logger: d.logger.WithComponent(log.ComponentAccounts)},
		Categories:   &CategoryService{deps: d, logger: d.logger.WithComponent(log.ComponentCategories)},
		Transactions: &TransactionService{deps: d, logger: d.logger.WithComponent(log.ComponentLedger)},
		Aggregation: &AggregationService{
			deps:            d,
			logger:          d.logger.WithComponent(log.ComponentAggregation),
			defaultPageSize: opts.DefaultPageSize,
		},
		store: store,
	}
}

// Ping reports whether the backing database is reachable.
func (l *Ledger) Ping(ctx context.Context) error {
	return l.store.Ping(ctx)
}

// deps is shared by every service of one Ledger.
type deps struct {
	store     *storage.Store
	publisher EventPublisher
	balances  *cache.Balances
	logger    *log.Logger
	now       func() time.Time
	newID     func() string
}

// publish emits an event after commit. Failures are logged and swallowed:
// the mutation is already durable.
func (d *deps) publish(ctx context.Context, kind amqp.EventKind, owner, entityID string, data any, accounts ...string) {
	if d.publisher == nil {
		return
	}
	e, err := amqp.NewLedgerEvent(kind, owner, entityID, data, accounts...)
	if err == nil {
		err = d.publisher.Publish(ctx, e)
	}
	if err != nil {
		d.logger.WarnContext(ctx, "Failed to publish ledger event",
			log.FieldEventKind, string(kind),
			log.FieldOwner, owner,
			log.FieldError, err.Error())
	}
}

// balance returns the derived balance of an account through the cache.
func (d *deps) balance(ctx context.Context, q *storage.Queries, owner, accountID string) (core.Money, error) {
	return d.balances.Get(ctx, owner, accountID, func(ctx context.Context) (core.Money, error) {
		cents, err := q.AccountBalance(ctx, owner, accountID)
		if err != nil {
			return core.Money{}, err
		}
		return core.Money{Cents: cents}, nil
	})
}

func requireOwner(owner string) error {
	if owner == "" {
		return core.Validation("owner", "owner is required")
	}
	return nil
}

// notFound maps a missing row to a NotFound error and anything else to an
// internal one.
func notFound(err error, entity, id string) error {
	if errors.Is(err, storage.ErrNoRows) {
		return core.NotFound(entity, id)
	}
	return core.Internal(err)
}
