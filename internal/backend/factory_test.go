package backend

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conti/internal/config"
	"conti/internal/core"
	"conti/internal/storage"
)

func TestFromAppConfig(t *testing.T) {
	cfg, err := FromAppConfig(&config.Config{
		DBDriver:         "sqlite",
		SQLiteDBPath:     "./data/ledger.db",
		BalanceCacheSize: 16,
		BalanceCacheTTL:  time.Minute,
		DefaultPageSize:  20,
	})
	require.NoError(t, err)
	assert.Equal(t, storage.SQLite, cfg.Store.Driver)
	assert.Equal(t, "./data/ledger.db", cfg.Store.SQLitePath)
	assert.Equal(t, 20, cfg.DefaultPageSize)

	_, err = FromAppConfig(nil)
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	base := Config{
		Store:            storage.Options{Driver: storage.SQLite, SQLitePath: "x.db"},
		BalanceCacheSize: 1,
		BalanceCacheTTL:  time.Second,
	}
	require.NoError(t, base.Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unknown driver", func(c *Config) { c.Store.Driver = "mysql" }},
		{"postgres without url", func(c *Config) { c.Store.Driver = storage.Postgres }},
		{"amqp without queue", func(c *Config) { c.AMQPURL = "amqp://localhost"; c.AMQPExchange = "x" }},
		{"negative cache size", func(c *Config) { c.BalanceCacheSize = -1 }},
		{"zero ttl", func(c *Config) { c.BalanceCacheTTL = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}

	disabled := base
	disabled.BalanceCacheSize = 0
	disabled.BalanceCacheTTL = 0
	assert.NoError(t, disabled.Validate())
}

func TestCreateBackendSQLite(t *testing.T) {
	ctx := context.Background()
	f := NewFactory(nil)

	res, err := f.CreateBackend(ctx, Config{
		Store: storage.Options{
			Driver:     storage.SQLite,
			SQLitePath: filepath.Join(t.TempDir(), "nested", "ledger.db"),
		},
		BalanceCacheSize: 8,
		BalanceCacheTTL:  time.Minute,
	})
	require.NoError(t, err)
	assert.Nil(t, res.Publisher)
	require.NoError(t, res.Ledger.Ping(ctx))

	acc, err := res.Ledger.Accounts.Create(ctx, "alice", core.AccountInput{Name: "Wallet", Type: core.AccountCash})
	require.NoError(t, err)
	got, err := res.Ledger.Accounts.Get(ctx, "alice", acc.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.IsZero())

	require.NoError(t, res.Cleanup())
}

func TestCreateBackendWithoutCacheSeesOtherWriters(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")
	cfg := Config{Store: storage.Options{Driver: storage.SQLite, SQLitePath: path}}

	reader, err := NewFactory(nil).CreateBackend(ctx, cfg)
	require.NoError(t, err)
	defer reader.Cleanup()
	writer, err := NewFactory(nil).CreateBackend(ctx, cfg)
	require.NoError(t, err)
	defer writer.Cleanup()

	acc, err := writer.Ledger.Accounts.Create(ctx, "alice", core.AccountInput{Name: "Wallet", Type: core.AccountCash})
	require.NoError(t, err)
	got, err := reader.Ledger.Accounts.Get(ctx, "alice", acc.ID)
	require.NoError(t, err)
	require.Equal(t, "0.00", got.Balance.String())

	food, err := writer.Ledger.Categories.Create(ctx, "alice", core.CategoryInput{Name: "Food", Type: core.CategoryExpense})
	require.NoError(t, err)
	_, err = writer.Ledger.Transactions.Create(ctx, "alice", core.TransactionInput{
		Type: core.TypeExpense, Amount: "50.00", Date: "2024-01-01", Time: "09:00",
		AccountID: acc.ID, CategoryID: food.ID,
	})
	require.NoError(t, err)

	got, err = reader.Ledger.Accounts.Get(ctx, "alice", acc.ID)
	require.NoError(t, err)
	assert.Equal(t, "-50.00", got.Balance.String())
}
