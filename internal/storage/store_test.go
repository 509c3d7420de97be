package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"conti/internal/core"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), Options{
		Driver:     SQLite,
		SQLitePath: filepath.Join(t.TempDir(), "ledger.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedAccount(t *testing.T, q *Queries, owner, id, name string) core.Account {
	t.Helper()
	now := time.Now().UTC()
	a := core.Account{ID: id, OwnerID: owner, Name: name, Type: core.AccountCash, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, q.CreateAccount(context.Background(), a))
	return a
}

func seedCategory(t *testing.T, q *Queries, owner, id string, typ core.CategoryType) core.Category {
	t.Helper()
	now := time.Now().UTC()
	c := core.Category{ID: id, OwnerID: owner, Name: id, Type: typ, Icon: core.IconNone, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, q.CreateCategory(context.Background(), c))
	return c
}

func expenseRow(id, owner, account, category, date, tod string, cents int64) core.Transaction {
	d, _ := core.ParseDate(date)
	tm, _ := core.ParseTimeOfDay(tod)
	now := time.Now().UTC()
	return core.Transaction{
		ID: id, OwnerID: owner, AccountID: account, Amount: core.Money{Cents: cents},
		Date: d, Time: tm, Detail: core.ExpenseDetail{CategoryID: category},
		CreatedAt: now, UpdatedAt: now,
	}
}

func TestRebind(t *testing.T) {
	q := "SELECT * FROM t WHERE a = ? AND b = ? LIMIT ?"
	require.Equal(t, q, SQLite.rebind(q))
	require.Equal(t, "SELECT * FROM t WHERE a = $1 AND b = $2 LIMIT $3", Postgres.rebind(q))
}

func TestOpenRunsMigrationsTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	for i := 0; i < 2; i++ {
		s, err := Open(context.Background(), Options{Driver: SQLite, SQLitePath: path})
		require.NoError(t, err)
		require.NoError(t, s.Ping(context.Background()))
		require.NoError(t, s.Close())
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Options{Driver: "oracle"})
	require.Error(t, err)
}

func TestAccountRoundTripAndOwnerScope(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	sess, err := s.Acquire(ctx)
	require.NoError(t, err)
	defer sess.Close()
	q := sess.Queries()

	a := seedAccount(t, q, "alice", "acc-1", "Wallet")

	got, err := q.GetAccount(ctx, "alice", "acc-1")
	require.NoError(t, err)
	require.Equal(t, a.Name, got.Name)
	require.Equal(t, core.AccountCash, got.Type)

	_, err = q.GetAccount(ctx, "bob", "acc-1")
	require.ErrorIs(t, err, ErrNoRows)

	seedAccount(t, q, "alice", "acc-2", "Bank")
	list, err := q.ListAccounts(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "Bank", list[0].Name)
}

func TestTransactionOrderingAndWindow(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	sess, err := s.Acquire(ctx)
	require.NoError(t, err)
	defer sess.Close()
	q := sess.Queries()

	seedAccount(t, q, "alice", "acc", "Wallet")
	seedCategory(t, q, "alice", "food", core.CategoryExpense)

	rows := []core.Transaction{
		expenseRow("t1", "alice", "acc", "food", "2024-01-01", "09:00", 100),
		expenseRow("t2", "alice", "acc", "food", "2024-01-02", "08:00", 200),
		expenseRow("t3", "alice", "acc", "food", "2024-01-02", "08:00", 300),
		expenseRow("t4", "alice", "acc", "food", "2024-01-02", "21:30", 400),
	}
	var last int64
	for _, r := range rows {
		seq, err := q.CreateTransaction(ctx, r)
		require.NoError(t, err)
		require.Greater(t, seq, last)
		last = seq
	}

	all, err := q.ListTransactions(ctx, TransactionFilter{Owner: "alice", AccountID: "acc"})
	require.NoError(t, err)
	ids := make([]string, 0, len(all))
	for _, r := range all {
		ids = append(ids, r.ID)
	}
	require.Equal(t, []string{"t4", "t3", "t2", "t1"}, ids)

	window, err := q.ListTransactions(ctx, TransactionFilter{Owner: "alice", AccountID: "acc", Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, window, 2)
	require.Equal(t, "t2", window[0].ID)

	n, err := q.CountTransactions(ctx, TransactionFilter{Owner: "alice", AccountID: "acc", DateStart: "2024-01-02"})
	require.NoError(t, err)
	require.Equal(t, 3, n)

	bal, err := q.AccountBalance(ctx, "alice", "acc")
	require.NoError(t, err)
	require.Equal(t, int64(-1000), bal)
}

func TestInTxRollsBack(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	sess, err := s.Acquire(ctx)
	require.NoError(t, err)
	defer sess.Close()

	boom := errors.New("boom")
	err = sess.InTx(ctx, func(q *Queries) error {
		seedAccount(t, q, "alice", "acc", "Wallet")
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = sess.Queries().GetAccount(ctx, "alice", "acc")
	require.ErrorIs(t, err, ErrNoRows)
}

func TestCategoryTotals(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	sess, err := s.Acquire(ctx)
	require.NoError(t, err)
	defer sess.Close()
	q := sess.Queries()

	seedAccount(t, q, "alice", "acc", "Wallet")
	seedCategory(t, q, "alice", "food", core.CategoryExpense)
	for i, id := range []string{"a", "b"} {
		_, err := q.CreateTransaction(ctx, expenseRow(id, "alice", "acc", "food", "2024-03-0"+string(rune('1'+i)), "10:00", 250))
		require.NoError(t, err)
	}

	totals, err := q.CategoryTotals(ctx, CategoryTotalsFilter{Owner: "alice", AccountID: "acc"})
	require.NoError(t, err)
	require.Len(t, totals, 1)
	require.Equal(t, int64(500), totals[0].Total.Cents)
	require.Equal(t, 2, totals[0].Count)

	refs, err := q.CountCategoryReferences(ctx, "alice", "food")
	require.NoError(t, err)
	require.Equal(t, int64(2), refs)
}

func TestRecordEventIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	sess, err := s.Acquire(ctx)
	require.NoError(t, err)
	defer sess.Close()
	q := sess.Queries()

	e := EventRecord{
		ID: "evt-1", Kind: "account.created", OwnerID: "alice", EntityID: "acc",
		Payload: []byte(`{}`), OccurredAt: time.Now(), RecordedAt: time.Now(),
	}
	require.NoError(t, q.RecordEvent(ctx, e))
	require.NoError(t, q.RecordEvent(ctx, e))

	events, err := q.ListEvents(ctx, "alice", 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "account.created", events[0].Kind)
}
