package services

import (
	"context"

	"conti/internal/amqp"
	"conti/internal/core"
	"conti/internal/log"
	"conti/internal/storage"
)

// TransactionService books income, expense and transfer rows.
//
// A transfer is stored as two rows sharing a group id: an outgoing row on
// the source account (amount plus fee) and an incoming row on the
// destination (amount only). Both are written in one database transaction.
// Update and Delete act on the addressed row only; the other side of a
// transfer is left as it was.
type TransactionService struct {
	*deps
	logger *log.Logger
}

// resolve checks the references of a draft against the owner's accounts and
// categories.
func resolve(ctx context.Context, q *storage.Queries, owner string, d core.TransactionDraft) error {
	if _, err := q.GetAccount(ctx, owner, d.AccountID); err != nil {
		return notFound(err, "account", d.AccountID)
	}
	if d.Type == core.TypeTransfer {
		if _, err := q.GetAccount(ctx, owner, d.TransferToAccountID); err != nil {
			return notFound(err, "account", d.TransferToAccountID)
		}
		return nil
	}

	c, err := q.GetCategory(ctx, owner, d.CategoryID)
	if err != nil {
		return notFound(err, "category", d.CategoryID)
	}
	if string(c.Type) != string(d.Type) {
		return core.Validation("categoryID", "category type "+string(c.Type)+" does not match transaction type "+string(d.Type))
	}
	return nil
}

// Create validates in and books it. For a transfer the outgoing row is
// returned.
func (s *TransactionService) Create(ctx context.Context, owner string, in core.TransactionInput) (core.Transaction, error) {
	if err := requireOwner(owner); err != nil {
		return core.Transaction{}, err
	}
	draft, err := in.Parse()
	if err != nil {
		return core.Transaction{}, err
	}

	sess, err := s.store.Acquire(ctx)
	if err != nil {
		return core.Transaction{}, core.Internal(err)
	}
	defer sess.Close()

	now := s.now()
	var rows []core.Transaction
	if draft.Type == core.TypeTransfer {
		out, inc, err := core.NewTransfer(s.newID(), s.newID(), s.newID(), owner, draft)
		if err != nil {
			return core.Transaction{}, err
		}
		rows = []core.Transaction{out, inc}
	} else {
		t, err := core.NewTransaction(s.newID(), owner, draft)
		if err != nil {
			return core.Transaction{}, err
		}
		rows = []core.Transaction{t}
	}
	for i := range rows {
		rows[i].CreatedAt = now
		rows[i].UpdatedAt = now
	}

	err = sess.InTx(ctx, func(q *storage.Queries) error {
		if err := resolve(ctx, q, owner, draft); err != nil {
			return err
		}
		for i := range rows {
			seq, err := q.CreateTransaction(ctx, rows[i])
			if err != nil {
				return err
			}
			rows[i].Seq = seq
		}
		return nil
	})
	if err != nil {
		return core.Transaction{}, core.Internal(err)
	}

	created := rows[0]
	touched := make([]string, 0, 2)
	for _, r := range rows {
		touched = append(touched, r.AccountID)
	}
	s.balances.Invalidate(owner, touched...)

	log.NewStructuredLogger(s.logger).LogTransactionCreated(ctx, owner, created.ID, created.AccountID, string(created.Type()), created.Amount.Cents)
	s.publish(ctx, amqp.TransactionCreated, owner, created.ID, transactionEventData(created), touched...)
	return created, nil
}

func (s *TransactionService) Get(ctx context.Context, owner, id string) (core.Transaction, error) {
	if err := requireOwner(owner); err != nil {
		return core.Transaction{}, err
	}
	sess, err := s.store.Acquire(ctx)
	if err != nil {
		return core.Transaction{}, core.Internal(err)
	}
	defer sess.Close()

	t, err := sess.Queries().GetTransaction(ctx, owner, id)
	if err != nil {
		return core.Transaction{}, notFound(err, "transaction", id)
	}
	return t, nil
}

// Update replaces the addressed row with in. The payload is read from the
// row's point of view: AccountID is the row's account and, for transfers,
// TransferToAccountID its counterparty. A row cannot switch between
// transfer and non-transfer, and the incoming side of a transfer keeps a
// zero fee.
func (s *TransactionService) Update(ctx context.Context, owner, id string, in core.TransactionInput) (core.Transaction, error) {
	if err := requireOwner(owner); err != nil {
		return core.Transaction{}, err
	}
	draft, err := in.Parse()
	if err != nil {
		return core.Transaction{}, err
	}

	sess, err := s.store.Acquire(ctx)
	if err != nil {
		return core.Transaction{}, core.Internal(err)
	}
	defer sess.Close()

	var before, after core.Transaction
	err = sess.InTx(ctx, func(q *storage.Queries) error {
		var err error
		if before, err = q.GetTransaction(ctx, owner, id); err != nil {
			return notFound(err, "transaction", id)
		}
		wasTransfer := before.Type() == core.TypeTransfer
		if wasTransfer != (draft.Type == core.TypeTransfer) {
			return core.Validation("type", "a transaction cannot change between transfer and income or expense")
		}
		if err := resolve(ctx, q, owner, draft); err != nil {
			return err
		}

		after = before
		after.Note = draft.Note
		after.Amount = draft.Amount
		after.Date = draft.Date
		after.Time = draft.Time
		after.AccountID = draft.AccountID
		after.UpdatedAt = s.now()
		switch draft.Type {
		case core.TypeIncome:
			after.Detail = core.IncomeDetail{CategoryID: draft.CategoryID}
		case core.TypeExpense:
			after.Detail = core.ExpenseDetail{CategoryID: draft.CategoryID}
		case core.TypeTransfer:
			prev := before.Detail.(core.TransferDetail)
			fee := draft.Fee
			if prev.Direction == core.DirectionIn {
				fee = core.Zero
			}
			after.Detail = core.TransferDetail{
				CounterpartyAccountID: draft.TransferToAccountID,
				Fee:                   fee,
				Direction:             prev.Direction,
				GroupID:               prev.GroupID,
			}
		}
		if err := q.UpdateTransaction(ctx, after); err != nil {
			return notFound(err, "transaction", id)
		}
		return nil
	})
	if err != nil {
		return core.Transaction{}, core.Internal(err)
	}

	s.balances.Invalidate(owner, before.AccountID, after.AccountID)
	s.logger.InfoContext(ctx, "Transaction updated", log.FieldOwner, owner, log.FieldTransactionID, id)
	s.publish(ctx, amqp.TransactionUpdated, owner, id, transactionEventData(after), before.AccountID, after.AccountID)
	return after, nil
}

// Delete removes exactly the addressed row.
func (s *TransactionService) Delete(ctx context.Context, owner, id string) error {
	if err := requireOwner(owner); err != nil {
		return err
	}
	sess, err := s.store.Acquire(ctx)
	if err != nil {
		return core.Internal(err)
	}
	defer sess.Close()

	var deleted core.Transaction
	err = sess.InTx(ctx, func(q *storage.Queries) error {
		var err error
		if deleted, err = q.GetTransaction(ctx, owner, id); err != nil {
			return notFound(err, "transaction", id)
		}
		if err := q.DeleteTransaction(ctx, owner, id); err != nil {
			return notFound(err, "transaction", id)
		}
		return nil
	})
	if err != nil {
		return core.Internal(err)
	}

	s.balances.Invalidate(owner, deleted.AccountID)
	s.logger.InfoContext(ctx, "Transaction deleted", log.FieldOwner, owner, log.FieldTransactionID, id)
	s.publish(ctx, amqp.TransactionDeleted, owner, id, transactionEventData(deleted), deleted.AccountID)
	return nil
}

func transactionEventData(t core.Transaction) map[string]string {
	data := map[string]string{
		"type":      string(t.Type()),
		"accountId": t.AccountID,
		"amount":    t.Amount.String(),
		"date":      t.Date.String(),
		"time":      t.Time.String(),
	}
	switch d := t.Detail.(type) {
	case core.TransferDetail:
		data["fee"] = d.Fee.String()
		data["direction"] = string(d.Direction)
		data["groupId"] = d.GroupID
		data["counterpartyAccountId"] = d.CounterpartyAccountID
	default:
		data["categoryId"] = t.CategoryID()
	}
	return data
}
