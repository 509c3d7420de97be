package services

import (
	"context"
	"strings"

	"conti/internal/amqp"
	"conti/internal/core"
	"conti/internal/log"
	"conti/internal/storage"
)

// AccountService manages accounts. Balances are derived from transaction
// rows on every read.
type AccountService struct {
	*deps
	logger *log.Logger
}

func (s *AccountService) Create(ctx context.Context, owner string, in core.AccountInput) (core.Account, error) {
	if err := requireOwner(owner); err != nil {
		return core.Account{}, err
	}
	if err := in.Validate(); err != nil {
		return core.Account{}, err
	}

	now := s.now()
	a := core.Account{
		ID:          s.newID(),
		OwnerID:     owner,
		Name:        strings.TrimSpace(in.Name),
		Type:        in.Type,
		Description: in.Description,
		Balance:     core.Zero,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	sess, err := s.store.Acquire(ctx)
	if err != nil {
		return core.Account{}, core.Internal(err)
	}
	defer sess.Close()

	if err := sess.Queries().CreateAccount(ctx, a); err != nil {
		return core.Account{}, core.Internal(err)
	}

	s.logger.InfoContext(ctx, "Account created", log.FieldOwner, owner, log.FieldAccountID, a.ID)
	s.publish(ctx, amqp.AccountCreated, owner, a.ID, accountEventData(a), a.ID)
	return a, nil
}

func (s *AccountService) Get(ctx context.Context, owner, id string) (core.Account, error) {
	if err := requireOwner(owner); err != nil {
		return core.Account{}, err
	}
	sess, err := s.store.Acquire(ctx)
	if err != nil {
		return core.Account{}, core.Internal(err)
	}
	defer sess.Close()

	q := sess.Queries()
	a, err := q.GetAccount(ctx, owner, id)
	if err != nil {
		return core.Account{}, notFound(err, "account", id)
	}
	if a.Balance, err = s.balance(ctx, q, owner, id); err != nil {
		return core.Account{}, core.Internal(err)
	}
	return a, nil
}

// List returns the owner's accounts ordered by name, each with its balance.
func (s *AccountService) List(ctx context.Context, owner string) ([]core.Account, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	sess, err := s.store.Acquire(ctx)
	if err != nil {
		return nil, core.Internal(err)
	}
	defer sess.Close()

	q := sess.Queries()
	accounts, err := q.ListAccounts(ctx, owner)
	if err != nil {
		return nil, core.Internal(err)
	}
	for i := range accounts {
		if accounts[i].Balance, err = s.balance(ctx, q, owner, accounts[i].ID); err != nil {
			return nil, core.Internal(err)
		}
	}
	return accounts, nil
}

func (s *AccountService) Update(ctx context.Context, owner, id string, patch core.AccountPatch) (core.Account, error) {
	if err := requireOwner(owner); err != nil {
		return core.Account{}, err
	}
	sess, err := s.store.Acquire(ctx)
	if err != nil {
		return core.Account{}, core.Internal(err)
	}
	defer sess.Close()

	var updated core.Account
	err = sess.InTx(ctx, func(q *storage.Queries) error {
		current, err := q.GetAccount(ctx, owner, id)
		if err != nil {
			return notFound(err, "account", id)
		}
		in := patch.Apply(current)
		if err := in.Validate(); err != nil {
			return err
		}
		updated = current
		updated.Name = strings.TrimSpace(in.Name)
		updated.Type = in.Type
		updated.Description = in.Description
		updated.UpdatedAt = s.now()
		if err := q.UpdateAccount(ctx, updated); err != nil {
			return notFound(err, "account", id)
		}
		return nil
	})
	if err != nil {
		return core.Account{}, core.Internal(err)
	}

	if updated.Balance, err = s.balance(ctx, sess.Queries(), owner, id); err != nil {
		return core.Account{}, core.Internal(err)
	}
	s.publish(ctx, amqp.AccountUpdated, owner, id, accountEventData(updated), id)
	return updated, nil
}

// Delete removes the account and every transaction row booked on it.
// Transfer rows on other accounts stay, with their counterparty cleared.
func (s *AccountService) Delete(ctx context.Context, owner, id string) error {
	if err := requireOwner(owner); err != nil {
		return err
	}
	sess, err := s.store.Acquire(ctx)
	if err != nil {
		return core.Internal(err)
	}
	defer sess.Close()

	err = sess.InTx(ctx, func(q *storage.Queries) error {
		if _, err := q.GetAccount(ctx, owner, id); err != nil {
			return notFound(err, "account", id)
		}
		if err := q.DeleteAccount(ctx, owner, id, s.now()); err != nil {
			return notFound(err, "account", id)
		}
		return nil
	})
	if err != nil {
		return core.Internal(err)
	}

	s.balances.Invalidate(owner, id)
	s.logger.InfoContext(ctx, "Account deleted", log.FieldOwner, owner, log.FieldAccountID, id)
	s.publish(ctx, amqp.AccountDeleted, owner, id, nil, id)
	return nil
}

func accountEventData(a core.Account) map[string]string {
	return map[string]string{
		"name":        a.Name,
		"type":        string(a.Type),
		"description": a.Description,
	}
}
