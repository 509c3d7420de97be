package services

import (
	"context"
	"strings"

	"conti/internal/amqp"
	"conti/internal/core"
	"conti/internal/log"
	"conti/internal/storage"
)

// CategoryService manages income and expense categories. A category that
// transactions still reference can be neither deleted nor retyped.
type CategoryService struct {
	*deps
	logger *log.Logger
}

func (s *CategoryService) Create(ctx context.Context, owner string, in core.CategoryInput) (core.Category, error) {
	if err := requireOwner(owner); err != nil {
		return core.Category{}, err
	}
	if err := in.Validate(); err != nil {
		return core.Category{}, err
	}

	now := s.now()
	c := core.Category{
		ID:          s.newID(),
		OwnerID:     owner,
		Name:        strings.TrimSpace(in.Name),
		Type:        in.Type,
		Icon:        core.NormalizeIcon(in.Icon),
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	sess, err := s.store.Acquire(ctx)
	if err != nil {
		return core.Category{}, core.Internal(err)
	}
	defer sess.Close()

	if err := sess.Queries().CreateCategory(ctx, c); err != nil {
		return core.Category{}, core.Internal(err)
	}

	s.logger.InfoContext(ctx, "Category created", log.FieldOwner, owner, log.FieldCategoryID, c.ID)
	s.publish(ctx, amqp.CategoryCreated, owner, c.ID, categoryEventData(c))
	return c, nil
}

func (s *CategoryService) Get(ctx context.Context, owner, id string) (core.Category, error) {
	if err := requireOwner(owner); err != nil {
		return core.Category{}, err
	}
	sess, err := s.store.Acquire(ctx)
	if err != nil {
		return core.Category{}, core.Internal(err)
	}
	defer sess.Close()

	c, err := sess.Queries().GetCategory(ctx, owner, id)
	if err != nil {
		return core.Category{}, notFound(err, "category", id)
	}
	return c, nil
}

// List returns the owner's categories by name. An empty typ lists both kinds.
func (s *CategoryService) List(ctx context.Context, owner string, typ core.CategoryType) ([]core.Category, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	if typ != "" && !typ.IsValid() {
		return nil, core.Validation("type", "type must be one of income, expense")
	}
	sess, err := s.store.Acquire(ctx)
	if err != nil {
		return nil, core.Internal(err)
	}
	defer sess.Close()

	categories, err := sess.Queries().ListCategories(ctx, owner, typ)
	if err != nil {
		return nil, core.Internal(err)
	}
	return categories, nil
}

func (s *CategoryService) Update(ctx context.Context, owner, id string, patch core.CategoryPatch) (core.Category, error) {
	if err := requireOwner(owner); err != nil {
		return core.Category{}, err
	}
	sess, err := s.store.Acquire(ctx)
	if err != nil {
		return core.Category{}, core.Internal(err)
	}
	defer sess.Close()

	var updated core.Category
	err = sess.InTx(ctx, func(q *storage.Queries) error {
		current, err := q.GetCategory(ctx, owner, id)
		if err != nil {
			return notFound(err, "category", id)
		}
		in := patch.Apply(current)
		if err := in.Validate(); err != nil {
			return err
		}
		if in.Type != current.Type {
			refs, err := q.CountCategoryReferences(ctx, owner, id)
			if err != nil {
				return err
			}
			if refs > 0 {
				return core.Conflict("category type cannot change while transactions reference it")
			}
		}
		updated = current
		updated.Name = strings.TrimSpace(in.Name)
		updated.Type = in.Type
		updated.Icon = core.NormalizeIcon(in.Icon)
		updated.Description = in.Description
		updated.UpdatedAt = s.now()
		if err := q.UpdateCategory(ctx, updated); err != nil {
			return notFound(err, "category", id)
		}
		return nil
	})
	if err != nil {
		return core.Category{}, core.Internal(err)
	}

	s.publish(ctx, amqp.CategoryUpdated, owner, id, categoryEventData(updated))
	return updated, nil
}

// Delete removes an unreferenced category. Referenced categories yield a
// Conflict.
func (s *CategoryService) Delete(ctx context.Context, owner, id string) error {
	if err := requireOwner(owner); err != nil {
		return err
	}
	sess, err := s.store.Acquire(ctx)
	if err != nil {
		return core.Internal(err)
	}
	defer sess.Close()

	err = sess.InTx(ctx, func(q *storage.Queries) error {
		if _, err := q.GetCategory(ctx, owner, id); err != nil {
			return notFound(err, "category", id)
		}
		refs, err := q.CountCategoryReferences(ctx, owner, id)
		if err != nil {
			return err
		}
		if refs > 0 {
			return core.Conflict("category is referenced by existing transactions")
		}
		if err := q.DeleteCategory(ctx, owner, id); err != nil {
			return notFound(err, "category", id)
		}
		return nil
	})
	if err != nil {
		return core.Internal(err)
	}

	s.logger.InfoContext(ctx, "Category deleted", log.FieldOwner, owner, log.FieldCategoryID, id)
	s.publish(ctx, amqp.CategoryDeleted, owner, id, nil)
	return nil
}

func categoryEventData(c core.Category) map[string]string {
	return map[string]string{
		"name": c.Name,
		"type": string(c.Type),
		"icon": c.Icon,
	}
}
