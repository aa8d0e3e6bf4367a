// Package dialog implements the list/details/editing view controller shared
// by every editable entity kind, and the status transitions of listed
// entities.
package dialog

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"hairsby-console/internal/domain"
	"hairsby-console/internal/refresh"
	"hairsby-console/internal/upload"
)

// Lister fetches a whole collection.
type Lister[E domain.Entity] interface {
	List(ctx context.Context) ([]E, error)
}

// Transitioner requests a one-shot status change.
type Transitioner[E domain.Entity] interface {
	Transition(ctx context.Context, id string, action domain.Action) (E, error)
}

// Gateway is the remote API surface of an editable kind.
type Gateway[E domain.Entity] interface {
	Lister[E]
	Transitioner[E]
	Create(ctx context.Context, p *upload.Payload) (E, error)
	Update(ctx context.Context, id string, p *upload.Payload) (E, error)
}

// CollectionGateway is what a list-only kind needs.
type CollectionGateway[E domain.Entity] interface {
	Lister[E]
	Transitioner[E]
}

// Collection is a refreshed list plus the status transitions on its items.
// Orders use it directly; editable kinds get one through their Controller.
type Collection[E domain.Entity] struct {
	kind    domain.Kind
	list    *refresh.List[E]
	gateway Transitioner[E]
	logger  *zap.Logger
}

func NewCollection[E domain.Entity](kind domain.Kind, gw CollectionGateway[E], logger *zap.Logger) *Collection[E] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collection[E]{
		kind:    kind,
		list:    refresh.NewList[E](kind, gw.List),
		gateway: gw,
		logger:  logger.With(zap.String("kind", string(kind))),
	}
}

func (c *Collection[E]) Kind() domain.Kind { return c.kind }

func (c *Collection[E]) List() *refresh.List[E] { return c.list }

// Items returns the current collection, loading it on first use.
func (c *Collection[E]) Items(ctx context.Context, refetch bool) ([]E, error) {
	var err error
	if refetch {
		err = c.list.Refresh(ctx)
	} else {
		err = c.list.EnsureLoaded(ctx)
	}
	if err != nil {
		return nil, err
	}
	return c.list.Items(), nil
}

// Transition checks action against the transition table before calling the
// backend, and refetches the collection once the backend accepts it.
func (c *Collection[E]) Transition(ctx context.Context, id string, action domain.Action) (E, error) {
	var zero E
	if err := c.list.EnsureLoaded(ctx); err != nil {
		return zero, err
	}
	current, ok := c.list.Find(id)
	if !ok {
		return zero, fmt.Errorf("%w: %s %s", ErrNotFound, c.kind, id)
	}
	if _, err := domain.Transition(c.kind, current.CurrentStatus(), action); err != nil {
		return zero, err
	}

	updated, err := c.gateway.Transition(ctx, id, action)
	if err != nil {
		c.logger.Warn("transition rejected", zap.String("id", id), zap.String("action", string(action)), zap.Error(err))
		return zero, err
	}
	if err := c.list.Refresh(ctx); err != nil {
		c.logger.Warn("refresh after transition failed", zap.Error(err))
	}
	if fresh, ok := c.list.Find(id); ok {
		return fresh, nil
	}
	return updated, nil
}
