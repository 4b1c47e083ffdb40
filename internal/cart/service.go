package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/morgandigital36/pos-minimarket-umkm/internal/catalog"
	"github.com/morgandigital36/pos-minimarket-umkm/internal/events"
	"github.com/morgandigital36/pos-minimarket-umkm/internal/lock"
	"github.com/morgandigital36/pos-minimarket-umkm/internal/obs"
)

const cartLockTTL = 5 * time.Second

// Guard lets checkout veto cart mutations. Once an amount due is locked for
// payment the cart must stay exactly what the customer is paying for, so
// every write asks the guard first.
type Guard interface {
	AllowCartMutation(ctx context.Context, terminalID string) error
}

// Service applies cart operations for a terminal: load the stored cart,
// mutate it through the engine, persist it back. The engine stays pure; all
// storage and lookup plumbing lives here. When Lock is set, writes for the
// same terminal are serialised so concurrent requests cannot drop each
// other's load-modify-save cycle.
type Service struct {
	Store    *Store
	Products *catalog.Service
	Events   *events.Bus
	Lock     *lock.Locker
	Guard    Guard
}

// Get returns the terminal's current cart.
func (s *Service) Get(ctx context.Context, terminalID string) (*Cart, error) {
	if s == nil || s.Store == nil {
		return nil, errors.New("cart service not configured")
	}
	return s.Store.Load(ctx, terminalID)
}

// AddItem resolves the query to a product and adds it to the cart.
func (s *Service) AddItem(ctx context.Context, terminalID, query string) (*Cart, error) {
	if s == nil || s.Products == nil {
		return nil, errors.New("cart service not configured")
	}
	product, err := s.Products.Lookup(ctx, query)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, terminalID, "add", func(c *Cart) error {
		c.AddItem(product)
		return nil
	})
}

// RemoveItem deletes a line. Removing an absent line is a no-op.
func (s *Service) RemoveItem(ctx context.Context, terminalID, productID string) (*Cart, error) {
	return s.mutate(ctx, terminalID, "remove", func(c *Cart) error {
		c.RemoveItem(productID)
		return nil
	})
}

// UpdateQuantity sets a line's quantity; zero removes the line.
func (s *Service) UpdateQuantity(ctx context.Context, terminalID, productID string, quantity int) (*Cart, error) {
	return s.mutate(ctx, terminalID, "update_quantity", func(c *Cart) error {
		return c.UpdateQuantity(productID, quantity)
	})
}

// UpdateLineDiscount sets a per-line discount amount.
func (s *Service) UpdateLineDiscount(ctx context.Context, terminalID, productID string, discount int64) (*Cart, error) {
	return s.mutate(ctx, terminalID, "update_discount", func(c *Cart) error {
		return c.UpdateLineDiscount(productID, discount)
	})
}

// SetGlobalDiscount stores the cart-wide discount.
func (s *Service) SetGlobalDiscount(ctx context.Context, terminalID, discountType string, value int64) (*Cart, error) {
	return s.mutate(ctx, terminalID, "set_discount", func(c *Cart) error {
		return c.SetGlobalDiscount(discountType, value)
	})
}

// Clear empties the terminal's cart and emits a cart.cleared event.
func (s *Service) Clear(ctx context.Context, terminalID string) error {
	if s == nil || s.Store == nil {
		return errors.New("cart service not configured")
	}
	if err := s.allowMutation(ctx, terminalID); err != nil {
		return err
	}
	if err := s.withTerminalLock(ctx, terminalID, func(ctx context.Context) error {
		return s.Store.Delete(ctx, terminalID)
	}); err != nil {
		return err
	}
	obs.CountCartOp("clear")
	if s.Events != nil {
		if _, err := s.Events.Emit(ctx, events.TopicCartCleared, terminalID, nil); err != nil {
			return fmt.Errorf("emit cart.cleared: %w", err)
		}
	}
	return nil
}

// Summarize computes the cart's derived totals at the given tax rate.
func (s *Service) Summarize(ctx context.Context, terminalID string, taxBps int) (Summary, error) {
	c, err := s.Get(ctx, terminalID)
	if err != nil {
		return Summary{}, err
	}
	return c.Summarize(taxBps), nil
}

func (s *Service) mutate(ctx context.Context, terminalID, op string, fn func(*Cart) error) (*Cart, error) {
	if s == nil || s.Store == nil {
		return nil, errors.New("cart service not configured")
	}
	if err := s.allowMutation(ctx, terminalID); err != nil {
		return nil, err
	}
	var c *Cart
	err := s.withTerminalLock(ctx, terminalID, func(ctx context.Context) error {
		loaded, err := s.Store.Load(ctx, terminalID)
		if err != nil {
			return err
		}
		if err := fn(loaded); err != nil {
			return err
		}
		if err := s.Store.Save(ctx, terminalID, loaded); err != nil {
			return err
		}
		c = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	obs.CountCartOp(op)
	return c, nil
}

func (s *Service) allowMutation(ctx context.Context, terminalID string) error {
	if s.Guard == nil {
		return nil
	}
	return s.Guard.AllowCartMutation(ctx, terminalID)
}

func (s *Service) withTerminalLock(ctx context.Context, terminalID string, fn func(context.Context) error) error {
	if s.Lock == nil {
		return fn(ctx)
	}
	return s.Lock.WithLock(ctx, "pos:cartlock:"+terminalID, cartLockTTL, fn)
}
