package cart

import (
	"context"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/MikeMC777/storefront/internal/clientstore"
)

// Container owns one session's cart. Every item mutation is written back to
// the session store before Dispatch returns.
type Container struct {
	kv    clientstore.KV
	state State
}

// Open rehydrates the cart for a session. Missing or corrupt data starts an
// empty cart; only storage failures are returned.
func Open(ctx context.Context, kv clientstore.KV) (*Container, error) {
	c := &Container{kv: kv, state: State{Items: []Item{}}}

	raw, ok, err := kv.Get(ctx, clientstore.KeyCart)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if ok {
		c.state = Reduce(c.state, LoadItems(Decode(raw)))
	}

	rawOpen, ok, err := kv.Get(ctx, clientstore.KeyCartOpen)
	if err != nil {
		return nil, fmt.Errorf("load cart panel: %w", err)
	}
	if ok {
		open, _ := strconv.ParseBool(rawOpen)
		c.state = Reduce(c.state, Visible(open))
	}
	return c, nil
}

func (c *Container) State() State { return c.state }

func (c *Container) Items() []Item { return c.state.Items }

func (c *Container) TotalItems() int { return TotalItems(c.state.Items) }

func (c *Container) TotalPrice() decimal.Decimal { return TotalPrice(c.state.Items) }

func (c *Container) Dispatch(ctx context.Context, a Action) (State, error) {
	prev := c.state
	c.state = Reduce(prev, a)

	switch a.Kind {
	case Toggle, SetOpen:
		if prev.Open != c.state.Open {
			if err := c.kv.Set(ctx, clientstore.KeyCartOpen, strconv.FormatBool(c.state.Open)); err != nil {
				return c.state, fmt.Errorf("save cart panel: %w", err)
			}
		}
	default:
		if err := c.persist(ctx); err != nil {
			return c.state, err
		}
	}
	return c.state, nil
}

func (c *Container) Clear(ctx context.Context) error {
	_, err := c.Dispatch(ctx, ClearItems())
	return err
}

func (c *Container) persist(ctx context.Context) error {
	raw, err := Encode(c.state.Items)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := c.kv.Set(ctx, clientstore.KeyCart, raw); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}
