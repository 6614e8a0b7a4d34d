package cart

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeMC777/storefront/internal/clientstore"
	"github.com/MikeMC777/storefront/internal/product"
)

func prod(id, price string) product.Product {
	return product.Product{ID: id, Name: "Oil " + id, Price: decimal.RequireFromString(price), InStock: true}
}

func TestReduce_AddItem(t *testing.T) {
	a := prod("a", "10.00")
	s := Reduce(State{}, Add(a))
	s = Reduce(s, Add(a))
	s = Reduce(s, Add(prod("b", "25.00")))

	require.Len(t, s.Items, 2)
	assert.Equal(t, "a", s.Items[0].Product.ID)
	assert.Equal(t, 2, s.Items[0].Quantity)
	assert.Equal(t, 1, s.Items[1].Quantity)
}

func TestReduce_DoesNotMutateInput(t *testing.T) {
	s := Reduce(State{}, Add(prod("a", "1.00")))
	_ = Reduce(s, Add(prod("a", "1.00")))
	_ = Reduce(s, ChangeQuantity("a", 9))
	assert.Equal(t, 1, s.Items[0].Quantity)
}

func TestReduce_SetQuantity(t *testing.T) {
	s := Reduce(State{}, Add(prod("a", "10.00")))
	s = Reduce(s, ChangeQuantity("a", 7))
	assert.Equal(t, 7, s.Items[0].Quantity)

	s = Reduce(s, ChangeQuantity("missing", 3))
	assert.Len(t, s.Items, 1)

	s = Reduce(s, ChangeQuantity("a", -2))
	assert.Empty(t, s.Items)
}

func TestReduce_SetQuantityZeroEqualsRemove(t *testing.T) {
	base := Reduce(Reduce(State{}, Add(prod("a", "10.00"))), Add(prod("b", "3.00")))
	assert.Equal(t, Reduce(base, Remove("a")).Items, Reduce(base, ChangeQuantity("a", 0)).Items)
}

func TestReduce_ClearKeepsOpenFlag(t *testing.T) {
	s := Reduce(State{}, Add(prod("a", "10.00")))
	s = Reduce(s, ToggleOpen())
	s = Reduce(s, ClearItems())
	assert.Empty(t, s.Items)
	assert.True(t, s.Open)

	s = Reduce(s, Visible(false))
	assert.False(t, s.Open)
}

func TestReduce_RemoveMissingIsNoop(t *testing.T) {
	s := Reduce(State{}, Add(prod("a", "10.00")))
	s = Reduce(s, Remove("zzz"))
	assert.Len(t, s.Items, 1)
}

func TestReduce_RandomSequencesKeepItemsUniqueAndPositive(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	products := []product.Product{prod("a", "1.50"), prod("b", "2.25"), prod("c", "9.99")}
	var s State
	for i := 0; i < 2000; i++ {
		p := products[r.Intn(len(products))]
		switch r.Intn(3) {
		case 0:
			s = Reduce(s, Add(p))
		case 1:
			s = Reduce(s, Remove(p.ID))
		case 2:
			s = Reduce(s, ChangeQuantity(p.ID, r.Intn(7)-2))
		}

		seen := map[string]bool{}
		want := decimal.Zero
		for _, it := range s.Items {
			require.False(t, seen[it.Product.ID], "duplicate %s", it.Product.ID)
			seen[it.Product.ID] = true
			require.GreaterOrEqual(t, it.Quantity, 1)
			want = want.Add(it.Product.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
		}
		require.True(t, want.Equal(TotalPrice(s.Items)))
	}
}

func TestTotals(t *testing.T) {
	s := Reduce(State{}, Add(prod("a", "10.00")))
	s = Reduce(s, Add(prod("a", "10.00")))
	s = Reduce(s, Add(prod("b", "25.00")))

	assert.Equal(t, 3, TotalItems(s.Items))
	assert.True(t, decimal.RequireFromString("45.00").Equal(TotalPrice(s.Items)))
	assert.True(t, TotalPrice(nil).IsZero())
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	s := Reduce(State{}, Add(prod("a", "10.00")))
	s = Reduce(s, ChangeQuantity("a", 3))
	s = Reduce(s, Add(prod("b", "25.50")))

	raw, err := Encode(s.Items)
	require.NoError(t, err)
	got := Decode(raw)

	require.Len(t, got, len(s.Items))
	for i := range got {
		assert.Equal(t, s.Items[i].Product.ID, got[i].Product.ID)
		assert.Equal(t, s.Items[i].Quantity, got[i].Quantity)
		assert.True(t, s.Items[i].Product.Price.Equal(got[i].Product.Price))
	}
}

func TestDecode_CorruptIsEmpty(t *testing.T) {
	for _, raw := range []string{"", "{", `{"items":1}`, "null"} {
		assert.Empty(t, Decode(raw), raw)
	}
}

func TestDecode_Normalizes(t *testing.T) {
	raw := `[{"product":{"id":"a","price":"1"},"quantity":2},
	         {"product":{"id":"b","price":"1"},"quantity":0},
	         {"product":{"id":"a","price":"1"},"quantity":1}]`
	got := Decode(raw)
	require.Len(t, got, 1)
	assert.Equal(t, 3, got[0].Quantity)
}

type failingKV struct{ clientstore.KV }

func (failingKV) Set(context.Context, string, string) error { return errors.New("quota exceeded") }

func TestContainer_PersistsAndRehydrates(t *testing.T) {
	ctx := context.Background()
	kv := clientstore.NewMemory().Session("s1")

	c, err := Open(ctx, kv)
	require.NoError(t, err)
	assert.Empty(t, c.Items())

	_, err = c.Dispatch(ctx, Add(prod("a", "10.00")))
	require.NoError(t, err)
	_, err = c.Dispatch(ctx, Add(prod("a", "10.00")))
	require.NoError(t, err)
	_, err = c.Dispatch(ctx, ToggleOpen())
	require.NoError(t, err)

	again, err := Open(ctx, kv)
	require.NoError(t, err)
	assert.Equal(t, 2, again.TotalItems())
	assert.True(t, again.State().Open)
	assert.True(t, decimal.RequireFromString("20").Equal(again.TotalPrice()))

	require.NoError(t, again.Clear(ctx))
	third, err := Open(ctx, kv)
	require.NoError(t, err)
	assert.Empty(t, third.Items())
}

func TestContainer_CorruptStorageStartsEmpty(t *testing.T) {
	ctx := context.Background()
	kv := clientstore.NewMemory().Session("s1")
	require.NoError(t, kv.Set(ctx, clientstore.KeyCart, "][garbage"))

	c, err := Open(ctx, kv)
	require.NoError(t, err)
	assert.Empty(t, c.Items())
}

func TestContainer_StorageFailureSurfaces(t *testing.T) {
	ctx := context.Background()
	c, err := Open(ctx, failingKV{clientstore.NewMemory().Session("x")})
	require.NoError(t, err)

	st, err := c.Dispatch(ctx, Add(prod("a", "1.00")))
	assert.ErrorContains(t, err, "quota exceeded")
	assert.Len(t, st.Items, 1)
}
