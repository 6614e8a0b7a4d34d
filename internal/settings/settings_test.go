package settings

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() { log.SetOutput(io.Discard) }

type memRepo struct {
	row     *StoreSettings
	getErr  error
	inserts int
	updates int
}

func (m *memRepo) Get(context.Context) (*StoreSettings, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.row == nil {
		return nil, ErrNotFound
	}
	cp := *m.row
	return &cp, nil
}

func (m *memRepo) Insert(_ context.Context, s *StoreSettings) error {
	m.inserts++
	s.ID = "settings-1"
	cp := *s
	m.row = &cp
	return nil
}

func (m *memRepo) Update(_ context.Context, s *StoreSettings) error {
	m.updates++
	cp := *s
	m.row = &cp
	return nil
}

func TestProvider_LoadFallsBackToDefaults(t *testing.T) {
	p := NewProvider(&memRepo{getErr: errors.New("relation does not exist")})
	s := p.Load(context.Background())

	assert.Equal(t, "Olivia Grove", s.StoreName)
	assert.Equal(t, "USD", s.Currency)
	assert.True(t, decimal.NewFromInt(8).Equal(s.TaxRate))
	assert.True(t, decimal.NewFromInt(50).Equal(s.FreeShippingThreshold))
	assert.Empty(t, s.ID)
}

func TestProvider_UpdateInsertsThenUpdates(t *testing.T) {
	ctx := context.Background()
	repo := &memRepo{}
	p := NewProvider(repo)
	p.Load(ctx)

	s := p.Current()
	s.TaxRate = decimal.RequireFromString("7.25")
	got, err := p.Update(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, "settings-1", got.ID)
	assert.Equal(t, 1, repo.inserts)

	got.FreeShippingThreshold = decimal.NewFromInt(75)
	_, err = p.Update(ctx, got)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.updates)
	assert.True(t, decimal.NewFromInt(75).Equal(p.Current().FreeShippingThreshold))

	reloaded := NewProvider(repo).Load(ctx)
	assert.True(t, decimal.RequireFromString("7.25").Equal(reloaded.TaxRate))
}

func TestProvider_RefreshPicksUpOtherInstancesWrites(t *testing.T) {
	ctx := context.Background()
	repo := &memRepo{}
	mine := NewProvider(repo)
	mine.Load(ctx)
	other := NewProvider(repo)
	other.Load(ctx)

	s := mine.Current()
	s.TaxRate = decimal.RequireFromString("10.25")
	_, err := mine.Update(ctx, s)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(8).Equal(other.Current().TaxRate))

	require.NoError(t, other.Refresh(ctx))
	assert.True(t, decimal.RequireFromString("10.25").Equal(other.Current().TaxRate))

	// A failed read keeps what was cached rather than reverting to defaults.
	repo.getErr = errors.New("connection reset")
	assert.Error(t, other.Refresh(ctx))
	assert.True(t, decimal.RequireFromString("10.25").Equal(other.Current().TaxRate))
	assert.Equal(t, "settings-1", other.Current().ID)
}

func TestProvider_RefreshWithoutRowUsesDefaults(t *testing.T) {
	p := NewProvider(&memRepo{})
	require.NoError(t, p.Refresh(context.Background()))
	assert.Equal(t, Defaults(), p.Current())
}
