//go:build integration

package address

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeMC777/storefront/internal/db/dbtest"
)

func TestPGRepo_SingleDefaultPerUser(t *testing.T) {
	pool := dbtest.Start(t)
	ctx := context.Background()
	svc := NewService(NewPGRepo(pool))
	uid := dbtest.Profile(t, pool, "ana@example.com")
	other := dbtest.Profile(t, pool, "bo@example.com")

	ship := Shipping{
		FirstName: "Ana", LastName: "Pérez", Email: "ana@example.com",
		Address: "1 Grove Rd", City: "Napa", State: "CA", ZipCode: "94558", Country: "US",
	}
	first, err := svc.UpsertDefault(ctx, uid, "", ship)
	require.NoError(t, err)

	ship2 := ship
	ship2.City = "Sonoma"
	second, err := svc.UpsertDefault(ctx, uid, "", ship2)
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	_, err = svc.UpsertDefault(ctx, other, "", ship)
	require.NoError(t, err)

	all, err := svc.List(ctx, uid)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second, all[0].ID)
	assert.True(t, all[0].IsDefault)
	assert.False(t, all[1].IsDefault)

	// Re-saving the selected row updates it in place.
	ship.Phone = "555-0100"
	id, err := svc.UpsertDefault(ctx, uid, first, ship)
	require.NoError(t, err)
	assert.Equal(t, first, id)

	all, err = svc.List(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, first, all[0].ID, "default sorts first")
	assert.True(t, all[0].IsDefault)
	assert.Equal(t, "555-0100", all[0].Phone)

	_, err = svc.Get(ctx, other, first)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, svc.Delete(ctx, uid, second))
	assert.ErrorIs(t, svc.Delete(ctx, uid, second), ErrNotFound)

	otherAll, err := svc.List(ctx, other)
	require.NoError(t, err)
	require.Len(t, otherAll, 1)
	assert.True(t, otherAll[0].IsDefault)
}
