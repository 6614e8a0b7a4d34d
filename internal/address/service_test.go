package address

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memRepo is an in-memory Repository.
type memRepo struct {
	rows    []Saved
	seq     int
	failClr error
}

func (m *memRepo) ListByUser(_ context.Context, userID string) ([]Saved, error) {
	var out []Saved
	for _, a := range m.rows {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memRepo) Get(_ context.Context, userID, id string) (*Saved, error) {
	for _, a := range m.rows {
		if a.ID == id && a.UserID == userID {
			cp := a
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memRepo) Insert(_ context.Context, a *Saved) error {
	m.seq++
	a.ID = "addr-" + strconv.Itoa(m.seq)
	a.CreatedAt, a.UpdatedAt = time.Now(), time.Now()
	m.rows = append(m.rows, *a)
	return nil
}

func (m *memRepo) Update(_ context.Context, a *Saved) error {
	for i := range m.rows {
		if m.rows[i].ID == a.ID && m.rows[i].UserID == a.UserID {
			m.rows[i] = *a
			return nil
		}
	}
	return ErrNotFound
}

func (m *memRepo) Delete(_ context.Context, userID, id string) (bool, error) {
	for i := range m.rows {
		if m.rows[i].ID == id && m.rows[i].UserID == userID {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *memRepo) ClearDefaultExcept(_ context.Context, userID, keepID string) error {
	if m.failClr != nil {
		return m.failClr
	}
	for i := range m.rows {
		if m.rows[i].UserID == userID && m.rows[i].ID != keepID {
			m.rows[i].IsDefault = false
		}
	}
	return nil
}

func (m *memRepo) defaults(userID string) []string {
	var out []string
	for _, a := range m.rows {
		if a.UserID == userID && a.IsDefault {
			out = append(out, a.ID)
		}
	}
	return out
}

func validShipping() Shipping {
	return Shipping{
		FirstName: "Ana", LastName: "Ruiz", Email: "ana@example.com",
		Address: "12 Grove St", City: "Portland", State: "OR", ZipCode: "97201", Country: "US",
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, validShipping().Validate())

	s := validShipping()
	s.Phone = ""
	require.NoError(t, s.Validate(), "phone is optional")

	s.City = "  "
	s.ZipCode = ""
	err := s.Validate()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, map[string]string{"city": "required", "zipCode": "required"}, verr.Fields)
	assert.Equal(t, "invalid address: missing city, zipCode", err.Error())
}

func TestSummary(t *testing.T) {
	assert.Equal(t, "12 Grove St, Portland, OR 97201, US", validShipping().Summary())
}

func TestSetDefault_LeavesExactlyOne(t *testing.T) {
	ctx := context.Background()
	repo := &memRepo{}
	svc := NewService(repo)

	a := &Saved{UserID: "u", Label: "Home", Shipping: validShipping()}
	b := &Saved{UserID: "u", Label: "Work", Shipping: validShipping()}
	other := &Saved{UserID: "v", IsDefault: true, Shipping: validShipping()}
	require.NoError(t, svc.Save(ctx, a))
	require.NoError(t, svc.Save(ctx, b))
	require.NoError(t, svc.Save(ctx, other))

	require.NoError(t, svc.SetDefault(ctx, "u", a.ID))
	assert.Equal(t, []string{a.ID}, repo.defaults("u"))

	require.NoError(t, svc.SetDefault(ctx, "u", b.ID))
	assert.Equal(t, []string{b.ID}, repo.defaults("u"))
	assert.Equal(t, []string{other.ID}, repo.defaults("v"), "other users untouched")
}

func TestSave_RejectsInvalid(t *testing.T) {
	err := NewService(&memRepo{}).Save(context.Background(), &Saved{UserID: "u"})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestUpsertDefault(t *testing.T) {
	ctx := context.Background()
	repo := &memRepo{}
	svc := NewService(repo)

	home := &Saved{UserID: "u", Label: "Home", IsDefault: true, Shipping: validShipping()}
	require.NoError(t, svc.Save(ctx, home))

	t.Run("insert new default", func(t *testing.T) {
		id, err := svc.UpsertDefault(ctx, "u", "", validShipping())
		require.NoError(t, err)
		assert.Equal(t, []string{id}, repo.defaults("u"))
		got, err := repo.Get(ctx, "u", id)
		require.NoError(t, err)
		assert.Equal(t, DefaultLabel, got.Label)
	})

	t.Run("update selected keeps label", func(t *testing.T) {
		ship := validShipping()
		ship.City = "Salem"
		id, err := svc.UpsertDefault(ctx, "u", home.ID, ship)
		require.NoError(t, err)
		assert.Equal(t, home.ID, id)
		got, _ := repo.Get(ctx, "u", home.ID)
		assert.Equal(t, "Salem", got.City)
		assert.Equal(t, "Home", got.Label)
		assert.Equal(t, []string{home.ID}, repo.defaults("u"))
	})

	t.Run("unknown selection", func(t *testing.T) {
		_, err := svc.UpsertDefault(ctx, "u", "nope", validShipping())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("crash between writes leaves two defaults", func(t *testing.T) {
		repo.failClr = errors.New("connection reset")
		defer func() { repo.failClr = nil }()
		_, err := svc.UpsertDefault(ctx, "u", "", validShipping())
		require.Error(t, err)
		assert.Len(t, repo.defaults("u"), 2)
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	svc := NewService(&memRepo{})
	a := &Saved{UserID: "u", Shipping: validShipping()}
	require.NoError(t, svc.Save(ctx, a))

	assert.ErrorIs(t, svc.Delete(ctx, "other", a.ID), ErrNotFound)
	require.NoError(t, svc.Delete(ctx, "u", a.ID))
	assert.ErrorIs(t, svc.Delete(ctx, "u", a.ID), ErrNotFound)
}
