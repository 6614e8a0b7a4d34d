package product

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	items   []Product
	err     error
	nextID  int
	writes  []string
	failOps map[string]error
}

func (s *stubRepo) List(context.Context) ([]Product, error) { return s.items, s.err }
func (s *stubRepo) GetByID(_ context.Context, id string) (*Product, error) {
	for _, p := range s.items {
		if p.ID == id {
			cp := p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}
func (s *stubRepo) Create(_ context.Context, p *Product) error {
	if err := s.failOps["create"]; err != nil {
		return err
	}
	s.nextID++
	p.ID = fmt.Sprintf("new-%d", s.nextID)
	s.items = append(s.items, *p)
	s.writes = append(s.writes, "create "+p.ID)
	return nil
}
func (s *stubRepo) Update(_ context.Context, p *Product) error {
	if err := s.failOps["update"]; err != nil {
		return err
	}
	for i := range s.items {
		if s.items[i].ID == p.ID {
			s.items[i] = *p
			s.writes = append(s.writes, "update "+p.ID)
			return nil
		}
	}
	return ErrNotFound
}
func (s *stubRepo) Delete(_ context.Context, id string) (bool, error) {
	for i := range s.items {
		if s.items[i].ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			s.writes = append(s.writes, "delete "+id)
			return true, nil
		}
	}
	return false, nil
}

func sample() []Product {
	return []Product{
		{ID: "a", Name: "Koroneiki Reserve", Description: "peppery", Price: decimal.RequireFromString("24.00"), Category: CategoryExtraVirgin, Rating: 4.2},
		{ID: "b", Name: "Lemon Infusion", Description: "bright citrus", Price: decimal.RequireFromString("18.50"), Category: CategoryInfused, Featured: true, Rating: 4.8},
		{ID: "c", Name: "Arbequina", Description: "mild and buttery", Price: decimal.RequireFromString("31.00"), Category: CategoryOrganic, Rating: 3.9},
	}
}

func ids(ps []Product) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name string
		q    Query
		want []string
	}{
		{"featured first", Query{}, []string{"b", "a", "c"}},
		{"price asc", Query{Sort: SortPriceAsc}, []string{"b", "a", "c"}},
		{"price desc", Query{Sort: SortPriceDesc}, []string{"c", "a", "b"}},
		{"rating", Query{Sort: SortRating}, []string{"b", "a", "c"}},
		{"name", Query{Sort: SortName}, []string{"c", "a", "b"}},
		{"category", Query{Category: CategoryOrganic}, []string{"c"}},
		{"search description", Query{Search: "CITRUS"}, []string{"b"}},
		{"no match", Query{Search: "truffle"}, []string{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ids(Filter(sample(), tc.q)))
		})
	}
}

func TestCatalog_Refresh(t *testing.T) {
	repo := &stubRepo{items: sample()}
	c := NewCatalog(repo)

	st := c.Refresh(context.Background())
	require.NoError(t, st.Err)
	assert.Len(t, st.Products, 3)

	p, ok := c.Get("c")
	require.True(t, ok)
	assert.Equal(t, "Arbequina", p.Name)

	repo.err = errors.New("db down")
	st = c.Refresh(context.Background())
	assert.EqualError(t, st.Err, "db down")
	assert.False(t, st.Loading)
	assert.Len(t, st.Products, 3, "failed refresh keeps the last good list")
}

func TestReduce_Mutations(t *testing.T) {
	s := Reduce(State{}, Action{Kind: SetProducts, Products: sample()})

	s = Reduce(s, Action{Kind: AddProduct, Product: Product{ID: "d", Name: "Gift Trio"}})
	assert.Equal(t, []string{"d", "a", "b", "c"}, ids(s.Products))

	upd := sample()[0]
	upd.Name = "Renamed"
	s = Reduce(s, Action{Kind: UpdateProduct, Product: upd})
	assert.Equal(t, "Renamed", s.Products[1].Name)

	s = Reduce(s, Action{Kind: DeleteProduct, ID: "b"})
	assert.Equal(t, []string{"d", "a", "c"}, ids(s.Products))
}

func TestParseSort(t *testing.T) {
	assert.Equal(t, SortPriceDesc, ParseSort("price-desc"))
	assert.Equal(t, SortFeatured, ParseSort("bogus"))
	assert.Equal(t, SortFeatured, ParseSort(""))
}
