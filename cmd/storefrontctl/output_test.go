package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeMC777/storefront/internal/order"
	"github.com/MikeMC777/storefront/internal/product"
)

func TestRender(t *testing.T) {
	st := order.Stats{
		Total:    2,
		ByStatus: map[order.Status]int{order.StatusShipped: 2},
		Revenue:  decimal.RequireFromString("109.18"),
	}

	var js bytes.Buffer
	require.NoError(t, render(&js, "json", st))
	assert.Contains(t, js.String(), `"revenue": "109.18"`)

	var ym bytes.Buffer
	require.NoError(t, render(&ym, "yaml", st))
	assert.Contains(t, ym.String(), `revenue: "109.18"`)
	assert.True(t, strings.Contains(ym.String(), "shipped: 2"), ym.String())

	assert.Error(t, render(&bytes.Buffer{}, "xml", st))
}

func TestDecodeProducts(t *testing.T) {
	in := `
- name: Picual
  description: green and grassy
  price: "21.50"
  category: extra-virgin
  size: 500ml
  inStock: true
- id: 7d1c1f4e-4a43-4c55-9a55-3a4a2b0c9f10
  name: Lemon Infusion
  price: 18
  category: infused
`
	ps, err := decodeProducts(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, ps, 2)
	assert.Equal(t, "Picual", ps[0].Name)
	assert.True(t, ps[0].Price.Equal(decimal.RequireFromString("21.50")))
	assert.True(t, ps[0].InStock)
	assert.Empty(t, ps[0].ID)
	assert.Equal(t, product.CategoryInfused, ps[1].Category)
	assert.True(t, ps[1].Price.Equal(decimal.NewFromInt(18)))

	js, err := decodeProducts(strings.NewReader(`[{"name":"Arbequina","price":"31.00","category":"organic"}]`))
	require.NoError(t, err)
	assert.Equal(t, "Arbequina", js[0].Name)

	_, err = decodeProducts(strings.NewReader(""))
	assert.Error(t, err)
	_, err = decodeProducts(strings.NewReader("name: not a list"))
	assert.Error(t, err)
}
