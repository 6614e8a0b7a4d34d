package product

import (
	"context"
	"sort"
	"strings"
	"sync"
)

type Sort string

const (
	SortFeatured  Sort = "featured"
	SortPriceAsc  Sort = "price-asc"
	SortPriceDesc Sort = "price-desc"
	SortRating    Sort = "rating"
	SortName      Sort = "name"
)

func ParseSort(s string) Sort {
	switch Sort(s) {
	case SortPriceAsc, SortPriceDesc, SortRating, SortName:
		return Sort(s)
	}
	return SortFeatured
}

// State is the catalog snapshot. Err holds the last load failure, if any.
type State struct {
	Products []Product
	Loading  bool
	Err      error
}

type ActionKind int

const (
	SetLoading ActionKind = iota
	SetError
	SetProducts
	AddProduct
	UpdateProduct
	DeleteProduct
)

type Action struct {
	Kind     ActionKind
	Products []Product
	Product  Product
	ID       string
	Err      error
}

// Reduce returns the catalog state after applying a. The input is not modified.
func Reduce(s State, a Action) State {
	switch a.Kind {
	case SetLoading:
		return State{Products: s.Products, Loading: true}
	case SetError:
		return State{Products: s.Products, Err: a.Err}
	case SetProducts:
		return State{Products: append([]Product(nil), a.Products...)}
	case AddProduct:
		out := make([]Product, 0, len(s.Products)+1)
		out = append(out, a.Product)
		out = append(out, s.Products...)
		return State{Products: out, Loading: s.Loading, Err: s.Err}
	case UpdateProduct:
		out := make([]Product, len(s.Products))
		for i, p := range s.Products {
			if p.ID == a.Product.ID {
				p = a.Product
			}
			out[i] = p
		}
		return State{Products: out, Loading: s.Loading, Err: s.Err}
	case DeleteProduct:
		out := make([]Product, 0, len(s.Products))
		for _, p := range s.Products {
			if p.ID != a.ID {
				out = append(out, p)
			}
		}
		return State{Products: out, Loading: s.Loading, Err: s.Err}
	}
	return s
}

// Catalog holds the product list the storefront reads from.
type Catalog struct {
	repo Repository

	mu    sync.RWMutex
	state State
}

func NewCatalog(repo Repository) *Catalog { return &Catalog{repo: repo} }

func (c *Catalog) Dispatch(a Action) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = Reduce(c.state, a)
	return c.state
}

func (c *Catalog) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Refresh reloads the catalog. A failed read keeps the previous products and
// records the error in the state.
func (c *Catalog) Refresh(ctx context.Context) State {
	c.Dispatch(Action{Kind: SetLoading})
	ps, err := c.repo.List(ctx)
	if err != nil {
		return c.Dispatch(Action{Kind: SetError, Err: err})
	}
	return c.Dispatch(Action{Kind: SetProducts, Products: ps})
}

func (c *Catalog) Get(id string) (Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.state.Products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

type Query struct {
	Search   string
	Category Category
	Sort     Sort
}

func (c *Catalog) Filter(q Query) []Product {
	return Filter(c.State().Products, q)
}

// Filter returns the products matching q in the requested order.
func Filter(ps []Product, q Query) []Product {
	term := strings.ToLower(strings.TrimSpace(q.Search))
	out := make([]Product, 0, len(ps))
	for _, p := range ps {
		if q.Category != "" && p.Category != q.Category {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(p.Name), term) &&
			!strings.Contains(strings.ToLower(p.Description), term) {
			continue
		}
		out = append(out, p)
	}

	switch q.Sort {
	case SortPriceAsc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price.LessThan(out[j].Price) })
	case SortPriceDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price.GreaterThan(out[j].Price) })
	case SortRating:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Rating > out[j].Rating })
	case SortName:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	default:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Featured && !out[j].Featured })
	}
	return out
}
