package product

import (
	"context"
	"fmt"
)

// Manager edits the catalog. Every change is written to the repository
// first and then dispatched to the Catalog, so readers of this process see it
// before the next Refresh.
type Manager struct {
	repo    Repository
	catalog *Catalog
}

func NewManager(repo Repository, catalog *Catalog) *Manager {
	return &Manager{repo: repo, catalog: catalog}
}

func (m *Manager) Create(ctx context.Context, p *Product) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if err := m.repo.Create(ctx, p); err != nil {
		return err
	}
	m.catalog.Dispatch(Action{Kind: AddProduct, Product: *p})
	return nil
}

func (m *Manager) Update(ctx context.Context, p *Product) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if err := m.repo.Update(ctx, p); err != nil {
		return err
	}
	m.catalog.Dispatch(Action{Kind: UpdateProduct, Product: *p})
	return nil
}

// SetStock flips the availability of one product and returns it.
func (m *Manager) SetStock(ctx context.Context, id string, inStock bool) (*Product, error) {
	p, err := m.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p.InStock = inStock
	if err := m.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (m *Manager) Delete(ctx context.Context, id string) error {
	ok, err := m.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	m.catalog.Dispatch(Action{Kind: DeleteProduct, ID: id})
	return nil
}

// Import creates the products without an ID and updates the others. Nothing
// is written unless every product validates.
func (m *Manager) Import(ctx context.Context, ps []Product) (created, updated int, err error) {
	for i := range ps {
		if err := ps[i].Validate(); err != nil {
			return 0, 0, fmt.Errorf("product %d (%s): %w", i+1, ps[i].Name, err)
		}
	}
	for i := range ps {
		p := &ps[i]
		if p.ID == "" {
			if err := m.Create(ctx, p); err != nil {
				return created, updated, fmt.Errorf("create %s: %w", p.Name, err)
			}
			created++
			continue
		}
		if err := m.Update(ctx, p); err != nil {
			return created, updated, fmt.Errorf("update %s: %w", p.ID, err)
		}
		updated++
	}
	return created, updated, nil
}
