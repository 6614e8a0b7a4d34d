package address

import (
	"context"
	"fmt"
)

// DefaultLabel names the row created when checkout saves a new address.
const DefaultLabel = "Default"

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service { return &Service{repo: repo} }

func (s *Service) List(ctx context.Context, userID string) ([]Saved, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *Service) Get(ctx context.Context, userID, id string) (*Saved, error) {
	return s.repo.Get(ctx, userID, id)
}

// Save inserts a (when ID is empty) or updates it. A default address
// un-defaults every other row of the same user afterwards.
func (s *Service) Save(ctx context.Context, a *Saved) error {
	if err := a.Shipping.Validate(); err != nil {
		return err
	}
	if a.Label == "" {
		a.Label = DefaultLabel
	}
	var err error
	if a.ID == "" {
		err = s.repo.Insert(ctx, a)
	} else {
		err = s.repo.Update(ctx, a)
	}
	if err != nil {
		return err
	}
	if a.IsDefault {
		return s.repo.ClearDefaultExcept(ctx, a.UserID, a.ID)
	}
	return nil
}

func (s *Service) SetDefault(ctx context.Context, userID, id string) error {
	a, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	a.IsDefault = true
	if err := s.repo.Update(ctx, a); err != nil {
		return err
	}
	return s.repo.ClearDefaultExcept(ctx, userID, id)
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	ok, err := s.repo.Delete(ctx, userID, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// UpsertDefault stores ship as the user's default address: the selected row
// is overwritten when selectedID is set, otherwise a new row is created. The
// two writes are not atomic; a failure between them can leave two defaults.
func (s *Service) UpsertDefault(ctx context.Context, userID, selectedID string, ship Shipping) (string, error) {
	a := &Saved{UserID: userID, Label: DefaultLabel, IsDefault: true, Shipping: ship}
	if selectedID != "" {
		cur, err := s.repo.Get(ctx, userID, selectedID)
		if err != nil {
			return "", fmt.Errorf("load selected address: %w", err)
		}
		a.ID = cur.ID
		a.Label = cur.Label
		if err := s.repo.Update(ctx, a); err != nil {
			return "", fmt.Errorf("update address: %w", err)
		}
	} else if err := s.repo.Insert(ctx, a); err != nil {
		return "", fmt.Errorf("insert address: %w", err)
	}
	if err := s.repo.ClearDefaultExcept(ctx, userID, a.ID); err != nil {
		return a.ID, fmt.Errorf("clear other defaults: %w", err)
	}
	return a.ID, nil
}
