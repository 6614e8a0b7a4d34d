package order

import (
	"context"
	"log"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service { return &Service{repo: repo} }

func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	return s.repo.GetByID(ctx, id)
}

// GetForUser hides orders owned by somebody else behind ErrNotFound.
func (s *Service) GetForUser(ctx context.Context, userID, id string) (*Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.UserID == nil || *o.UserID != userID {
		return nil, ErrNotFound
	}
	return o, nil
}

func (s *Service) ListForUser(ctx context.Context, userID string, limit, offset int) ([]Order, error) {
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

func (s *Service) List(ctx context.Context, f Filter) ([]Order, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	return s.repo.List(ctx, f)
}

// UpdateStatus applies an admin status change. Only the value is validated;
// any status may follow any other.
func (s *Service) UpdateStatus(ctx context.Context, id, raw string) (*Order, error) {
	st, err := ParseStatus(raw)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(ctx, id, st); err != nil {
		return nil, err
	}
	log.Printf("[order] id=%s status=%s", id, st)
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	counts, revenue, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return Stats{}, err
	}
	st := Stats{ByStatus: map[Status]int{}, Revenue: revenue}
	for _, k := range Statuses {
		st.ByStatus[k] = counts[k]
		st.Total += counts[k]
	}
	return st, nil
}
