// Package favorites tracks the products a shopper has marked. Anonymous
// shoppers keep the set in session storage; signed-in users keep it in the
// favorites table.
package favorites

import (
	"context"
	"fmt"
	"sync"

	"github.com/MikeMC777/storefront/internal/clientstore"
	"github.com/MikeMC777/storefront/internal/optimistic"
)

// Remote is the per-user favorites table.
type Remote interface {
	List(ctx context.Context, userID string) ([]string, error)
	Add(ctx context.Context, userID, productID string) error
	Remove(ctx context.Context, userID, productID string) error
}

type Store struct {
	kv     clientstore.KV
	remote Remote

	mu     sync.Mutex
	userID string
	ids    []string
	set    map[string]struct{}
}

// Open loads the favorites visible to userID, or the anonymous session set
// when userID is empty.
func Open(ctx context.Context, kv clientstore.KV, remote Remote, userID string) (*Store, error) {
	s := &Store{kv: kv, remote: remote}
	if err := s.SwitchIdentity(ctx, userID); err != nil {
		return nil, err
	}
	return s, nil
}

// SwitchIdentity replaces the current identity and reloads from scratch. The
// anonymous and remote sets are never merged.
func (s *Store) SwitchIdentity(ctx context.Context, userID string) error {
	var ids []string
	if userID != "" {
		got, err := s.remote.List(ctx, userID)
		if err != nil {
			return fmt.Errorf("load favorites: %w", err)
		}
		ids = got
	} else if _, err := clientstore.LoadJSON(ctx, s.kv, clientstore.KeyFavorites, &ids); err != nil {
		return fmt.Errorf("load favorites: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = userID
	s.ids = nil
	s.set = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		s.addLocked(id)
	}
	return nil
}

func (s *Store) IsFavorite(productID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.set[productID]
	return ok
}

func (s *Store) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.ids...)
}

// Toggle flips membership and reports the new value. For a signed-in user the
// flip is undone if the remote write fails.
func (s *Store) Toggle(ctx context.Context, productID string) (bool, error) {
	s.mu.Lock()
	userID := s.userID
	_, was := s.set[productID]
	s.mu.Unlock()

	flip := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.set[productID]; ok {
			s.removeLocked(productID)
		} else {
			s.addLocked(productID)
		}
	}

	if userID == "" {
		flip()
		if err := clientstore.SaveJSON(ctx, s.kv, clientstore.KeyFavorites, s.List()); err != nil {
			flip()
			return was, fmt.Errorf("save favorites: %w", err)
		}
		return !was, nil
	}

	err := optimistic.Update(ctx, flip, flip, func(ctx context.Context) error {
		if was {
			return s.remote.Remove(ctx, userID, productID)
		}
		return s.remote.Add(ctx, userID, productID)
	})
	if err != nil {
		return was, fmt.Errorf("toggle favorite: %w", err)
	}
	return !was, nil
}

func (s *Store) addLocked(id string) {
	if _, ok := s.set[id]; ok {
		return
	}
	s.set[id] = struct{}{}
	s.ids = append(s.ids, id)
}

func (s *Store) removeLocked(id string) {
	delete(s.set, id)
	for i, v := range s.ids {
		if v == id {
			s.ids = append(s.ids[:i:i], s.ids[i+1:]...)
			return
		}
	}
}
