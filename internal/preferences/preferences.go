// Package preferences holds the shopper's UI language and the showcase
// banner flag.
package preferences

import (
	"context"
	"errors"
	"strconv"

	"github.com/MikeMC777/storefront/internal/clientstore"
)

type Language string

const (
	English Language = "en"
	Spanish Language = "es"
	French  Language = "fr"
	Italian Language = "it"
	German  Language = "de"

	DefaultLanguage = English
)

var ErrUnsupportedLanguage = errors.New("unsupported language")

var Languages = []Language{English, Spanish, French, Italian, German}

func ParseLanguage(s string) (Language, error) {
	for _, l := range Languages {
		if Language(s) == l {
			return l, nil
		}
	}
	return "", ErrUnsupportedLanguage
}

type Preferences struct {
	Language          Language `json:"language"`
	ShowcaseDismissed bool     `json:"showcaseDismissed"`
}

type Store struct{ kv clientstore.KV }

func NewStore(kv clientstore.KV) *Store { return &Store{kv: kv} }

// Get never fails on bad stored data; unknown languages read as the default.
func (s *Store) Get(ctx context.Context) (Preferences, error) {
	p := Preferences{Language: DefaultLanguage}

	var lang string
	ok, err := clientstore.LoadJSON(ctx, s.kv, clientstore.KeyLanguage, &lang)
	if err != nil {
		return p, err
	}
	if ok {
		if l, err := ParseLanguage(lang); err == nil {
			p.Language = l
		}
	}

	raw, ok, err := s.kv.Get(ctx, clientstore.KeyShowcaseDismissed)
	if err != nil {
		return p, err
	}
	if ok {
		p.ShowcaseDismissed, _ = strconv.ParseBool(raw)
	}
	return p, nil
}

func (s *Store) SetLanguage(ctx context.Context, raw string) (Language, error) {
	l, err := ParseLanguage(raw)
	if err != nil {
		return "", err
	}
	return l, clientstore.SaveJSON(ctx, s.kv, clientstore.KeyLanguage, string(l))
}

func (s *Store) DismissShowcase(ctx context.Context) error {
	return s.kv.Set(ctx, clientstore.KeyShowcaseDismissed, "true")
}
