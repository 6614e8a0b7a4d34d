// Package clientstore keeps the per-session key/value data a browser would
// otherwise hold in local storage: the cart, anonymous favorites, language
// and banner flags, plus the checkout wizard state.
package clientstore

import (
	"context"
	"encoding/json"
	"log"
)

const (
	KeyCart              = "oliveoil-cart"
	KeyFavorites         = "oliveoil-favorites"
	KeyLanguage          = "oliveoil-language"
	KeyShowcaseDismissed = "showcase-dismissed"
	KeyCartOpen          = "oliveoil-cart-open"
	KeyCheckout          = "oliveoil-checkout"
)

// KV is string-valued storage scoped to one session.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

type Sessions interface {
	Session(id string) KV
}

// SessionScoped reports whether key lives only as long as the browser session.
func SessionScoped(key string) bool {
	switch key {
	case KeyShowcaseDismissed, KeyCartOpen, KeyCheckout:
		return true
	}
	return false
}

// LoadJSON decodes key into v. A missing or malformed value reports false;
// corrupt data is logged and otherwise treated as absent.
func LoadJSON(ctx context.Context, kv KV, key string, v any) (bool, error) {
	raw, ok, err := kv.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		log.Printf("[clientstore] ignoring corrupt %s: %v", key, err)
		return false, nil
	}
	return true, nil
}

func SaveJSON(ctx context.Context, kv KV, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return kv.Set(ctx, key, string(b))
}
