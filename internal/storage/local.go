package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"storefront/internal/model"
)

// Keys of the values a profile holds. Nothing else is persisted client-side.
const (
	KeyIdentity       = "identity"
	KeyGuestCart      = "guest_cart"
	KeyAuthToken      = "auth_token"
	KeyRecentlyViewed = "recently_viewed"
)

// DefaultRecentLimit caps the recently viewed list.
const DefaultRecentLimit = 10

// Local is the typed view of one profile's storage.
type Local struct {
	store   Store
	profile string
}

// NewLocal scopes store to profile.
func NewLocal(store Store, profile string) *Local {
	return &Local{store: store, profile: profile}
}

// Profile returns the profile id this view is scoped to.
func (l *Local) Profile() string { return l.profile }

// Identity returns the stored identity; ok is false when none is stored.
func (l *Local) Identity(ctx context.Context) (id model.Identity, ok bool, err error) {
	ok, err = l.getJSON(ctx, KeyIdentity, &id)
	return id, ok, err
}

// SetIdentity persists the current identity.
func (l *Local) SetIdentity(ctx context.Context, id model.Identity) error {
	return l.putJSON(ctx, KeyIdentity, id)
}

// AuthToken returns the stored session token, or "" when signed out.
func (l *Local) AuthToken(ctx context.Context) (string, error) {
	data, err := l.store.Get(ctx, l.profile, KeyAuthToken)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// SetAuthToken persists the session token.
func (l *Local) SetAuthToken(ctx context.Context, token string) error {
	return l.store.Put(ctx, l.profile, KeyAuthToken, []byte(token))
}

// ClearSession removes the auth token and identity.
func (l *Local) ClearSession(ctx context.Context) error {
	return l.store.Delete(ctx, l.profile, KeyAuthToken, KeyIdentity)
}

// GuestCart returns the guest cart snapshot. Missing snapshot is an empty cart.
func (l *Local) GuestCart(ctx context.Context) ([]model.LineItem, error) {
	var items []model.LineItem
	if _, err := l.getJSON(ctx, KeyGuestCart, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// SetGuestCart replaces the guest cart snapshot.
func (l *Local) SetGuestCart(ctx context.Context, items []model.LineItem) error {
	if items == nil {
		items = []model.LineItem{}
	}
	return l.putJSON(ctx, KeyGuestCart, items)
}

// ClearGuest removes the guest cart snapshot and, when the stored identity
// is a guest, the guest id. A stored user identity is left alone.
func (l *Local) ClearGuest(ctx context.Context) error {
	keys := []string{KeyGuestCart}
	id, ok, err := l.Identity(ctx)
	if err != nil {
		return err
	}
	if ok && id.Kind == model.IdentityGuest {
		keys = append(keys, KeyIdentity)
	}
	return l.store.Delete(ctx, l.profile, keys...)
}

// RecentlyViewed returns product ids, most recent first.
func (l *Local) RecentlyViewed(ctx context.Context) ([]string, error) {
	var ids []string
	if _, err := l.getJSON(ctx, KeyRecentlyViewed, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// PushRecentlyViewed moves productID to the front of the list, dropping
// duplicates and anything beyond limit.
func (l *Local) PushRecentlyViewed(ctx context.Context, productID string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	ids, err := l.RecentlyViewed(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, limit)
	out = append(out, productID)
	for _, id := range ids {
		if len(out) == limit {
			break
		}
		if id != productID {
			out = append(out, id)
		}
	}
	return out, l.putJSON(ctx, KeyRecentlyViewed, out)
}

// Clear removes everything stored for the profile.
func (l *Local) Clear(ctx context.Context) error {
	return l.store.Delete(ctx, l.profile, KeyIdentity, KeyGuestCart, KeyAuthToken, KeyRecentlyViewed)
}

func (l *Local) getJSON(ctx context.Context, key string, v any) (bool, error) {
	data, err := l.store.Get(ctx, l.profile, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decoding %s: %w", key, err)
	}
	return true, nil
}

func (l *Local) putJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	return l.store.Put(ctx, l.profile, key, data)
}
