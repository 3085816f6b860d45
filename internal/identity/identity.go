// Package identity decides who owns the cart for a browser profile: the
// signed-in user, or a locally generated guest id.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"storefront/internal/auth"
	"storefront/internal/model"
	"storefront/internal/storage"
)

// GuestPrefix starts every generated guest id.
const GuestPrefix = "guest_"

// Resolver produces the stable cart owner key for one profile.
type Resolver struct {
	local  *storage.Local
	logger *slog.Logger

	mu      sync.Mutex // one guest id even when first calls race
	now     func() time.Time
	guestID func() string
}

// NewResolver creates a resolver over the profile's local storage.
func NewResolver(local *storage.Local, logger *slog.Logger) *Resolver {
	return &Resolver{
		local:   local,
		logger:  logger,
		now:     time.Now,
		guestID: func() string { return GuestPrefix + uuid.NewString() },
	}
}

// Resolve returns the active identity.
//
// With a live session token the user identity is returned and stored over
// any guest id. Expired JWTs are signed out. Without a session the stored
// guest id is returned, or a new one is generated and persisted.
func (r *Resolver) Resolve(ctx context.Context) (model.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok, err := r.resolveUser(ctx); err != nil || ok {
		return id, err
	}

	stored, ok, err := r.local.Identity(ctx)
	if err != nil {
		return model.Identity{}, fmt.Errorf("reading identity: %w", err)
	}
	if ok && stored.IsGuest() {
		return stored, nil
	}

	guest := model.Identity{Kind: model.IdentityGuest, ID: r.guestID()}
	if err := r.local.SetIdentity(ctx, guest); err != nil {
		return model.Identity{}, fmt.Errorf("storing guest identity: %w", err)
	}
	r.logger.Debug("generated guest identity", "profile", r.local.Profile(), "guest_id", guest.ID)
	return guest, nil
}

// resolveUser returns the user identity when a usable session exists.
// Unusable sessions are cleared so the caller falls back to a guest.
func (r *Resolver) resolveUser(ctx context.Context) (model.Identity, bool, error) {
	token, err := r.local.AuthToken(ctx)
	if err != nil {
		return model.Identity{}, false, fmt.Errorf("reading session: %w", err)
	}
	stored, hasStored, err := r.local.Identity(ctx)
	if err != nil {
		return model.Identity{}, false, fmt.Errorf("reading identity: %w", err)
	}

	if token == "" {
		if hasStored && stored.IsUser() {
			// User identity without a token: the session is gone.
			if err := r.local.ClearSession(ctx); err != nil {
				return model.Identity{}, false, err
			}
		}
		return model.Identity{}, false, nil
	}

	user := model.Identity{}
	if hasStored && stored.IsUser() {
		user = stored
	}

	claims, err := auth.ParseClaims(token)
	switch {
	case err == nil && claims.Expired(r.now()):
		r.logger.Info("session expired, signing out", "profile", r.local.Profile(), "user_id", claims.UserID())
		return model.Identity{}, false, r.local.ClearSession(ctx)
	case err == nil && claims.UserID() != "":
		user = model.Identity{Kind: model.IdentityUser, ID: claims.UserID()}
	case err != nil && !errors.Is(err, auth.ErrNotJWT):
		return model.Identity{}, false, err
	}

	if user.IsZero() {
		r.logger.Warn("session token without user, signing out", "profile", r.local.Profile())
		return model.Identity{}, false, r.local.ClearSession(ctx)
	}
	if !hasStored || stored != user {
		if err := r.local.SetIdentity(ctx, user); err != nil {
			return model.Identity{}, false, fmt.Errorf("storing user identity: %w", err)
		}
	}
	return user, true, nil
}

// SignIn stores the session token and switches the identity to the user.
// The guest id is overwritten; the guest cart snapshot stays for the merge.
func (r *Resolver) SignIn(ctx context.Context, token string, user model.User) (model.Identity, error) {
	if token == "" || user.ID == "" {
		return model.Identity{}, model.NewValidationError("session", "token and user id are required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.local.SetAuthToken(ctx, token); err != nil {
		return model.Identity{}, fmt.Errorf("storing session: %w", err)
	}
	id := model.Identity{Kind: model.IdentityUser, ID: user.ID}
	if err := r.local.SetIdentity(ctx, id); err != nil {
		return model.Identity{}, fmt.Errorf("storing user identity: %w", err)
	}
	return id, nil
}

// SignOut clears the session. The next Resolve starts a fresh guest.
func (r *Resolver) SignOut(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.local.ClearSession(ctx)
}

// Token returns the stored session token, empty for guests.
func (r *Resolver) Token(ctx context.Context) (string, error) {
	return r.local.AuthToken(ctx)
}
