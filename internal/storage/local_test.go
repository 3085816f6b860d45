package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/model"
)

func TestLocal_Identity(t *testing.T) {
	ctx := context.Background()
	l := NewLocal(NewMemory(), "profile-1")

	_, ok, err := l.Identity(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	guest := model.Identity{Kind: model.IdentityGuest, ID: "guest_abc"}
	require.NoError(t, l.SetIdentity(ctx, guest))

	got, ok, err := l.Identity(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, guest, got)
}

func TestLocal_ClearGuest(t *testing.T) {
	ctx := context.Background()

	t.Run("guest identity removed with cart", func(t *testing.T) {
		l := NewLocal(NewMemory(), "p")
		require.NoError(t, l.SetIdentity(ctx, model.Identity{Kind: model.IdentityGuest, ID: "guest_abc"}))
		require.NoError(t, l.SetGuestCart(ctx, []model.LineItem{{ID: "l1", ProductID: "P1", Quantity: 2}}))

		require.NoError(t, l.ClearGuest(ctx))

		_, ok, _ := l.Identity(ctx)
		assert.False(t, ok)
		items, err := l.GuestCart(ctx)
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("user identity kept", func(t *testing.T) {
		l := NewLocal(NewMemory(), "p")
		user := model.Identity{Kind: model.IdentityUser, ID: "U1"}
		require.NoError(t, l.SetIdentity(ctx, user))
		require.NoError(t, l.SetGuestCart(ctx, []model.LineItem{{ID: "l1"}}))

		require.NoError(t, l.ClearGuest(ctx))

		got, ok, _ := l.Identity(ctx)
		assert.True(t, ok)
		assert.Equal(t, user, got)
	})
}

func TestLocal_Session(t *testing.T) {
	ctx := context.Background()
	l := NewLocal(NewMemory(), "p")

	tok, err := l.AuthToken(ctx)
	require.NoError(t, err)
	assert.Empty(t, tok)

	require.NoError(t, l.SetAuthToken(ctx, "token-1"))
	require.NoError(t, l.SetIdentity(ctx, model.Identity{Kind: model.IdentityUser, ID: "U1"}))

	tok, _ = l.AuthToken(ctx)
	assert.Equal(t, "token-1", tok)

	require.NoError(t, l.ClearSession(ctx))
	tok, _ = l.AuthToken(ctx)
	assert.Empty(t, tok)
	_, ok, _ := l.Identity(ctx)
	assert.False(t, ok)
}

func TestLocal_RecentlyViewed(t *testing.T) {
	ctx := context.Background()
	l := NewLocal(NewMemory(), "p")

	for _, id := range []string{"P1", "P2", "P3", "P2"} {
		_, err := l.PushRecentlyViewed(ctx, id, 3)
		require.NoError(t, err)
	}

	ids, err := l.RecentlyViewed(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"P2", "P3", "P1"}, ids)

	ids, err = l.PushRecentlyViewed(ctx, "P4", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"P4", "P2", "P3"}, ids)
}

func TestLocal_Clear(t *testing.T) {
	ctx := context.Background()
	l := NewLocal(NewMemory(), "p")
	require.NoError(t, l.SetAuthToken(ctx, "t"))
	_, err := l.PushRecentlyViewed(ctx, "P1", 0)
	require.NoError(t, err)

	require.NoError(t, l.Clear(ctx))

	ids, err := l.RecentlyViewed(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}
