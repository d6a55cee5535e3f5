package repo

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/restaurant_orders/pkg/db/dbtest"
	"github.com/Skotchmaster/restaurant_orders/pkg/pagination"
	"github.com/Skotchmaster/restaurant_orders/services/auth/internal/models"
)

func newTestRepo(t *testing.T) *GormRepo {
	return New(dbtest.New(t, models.All()...), nil)
}

func seedUser(t *testing.T, r *GormRepo, name string) *models.User {
	t.Helper()
	u := &models.User{Username: name, PasswordHash: "x"}
	require.NoError(t, r.CreateUser(context.Background(), u))
	return u
}

func token(userID uuid.UUID, exp time.Time) *models.RefreshToken {
	jti := uuid.NewString()
	return &models.RefreshToken{TokenHash: "hash-" + jti, JTI: jti, UserID: userID, ExpiresAt: exp}
}

func TestCreateUser_Duplicate(t *testing.T) {
	r := newTestRepo(t)
	u := seedUser(t, r, "alice")
	assert.NotEqual(t, uuid.Nil, u.ID)
	assert.Equal(t, models.RoleUser, u.Role)

	err := r.CreateUser(context.Background(), &models.User{Username: "alice", PasswordHash: "y"})
	assert.ErrorIs(t, err, ErrUserAlreadyExist)
}

func TestGetUser_NotFound(t *testing.T) {
	r := newTestRepo(t)
	_, err := r.GetUserByUsername(context.Background(), "ghost")
	assert.True(t, IsNotFound(err))
	_, err = r.GetUserByID(context.Background(), uuid.New())
	assert.True(t, IsNotFound(err))
}

func TestSetRole(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	u := seedUser(t, r, "bob")

	require.NoError(t, r.SetRole(ctx, u.ID, models.RoleAdmin))
	got, err := r.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.IsAdmin())

	assert.True(t, IsNotFound(r.SetRole(ctx, uuid.New(), models.RoleAdmin)))
}

func TestListUsers_Paginates(t *testing.T) {
	r := newTestRepo(t)
	for _, n := range []string{"c", "a", "b"} {
		seedUser(t, r, n)
	}

	total, users, err := r.ListUsers(context.Background(), pagination.Page{Number: 2, Size: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, users, 1)
	assert.Equal(t, "c", users[0].Username)
}

func TestRotateRefreshToken(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	now := time.Now()
	u := seedUser(t, r, "carol")

	old := token(u.ID, now.Add(time.Hour))
	require.NoError(t, r.SaveRefreshToken(ctx, old))

	next := token(u.ID, now.Add(2*time.Hour))
	require.NoError(t, r.RotateRefreshToken(ctx, old.JTI, old.TokenHash, now, next))

	stored, err := r.FindRefreshByJTI(ctx, old.JTI)
	require.NoError(t, err)
	assert.True(t, stored.Revoked)
	_, err = r.FindRefreshByJTI(ctx, next.JTI)
	require.NoError(t, err)

	again := token(u.ID, now.Add(2*time.Hour))
	assert.ErrorIs(t, r.RotateRefreshToken(ctx, old.JTI, old.TokenHash, now, again), ErrRefreshRejected)
	_, err = r.FindRefreshByJTI(ctx, again.JTI)
	assert.True(t, IsNotFound(err), "a rejected rotation stores nothing")
}

func TestRotateRefreshToken_Rejects(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	now := time.Now()
	u := seedUser(t, r, "dave")
	other := seedUser(t, r, "erin")

	expired := token(u.ID, now.Add(-time.Minute))
	require.NoError(t, r.SaveRefreshToken(ctx, expired))
	live := token(u.ID, now.Add(time.Hour))
	require.NoError(t, r.SaveRefreshToken(ctx, live))

	tests := []struct {
		name string
		jti  string
		hash string
		next *models.RefreshToken
	}{
		{name: "unknown jti", jti: uuid.NewString(), hash: live.TokenHash, next: token(u.ID, now.Add(time.Hour))},
		{name: "expired", jti: expired.JTI, hash: expired.TokenHash, next: token(u.ID, now.Add(time.Hour))},
		{name: "hash mismatch", jti: live.JTI, hash: "forged", next: token(u.ID, now.Add(time.Hour))},
		{name: "other user", jti: live.JTI, hash: live.TokenHash, next: token(other.ID, now.Add(time.Hour))},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, r.RotateRefreshToken(ctx, tc.jti, tc.hash, now, tc.next), ErrRefreshRejected)
		})
	}

	stored, err := r.FindRefreshByJTI(ctx, live.JTI)
	require.NoError(t, err)
	assert.False(t, stored.Revoked)
}

func TestRevokeTokens(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	u := seedUser(t, r, "frank")

	a := token(u.ID, time.Now().Add(time.Hour))
	b := token(u.ID, time.Now().Add(time.Hour))
	require.NoError(t, r.SaveRefreshToken(ctx, a))
	require.NoError(t, r.SaveRefreshToken(ctx, b))

	require.NoError(t, r.RevokeRefreshToken(ctx, a.TokenHash))
	require.NoError(t, r.RevokeRefreshToken(ctx, "unknown"))

	got, err := r.FindRefreshByJTI(ctx, a.JTI)
	require.NoError(t, err)
	assert.True(t, got.Revoked)
	got, err = r.FindRefreshByJTI(ctx, b.JTI)
	require.NoError(t, err)
	assert.False(t, got.Revoked)
}
