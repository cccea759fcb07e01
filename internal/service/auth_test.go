package service

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/villa-concierge/concierge-platform/internal/apperr"
	"github.com/villa-concierge/concierge-platform/internal/connmgr"
	"github.com/villa-concierge/concierge-platform/internal/model"
	"github.com/villa-concierge/concierge-platform/internal/store"
)

const testSecret = "test-secret"

func newAuthService(t *testing.T) (*AuthService, *store.MemoryRepository[model.User]) {
	t.Helper()
	users := store.NewMemoryRepository[model.User]()
	svc := NewAuthService(users, NewRefreshStore(nil, nil), AuthOptions{
		Secret:     testSecret,
		BcryptCost: bcrypt.MinCost,
	}, nil)
	return svc, users
}

func register(t *testing.T, svc *AuthService) *model.TokenPair {
	t.Helper()
	pair, err := svc.Register(context.Background(), model.RegisterRequest{
		Email:    " Anna.Verdi@Example.com ",
		Password: "lungarno42",
		Name:     "Anna Verdi",
	})
	require.NoError(t, err)
	return pair
}

func TestRegisterIssuesTokens(t *testing.T) {
	svc, users := newAuthService(t)

	pair := register(t, svc)

	require.NotNil(t, pair.User)
	assert.Equal(t, "anna.verdi@example.com", pair.User.Email)
	assert.Equal(t, model.ProviderLocal, pair.User.AuthProvider)
	assert.Equal(t, model.UserRoleUser, pair.User.Role)
	assert.NotEmpty(t, pair.User.PasswordHash)
	assert.NotEqual(t, "lungarno42", pair.User.PasswordHash)
	assert.Equal(t, 1, users.Len())

	claims, err := svc.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, pair.User.ID, claims.Subject)
	assert.Equal(t, "anna.verdi@example.com", claims.Email)
	assert.Equal(t, model.UserRoleUser, claims.Role)

	id, secret, ok := splitRefreshToken(pair.RefreshToken)
	require.True(t, ok)
	assert.NotEmpty(t, id)
	assert.Len(t, secret, 64)
}

func TestRegisterValidation(t *testing.T) {
	svc, users := newAuthService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  model.RegisterRequest
	}{
		{"bad email", model.RegisterRequest{Email: "not-an-email", Password: "lungarno42", Name: "A"}},
		{"display name form", model.RegisterRequest{Email: "Anna <anna@example.com>", Password: "lungarno42", Name: "A"}},
		{"short password", model.RegisterRequest{Email: "a@example.com", Password: "short", Name: "A"}},
		{"no name", model.RegisterRequest{Email: "a@example.com", Password: "lungarno42", Name: " "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.req)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}
	assert.Equal(t, 0, users.Len())
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newAuthService(t)
	register(t, svc)

	_, err := svc.Register(context.Background(), model.RegisterRequest{
		Email:    "anna.verdi@example.com",
		Password: "another-password",
		Name:     "Anna",
	})
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestLogin(t *testing.T) {
	svc, _ := newAuthService(t)
	first := register(t, svc)
	later := time.Now().Add(time.Hour)
	svc.now = func() time.Time { return later }

	pair, err := svc.Login(context.Background(), model.LoginRequest{Email: "ANNA.VERDI@example.com", Password: "lungarno42"})
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, pair.User.ID)
	assert.True(t, pair.User.LastLogin.After(first.User.LastLogin))

	me, err := svc.Me(context.Background(), first.User.ID)
	require.NoError(t, err)
	assert.Equal(t, pair.User.LastLogin, me.LastLogin)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _ := newAuthService(t)
	register(t, svc)
	ctx := context.Background()

	_, err := svc.Login(ctx, model.LoginRequest{Email: "anna.verdi@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, apperr.ErrAuth)

	_, err = svc.Login(ctx, model.LoginRequest{Email: "nobody@example.com", Password: "lungarno42"})
	assert.ErrorIs(t, err, apperr.ErrAuth)
	assert.Equal(t, "invalid email or password", apperr.MessageOf(err))
}

func TestRefreshRotatesToken(t *testing.T) {
	svc, _ := newAuthService(t)
	pair := register(t, svc)
	ctx := context.Background()

	next, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)
	assert.Equal(t, pair.User.ID, next.User.ID)

	// The rotated token is revoked.
	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, apperr.ErrAuth)

	_, err = svc.Refresh(ctx, next.RefreshToken)
	assert.NoError(t, err)
}

func TestRefreshRejectsTamperedSecret(t *testing.T) {
	svc, _ := newAuthService(t)
	pair := register(t, svc)

	id, _, _ := splitRefreshToken(pair.RefreshToken)
	_, err := svc.Refresh(context.Background(), id+"."+strings.Repeat("0", 64))
	assert.ErrorIs(t, err, apperr.ErrAuth)

	_, err = svc.Refresh(context.Background(), "garbage")
	assert.ErrorIs(t, err, apperr.ErrAuth)
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	svc, _ := newAuthService(t)
	pair := register(t, svc)
	ctx := context.Background()

	require.NoError(t, svc.Logout(ctx, pair.RefreshToken))
	_, err := svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, apperr.ErrAuth)

	// Idempotent.
	assert.NoError(t, svc.Logout(ctx, pair.RefreshToken))
	assert.ErrorIs(t, svc.Logout(ctx, ""), apperr.ErrValidation)
}

func TestValidateAccessTokenRejections(t *testing.T) {
	svc, _ := newAuthService(t)
	pair := register(t, svc)

	svc.now = func() time.Time { return time.Now().Add(time.Hour) }
	_, err := svc.ValidateAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, apperr.ErrAuth, "expired")

	svc.now = time.Now
	other := NewAuthService(store.NewMemoryRepository[model.User](), NewRefreshStore(nil, nil), AuthOptions{Secret: "other"}, nil)
	_, err = other.ValidateAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, apperr.ErrAuth, "wrong secret")

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "u1"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.ValidateAccessToken(unsigned)
	assert.ErrorIs(t, err, apperr.ErrAuth, "alg none")
}

func TestRefreshStoreRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	manager := connmgr.New(nil, connmgr.Options{Attempts: 1})
	manager.Register(connmgr.Redis, connmgr.PingFunc(func(ctx context.Context) error { return client.Ping(ctx).Err() }))
	require.True(t, manager.Connect(context.Background(), connmgr.Redis))

	rs := NewRefreshStore(client, manager)
	ctx := context.Background()
	rec := model.RefreshToken{TokenID: "t1", UserID: "u1", ValueHash: hashSecret("s"), ExpiresAt: time.Now().Add(30 * 24 * time.Hour)}

	require.NoError(t, rs.Save(ctx, rec))
	assert.True(t, mr.Exists("refresh_token:t1"))
	ttl := mr.TTL("refresh_token:t1")
	assert.InDelta(t, (30 * 24 * time.Hour).Seconds(), ttl.Seconds(), 5)

	_, err := rs.Consume(ctx, "t1", hashSecret("wrong"))
	assert.ErrorIs(t, err, apperr.ErrAuth)
	assert.True(t, mr.Exists("refresh_token:t1"), "a wrong secret does not revoke")

	got, err := rs.Consume(ctx, "t1", hashSecret("s"))
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.False(t, mr.Exists("refresh_token:t1"))

	_, err = rs.Consume(ctx, "t1", hashSecret("s"))
	assert.ErrorIs(t, err, apperr.ErrAuth)

	require.NoError(t, rs.Save(ctx, rec))
	require.NoError(t, rs.Delete(ctx, "t1"))
	assert.False(t, mr.Exists("refresh_token:t1"))
}

func TestRefreshStoreFallsBackWhenRedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	manager := connmgr.New(nil, connmgr.Options{Attempts: 1})
	manager.Register(connmgr.Redis, connmgr.PingFunc(func(ctx context.Context) error { return client.Ping(ctx).Err() }))
	require.True(t, manager.Connect(context.Background(), connmgr.Redis))
	mr.Close()

	rs := NewRefreshStore(client, manager)
	ctx := context.Background()
	rec := model.RefreshToken{TokenID: "t2", UserID: "u1", ValueHash: hashSecret("s"), ExpiresAt: time.Now().Add(time.Hour)}

	require.NoError(t, rs.Save(ctx, rec))
	assert.False(t, manager.IsAvailable(connmgr.Redis))

	got, err := rs.Consume(ctx, "t2", hashSecret("s"))
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
}

func TestRefreshStoreMemoryExpiry(t *testing.T) {
	rs := NewRefreshStore(nil, nil)
	now := time.Now()
	rs.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, rs.Save(ctx, model.RefreshToken{TokenID: "t3", UserID: "u1", ValueHash: "h", ExpiresAt: now.Add(time.Minute)}))
	require.NoError(t, rs.Save(ctx, model.RefreshToken{TokenID: "t5", UserID: "u1", ValueHash: "h", ExpiresAt: now.Add(time.Minute)}))
	_, err := rs.Consume(ctx, "t3", "h")
	require.NoError(t, err)

	rs.now = func() time.Time { return now.Add(2 * time.Minute) }
	_, err = rs.Consume(ctx, "t5", "h")
	assert.ErrorIs(t, err, apperr.ErrAuth)

	assert.ErrorIs(t, rs.Save(ctx, model.RefreshToken{TokenID: "t4", ExpiresAt: now}), apperr.ErrValidation)
}

func TestRefreshRedeemsTokenOnce(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), PoolSize: 16})
	t.Cleanup(func() { _ = client.Close() })
	manager := connmgr.New(nil, connmgr.Options{Attempts: 1})
	manager.Register(connmgr.Redis, connmgr.PingFunc(func(ctx context.Context) error { return client.Ping(ctx).Err() }))
	require.True(t, manager.Connect(context.Background(), connmgr.Redis))

	tests := []struct {
		name    string
		refresh *RefreshStore
	}{
		{"redis", NewRefreshStore(client, manager)},
		{"memory", NewRefreshStore(nil, nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewAuthService(store.NewMemoryRepository[model.User](), tt.refresh, AuthOptions{
				Secret:     testSecret,
				BcryptCost: bcrypt.MinCost,
			}, nil)
			pair := register(t, svc)

			for round := 0; round < 20; round++ {
				var (
					wg   sync.WaitGroup
					won  atomic.Int32
					next atomic.Pointer[model.TokenPair]
				)
				for i := 0; i < 8; i++ {
					wg.Add(1)
					go func() {
						defer wg.Done()
						if p, err := svc.Refresh(context.Background(), pair.RefreshToken); err == nil {
							won.Add(1)
							next.Store(p)
						}
					}()
				}
				wg.Wait()
				require.EqualValues(t, 1, won.Load(), "round %d", round)
				pair = next.Load()
			}
		})
	}
}
