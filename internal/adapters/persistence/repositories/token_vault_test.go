package repositories

import (
	"context"
	"sync"
	"testing"
	"time"

	"einvoice-console/internal/adapters/persistence/models"
	"einvoice-console/internal/core/session"
	"einvoice-console/internal/pkg/jwt"
	"einvoice-console/internal/pkg/sealer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
)

type fakeTokenRepo struct {
	mu   sync.Mutex
	rows map[[2]string]models.SessionToken
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{rows: make(map[[2]string]models.SessionToken)}
}

func (f *fakeTokenRepo) Get(_ context.Context, sid, name string) (*models.SessionToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[[2]string{sid, name}]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &row, nil
}

func (f *fakeTokenRepo) Upsert(_ context.Context, token *models.SessionToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[[2]string{token.SID, token.Name}] = *token
	return nil
}

func (f *fakeTokenRepo) Delete(_ context.Context, sid, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, [2]string{sid, name})
	return nil
}

func (f *fakeTokenRepo) DeleteBySIDs(_ context.Context, sids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for key := range f.rows {
		for _, sid := range sids {
			if key[0] == sid {
				delete(f.rows, key)
			}
		}
	}
	return nil
}

func (f *fakeTokenRepo) DeleteExpired(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for key, row := range f.rows {
		if row.IsExpired() {
			delete(f.rows, key)
			n++
		}
	}
	return n, nil
}

func sampleTokenRow() *models.SessionToken {
	return &models.SessionToken{
		SID:       "sid-1",
		Name:      session.AccessTokenKey,
		Value:     "sealed",
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func newTestVault(t *testing.T) (*TokenVault, *fakeTokenRepo) {
	t.Helper()
	s, err := sealer.New("vault-key")
	require.NoError(t, err)
	repo := newFakeTokenRepo()
	return NewTokenVault(repo, s, 30*time.Minute, nil), repo
}

func TestTokenVault_SealsValues(t *testing.T) {
	vault, repo := newTestVault(t)
	ctx := context.Background()
	store := vault.For("sid-1")

	require.NoError(t, store.Set(ctx, session.AccessTokenKey, "access-xyz"))

	row, err := repo.Get(ctx, "sid-1", session.AccessTokenKey)
	require.NoError(t, err)
	assert.NotEqual(t, "access-xyz", row.Value)

	v, ok, err := store.Get(ctx, session.AccessTokenKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "access-xyz", v)
}

func TestTokenVault_ExpiryFollowsTokenClaim(t *testing.T) {
	vault, repo := newTestVault(t)
	ctx := context.Background()

	token, err := jwt.GenerateSignal("ketoan01", "", "", "backend-secret", 2*time.Hour)
	require.NoError(t, err)
	require.NoError(t, vault.For("sid-1").Set(ctx, session.AccessTokenKey, token))
	require.NoError(t, vault.For("sid-1").Set(ctx, session.RefreshTokenKey, "opaque"))

	access, _ := repo.Get(ctx, "sid-1", session.AccessTokenKey)
	assert.WithinDuration(t, time.Now().Add(2*time.Hour), access.ExpiresAt, time.Minute)

	refresh, _ := repo.Get(ctx, "sid-1", session.RefreshTokenKey)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), refresh.ExpiresAt, time.Minute)
}

func TestTokenVault_PartitionedBySID(t *testing.T) {
	vault, _ := newTestVault(t)
	ctx := context.Background()

	require.NoError(t, vault.For("sid-1").Set(ctx, session.AccessTokenKey, "a"))
	_, ok, err := vault.For("sid-2").Get(ctx, session.AccessTokenKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTokenVault_ExpiredOrUnreadableIsAbsent(t *testing.T) {
	vault, repo := newTestVault(t)
	ctx := context.Background()

	expired := sampleTokenRow()
	expired.ExpiresAt = time.Now().Add(-time.Minute)
	require.NoError(t, repo.Upsert(ctx, expired))
	_, ok, err := vault.For("sid-1").Get(ctx, session.AccessTokenKey)
	require.NoError(t, err)
	assert.False(t, ok)

	garbage := sampleTokenRow()
	garbage.Name = session.RefreshTokenKey
	require.NoError(t, repo.Upsert(ctx, garbage))
	_, ok, err = vault.For("sid-1").Get(ctx, session.RefreshTokenKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTokenVault_RotatedSealKeyIsLogged(t *testing.T) {
	ctx := context.Background()
	repo := newFakeTokenRepo()

	oldKey, err := sealer.New("old-key")
	require.NoError(t, err)
	require.NoError(t, NewTokenVault(repo, oldKey, time.Hour, nil).For("sid-1").Set(ctx, session.AccessTokenKey, "a"))

	core, logs := observer.New(zapcore.WarnLevel)
	newKey, err := sealer.New("new-key")
	require.NoError(t, err)
	vault := NewTokenVault(repo, newKey, time.Hour, zap.New(core).Sugar())

	_, ok, err := vault.For("sid-1").Get(ctx, session.AccessTokenKey)
	require.NoError(t, err)
	assert.False(t, ok)

	entries := logs.FilterMessageSnippet("SESSION_SEAL_KEY").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "sid-1", entries[0].ContextMap()["sid"])
}

func TestTokenVault_PurgeAndSweep(t *testing.T) {
	vault, repo := newTestVault(t)
	ctx := context.Background()

	require.NoError(t, vault.For("sid-1").Set(ctx, session.AccessTokenKey, "a"))
	require.NoError(t, vault.For("sid-2").Set(ctx, session.AccessTokenKey, "b"))
	require.NoError(t, vault.Purge(ctx, "sid-1"))

	_, ok, _ := vault.For("sid-1").Get(ctx, session.AccessTokenKey)
	assert.False(t, ok)
	_, ok, _ = vault.For("sid-2").Get(ctx, session.AccessTokenKey)
	assert.True(t, ok)

	stale := sampleTokenRow()
	stale.SID = "sid-3"
	stale.ExpiresAt = time.Now().Add(-time.Hour)
	require.NoError(t, repo.Upsert(ctx, stale))

	n, err := vault.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
