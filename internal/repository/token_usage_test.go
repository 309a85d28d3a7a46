package repository

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticket-stream-portal/internal/model"
)

func TestTokenUsageRepository_ClaimOnce(t *testing.T) {
	db := newTestDB(t)
	repo := NewTokenUsageRepository(db)
	ctx := context.Background()
	seedPurchase(t, db, "tok", model.PaymentCompleted)

	now := time.Now().UTC()
	ok, err := repo.Claim(ctx, "tok", Access{At: now, IPAddress: "10.0.0.1", UserAgent: "ua", DeviceID: "dev-1"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Claim(ctx, "tok", Access{At: now, DeviceID: "dev-2"})
	require.NoError(t, err)
	assert.False(t, ok)

	u, err := repo.FindByToken(ctx, "tok")
	require.NoError(t, err)
	assert.True(t, u.Used)
	require.NotNil(t, u.FirstAccessedAt)
	require.NotNil(t, u.IPAddress)
	assert.Equal(t, "10.0.0.1", *u.IPAddress)
	require.NotNil(t, u.DeviceID)
	assert.Equal(t, "dev-1", *u.DeviceID)
}

func TestTokenUsageRepository_ConcurrentClaim(t *testing.T) {
	db := newTestDB(t)
	repo := NewTokenUsageRepository(db)
	seedPurchase(t, db, "race", model.PaymentCompleted)

	const n = 16
	var (
		wg      sync.WaitGroup
		winners atomic.Int32
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ok, err := repo.Claim(context.Background(), "race", Access{
				At:       time.Now(),
				DeviceID: fmt.Sprintf("dev-%d", i),
			})
			if assert.NoError(t, err) && ok {
				winners.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), winners.Load())
}

func TestTokenUsageRepository_TouchRequiresSameDevice(t *testing.T) {
	db := newTestDB(t)
	repo := NewTokenUsageRepository(db)
	ctx := context.Background()
	seedPurchase(t, db, "tok", model.PaymentCompleted)

	_, err := repo.Claim(ctx, "tok", Access{At: time.Now(), DeviceID: "dev-1"})
	require.NoError(t, err)

	ok, err := repo.Touch(ctx, "tok", Access{At: time.Now(), DeviceID: "dev-2"})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.Touch(ctx, "tok", Access{At: time.Now(), DeviceID: "dev-1"})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestTokenUsageRepository_Revoke(t *testing.T) {
	db := newTestDB(t)
	repo := NewTokenUsageRepository(db)
	ctx := context.Background()
	seedPurchase(t, db, "tok", model.PaymentCompleted)

	_, err := repo.Claim(ctx, "tok", Access{At: time.Now(), IPAddress: "1.2.3.4", UserAgent: "ua", DeviceID: "dev-1"})
	require.NoError(t, err)

	u, err := repo.FindByToken(ctx, "tok")
	require.NoError(t, err)

	ok, err := repo.Revoke(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	u, err = repo.FindByToken(ctx, "tok")
	require.NoError(t, err)
	assert.False(t, u.Used)
	assert.Nil(t, u.FirstAccessedAt)
	assert.Nil(t, u.LastAccessedAt)
	assert.Nil(t, u.IPAddress)
	assert.Nil(t, u.UserAgent)
	assert.Nil(t, u.DeviceID)

	// the old device no longer holds the token
	ok, err = repo.Touch(ctx, "tok", Access{At: time.Now(), DeviceID: "dev-1"})
	require.NoError(t, err)
	assert.False(t, ok)

	// revoking a token that is already unused still finds the record
	ok, err = repo.Revoke(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Revoke(ctx, "does-not-exist")
	require.NoError(t, err)
	assert.False(t, ok)

	used, err := repo.CountUsed(ctx)
	require.NoError(t, err)
	assert.Zero(t, used)
}
