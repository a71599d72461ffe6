package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/soonsulleng/guide-backend/internal/app/model"
	"github.com/soonsulleng/guide-backend/internal/app/repository"
	"github.com/soonsulleng/guide-backend/internal/db"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testJWTSecret = "test-jwt-secret"

func setupTestDB(t *testing.T) *gorm.DB {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})
	return testDB
}

func createTestUser(t *testing.T, userRepo repository.UserRepository, email string) *model.User {
	user := &model.User{
		Email:        email,
		PasswordHash: "hashed",
		Name:         "Test User",
		Role:         model.RoleUser,
	}
	require.NoError(t, userRepo.Create(context.Background(), user))
	return user
}

var errBlacklistDown = errors.New("blacklist unavailable")

type fakeBlacklist struct {
	mu      sync.Mutex
	tokens  map[string]time.Duration
	failing bool
}

func newFakeBlacklist() *fakeBlacklist {
	return &fakeBlacklist{tokens: make(map[string]time.Duration)}
}

func (f *fakeBlacklist) BlacklistToken(_ context.Context, token string, expiry time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return errBlacklistDown
	}
	f.tokens[token] = expiry
	return nil
}

func (f *fakeBlacklist) IsTokenBlacklisted(_ context.Context, token string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return false, errBlacklistDown
	}
	_, ok := f.tokens[token]
	return ok, nil
}
