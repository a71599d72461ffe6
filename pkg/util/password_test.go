package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	BcryptCost = bcrypt.MinCost

	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{name: "Valid password", password: "password123"},
		{name: "Empty password", password: ""},
		{name: "Korean password", password: "순슐랭가이드123"},
		{name: "Exceeds bcrypt limit", password: strings.Repeat("a", 73), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashPassword(tt.password)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Empty(t, hash)
				return
			}
			require.NoError(t, err)
			assert.NotEqual(t, tt.password, hash)
			assert.True(t, strings.HasPrefix(hash, "$2a$"))
			assert.True(t, VerifyPassword(hash, tt.password))
		})
	}
}

func TestVerifyPassword(t *testing.T) {
	BcryptCost = bcrypt.MinCost

	hash, err := HashPassword("mySecurePassword123")
	require.NoError(t, err)

	tests := []struct {
		name     string
		hash     string
		password string
		want     bool
	}{
		{name: "Correct password", hash: hash, password: "mySecurePassword123", want: true},
		{name: "Incorrect password", hash: hash, password: "wrongPassword", want: false},
		{name: "Empty password", hash: hash, password: "", want: false},
		{name: "Invalid hash", hash: "invalid-hash", password: "mySecurePassword123", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, VerifyPassword(tt.hash, tt.password))
		})
	}
}

func TestHashPassword_Salted(t *testing.T) {
	BcryptCost = bcrypt.MinCost

	hash1, err := HashPassword("testPassword")
	require.NoError(t, err)
	hash2, err := HashPassword("testPassword")
	require.NoError(t, err)

	assert.NotEqual(t, hash1, hash2)
}
