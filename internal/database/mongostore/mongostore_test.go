package mongostore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToUser(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	user := toUser(&userDocument{
		Username:  "alice",
		Email:     "alice@example.com",
		Password:  "$2a$10$hash",
		CreatedAt: created,
	})
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "$2a$10$hash", user.PasswordHash)
	assert.Equal(t, created, user.CreatedAt)
	require.NotNil(t, user.Email)
	assert.Equal(t, "alice@example.com", *user.Email)
}

func TestToUser_WithoutEmail(t *testing.T) {
	user := toUser(&userDocument{Username: "bob", Password: "hash"})
	assert.Nil(t, user.Email)
}
