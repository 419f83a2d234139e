package auth_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/i-yashvi/E-Commerce-Backend/internal/auth"
)

func TestHashPassword(t *testing.T) {
	hasher := auth.NewBcryptHasher(bcrypt.MinCost)

	t.Run("produces bcrypt digest", func(t *testing.T) {
		digest, err := hasher.Hash("Aa1!aaaa")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(digest, "$2a$"))
		assert.NotContains(t, digest, "Aa1!aaaa")
	})

	t.Run("same password produces different digests (salt)", func(t *testing.T) {
		d1, err := hasher.Hash("samepassword")
		require.NoError(t, err)
		d2, err := hasher.Hash("samepassword")
		require.NoError(t, err)
		assert.NotEqual(t, d1, d2)
	})

	t.Run("rejects empty password", func(t *testing.T) {
		_, err := hasher.Hash("")
		assert.ErrorIs(t, err, auth.ErrEmptyPassword)
	})

	t.Run("rejects passwords over 72 bytes", func(t *testing.T) {
		_, err := hasher.Hash(strings.Repeat("a", 73))
		assert.ErrorIs(t, err, auth.ErrPasswordTooLong)
	})

	t.Run("out of range cost falls back to default", func(t *testing.T) {
		digest, err := auth.NewBcryptHasher(100).Hash("pw")
		require.NoError(t, err)
		cost, err := bcrypt.Cost([]byte(digest))
		require.NoError(t, err)
		assert.Equal(t, bcrypt.DefaultCost, cost)
	})
}

func TestVerifyPassword(t *testing.T) {
	hasher := auth.NewBcryptHasher(bcrypt.MinCost)

	passwords := []string{"Aa1!aaaa", "Bb2@bbbb", "päss wörd", "x"}
	for _, pw := range passwords {
		digest, err := hasher.Hash(pw)
		require.NoError(t, err)

		assert.True(t, hasher.Verify(pw, digest), "own password must verify: %q", pw)
		for _, other := range passwords {
			if other == pw {
				continue
			}
			assert.False(t, hasher.Verify(other, digest), "%q must not verify against digest of %q", other, pw)
		}
	}

	t.Run("malformed digests never verify", func(t *testing.T) {
		for _, digest := range []string{
			"",
			"not-a-hash",
			"$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA",
			"$2a$10$short",
		} {
			assert.False(t, hasher.Verify("password", digest), "digest %q", digest)
		}
	})
}
