package accounts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenMaker(t *testing.T) {
	maker := NewTokenMaker("test-secret", time.Hour)

	t.Run("issue and verify round trip", func(t *testing.T) {
		token, err := maker.Issue("user-42")
		require.NoError(t, err)
		require.NotEmpty(t, token)

		userID, err := maker.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, "user-42", userID)
	})

	t.Run("rejects expired token", func(t *testing.T) {
		expired := NewTokenMaker("test-secret", -time.Minute)
		token, err := expired.Issue("user-42")
		require.NoError(t, err)

		_, err = maker.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("rejects token signed with another secret", func(t *testing.T) {
		other := NewTokenMaker("other-secret", time.Hour)
		token, err := other.Issue("user-42")
		require.NoError(t, err)

		_, err = maker.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := maker.Verify("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
