package devapi

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/fieldsales/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParse_Success(t *testing.T) {
	t.Parallel()

	now := time.Now()
	tok, err := GenerateToken(42, []byte("super-secret"), now, time.Hour)
	require.NoError(t, err)

	got, err := UserIDFromToken(tok, []byte("super-secret"), now)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got)
}

func TestUserIDFromToken_Expired(t *testing.T) {
	t.Parallel()

	now := time.Now()
	tok, err := GenerateToken(1, []byte("secret"), now, time.Minute)
	require.NoError(t, err)

	_, err = UserIDFromToken(tok, []byte("secret"), now.Add(2*time.Minute))
	assert.ErrorIs(t, err, common.ErrTokenExpired)
}

func TestUserIDFromToken_WrongSecret(t *testing.T) {
	t.Parallel()

	now := time.Now()
	tok, err := GenerateToken(2, []byte("right-secret"), now, time.Hour)
	require.NoError(t, err)

	_, err = UserIDFromToken(tok, []byte("wrong-secret"), now)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestUserIDFromToken_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 3}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = UserIDFromToken(tok, []byte("secret"), time.Now())
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestUserIDFromToken_Garbage(t *testing.T) {
	t.Parallel()

	_, err := UserIDFromToken("not-a-jwt", []byte("secret"), time.Now())
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}
