package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastParams = Argon2Params{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16}

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPasswordWithParams("secret1", fastParams)
	require.NoError(t, err)
	assert.Contains(t, string(hash), "$argon2id$v=19$m=8192,t=1,p=1$")

	ok, err := VerifyPassword("secret1", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("secret2", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPasswordSaltsDiffer(t *testing.T) {
	a, err := HashPasswordWithParams("secret1", fastParams)
	require.NoError(t, err)
	b, err := HashPasswordWithParams("secret1", fastParams)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestVerifyPasswordMalformed(t *testing.T) {
	for _, hash := range []string{"", "plain", "$bcrypt$v=19$m=1,t=1,p=1$a$b", "$argon2id$v=1$m=1,t=1,p=1$a$b"} {
		_, err := VerifyPassword("x", []byte(hash))
		assert.ErrorIs(t, err, ErrMalformedHash, hash)
	}
}

func TestSessionToken(t *testing.T) {
	token, err := IssueSessionToken("s3cret", "u1", "s1", time.Hour)
	require.NoError(t, err)

	claims, err := ParseSessionToken(token, "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "s1", claims.SessionID)

	_, err = ParseSessionToken(token, "other")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSessionTokenExpired(t *testing.T) {
	token, err := IssueSessionToken("s3cret", "u1", "s1", -time.Minute)
	require.NoError(t, err)

	_, err = ParseSessionToken(token, "s3cret")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSessionTokenRejectsOtherAlgorithms(t *testing.T) {
	claims := SessionClaims{UserID: "u1", SessionID: "s1"}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	_, err = ParseSessionToken(token, "s3cret")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
