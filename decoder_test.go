package session_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	session "github.com/goliatone/go-social-session"
)

func TestHMACDecoder_Decode(t *testing.T) {
	decoder := session.NewHMACDecoder(testKey)

	token := signToken(t, tokenOpts{role: "ROLE_ADMIN", verified: true})
	claims, err := decoder.Decode(token)
	require.NoError(t, err)

	assert.Equal(t, testUserID, claims.UserID())
	assert.Equal(t, "jane@example.com", claims.Email())
	assert.Equal(t, "jane", claims.Username())
	assert.Equal(t, "ROLE_ADMIN", claims.Role())
	assert.True(t, claims.Verified())
	assert.Equal(t, testNow.Add(time.Hour).Unix(), claims.Expires().Unix())
	assert.Equal(t, testNow.Add(-time.Minute).Unix(), claims.Issued().Unix())
}

func TestHMACDecoder_DoesNotJudgeExpiry(t *testing.T) {
	decoder := session.NewHMACDecoder(testKey)

	token := signToken(t, tokenOpts{role: "USER", exp: time.Now().Add(-time.Hour)})
	claims, err := decoder.Decode(token)
	require.NoError(t, err)
	assert.True(t, claims.Expires().Before(time.Now()))
}

func TestHMACDecoder_Rejects(t *testing.T) {
	decoder := session.NewHMACDecoder(testKey)

	other, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": testNow.Add(time.Hour).Unix(),
	}).SignedString([]byte("another-key"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "garbage", token: "not.a.token"},
		{name: "wrong key", token: other},
		{name: "missing exp", token: signToken(t, tokenOpts{role: "USER", noExp: true})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decoder.Decode(tt.token)
			require.Error(t, err)
			assert.True(t, session.IsMalformedError(err), "expected malformed error, got %v", err)
		})
	}
}

func TestUnverifiedDecoder(t *testing.T) {
	decoder := session.NewUnverifiedDecoder()

	other, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":  "42",
		"sub": "someone@example.com",
		"exp": testNow.Add(time.Hour).Unix(),
	}).SignedString([]byte("key-we-do-not-know"))
	require.NoError(t, err)

	claims, err := decoder.Decode(other)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.UserID(), "id claim is used when userId is absent")
	assert.Equal(t, "someone@example.com", claims.Email(), "email falls back to the subject")

	_, err = decoder.Decode("garbage")
	assert.True(t, session.IsMalformedError(err))
}

func TestMultiTokenDecoder(t *testing.T) {
	token := signToken(t, tokenOpts{role: "USER"})

	multi := session.NewMultiTokenDecoder(
		nil,
		session.NewHMACDecoder([]byte("wrong")),
		session.NewHMACDecoder(testKey),
	)

	claims, err := multi.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, testUserID, claims.UserID())

	_, err = session.NewMultiTokenDecoder().Decode(token)
	assert.True(t, session.IsMalformedError(err))

	expired := session.TokenDecoderFunc(func(string) (*session.Claims, error) {
		return nil, session.ErrTokenExpired
	})
	_, err = session.NewMultiTokenDecoder(expired, session.NewHMACDecoder(testKey)).Decode(token)
	assert.True(t, session.IsTokenExpiredError(err), "non malformed errors stop the chain")
}
