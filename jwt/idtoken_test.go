package jwt

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newKey(t *testing.T) (*rsa.PrivateKey, []byte) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	return key, pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})
}

func sign(t *testing.T, key *rsa.PrivateKey, kid string, claims IDTokenClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	s, err := token.SignedString(key)
	require.NoError(t, err)
	return s
}

func testClaims(project string) IDTokenClaims {
	return IDTokenClaims{
		UserID:        "uid-1",
		Email:         "ada@example.com",
		EmailVerified: true,
		Name:          "Ada",
		Firebase:      FirebaseClaims{SignInProvider: "password"},
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    IssuerPrefix + project,
			Audience:  jwt.ClaimStrings{project},
			Subject:   "uid-1",
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func TestReaderUnverified(t *testing.T) {
	key, _ := newKey(t)
	tok := sign(t, key, "k1", testClaims("portfolio"))

	r, err := NewReader(Config{})
	require.NoError(t, err)
	assert.False(t, r.Verifying())

	claims, err := r.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "uid-1", claims.Subject())
	assert.True(t, claims.EmailVerified)
	assert.Equal(t, "password", claims.Firebase.SignInProvider)
	assert.False(t, claims.Expiry().IsZero())
}

func TestReaderUnverifiedChecksProject(t *testing.T) {
	key, _ := newKey(t)
	tok := sign(t, key, "k1", testClaims("other"))

	r, err := NewReader(Config{ProjectID: "portfolio"})
	require.NoError(t, err)

	_, err = r.Parse(tok)
	assert.ErrorIs(t, err, jwt.ErrTokenInvalidIssuer)
}

func TestReaderVerified(t *testing.T) {
	key, pub := newKey(t)
	r, err := NewReader(Config{ProjectID: "portfolio", VerifyKeys: map[string][]byte{"k1": pub}})
	require.NoError(t, err)
	require.True(t, r.Verifying())

	t.Run("valid signature", func(t *testing.T) {
		claims, err := r.Parse(sign(t, key, "k1", testClaims("portfolio")))
		require.NoError(t, err)
		assert.Equal(t, "ada@example.com", claims.Email)
	})

	t.Run("unknown kid", func(t *testing.T) {
		_, err := r.Parse(sign(t, key, "k2", testClaims("portfolio")))
		assert.ErrorIs(t, err, ErrUnknownKey)
	})

	t.Run("foreign signer", func(t *testing.T) {
		other, _ := newKey(t)
		_, err := r.Parse(sign(t, other, "k1", testClaims("portfolio")))
		assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
	})

	t.Run("wrong audience", func(t *testing.T) {
		_, err := r.Parse(sign(t, key, "k1", testClaims("other")))
		assert.Error(t, err)
	})
}

func TestReaderRejectsGarbage(t *testing.T) {
	r, err := NewReader(Config{})
	require.NoError(t, err)

	_, err = r.Parse("")
	assert.ErrorIs(t, err, ErrTokenEmpty)

	_, err = r.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrTokenMalformed)
}

func TestNewReaderRejectsBadConfig(t *testing.T) {
	_, err := NewReader(Config{Leeway: -time.Second})
	assert.Error(t, err)

	_, err = NewReader(Config{VerifyKeys: map[string][]byte{"k1": []byte("nope")}})
	assert.Error(t, err)

	_, pub := newKey(t)
	_, err = NewReader(Config{VerifyKeys: map[string][]byte{" ": pub}})
	assert.Error(t, err)
}
