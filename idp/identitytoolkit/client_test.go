package identitytoolkit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrEthical07/authflow/idp"
	"github.com/MrEthical07/authflow/jwt"
	"github.com/MrEthical07/authflow/session"
)

func idToken(t *testing.T, verified bool, provider string) string {
	t.Helper()
	claims := jwt.IDTokenClaims{
		UserID:        "uid-1",
		Email:         "ada@example.com",
		EmailVerified: verified,
		Name:          "Ada",
		Firebase:      jwt.FirebaseClaims{SignInProvider: provider},
		RegisteredClaims: gojwt.RegisteredClaims{
			ExpiresAt: gojwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	s, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte("test"))
	require.NoError(t, err)
	return s
}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(Config{
		APIKey:     "key",
		BaseURL:    srv.URL,
		HTTPClient: srv.Client(),
		MaxRetries: 2,
		RetryBase:  time.Millisecond,
	})
	require.NoError(t, err)
	return c
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"code": status, "message": message},
	})
}

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}

func TestSignInWithCredentials(t *testing.T) {
	token := idToken(t, false, "password")
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/accounts:signInWithPassword", r.URL.Path)
		assert.Equal(t, "key", r.URL.Query().Get("key"))
		var body passwordRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ada@example.com", body.Email)
		assert.Equal(t, "secret1", body.Password)
		assert.True(t, body.ReturnSecureToken)
		_ = json.NewEncoder(w).Encode(authResponse{
			LocalID:      "uid-1",
			Email:        "ada@example.com",
			IDToken:      token,
			RefreshToken: "refresh",
			ExpiresIn:    "3600",
		})
	})

	s, err := c.SignInWithCredentials(context.Background(), "ada@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "uid-1", s.UserID)
	assert.Equal(t, "Ada", s.DisplayName)
	assert.False(t, s.Verified())
	assert.Equal(t, session.MethodPassword, s.Method)
	assert.Equal(t, "password", s.Provider)
	assert.True(t, s.Active())
	assert.False(t, s.ExpiresAt.IsZero())
}

func TestSignInErrorMapping(t *testing.T) {
	cases := map[string]string{
		"EMAIL_NOT_FOUND":             idp.CodeUserNotFound,
		"INVALID_PASSWORD":            idp.CodeWrongPassword,
		"INVALID_LOGIN_CREDENTIALS":   idp.CodeInvalidCredential,
		"USER_DISABLED":               idp.CodeUserDisabled,
		"TOO_MANY_ATTEMPTS_TRY_LATER": idp.CodeTooManyRequests,
		"SOMETHING_NEW":               idp.CodeInternalError,
	}
	for message, want := range cases {
		t.Run(message, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeError(w, http.StatusBadRequest, message)
			})
			_, err := c.SignInWithCredentials(context.Background(), "a@b.c", "pw")
			code, _ := idp.CodeOf(err)
			assert.Equal(t, want, code)
		})
	}
}

func TestSignUpWeakPasswordDetail(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/accounts:signUp", r.URL.Path)
		writeError(w, http.StatusBadRequest, "WEAK_PASSWORD : Password should be at least 6 characters")
	})
	_, err := c.SignUpWithCredentials(context.Background(), "a@b.c", "pw")
	code, msg := idp.CodeOf(err)
	assert.Equal(t, idp.CodeWeakPassword, code)
	assert.Equal(t, "Password should be at least 6 characters", msg)
}

func TestUnreadableTokenFallsBackToLookup(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/accounts:signInWithPassword":
			_ = json.NewEncoder(w).Encode(authResponse{LocalID: "uid-1", Email: "ada@example.com", IDToken: "opaque"})
		case "/accounts:lookup":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"users": []map[string]any{{"localId": "uid-1", "emailVerified": true, "displayName": "Ada"}},
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})
	s, err := c.SignInWithCredentials(context.Background(), "ada@example.com", "pw")
	require.NoError(t, err)
	assert.True(t, s.Verified())
	assert.Equal(t, "Ada", s.DisplayName)
}

func TestSendVerificationRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/accounts:sendOobCode", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "VERIFY_EMAIL", body["requestType"])
		assert.Equal(t, "tok", body["idToken"])
		if calls.Add(1) < 3 {
			writeError(w, http.StatusServiceUnavailable, "BACKEND_ERROR")
			return
		}
		_, _ = w.Write([]byte(`{"email":"ada@example.com"}`))
	})
	err := c.SendVerificationEmail(context.Background(), &session.Session{IDToken: "tok"})
	require.NoError(t, err)
	assert.EqualValues(t, 3, calls.Load())
}

func TestSendVerificationDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeError(w, http.StatusBadRequest, "TOO_MANY_ATTEMPTS_TRY_LATER")
	})
	err := c.SendVerificationEmail(context.Background(), &session.Session{IDToken: "tok"})
	code, _ := idp.CodeOf(err)
	assert.Equal(t, idp.CodeTooManyRequests, code)
	assert.EqualValues(t, 1, calls.Load())
}

func TestUpdateDisplayNameRequiresToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	err := c.UpdateDisplayName(context.Background(), &session.Session{}, "Ada")
	code, _ := idp.CodeOf(err)
	assert.Equal(t, idp.CodeInvalidCredential, code)
}

func TestSignInWithProvider(t *testing.T) {
	token := idToken(t, true, "github.com")
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/accounts:signInWithIdp", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Contains(t, body["postBody"], "providerId=github.com")
		assert.Contains(t, body["postBody"], "access_token=gh-token")
		_ = json.NewEncoder(w).Encode(authResponse{LocalID: "uid-1", IDToken: token, EmailVerified: true})
	})

	_, err := c.SignInWithProvider(context.Background(), idp.ProviderGitHub)
	code, _ := idp.CodeOf(err)
	assert.Equal(t, idp.CodePopupClosedByUser, code)

	ctx := idp.WithProviderCredential(context.Background(), idp.ProviderCredential{AccessToken: "gh-token"})
	s, err := c.SignInWithProvider(ctx, idp.ProviderGitHub)
	require.NoError(t, err)
	assert.True(t, s.Federated())
	assert.Equal(t, "github.com", s.Provider)
	assert.Equal(t, "ada@example.com", s.Email)
}

func TestSignOutClearsTokens(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	s := &session.Session{IDToken: "tok", RefreshToken: "r"}
	require.NoError(t, c.SignOut(context.Background(), s))
	assert.False(t, s.Active())
}

func TestNetworkFailureCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, err := New(Config{APIKey: "key", BaseURL: url})
	require.NoError(t, err)
	_, err = c.SignInWithCredentials(context.Background(), "a@b.c", "pw")
	code, _ := idp.CodeOf(err)
	assert.Equal(t, idp.CodeNetworkRequestFailed, code)
}
