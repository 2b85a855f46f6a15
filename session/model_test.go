package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessionFederated(t *testing.T) {
	assert.False(t, (*Session)(nil).Federated())
	assert.False(t, (&Session{Method: MethodPassword}).Federated())
	assert.True(t, (&Session{Method: MethodFederated, Provider: "github.com"}).Federated())
}

func TestSessionClear(t *testing.T) {
	s := &Session{IDToken: "id", RefreshToken: "rt", ExpiresAt: time.Now().Add(time.Hour)}
	assert.True(t, s.Active())
	s.Clear()
	assert.False(t, s.Active())
	assert.Empty(t, s.RefreshToken)
	assert.True(t, s.ExpiresAt.IsZero())
}

func TestSessionExpired(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	assert.True(t, (*Session)(nil).Expired(now))
	assert.False(t, (&Session{}).Expired(now))
	assert.False(t, (&Session{ExpiresAt: now.Add(time.Minute)}).Expired(now))
	assert.True(t, (&Session{ExpiresAt: now}).Expired(now))
}
