// Package idptest provides a testify mock of idp.Gateway.
package idptest

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/MrEthical07/authflow/idp"
	"github.com/MrEthical07/authflow/session"
)

// Gateway is a mock idp.Gateway. Calls with a nil session return value
// resolve to a nil *session.Session.
type Gateway struct {
	mock.Mock
}

var _ idp.Gateway = (*Gateway)(nil)

func sessionResult(args mock.Arguments) (*session.Session, error) {
	var s *session.Session
	if v := args.Get(0); v != nil {
		s = v.(*session.Session)
	}
	return s, args.Error(1)
}

func (g *Gateway) SignInWithCredentials(ctx context.Context, email, password string) (*session.Session, error) {
	return sessionResult(g.Called(ctx, email, password))
}

func (g *Gateway) SignUpWithCredentials(ctx context.Context, email, password string) (*session.Session, error) {
	return sessionResult(g.Called(ctx, email, password))
}

func (g *Gateway) UpdateDisplayName(ctx context.Context, s *session.Session, name string) error {
	return g.Called(ctx, s, name).Error(0)
}

func (g *Gateway) SignInWithProvider(ctx context.Context, provider idp.Provider) (*session.Session, error) {
	return sessionResult(g.Called(ctx, provider))
}

func (g *Gateway) SendVerificationEmail(ctx context.Context, s *session.Session) error {
	return g.Called(ctx, s).Error(0)
}

func (g *Gateway) SignOut(ctx context.Context, s *session.Session) error {
	return g.Called(ctx, s).Error(0)
}

// PasswordSession returns a password session for email.
func PasswordSession(email string, verified bool) *session.Session {
	return &session.Session{
		UserID:        "uid-" + email,
		Email:         email,
		EmailVerified: verified,
		Method:        session.MethodPassword,
		Provider:      "password",
		IDToken:       "id-token",
		RefreshToken:  "refresh-token",
	}
}

// FederatedSession returns a verified popup session for provider.
func FederatedSession(provider idp.Provider, email string) *session.Session {
	return &session.Session{
		UserID:        "uid-" + email,
		Email:         email,
		EmailVerified: true,
		Method:        session.MethodFederated,
		Provider:      provider.ProviderID(),
		IDToken:       "id-token",
	}
}
