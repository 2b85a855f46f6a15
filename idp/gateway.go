package idp

import (
	"context"
	"fmt"
	"strings"

	"github.com/MrEthical07/authflow/session"
)

// Credentials are the transient email/password pair typed into a form.
// They are never persisted.
type Credentials struct {
	Email    string
	Password string
}

// Provider names a federated (popup) identity provider.
type Provider string

const (
	ProviderGoogle Provider = "google"
	ProviderGitHub Provider = "github"
)

// Providers lists the federated providers the flows accept.
var Providers = []Provider{ProviderGoogle, ProviderGitHub}

// ParseProvider normalizes a provider name.
func ParseProvider(name string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "google", "google.com":
		return ProviderGoogle, nil
	case "github", "github.com":
		return ProviderGitHub, nil
	default:
		return "", fmt.Errorf("unknown provider %q", name)
	}
}

// DisplayName is the human label used in messages.
func (p Provider) DisplayName() string {
	switch p {
	case ProviderGoogle:
		return "Google"
	case ProviderGitHub:
		return "GitHub"
	default:
		return string(p)
	}
}

// ProviderID is the provider identifier understood by the identity service.
func (p Provider) ProviderID() string {
	switch p {
	case ProviderGoogle:
		return "google.com"
	case ProviderGitHub:
		return "github.com"
	default:
		return string(p)
	}
}

// Gateway is the capability set the flows consume.
type Gateway interface {
	SignInWithCredentials(ctx context.Context, email, password string) (*session.Session, error)
	SignUpWithCredentials(ctx context.Context, email, password string) (*session.Session, error)
	UpdateDisplayName(ctx context.Context, s *session.Session, name string) error
	SignInWithProvider(ctx context.Context, provider Provider) (*session.Session, error)
	SendVerificationEmail(ctx context.Context, s *session.Session) error
	SignOut(ctx context.Context, s *session.Session) error
}
