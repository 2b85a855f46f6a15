package session

import "time"

// Method records how a session was established.
type Method string

const (
	MethodPassword  Method = "password"
	MethodFederated Method = "federated"
)

// Session is the explicit value returned by every successful provider
// sign-in or sign-up. Flows pass it to later provider calls instead of
// reading ambient SDK state.
type Session struct {
	UserID        string
	DisplayName   string
	Email         string
	EmailVerified bool

	Method   Method
	Provider string // "password", "google.com", "github.com"

	IDToken      string
	RefreshToken string
	ExpiresAt    time.Time
}

// Verified reports whether the provider marked the email as verified.
func (s *Session) Verified() bool {
	return s != nil && s.EmailVerified
}

// Federated reports whether the session came from a popup provider.
func (s *Session) Federated() bool {
	return s != nil && s.Method == MethodFederated
}

// Expired reports whether the ID token lifetime has passed at now.
func (s *Session) Expired(now time.Time) bool {
	if s == nil {
		return true
	}
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Clear drops the credentials held by the session. A cleared session can no
// longer authorize provider calls.
func (s *Session) Clear() {
	if s == nil {
		return
	}
	s.IDToken = ""
	s.RefreshToken = ""
	s.ExpiresAt = time.Time{}
}

// Active reports whether the session still holds an ID token.
func (s *Session) Active() bool {
	return s != nil && s.IDToken != ""
}
