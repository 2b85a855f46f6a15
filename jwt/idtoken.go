package jwt

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// IssuerPrefix is prepended to the project ID to form the expected issuer.
const IssuerPrefix = "https://securetoken.google.com/"

var (
	ErrTokenEmpty     = errors.New("empty id token")
	ErrTokenMalformed = errors.New("malformed id token")
	ErrUnknownKey     = errors.New("unknown id token key")
)

// Config controls how ID tokens are read.
type Config struct {
	// ProjectID enables issuer/audience checks when set.
	ProjectID string
	// VerifyKeys maps kid to a PEM encoded RSA public key or certificate.
	// Empty means claims are decoded without signature verification.
	VerifyKeys map[string][]byte
	Leeway     time.Duration
}

// FirebaseClaims is the nested "firebase" claim.
type FirebaseClaims struct {
	SignInProvider string `json:"sign_in_provider"`
}

// IDTokenClaims are the claims the flows care about.
type IDTokenClaims struct {
	UserID        string         `json:"user_id"`
	Email         string         `json:"email"`
	EmailVerified bool           `json:"email_verified"`
	Name          string         `json:"name"`
	Firebase      FirebaseClaims `json:"firebase"`
	jwt.RegisteredClaims
}

// Reader decodes ID tokens.
type Reader struct {
	config Config
	keys   map[string]*rsa.PublicKey
}

// NewReader validates cfg and parses its verify keys.
func NewReader(cfg Config) (*Reader, error) {
	if cfg.Leeway < 0 || cfg.Leeway > 5*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	r := &Reader{config: cfg}
	if len(cfg.VerifyKeys) > 0 {
		r.keys = make(map[string]*rsa.PublicKey, len(cfg.VerifyKeys))
		for kid, pem := range cfg.VerifyKeys {
			if strings.TrimSpace(kid) == "" {
				return nil, errors.New("verify key map contains empty kid")
			}
			key, err := jwt.ParseRSAPublicKeyFromPEM(pem)
			if err != nil {
				return nil, fmt.Errorf("invalid rsa verify key for kid %q: %w", kid, err)
			}
			r.keys[kid] = key
		}
	}
	return r, nil
}

// Verifying reports whether signatures are checked.
func (r *Reader) Verifying() bool {
	return r != nil && len(r.keys) > 0
}

// Parse returns the claims carried by tokenStr.
func (r *Reader) Parse(tokenStr string) (*IDTokenClaims, error) {
	if strings.TrimSpace(tokenStr) == "" {
		return nil, ErrTokenEmpty
	}

	if !r.Verifying() {
		claims := &IDTokenClaims{}
		if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, claims); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
		}
		if err := r.checkProject(claims); err != nil {
			return nil, err
		}
		return claims, nil
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if r.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(r.config.Leeway))
	}
	if r.config.ProjectID != "" {
		options = append(options,
			jwt.WithIssuer(IssuerPrefix+r.config.ProjectID),
			jwt.WithAudience(r.config.ProjectID),
		)
	}

	token, err := jwt.NewParser(options...).ParseWithClaims(tokenStr, &IDTokenClaims{}, func(t *jwt.Token) (interface{}, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("missing kid")
		}
		key, ok := r.keys[kid]
		if !ok {
			return nil, ErrUnknownKey
		}
		return key, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*IDTokenClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

func (r *Reader) checkProject(claims *IDTokenClaims) error {
	if r.config.ProjectID == "" {
		return nil
	}
	if claims.Issuer != IssuerPrefix+r.config.ProjectID {
		return jwt.ErrTokenInvalidIssuer
	}
	for _, aud := range claims.Audience {
		if aud == r.config.ProjectID {
			return nil
		}
	}
	return jwt.ErrTokenInvalidAudience
}

// Subject returns the stable user id, preferring user_id over sub.
func (c *IDTokenClaims) Subject() string {
	if c.UserID != "" {
		return c.UserID
	}
	return c.RegisteredClaims.Subject
}

// Expiry returns the token expiry or the zero time.
func (c *IDTokenClaims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}
