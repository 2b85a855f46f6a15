// Package identitytoolkit implements idp.Gateway over the Identity Toolkit
// REST API (accounts:signInWithPassword, accounts:signUp and friends).
package identitytoolkit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/MrEthical07/authflow/idp"
	"github.com/MrEthical07/authflow/jwt"
	"github.com/MrEthical07/authflow/session"
)

// DefaultBaseURL is the public Identity Toolkit v1 endpoint.
const DefaultBaseURL = "https://identitytoolkit.googleapis.com/v1"

// Config configures a Client.
type Config struct {
	APIKey  string
	BaseURL string
	// RequestURI is sent with accounts:signInWithIdp.
	RequestURI string

	HTTPClient *http.Client
	// Tokens reads claims from returned ID tokens. Nil decodes them without
	// signature checks.
	Tokens *jwt.Reader

	// MaxRetries bounds retries of idempotent calls (profile update and
	// verification dispatch) after network errors or 5xx responses.
	MaxRetries uint64
	RetryBase  time.Duration
}

// Client is an idp.Gateway backed by the Identity Toolkit REST API.
type Client struct {
	apiKey     string
	baseURL    string
	requestURI string
	http       *http.Client
	tokens     *jwt.Reader
	maxRetries uint64
	retryBase  time.Duration
	now        func() time.Time
}

var _ idp.Gateway = (*Client)(nil)

// New validates cfg and returns a Client.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("identitytoolkit: api key required")
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("identitytoolkit: invalid base url: %w", err)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	tokens := cfg.Tokens
	if tokens == nil {
		var err error
		if tokens, err = jwt.NewReader(jwt.Config{}); err != nil {
			return nil, err
		}
	}
	requestURI := cfg.RequestURI
	if requestURI == "" {
		requestURI = "http://localhost"
	}
	retryBase := cfg.RetryBase
	if retryBase <= 0 {
		retryBase = 200 * time.Millisecond
	}
	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    base,
		requestURI: requestURI,
		http:       httpClient,
		tokens:     tokens,
		maxRetries: cfg.MaxRetries,
		retryBase:  retryBase,
		now:        time.Now,
	}, nil
}

type passwordRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type authResponse struct {
	LocalID       string `json:"localId"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"emailVerified"`
	DisplayName   string `json:"displayName"`
	IDToken       string `json:"idToken"`
	RefreshToken  string `json:"refreshToken"`
	ExpiresIn     string `json:"expiresIn"`
	ProviderID    string `json:"providerId"`
}

func (c *Client) SignInWithCredentials(ctx context.Context, email, password string) (*session.Session, error) {
	var resp authResponse
	err := c.post(ctx, "accounts:signInWithPassword", passwordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return c.session(ctx, resp, session.MethodPassword)
}

func (c *Client) SignUpWithCredentials(ctx context.Context, email, password string) (*session.Session, error) {
	var resp authResponse
	err := c.post(ctx, "accounts:signUp", passwordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return c.session(ctx, resp, session.MethodPassword)
}

func (c *Client) UpdateDisplayName(ctx context.Context, s *session.Session, name string) error {
	if !s.Active() {
		return idp.NewError(idp.CodeInvalidCredential, "session has no id token")
	}
	body := map[string]any{
		"idToken":           s.IDToken,
		"displayName":       name,
		"returnSecureToken": false,
	}
	return c.retrying(ctx, func(ctx context.Context) error {
		return c.post(ctx, "accounts:update", body, nil)
	})
}

func (c *Client) SendVerificationEmail(ctx context.Context, s *session.Session) error {
	if !s.Active() {
		return idp.NewError(idp.CodeInvalidCredential, "session has no id token")
	}
	body := map[string]string{
		"requestType": "VERIFY_EMAIL",
		"idToken":     s.IDToken,
	}
	return c.retrying(ctx, func(ctx context.Context) error {
		return c.post(ctx, "accounts:sendOobCode", body, nil)
	})
}

// SignInWithProvider exchanges a popup credential for a session. The popup
// itself runs in the browser; its result must be attached to ctx with
// idp.WithProviderCredential.
func (c *Client) SignInWithProvider(ctx context.Context, provider idp.Provider) (*session.Session, error) {
	cred, ok := idp.CredentialFromContext(ctx)
	if !ok {
		return nil, idp.NewError(idp.CodePopupClosedByUser, "no provider credential")
	}
	post := url.Values{"providerId": {provider.ProviderID()}}
	if cred.IDToken != "" {
		post.Set("id_token", cred.IDToken)
	}
	if cred.AccessToken != "" {
		post.Set("access_token", cred.AccessToken)
	}
	var resp authResponse
	err := c.post(ctx, "accounts:signInWithIdp", map[string]any{
		"postBody":            post.Encode(),
		"requestUri":          c.requestURI,
		"returnSecureToken":   true,
		"returnIdpCredential": true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	s, err := c.session(ctx, resp, session.MethodFederated)
	if err != nil {
		return nil, err
	}
	if s.Provider == "" {
		s.Provider = provider.ProviderID()
	}
	return s, nil
}

// SignOut drops the session tokens. The REST API keeps no server-side
// sign-in state, so nothing is sent.
func (c *Client) SignOut(ctx context.Context, s *session.Session) error {
	if err := ctx.Err(); err != nil {
		return idp.NewError(idp.CodeNetworkRequestFailed, err.Error())
	}
	s.Clear()
	return nil
}

// session builds a Session from an auth response. Verification status and
// provider come from the ID token claims; when the token cannot be read the
// account is looked up instead.
func (c *Client) session(ctx context.Context, resp authResponse, method session.Method) (*session.Session, error) {
	s := &session.Session{
		UserID:        resp.LocalID,
		DisplayName:   resp.DisplayName,
		Email:         resp.Email,
		EmailVerified: resp.EmailVerified,
		Method:        method,
		Provider:      resp.ProviderID,
		IDToken:       resp.IDToken,
		RefreshToken:  resp.RefreshToken,
	}
	if secs, err := strconv.Atoi(resp.ExpiresIn); err == nil && secs > 0 {
		s.ExpiresAt = c.now().Add(time.Duration(secs) * time.Second)
	}

	claims, err := c.tokens.Parse(resp.IDToken)
	if err != nil {
		if err := c.lookup(ctx, s); err != nil {
			return nil, err
		}
		return s, nil
	}
	s.EmailVerified = s.EmailVerified || claims.EmailVerified
	if s.UserID == "" {
		s.UserID = claims.Subject()
	}
	if s.DisplayName == "" {
		s.DisplayName = claims.Name
	}
	if s.Email == "" {
		s.Email = claims.Email
	}
	if p := claims.Firebase.SignInProvider; p != "" {
		s.Provider = p
	}
	if exp := claims.Expiry(); !exp.IsZero() && s.ExpiresAt.IsZero() {
		s.ExpiresAt = exp
	}
	return s, nil
}

type lookupResponse struct {
	Users []struct {
		LocalID       string `json:"localId"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"emailVerified"`
		DisplayName   string `json:"displayName"`
	} `json:"users"`
}

func (c *Client) lookup(ctx context.Context, s *session.Session) error {
	if !s.Active() {
		return idp.NewError(idp.CodeInternalError, "auth response without id token")
	}
	var resp lookupResponse
	if err := c.post(ctx, "accounts:lookup", map[string]string{"idToken": s.IDToken}, &resp); err != nil {
		return err
	}
	if len(resp.Users) == 0 {
		return idp.NewError(idp.CodeUserNotFound, "lookup returned no user")
	}
	u := resp.Users[0]
	s.EmailVerified = u.EmailVerified
	if s.UserID == "" {
		s.UserID = u.LocalID
	}
	if s.Email == "" {
		s.Email = u.Email
	}
	if s.DisplayName == "" {
		s.DisplayName = u.DisplayName
	}
	return nil
}

// retrying runs fn with exponential backoff while it fails with a retryable
// error.
func (c *Client) retrying(ctx context.Context, fn func(context.Context) error) error {
	if c.maxRetries == 0 {
		return fn(ctx)
	}
	b := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(c.retryBase))
	var last error
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		last = fn(ctx)
		if last != nil && retryable(last) {
			return retry.RetryableError(last)
		}
		return last
	})
	if err != nil && last != nil {
		return last
	}
	return err
}

type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

func retryable(err error) bool {
	var t *transientError
	return errors.As(err, &t)
}

func (c *Client) endpoint(method string) string {
	return c.baseURL + "/" + method + "?key=" + url.QueryEscape(c.apiKey)
}

func (c *Client) post(ctx context.Context, method string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(method), bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &transientError{err: &idp.Error{
			Code:    idp.CodeNetworkRequestFailed,
			Message: method,
			Err:     err,
		}}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &transientError{err: &idp.Error{Code: idp.CodeNetworkRequestFailed, Message: method, Err: err}}
	}
	if resp.StatusCode >= 400 {
		perr := decodeError(resp.StatusCode, raw)
		if resp.StatusCode >= 500 {
			return &transientError{err: perr}
		}
		return perr
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &idp.Error{Code: idp.CodeInternalError, Message: "malformed response", Err: err}
	}
	return nil
}
