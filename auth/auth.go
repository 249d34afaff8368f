package auth

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"

	"github.com/kbukum/audiopen/auth/jwt"
)

// ErrNotSignedIn is returned when an operation needs a user but no valid
// token is present.
var ErrNotSignedIn = errors.New("auth: not signed in")

// User is the signed-in identity as seen by the client.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}

// Provider is the authentication collaborator consumed by the pipeline.
// CurrentUser returns false when nobody is signed in or the token expired.
type Provider interface {
	CurrentUser() (User, bool)
	Token() string
}

// Claims are the access-token claims issued by the backend.
type Claims struct {
	gojwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// SetDefaults fills iat/exp/iss/aud for freshly issued tokens.
func (c *Claims) SetDefaults(now time.Time, ttl time.Duration, issuer, audience string) {
	if c.IssuedAt == nil {
		c.IssuedAt = gojwt.NewNumericDate(now)
	}
	if c.ExpiresAt == nil {
		c.ExpiresAt = gojwt.NewNumericDate(now.Add(ttl))
	}
	if c.Issuer == "" {
		c.Issuer = issuer
	}
	if audience != "" && len(c.Audience) == 0 {
		c.Audience = gojwt.ClaimStrings{audience}
	}
}

// Session holds the current access token and the user decoded from it.
type Session struct {
	svc *jwt.Service[*Claims]

	mu     sync.RWMutex
	token  string
	claims *Claims
}

// NewSession creates a session and signs in with cfg's token, if any.
func NewSession(cfg Config) (*Session, error) {
	cfg.ApplyDefaults()
	svc, err := jwt.NewService(&cfg.JWT, func() *Claims { return &Claims{} })
	if err != nil {
		return nil, err
	}
	s := &Session{svc: svc}

	token := cfg.AccessToken
	if token == "" && cfg.TokenFile != "" {
		raw, err := os.ReadFile(cfg.TokenFile)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("auth: read token file: %w", err)
		}
		token = strings.TrimSpace(string(raw))
	}
	if token != "" {
		if err := s.SignIn(token); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// WithClock overrides the time source used for expiry checks.
func (s *Session) WithClock(now func() time.Time) *Session {
	s.svc.WithClock(now)
	return s
}

// SignIn replaces the current token after decoding it.
func (s *Session) SignIn(token string) error {
	claims, err := s.svc.Parse(token)
	if err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if claims.Subject == "" {
		return errors.New("auth: token has no subject")
	}
	s.mu.Lock()
	s.token, s.claims = token, claims
	s.mu.Unlock()
	return nil
}

// SignOut clears the session.
func (s *Session) SignOut() {
	s.mu.Lock()
	s.token, s.claims = "", nil
	s.mu.Unlock()
}

// CurrentUser returns the signed-in user while the token is still valid.
func (s *Session) CurrentUser() (User, bool) {
	s.mu.RLock()
	token, claims := s.token, s.claims
	s.mu.RUnlock()
	if claims == nil {
		return User{}, false
	}
	// Re-check expiry; a long-running process can outlive the token.
	if _, err := s.svc.Parse(token); err != nil {
		return User{}, false
	}
	return User{ID: claims.Subject, Email: claims.Email}, true
}

// Token returns the raw access token, or "" when signed out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Static is a fixed identity, used for local-only setups and tests.
type Static struct {
	User        User
	AccessToken string
}

// CurrentUser returns the fixed user when it has an ID.
func (s Static) CurrentUser() (User, bool) { return s.User, s.User.ID != "" }

// Token returns the fixed token.
func (s Static) Token() string { return s.AccessToken }

var (
	_ Provider = (*Session)(nil)
	_ Provider = Static{}
)
