// Package auth guards the administrator surface: password login against a
// bcrypt hash, HS256 session tokens, and the session check every admin
// operation performs before touching the log.
package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/runnerr0/guestbook/internal/config"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrLoginDisabled      = errors.New("admin login is disabled: no password hash configured")
	ErrUnauthorized       = errors.New("admin session required")
)

const issuer = "guestbook"

// Session is an authenticated administrator.
type Session struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Valid reports whether the session is still usable at now. A zero
// ExpiresAt never expires.
func (s *Session) Valid(now time.Time) bool {
	if s == nil || s.Username == "" {
		return false
	}
	return s.ExpiresAt.IsZero() || now.Before(s.ExpiresAt)
}

// LocalSession is the session held by an operator on the host itself, such
// as the command-line tools. It never expires.
func LocalSession(username string) *Session {
	return &Session{ID: "local", Username: username, IssuedAt: time.Now()}
}

// RequireSession returns ErrUnauthorized unless sess is valid now.
func RequireSession(sess *Session) error {
	if !sess.Valid(time.Now()) {
		return ErrUnauthorized
	}
	return nil
}

// Claims are the JWT claims of a session token.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Authenticator issues and verifies session tokens for the single
// configured administrator.
type Authenticator struct {
	username string
	hash     []byte
	secret   []byte
	ttl      time.Duration
	now      func() time.Time

	mu      sync.Mutex
	revoked map[string]time.Time // token ID -> expiry
}

// New builds an Authenticator. When no token secret is configured a random
// one is generated, so tokens do not survive a restart.
func New(cfg config.AdminConfig) (*Authenticator, error) {
	secret := []byte(cfg.TokenSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("generate token secret: %w", err)
		}
	}
	ttl := time.Duration(cfg.TokenTTLMinutes) * time.Minute
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &Authenticator{
		username: cfg.Username,
		hash:     []byte(cfg.PasswordHash),
		secret:   secret,
		ttl:      ttl,
		now:      time.Now,
		revoked:  make(map[string]time.Time),
	}, nil
}

// Enabled reports whether a password hash is configured.
func (a *Authenticator) Enabled() bool {
	return len(a.hash) > 0
}

// Login checks the credentials and returns a new session with its signed
// token.
func (a *Authenticator) Login(username, password string) (*Session, string, error) {
	if !a.Enabled() {
		return nil, "", ErrLoginDisabled
	}
	if username != a.username {
		// Burn the same time as a real comparison.
		_ = bcrypt.CompareHashAndPassword(a.hash, []byte(password))
		return nil, "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(a.hash, []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	now := a.now()
	sess := &Session{
		ID:        uuid.NewString(),
		Username:  username,
		IssuedAt:  now.Truncate(time.Second),
		ExpiresAt: now.Add(a.ttl).Truncate(time.Second),
	}
	claims := &Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sess.ID,
			Issuer:    issuer,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(sess.IssuedAt),
			NotBefore: jwt.NewNumericDate(sess.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return nil, "", fmt.Errorf("sign token: %w", err)
	}
	return sess, token, nil
}

// Verify parses a session token. Any failure is reported as
// ErrUnauthorized wrapping the cause.
func (a *Authenticator) Verify(token string) (*Session, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(a.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	if !parsed.Valid || claims.Username != a.username {
		return nil, ErrUnauthorized
	}

	a.mu.Lock()
	_, revoked := a.revoked[claims.ID]
	a.mu.Unlock()
	if revoked {
		return nil, fmt.Errorf("%w: session logged out", ErrUnauthorized)
	}

	sess := &Session{ID: claims.ID, Username: claims.Username}
	if claims.IssuedAt != nil {
		sess.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		sess.ExpiresAt = claims.ExpiresAt.Time
	}
	return sess, nil
}

// Logout revokes a session until its token would have expired anyway.
func (a *Authenticator) Logout(sess *Session) {
	if sess == nil || sess.ID == "" {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now()
	for id, exp := range a.revoked {
		if !exp.After(now) {
			delete(a.revoked, id)
		}
	}
	a.revoked[sess.ID] = sess.ExpiresAt
}

// HashPassword returns the bcrypt hash stored in the config file.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password must not be empty")
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}
