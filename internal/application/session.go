package application

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/hkdf"
)

const sessionKeyInfo = "orientation-hub session signing key"

// SessionClaims is the JWT payload of a session token.
type SessionClaims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
}

// SessionIssuer issues and validates HS256 session tokens. Revoked token ids
// are remembered in memory until they would have expired anyway.
type SessionIssuer struct {
	key    []byte
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger

	mu      sync.Mutex
	revoked map[string]time.Time
}

// NewSessionIssuer derives the signing key from secret with HKDF-SHA256.
func NewSessionIssuer(secret string, ttl time.Duration, now func() time.Time, logger *slog.Logger) (*SessionIssuer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("session secret is required")
	}
	if ttl <= 0 {
		return nil, errors.New("session ttl must be positive")
	}
	if now == nil {
		now = time.Now
	}

	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(sessionKeyInfo)), key); err != nil {
		return nil, fmt.Errorf("derive session key: %w", err)
	}

	return &SessionIssuer{
		key:     key,
		ttl:     ttl,
		now:     now,
		logger:  defaultLogger(logger),
		revoked: make(map[string]time.Time),
	}, nil
}

// Issue creates a signed token for username.
func (s *SessionIssuer) Issue(ctx context.Context, username string) (Session, error) {
	issuedAt := s.now()
	expiresAt := issuedAt.Add(s.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Username: username,
	})
	signed, err := token.SignedString(s.key)
	if err != nil {
		serviceLogger(ctx, s.logger, "SessionIssuer", "Issue", "username", username).
			ErrorContext(ctx, "failed to sign session token", "error", err)
		return Session{}, fmt.Errorf("sign session token: %w", err)
	}
	return Session{Token: signed, Username: username, ExpiresAt: expiresAt}, nil
}

// Validate returns the username carried by a valid, unrevoked token.
func (s *SessionIssuer) Validate(ctx context.Context, token string) (string, error) {
	claims, err := s.parse(token)
	if err != nil {
		serviceLogger(ctx, s.logger, "SessionIssuer", "Validate").
			InfoContext(ctx, "session token rejected", "error", err)
		return "", err
	}

	s.mu.Lock()
	_, revoked := s.revoked[claims.ID]
	s.mu.Unlock()
	if revoked {
		return "", fmt.Errorf("session revoked: %w", ErrUnauthorized)
	}
	return claims.Username, nil
}

// Revoke invalidates a token until its natural expiry.
func (s *SessionIssuer) Revoke(ctx context.Context, token string) error {
	claims, err := s.parse(token)
	if err != nil {
		return err
	}

	now := s.now()
	s.mu.Lock()
	for id, expiry := range s.revoked {
		if !expiry.After(now) {
			delete(s.revoked, id)
		}
	}
	s.revoked[claims.ID] = claims.ExpiresAt.Time
	s.mu.Unlock()

	serviceLogger(ctx, s.logger, "SessionIssuer", "Revoke", "username", claims.Username).
		InfoContext(ctx, "session revoked")
	return nil
}

func (s *SessionIssuer) parse(token string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("parse session token: %w: %w", ErrUnauthorized, err)
	}
	if !parsed.Valid || claims.Username == "" || claims.ID == "" {
		return nil, fmt.Errorf("invalid session token: %w", ErrUnauthorized)
	}
	return claims, nil
}
