// Package auth implements the authentication collaborator: user
// registration with bcrypt password hashing, login issuing HS256
// signed tokens, and token verification. The framework consumes it as
// an ordinary middleware unit; see RequireAuth.
package auth

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/cmayhew/weft/pkg/web"
)

// Sentinel errors.
var (
	ErrUserExists         = errors.New("username already registered")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid token")
)

// Service holds registered credentials and signs and verifies tokens.
// The signing secret is an explicit constructor parameter, never
// ambient process state.
type Service struct {
	secret   []byte
	tokenTTL time.Duration

	mu    sync.RWMutex
	users map[string][]byte // username -> bcrypt hash
}

// NewService creates an auth service signing tokens with secret and
// issuing them with the given lifetime.
func NewService(secret []byte, tokenTTL time.Duration) *Service {
	return &Service{
		secret:   secret,
		tokenTTL: tokenTTL,
		users:    make(map[string][]byte),
	}
}

// Register stores a new user with a bcrypt-hashed password. Returns
// ErrUserExists when the username is taken.
func (s *Service) Register(username, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[username]; ok {
		return ErrUserExists
	}
	s.users[username] = hash
	return nil
}

// Login checks the credentials and returns a signed token on success,
// or ErrInvalidCredentials.
func (s *Service) Login(username, password string) (string, error) {
	s.mu.RLock()
	hash, ok := s.users[username]
	s.mu.RUnlock()

	if !ok || bcrypt.CompareHashAndPassword(hash, []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": username,
		"iat": now.Unix(),
		"exp": now.Add(s.tokenTTL).Unix(),
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify validates a token and returns the principal it identifies,
// or ErrInvalidToken for anything malformed, expired, or forged.
func (s *Service) Verify(tokenStr string) (*web.Principal, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	subject, _ := claims["sub"].(string)
	if subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return &web.Principal{Subject: subject}, nil
}
