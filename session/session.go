package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Dosada05/tournament-calendar/config"
	"github.com/golang-jwt/jwt/v4"
)

// TokenProvider supplies the bearer token of the current user.
// An empty token with a nil error means the viewer is anonymous.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// Session is the explicit identity context handed to the components that
// need it. It lives from application start until SignOut.
type Session struct {
	mu     sync.RWMutex
	token  string
	userID string

	// signing mode: a locally minted HS256 token for development backends
	secret   []byte
	ttl      time.Duration
	expireAt time.Time

	now func() time.Time

	hookMu   sync.Mutex
	hooks    map[int]func()
	nextHook int
}

// Anonymous returns a session with no identity.
func Anonymous() *Session {
	return &Session{now: time.Now}
}

// New builds the session from configuration. A static token is used as is;
// a JWT secret switches to minting tokens for cfg.UserID.
func New(cfg config.SessionConfig) (*Session, error) {
	s := Anonymous()
	switch {
	case cfg.Token != "":
		if err := s.SignIn(cfg.Token); err != nil {
			return nil, err
		}
		if cfg.UserID != "" {
			s.userID = cfg.UserID
		}
	case cfg.JWTSecret != "":
		if cfg.UserID == "" {
			return nil, errors.New("session user id is required to mint tokens")
		}
		ttl := cfg.TokenTTL
		if ttl <= 0 {
			ttl = time.Hour
		}
		s.secret = []byte(cfg.JWTSecret)
		s.ttl = ttl
		s.userID = cfg.UserID
	}
	return s, nil
}

// Token implements TokenProvider.
func (s *Session) Token(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.RLock()
	if s.secret == nil || (s.token != "" && s.now().Add(time.Minute).Before(s.expireAt)) {
		token := s.token
		s.mu.RUnlock()
		return token, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.secret == nil {
		return s.token, nil
	}
	now := s.now()
	claims := jwt.MapClaims{
		jwtClaimUserID:  s.userID,
		jwtClaimSubject: s.userID,
		"iat":           now.Unix(),
		"exp":           now.Add(s.ttl).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	s.token = signed
	s.expireAt = now.Add(s.ttl)
	return signed, nil
}

// SignIn replaces the current identity with token.
func (s *Session) SignIn(token string) error {
	userID, err := UserIDFromToken(token)
	if err != nil {
		return err
	}
	s.mu.Lock()
	changed := s.userID != userID
	s.token = token
	s.userID = userID
	s.secret = nil
	s.expireAt = time.Time{}
	s.mu.Unlock()

	if changed {
		s.identityChanged()
	}
	return nil
}

// SignOut drops the identity; later Token calls return "".
func (s *Session) SignOut() {
	s.mu.Lock()
	had := s.token != "" || s.userID != "" || s.secret != nil
	s.token = ""
	s.userID = ""
	s.secret = nil
	s.expireAt = time.Time{}
	s.mu.Unlock()

	if had {
		s.identityChanged()
	}
}

// OnIdentityChange registers fn to run after the signed-in user changes,
// whether through SignIn or SignOut. A token refresh for the same user does
// not count. The returned func removes the hook.
func (s *Session) OnIdentityChange(fn func()) func() {
	s.hookMu.Lock()
	defer s.hookMu.Unlock()
	if s.hooks == nil {
		s.hooks = make(map[int]func())
	}
	id := s.nextHook
	s.nextHook++
	s.hooks[id] = fn
	return func() {
		s.hookMu.Lock()
		delete(s.hooks, id)
		s.hookMu.Unlock()
	}
}

func (s *Session) identityChanged() {
	s.hookMu.Lock()
	fns := make([]func(), 0, len(s.hooks))
	for _, fn := range s.hooks {
		fns = append(fns, fn)
	}
	s.hookMu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (s *Session) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != "" || s.secret != nil
}

// Current returns the held token without minting a new one.
func (s *Session) Current() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}
