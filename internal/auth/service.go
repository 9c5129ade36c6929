package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// --- Error Definitions ---
var (
	ErrInvalidToken    = errors.New("invalid or expired token")
	ErrTokenGeneration = errors.New("failed to generate session token")
)

// User is a stable identity issued by the provider. Anonymous identities
// are minted locally; token identities come from a deployment-supplied
// custom token.
type User struct {
	ID        string `json:"id"`
	Anonymous bool   `json:"anonymous"`
}

// Event notifies listeners of session state changes.
type Event struct {
	User     User
	SignedIn bool
}

// Subscription is a live auth-change listener handle.
type Subscription interface {
	Unsubscribe()
}

// Service is the identity provider capability: sign in (anonymously or with
// a custom token), obtain a stable user identifier plus a session token,
// and observe sign-in/sign-out transitions.
type Service interface {
	SignInAnonymous(ctx context.Context) (*User, string, error)
	SignInWithToken(ctx context.Context, customToken string) (*User, string, error)
	SignOut(ctx context.Context, userID string)
	// VerifySession validates a session token and returns its user.
	VerifySession(tokenString string) (*User, error)
	// OnAuthChange fires for every sign-in and sign-out until unsubscribed.
	OnAuthChange(cb func(Event)) Subscription
}

// jwtClaims defines the structure of both custom and session token payloads.
type jwtClaims struct {
	UID       string `json:"uid"`
	Anonymous bool   `json:"anon,omitempty"`
	jwt.RegisteredClaims
}

type service struct {
	jwtSecret         string
	sessionExpiration time.Duration

	mu         sync.Mutex
	listeners  map[int]func(Event)
	nextListen int
}

// NewService creates the identity provider.
func NewService(jwtSecret string, sessionExpiration time.Duration) Service {
	if jwtSecret == "" {
		panic("JWT secret cannot be empty") // Critical configuration
	}
	if sessionExpiration <= 0 {
		sessionExpiration = 24 * time.Hour
	}
	return &service{
		jwtSecret:         jwtSecret,
		sessionExpiration: sessionExpiration,
		listeners:         make(map[int]func(Event)),
	}
}

// SignInAnonymous mints a fresh stable anonymous identity and a session
// token for it.
func (s *service) SignInAnonymous(ctx context.Context) (*User, string, error) {
	user := &User{ID: uuid.NewString(), Anonymous: true}
	token, err := s.generateSessionToken(user)
	if err != nil {
		return nil, "", ErrTokenGeneration
	}
	s.notify(Event{User: *user, SignedIn: true})
	return user, token, nil
}

// SignInWithToken validates a deployment-supplied custom token and issues a
// session token for the identity it names.
func (s *service) SignInWithToken(ctx context.Context, customToken string) (*User, string, error) {
	claims, err := s.parseToken(customToken)
	if err != nil {
		return nil, "", err
	}
	user := &User{ID: claims.UID, Anonymous: false}
	token, err := s.generateSessionToken(user)
	if err != nil {
		return nil, "", ErrTokenGeneration
	}
	s.notify(Event{User: *user, SignedIn: true})
	return user, token, nil
}

// SignOut ends the identity's session. Listeners use this to release any
// per-user resources (store subscriptions in particular).
func (s *service) SignOut(ctx context.Context, userID string) {
	s.notify(Event{User: User{ID: userID}, SignedIn: false})
}

func (s *service) VerifySession(tokenString string) (*User, error) {
	claims, err := s.parseToken(tokenString)
	if err != nil {
		return nil, err
	}
	return &User{ID: claims.UID, Anonymous: claims.Anonymous}, nil
}

func (s *service) OnAuthChange(cb func(Event)) Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextListen++
	id := s.nextListen
	s.listeners[id] = cb
	return &listenerSubscription{svc: s, id: id}
}

func (s *service) notify(event Event) {
	s.mu.Lock()
	cbs := make([]func(Event), 0, len(s.listeners))
	for _, cb := range s.listeners {
		cbs = append(cbs, cb)
	}
	s.mu.Unlock()
	for _, cb := range cbs {
		cb(event)
	}
}

func (s *service) parseToken(tokenString string) (*jwtClaims, error) {
	claims := &jwtClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil || !token.Valid || claims.UID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *service) generateSessionToken(user *User) (string, error) {
	now := time.Now()
	claims := &jwtClaims{
		UID:       user.ID,
		Anonymous: user.Anonymous,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.sessionExpiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "health-tracker",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

type listenerSubscription struct {
	svc *service
	id  int
}

func (l *listenerSubscription) Unsubscribe() {
	l.svc.mu.Lock()
	defer l.svc.mu.Unlock()
	delete(l.svc.listeners, l.id)
}
