// Package session is the explicit application context: who is signed in,
// the token sent to the backend, and what has to be torn down on logout.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"hairsby-console/internal/domain"
	"hairsby-console/internal/notify"
	"hairsby-console/internal/store"
)

var (
	ErrNotSignedIn  = errors.New("session: not signed in")
	ErrTokenExpired = errors.New("session: token expired")
	ErrInvalidToken = errors.New("session: invalid token")
)

// Claims is the part of the backend-issued token the console reads. The
// signature is verified by the backend on every call, not here.
type Claims struct {
	jwt.RegisteredClaims
	Role       string `json:"role"`
	BusinessID string `json:"businessId,omitempty"`
	Name       string `json:"name,omitempty"`
}

// Info describes the current session for the UI.
type Info struct {
	SignedIn   bool        `json:"signedIn"`
	Role       domain.Role `json:"role,omitempty"`
	UserID     string      `json:"userId,omitempty"`
	ProviderID string      `json:"providerId,omitempty"`
	Name       string      `json:"name,omitempty"`
	ExpiresAt  *time.Time  `json:"expiresAt,omitempty"`
}

// Context replaces the global auth context and toast singleton. It is
// created once in main and passed to whatever needs it.
type Context struct {
	store    store.SessionStorer
	notifier *notify.Notifier
	logger   *zap.Logger
	now      func() time.Time

	mu        sync.RWMutex
	token     string
	actor     domain.Actor
	name      string
	expiresAt time.Time

	hooksMu  sync.Mutex
	teardown []func()
}

func New(st store.SessionStorer, n *notify.Notifier, logger *zap.Logger) *Context {
	if logger == nil {
		logger = zap.NewNop()
	}
	if n == nil {
		n = notify.New(50, logger)
	}
	return &Context{store: st, notifier: n, logger: logger.Named("session"), now: time.Now}
}

func (c *Context) Notifier() *notify.Notifier { return c.notifier }

// OnLogout registers fn to run, in registration order, after every logout.
func (c *Context) OnLogout(fn func()) {
	c.hooksMu.Lock()
	c.teardown = append(c.teardown, fn)
	c.hooksMu.Unlock()
}

// Hydrate restores the persisted session, if any. An expired or unreadable
// token is discarded.
func (c *Context) Hydrate(ctx context.Context) (Info, error) {
	rec, err := c.store.LoadSession(ctx)
	if errors.Is(err, store.ErrSessionNotFound) {
		return Info{}, nil
	}
	if err != nil {
		return Info{}, fmt.Errorf("session: load: %w", err)
	}
	info, err := c.apply(rec.Token)
	if err != nil {
		c.logger.Info("discarding saved session", zap.Error(err))
		if derr := c.store.DeleteSession(ctx); derr != nil {
			c.logger.Warn("could not delete saved session", zap.Error(derr))
		}
		return Info{}, err
	}
	c.logger.Info("session hydrated", zap.String("role", string(info.Role)), zap.String("user", info.UserID))
	return info, nil
}

// Login starts a session from a backend-issued token and persists it.
func (c *Context) Login(ctx context.Context, token string) (Info, error) {
	info, err := c.apply(token)
	if err != nil {
		return Info{}, err
	}
	if err := c.store.SaveSession(ctx, store.SessionRecord{Token: token, SavedAt: c.now().UTC()}); err != nil {
		c.logger.Error("persisting session failed", zap.Error(err))
		return info, fmt.Errorf("session: save: %w", err)
	}
	c.logger.Info("signed in", zap.String("role", string(info.Role)), zap.String("user", info.UserID))
	return info, nil
}

func (c *Context) apply(token string) (Info, error) {
	actor, claims, err := parseToken(token, c.now())
	if err != nil {
		return Info{}, err
	}
	c.mu.Lock()
	c.token = token
	c.actor = actor
	c.name = claims.Name
	c.expiresAt = time.Time{}
	if claims.ExpiresAt != nil {
		c.expiresAt = claims.ExpiresAt.Time
	}
	c.mu.Unlock()
	return c.Info(), nil
}

// Logout clears the context, forgets the persisted session and runs the
// teardown hooks.
func (c *Context) Logout(ctx context.Context) error {
	c.mu.Lock()
	c.token = ""
	c.actor = nil
	c.name = ""
	c.expiresAt = time.Time{}
	c.mu.Unlock()

	c.hooksMu.Lock()
	hooks := append([]func(){}, c.teardown...)
	c.hooksMu.Unlock()
	for _, fn := range hooks {
		fn()
	}
	c.notifier.Clear()

	if err := c.store.DeleteSession(ctx); err != nil {
		return fmt.Errorf("session: delete: %w", err)
	}
	c.logger.Info("signed out")
	return nil
}

// Token is the bearer token for backend calls, empty when signed out.
func (c *Context) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.expiredLocked() {
		return ""
	}
	return c.token
}

func (c *Context) Actor() (domain.Actor, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.actor == nil {
		return nil, ErrNotSignedIn
	}
	if c.expiredLocked() {
		return nil, ErrTokenExpired
	}
	return c.actor, nil
}

// Provider returns the signed-in provider. Customers get domain.ErrNotProvider.
func (c *Context) Provider() (domain.Provider, error) {
	a, err := c.Actor()
	if err != nil {
		return nil, err
	}
	return domain.AsProvider(a)
}

func (c *Context) Info() Info {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.actor == nil || c.expiredLocked() {
		return Info{}
	}
	info := Info{SignedIn: true, Role: c.actor.Role(), UserID: c.actor.UserID(), Name: c.name}
	if p, ok := c.actor.(domain.Provider); ok {
		info.ProviderID = p.ProviderID()
	}
	if !c.expiresAt.IsZero() {
		exp := c.expiresAt
		info.ExpiresAt = &exp
	}
	return info
}

func (c *Context) expiredLocked() bool {
	return !c.expiresAt.IsZero() && !c.now().Before(c.expiresAt)
}

// parseToken reads the claims and maps them onto an actor. Business
// employees carry their own id as subject and the business in businessId.
func parseToken(token string, now time.Time) (domain.Actor, *Claims, error) {
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	if token == "" {
		return nil, nil, ErrInvalidToken
	}
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.ExpiresAt != nil && !now.Before(claims.ExpiresAt.Time) {
		return nil, nil, ErrTokenExpired
	}
	role, err := domain.ParseRole(claims.Role)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	id, employeeID := claims.Subject, ""
	if role == domain.RoleBusiness && claims.BusinessID != "" && claims.BusinessID != claims.Subject {
		id, employeeID = claims.BusinessID, claims.Subject
	}
	actor, err := domain.NewActor(role, id, employeeID)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if biz, ok := actor.(domain.Business); ok && biz.Employee != nil {
		biz.Employee.Name = claims.Name
		actor = biz
	}
	return actor, claims, nil
}
