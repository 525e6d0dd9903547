package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/flicky/agri-backoffice/internal/dto"
	"github.com/flicky/agri-backoffice/internal/model"
	"github.com/flicky/agri-backoffice/internal/repository"
)

// Sign-in failure codes.
const (
	CodeUserNotFound    = "auth/user-not-found"
	CodeWrongPassword   = "auth/wrong-password"
	CodeInvalidEmail    = "auth/invalid-email"
	CodeUserDisabled    = "auth/user-disabled"
	CodeTooManyRequests = "auth/too-many-requests"
)

const (
	AccessDeniedMessage = "Accès refusé. Vous n'êtes pas administrateur."
	defaultLoginMessage = "Erreur de connexion"
	ViewLogin           = "login"
	ViewShell           = "shell"
	DefaultShellSection = "dashboard"
)

var authMessages = map[string]string{
	CodeUserNotFound:    "Utilisateur non trouvé",
	CodeWrongPassword:   "Mot de passe incorrect",
	CodeInvalidEmail:    "Email invalide",
	CodeUserDisabled:    "Compte désactivé",
	CodeTooManyRequests: "Trop de tentatives. Réessayez plus tard",
}

// MessageFor returns the operator-facing message for a sign-in failure code.
func MessageFor(code string) string {
	if msg, ok := authMessages[code]; ok {
		return msg
	}
	return defaultLoginMessage
}

// AuthError is a sign-in failure carrying its provider-style code.
type AuthError struct {
	Code string
}

func (e *AuthError) Error() string { return e.Code }

func (e *AuthError) Message() string { return MessageFor(e.Code) }

type SessionEventType string

const (
	SessionSignedIn  SessionEventType = "signed_in"
	SessionSignedOut SessionEventType = "signed_out"
	SessionDenied    SessionEventType = "denied"
)

type SessionEvent struct {
	Type    SessionEventType
	UserID  string
	Message string
	At      time.Time
}

// Principal is an authenticated administrator.
type Principal struct {
	User      *model.User
	TokenID   string
	ExpiresAt time.Time
}

type SessionConfig struct {
	Secret            string
	TTL               time.Duration
	MaxFailedAttempts int64
	LockoutWindow     time.Duration
}

type SessionGate struct {
	users    repository.UserRepository
	sessions repository.SessionStore
	cfg      SessionConfig
	secret   []byte
	log      *zap.Logger
	now      func() time.Time

	mu        sync.RWMutex
	listeners map[int]func(SessionEvent)
	nextID    int
}

func NewSessionGate(users repository.UserRepository, sessions repository.SessionStore, cfg SessionConfig, log *zap.Logger) *SessionGate {
	if log == nil {
		log = zap.NewNop()
	}
	return &SessionGate{
		users:     users,
		sessions:  sessions,
		cfg:       cfg,
		secret:    []byte(cfg.Secret),
		log:       log,
		now:       time.Now,
		listeners: make(map[int]func(SessionEvent)),
	}
}

// OnChange registers a listener for sign-in, sign-out and denial events.
// The returned function removes it.
func (g *SessionGate) OnChange(fn func(SessionEvent)) func() {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.nextID
	g.nextID++
	g.listeners[id] = fn
	return func() {
		g.mu.Lock()
		delete(g.listeners, id)
		g.mu.Unlock()
	}
}

func (g *SessionGate) emit(typ SessionEventType, userID, msg string) {
	evt := SessionEvent{Type: typ, UserID: userID, Message: msg, At: g.now()}
	g.mu.RLock()
	fns := make([]func(SessionEvent), 0, len(g.listeners))
	for _, fn := range g.listeners {
		fns = append(fns, fn)
	}
	g.mu.RUnlock()
	for _, fn := range fns {
		fn(evt)
	}
}

func (g *SessionGate) SignIn(ctx context.Context, req dto.SignInRequest) (*dto.SessionResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !validEmail(email) {
		return nil, &AuthError{Code: CodeInvalidEmail}
	}

	failures, err := g.sessions.Failures(ctx, email)
	if err != nil {
		g.log.Warn("read sign-in failures", zap.Error(err))
	}
	if g.cfg.MaxFailedAttempts > 0 && failures >= g.cfg.MaxFailedAttempts {
		return nil, &AuthError{Code: CodeTooManyRequests}
	}

	user, err := g.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		g.recordFailure(ctx, email)
		return nil, &AuthError{Code: CodeUserNotFound}
	}
	if user.Disabled {
		return nil, &AuthError{Code: CodeUserDisabled}
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		g.recordFailure(ctx, email)
		return nil, &AuthError{Code: CodeWrongPassword}
	}
	if err := g.sessions.ClearFailures(ctx, email); err != nil {
		g.log.Warn("clear sign-in failures", zap.Error(err))
	}

	token, tokenID, expiresAt, err := g.issueToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	admin, ok := g.checkAdmin(ctx, user.ID)
	if !ok {
		g.forceSignOut(ctx, user.ID, tokenID, expiresAt)
		return nil, ErrAccessDenied
	}

	g.emit(SessionSignedIn, admin.ID, "")
	return &dto.SessionResponse{Token: token, ExpiresAt: expiresAt, User: toUserResponse(admin)}, nil
}

func (g *SessionGate) SignOut(ctx context.Context, token string) error {
	claims, err := g.parseToken(token)
	if err != nil {
		return ErrUnauthenticated
	}
	if err := g.sessions.Revoke(ctx, claims.ID, g.remaining(claims)); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	g.emit(SessionSignedOut, claims.Subject, "")
	return nil
}

// Authenticate validates a bearer token and re-checks administrator rights.
// A session whose user is no longer an administrator is revoked.
func (g *SessionGate) Authenticate(ctx context.Context, token string) (*Principal, error) {
	claims, err := g.parseToken(token)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	revoked, err := g.sessions.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check session: %w", err)
	}
	if revoked {
		return nil, ErrUnauthenticated
	}

	expiresAt := claims.ExpiresAt.Time
	user, ok := g.checkAdmin(ctx, claims.Subject)
	if !ok {
		g.forceSignOut(ctx, claims.Subject, claims.ID, expiresAt)
		return nil, ErrAccessDenied
	}
	return &Principal{User: user, TokenID: claims.ID, ExpiresAt: expiresAt}, nil
}

// Resolve decides which top-level view a caller holding token should see.
func (g *SessionGate) Resolve(ctx context.Context, token string) dto.SessionDecision {
	if token == "" {
		return dto.SessionDecision{View: ViewLogin}
	}
	p, err := g.Authenticate(ctx, token)
	switch {
	case err == nil:
		u := toUserResponse(p.User)
		return dto.SessionDecision{View: ViewShell, Section: DefaultShellSection, User: &u}
	case errors.Is(err, ErrAccessDenied):
		return dto.SessionDecision{View: ViewLogin, Message: AccessDeniedMessage}
	default:
		return dto.SessionDecision{View: ViewLogin}
	}
}

// checkAdmin fails closed: lookup errors and missing users are not admins.
func (g *SessionGate) checkAdmin(ctx context.Context, userID string) (*model.User, bool) {
	user, err := g.users.GetByID(ctx, userID)
	if err != nil {
		g.log.Error("check admin status", zap.String("user_id", userID), zap.Error(err))
		return nil, false
	}
	if user == nil || user.Disabled || !user.HasAdminRights() {
		return nil, false
	}
	return user, true
}

func (g *SessionGate) forceSignOut(ctx context.Context, userID, tokenID string, expiresAt time.Time) {
	if err := g.sessions.Revoke(ctx, tokenID, expiresAt.Sub(g.now())); err != nil {
		g.log.Error("revoke denied session", zap.String("user_id", userID), zap.Error(err))
	}
	g.emit(SessionDenied, userID, AccessDeniedMessage)
	g.emit(SessionSignedOut, userID, "")
}

func (g *SessionGate) recordFailure(ctx context.Context, email string) {
	if _, err := g.sessions.RecordFailure(ctx, email, g.cfg.LockoutWindow); err != nil {
		g.log.Warn("record sign-in failure", zap.Error(err))
	}
}

func (g *SessionGate) issueToken(userID string) (string, string, time.Time, error) {
	now := g.now()
	expiresAt := now.Add(g.cfg.TTL)
	tokenID := uuid.NewString()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		ID:        tokenID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
	if err != nil {
		return "", "", time.Time{}, err
	}
	return signed, tokenID, expiresAt, nil
}

func (g *SessionGate) parseToken(token string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return g.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(g.now),
	)
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" || claims.ID == "" {
		return nil, errors.New("token missing subject or id")
	}
	return claims, nil
}

func (g *SessionGate) remaining(claims *jwt.RegisteredClaims) time.Duration {
	return claims.ExpiresAt.Time.Sub(g.now())
}

func validEmail(email string) bool {
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

func toUserResponse(u *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID:                 u.ID,
		Name:               u.Name,
		Email:              u.Email,
		Phone:              u.Phone,
		Region:             u.Region,
		AgroEcologicalZone: u.AgroEcologicalZone,
		Address:            u.Address,
		Role:               u.EffectiveRole(),
		IsAdmin:            u.IsAdmin,
		Disabled:           u.Disabled,
		CreatedAt:          u.CreatedAt,
	}
}
