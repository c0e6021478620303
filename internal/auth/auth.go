// Package auth manages the single Super Admin credential and the login
// session. Both live in an injected blob storage, mirroring the two
// snapshots the browser app kept; the stored password is bcrypt-hashed
// rather than clear text.
package auth

import (
	"errors"
	"fmt"
	"hostmaster/internal/localstore"
	"hostmaster/internal/models"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Default credential seeded on first run.
const (
	DefaultAdminEmail    = "admin@hostmaster.com"
	DefaultAdminPassword = "admin123"
	defaultAdminName     = "Super Admin"
	defaultAdminAvatar   = "https://ui-avatars.com/api/?name=Super+Admin&background=4f46e5&color=fff"
)

var (
	// ErrInvalidCredentials is returned by Login on any mismatch.
	ErrInvalidCredentials = errors.New("invalid credentials, please check your email and password")
	// ErrIncorrectPassword is returned by ChangePassword when the
	// current password does not match.
	ErrIncorrectPassword = errors.New("current password incorrect")
	// ErrNoSession is returned when no user is logged in.
	ErrNoSession = errors.New("no active session")
)

// JWT secret key - should come from the environment in production
var jwtSecret = []byte("hostmaster-session-secret-change-in-production")

// Storage is the blob store the manager persists through.
// localstore.Store satisfies it.
type Storage interface {
	Write(key string, v any) error
	Read(key string, v any) error
	Delete(key string) error
}

// AdminCredential is the persistent Super Admin record.
type AdminCredential struct {
	Email        string `json:"email"`
	PasswordHash string `json:"passwordHash"`
	Name         string `json:"name"`
	Role         string `json:"role"`
	Avatar       string `json:"avatar,omitempty"`
}

// Session is the stored copy of the authenticated user plus a signed
// token proving when it was issued.
type Session struct {
	User  models.User `json:"user"`
	Token string      `json:"token"`
}

// Claims represents session token claims
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// ProfilePatch carries the fields UpdateProfile may change.
type ProfilePatch struct {
	Name   *string
	Email  *string
	Avatar *string
}

// Manager owns credential and session state.
type Manager struct {
	store Storage
}

// NewManager creates a manager and seeds the default admin credential if
// none has been stored yet.
func NewManager(store Storage) (*Manager, error) {
	m := &Manager{store: store}

	var existing AdminCredential
	err := store.Read(localstore.KeyAdminCredentials, &existing)
	if err == nil {
		return m, nil
	}
	if !errors.Is(err, localstore.ErrNotFound) {
		return nil, err
	}

	hash, err := HashPassword(DefaultAdminPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to hash default admin password: %w", err)
	}

	admin := AdminCredential{
		Email:        DefaultAdminEmail,
		PasswordHash: hash,
		Name:         defaultAdminName,
		Role:         "Admin",
		Avatar:       defaultAdminAvatar,
	}
	if err := store.Write(localstore.KeyAdminCredentials, &admin); err != nil {
		return nil, fmt.Errorf("failed to seed default admin: %w", err)
	}

	return m, nil
}

// Login succeeds only for the exact stored email/password pair. On
// success the session blob is written and the user returned.
func (m *Manager) Login(email, password string) (*models.User, error) {
	var admin AdminCredential
	if err := m.store.Read(localstore.KeyAdminCredentials, &admin); err != nil {
		return nil, ErrInvalidCredentials
	}

	if email != admin.Email || !CheckPassword(admin.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	user := models.User{
		ID:     "admin-1",
		Name:   admin.Name,
		Email:  admin.Email,
		Role:   "Admin",
		Avatar: admin.Avatar,
	}

	token, err := generateToken(&user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	if err := m.store.Write(localstore.KeyUserSession, &Session{User: user, Token: token}); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	return &user, nil
}

// Signup replaces the stored admin credential and starts a session for
// the new identity. Only one Super Admin exists at a time.
func (m *Manager) Signup(name, email, password string) (*models.User, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	admin := AdminCredential{
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Role:         "Admin",
	}
	if err := m.store.Write(localstore.KeyAdminCredentials, &admin); err != nil {
		return nil, fmt.Errorf("failed to store credential: %w", err)
	}

	user := models.User{
		ID:    strconv.FormatInt(time.Now().UnixMilli(), 10),
		Name:  name,
		Email: email,
		Role:  "Admin",
	}

	token, err := generateToken(&user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}
	if err := m.store.Write(localstore.KeyUserSession, &Session{User: user, Token: token}); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	return &user, nil
}

// CurrentUser returns the logged-in user when the stored session token
// is still valid.
func (m *Manager) CurrentUser() (*models.User, error) {
	var session Session
	if err := m.store.Read(localstore.KeyUserSession, &session); err != nil {
		return nil, ErrNoSession
	}
	if _, err := validateToken(session.Token); err != nil {
		return nil, ErrNoSession
	}
	return &session.User, nil
}

// Logout clears only the session; the credential stays.
func (m *Manager) Logout() error {
	return m.store.Delete(localstore.KeyUserSession)
}

// UpdateProfile merges the patch onto both the session user and the
// persistent credential record.
func (m *Manager) UpdateProfile(patch ProfilePatch) (*models.User, error) {
	var session Session
	if err := m.store.Read(localstore.KeyUserSession, &session); err != nil {
		return nil, ErrNoSession
	}

	var admin AdminCredential
	if err := m.store.Read(localstore.KeyAdminCredentials, &admin); err != nil {
		return nil, fmt.Errorf("failed to read credential: %w", err)
	}

	if patch.Name != nil {
		session.User.Name = *patch.Name
		admin.Name = *patch.Name
	}
	if patch.Email != nil {
		session.User.Email = *patch.Email
		admin.Email = *patch.Email
	}
	if patch.Avatar != nil {
		session.User.Avatar = *patch.Avatar
		admin.Avatar = *patch.Avatar
	}

	if err := m.store.Write(localstore.KeyUserSession, &session); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}
	if err := m.store.Write(localstore.KeyAdminCredentials, &admin); err != nil {
		return nil, fmt.Errorf("failed to store credential: %w", err)
	}

	return &session.User, nil
}

// ChangePassword verifies the current password and overwrites it with
// the new one. On mismatch the stored credential is left untouched.
func (m *Manager) ChangePassword(current, next string) error {
	var admin AdminCredential
	if err := m.store.Read(localstore.KeyAdminCredentials, &admin); err != nil {
		return fmt.Errorf("failed to read credential: %w", err)
	}

	if !CheckPassword(admin.PasswordHash, current) {
		return ErrIncorrectPassword
	}

	hash, err := HashPassword(next)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	admin.PasswordHash = hash
	return m.store.Write(localstore.KeyAdminCredentials, &admin)
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPassword compares hashed password with plain password
func CheckPassword(hashedPassword, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	return err == nil
}

// generateToken generates a session token for a user
func generateToken(user *models.User) (string, error) {
	// Token expires in 7 days
	expirationTime := time.Now().Add(7 * 24 * time.Hour)

	claims := &Claims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "hostmaster",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

// validateToken validates a session token and returns its claims
func validateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return jwtSecret, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}
