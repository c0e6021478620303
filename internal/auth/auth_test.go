package auth

import (
	"hostmaster/internal/localstore"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) (*Manager, *localstore.Store) {
	t.Helper()
	store, err := localstore.New(t.TempDir())
	require.NoError(t, err)
	m, err := NewManager(store)
	require.NoError(t, err)
	return m, store
}

func TestDefaultAdminSeededOnFirstRun(t *testing.T) {
	m, _ := newTestManager(t)

	user, err := m.Login(DefaultAdminEmail, DefaultAdminPassword)
	require.NoError(t, err)
	assert.Equal(t, "Super Admin", user.Name)
	assert.Equal(t, "Admin", user.Role)
	assert.Equal(t, DefaultAdminEmail, user.Email)
}

func TestSeedDoesNotOverwriteExistingCredential(t *testing.T) {
	m, store := newTestManager(t)
	_, err := m.Signup("Jo", "jo@example.com", "secret99")
	require.NoError(t, err)

	// A second manager over the same store must not re-seed defaults
	m2, err := NewManager(store)
	require.NoError(t, err)

	_, err = m2.Login(DefaultAdminEmail, DefaultAdminPassword)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	user, err := m2.Login("jo@example.com", "secret99")
	require.NoError(t, err)
	assert.Equal(t, "Jo", user.Name)
}

func TestLoginRejectsWrongCredentials(t *testing.T) {
	m, _ := newTestManager(t)

	_, err := m.Login(DefaultAdminEmail, "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = m.Login("someone@else.com", DefaultAdminPassword)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// Failed logins must not create a session
	_, err = m.CurrentUser()
	assert.ErrorIs(t, err, ErrNoSession)

	// And must not alter the stored credential
	user, err := m.Login(DefaultAdminEmail, DefaultAdminPassword)
	require.NoError(t, err)
	assert.Equal(t, DefaultAdminEmail, user.Email)
}

func TestLogoutClearsOnlySession(t *testing.T) {
	m, _ := newTestManager(t)

	_, err := m.Login(DefaultAdminEmail, DefaultAdminPassword)
	require.NoError(t, err)

	user, err := m.CurrentUser()
	require.NoError(t, err)
	assert.Equal(t, DefaultAdminEmail, user.Email)

	require.NoError(t, m.Logout())

	_, err = m.CurrentUser()
	assert.ErrorIs(t, err, ErrNoSession)

	// Credential survives: login works again
	_, err = m.Login(DefaultAdminEmail, DefaultAdminPassword)
	assert.NoError(t, err)
}

func TestChangePasswordWrongCurrentLeavesStateUnchanged(t *testing.T) {
	m, _ := newTestManager(t)

	err := m.ChangePassword("not-the-password", "next123")
	assert.ErrorIs(t, err, ErrIncorrectPassword)

	// Old password still valid, new one is not
	_, err = m.Login(DefaultAdminEmail, DefaultAdminPassword)
	assert.NoError(t, err)
	_, err = m.Login(DefaultAdminEmail, "next123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestChangePasswordSuccess(t *testing.T) {
	m, _ := newTestManager(t)

	require.NoError(t, m.ChangePassword(DefaultAdminPassword, "next123"))

	_, err := m.Login(DefaultAdminEmail, DefaultAdminPassword)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = m.Login(DefaultAdminEmail, "next123")
	assert.NoError(t, err)
}

func TestStoredPasswordIsHashed(t *testing.T) {
	_, store := newTestManager(t)

	var admin AdminCredential
	require.NoError(t, store.Read(localstore.KeyAdminCredentials, &admin))
	assert.NotEqual(t, DefaultAdminPassword, admin.PasswordHash)
	assert.True(t, CheckPassword(admin.PasswordHash, DefaultAdminPassword))
}

func TestUpdateProfileWritesThroughToCredential(t *testing.T) {
	m, store := newTestManager(t)

	_, err := m.Login(DefaultAdminEmail, DefaultAdminPassword)
	require.NoError(t, err)

	name := "Root Admin"
	user, err := m.UpdateProfile(ProfilePatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Root Admin", user.Name)

	var admin AdminCredential
	require.NoError(t, store.Read(localstore.KeyAdminCredentials, &admin))
	assert.Equal(t, "Root Admin", admin.Name)

	session, err := m.CurrentUser()
	require.NoError(t, err)
	assert.Equal(t, "Root Admin", session.Name)
}

func TestSignupReplacesAdminAndStartsSession(t *testing.T) {
	m, _ := newTestManager(t)

	user, err := m.Signup("Jo", "jo@example.com", "secret99")
	require.NoError(t, err)
	assert.Equal(t, "Admin", user.Role)

	current, err := m.CurrentUser()
	require.NoError(t, err)
	assert.Equal(t, "jo@example.com", current.Email)
}
