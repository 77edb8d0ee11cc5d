package handlers

import (
	"database/sql"
	"net/http"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heritage-platform/internal/models"
)

func uniqueViolation() error {
	return &pgconn.PgError{Code: pgerrcode.UniqueViolation}
}

func errNoRows() error {
	return sql.ErrNoRows
}

// Register, log in with the same credentials, then check-token must
// echo the same user id and role.
func TestRegisterLoginCheckToken(t *testing.T) {
	app := newTestApp(t)
	hash := bcryptHash(t, "hunter123")

	app.mock.ExpectQuery("INSERT INTO users").
		WithArgs("ada@example.com", sqlmock.AnyArg(), "Ada").
		WillReturnRows(userRows(7, "ada@example.com", hash, "Ada", models.RoleUser))

	w := app.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"name":     "Ada",
		"email":    "ada@example.com",
		"password": "hunter123",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	app.mock.ExpectQuery("SELECT (.+) FROM users WHERE email").
		WithArgs("ada@example.com").
		WillReturnRows(userRows(7, "ada@example.com", hash, "Ada", models.RoleUser))

	w = app.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email":    "ada@example.com",
		"password": "hunter123",
	})
	require.Equal(t, http.StatusOK, w.Code)

	body := app.decode(t, w)
	tok, _ := body["token"].(string)
	require.NotEmpty(t, tok)

	app.expectResolve(7, "ada@example.com", models.RoleUser)
	w = app.do(t, http.MethodGet, "/api/auth/check-token", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)

	body = app.decode(t, w)
	user := body["user"].(map[string]any)
	assert.Equal(t, float64(7), user["id"])
	assert.Equal(t, "user", user["role"])
	assert.NotContains(t, w.Body.String(), hash)
}

func TestRegisterEmailTaken(t *testing.T) {
	app := newTestApp(t)

	app.mock.ExpectQuery("INSERT INTO users").
		WillReturnError(uniqueViolation())

	w := app.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"name":     "Ada",
		"email":    "ada@example.com",
		"password": "hunter123",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "already registered")
}

func TestLoginWrongPassword(t *testing.T) {
	app := newTestApp(t)
	hash := bcryptHash(t, "correct-password")

	app.mock.ExpectQuery("SELECT (.+) FROM users WHERE email").
		WithArgs("ada@example.com").
		WillReturnRows(userRows(7, "ada@example.com", hash, "Ada", models.RoleUser))

	w := app.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email":    "ada@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid email or password")
}

// After logout the same token must be rejected by token-gated routes.
func TestLogoutRevokesToken(t *testing.T) {
	app := newTestApp(t)

	tok := app.signIn(t, 7, "ada@example.com", models.RoleUser)
	w := app.do(t, http.MethodGet, "/api/auth/check-token", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = app.do(t, http.MethodPost, "/api/auth/logout", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = app.do(t, http.MethodGet, "/api/auth/check-token", tok, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogoutWithoutToken(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodPost, "/api/auth/logout", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListUsersRequiresSuperuser(t *testing.T) {
	app := newTestApp(t)

	tok := app.signIn(t, 2, "admin@example.com", models.RoleAdmin)
	w := app.do(t, http.MethodGet, "/api/auth/users", tok, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUpdateRole(t *testing.T) {
	app := newTestApp(t)

	tok := app.signIn(t, 1, "root@example.com", models.RoleSuperuser)
	app.mock.ExpectQuery("UPDATE users SET role").
		WithArgs("admin", int64(2)).
		WillReturnRows(userRows(2, "ada@example.com", "hash", "Ada", models.RoleAdmin))

	w := app.do(t, http.MethodPatch, "/api/auth/users/2/role", tok, map[string]any{"role": "admin"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"role":"admin"`)
}

func TestUpdateRoleInvalidRole(t *testing.T) {
	app := newTestApp(t)

	tok := app.signIn(t, 1, "root@example.com", models.RoleSuperuser)
	w := app.do(t, http.MethodPatch, "/api/auth/users/2/role", tok, map[string]any{"role": "owner"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid role")
}

// Demoting the sole remaining superuser must fail with the dedicated
// message and a 403, distinct from validation failures.
func TestUpdateRoleLastSuperuser(t *testing.T) {
	app := newTestApp(t)

	tok := app.signIn(t, 1, "root@example.com", models.RoleSuperuser)
	app.mock.ExpectQuery("UPDATE users SET role").
		WithArgs("user", int64(1)).
		WillReturnError(errNoRows())
	app.mock.ExpectQuery("SELECT (.+) FROM users WHERE id").
		WithArgs(int64(1)).
		WillReturnRows(userRows(1, "root@example.com", "hash", "Root", models.RoleSuperuser))

	w := app.do(t, http.MethodPatch, "/api/auth/users/1/role", tok, map[string]any{"role": "user"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "last superuser")
}

func TestUpdateProfileWrongCurrentPassword(t *testing.T) {
	app := newTestApp(t)
	hash := bcryptHash(t, "old-password")

	tok, err := app.tokens.Issue(7)
	require.NoError(t, err)
	app.mock.ExpectQuery("SELECT (.+) FROM users WHERE id").
		WithArgs(int64(7)).
		WillReturnRows(userRows(7, "ada@example.com", hash, "Ada", models.RoleUser))

	w := app.do(t, http.MethodPut, "/api/auth/profile", tok, map[string]any{
		"currentPassword": "not-it",
		"newPassword":     "new-password",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Current password is incorrect")
}
