package handlers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"heritage-platform/internal/gateway"
	"heritage-platform/internal/middleware"
	"heritage-platform/internal/models"
	"heritage-platform/internal/store"
	"heritage-platform/internal/token"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testApp wires the real routes over a sqlmock-backed store and a
// deterministic gateway, mirroring the wiring in cmd/api.
type testApp struct {
	router *gin.Engine
	mock   sqlmock.Sqlmock
	tokens *token.Service
	sim    *gateway.Simulator
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	st := store.New(sqlx.NewDb(mockDB, "sqlmock"))
	tokens := token.NewService("test-secret", time.Hour, token.NewMemoryRegistry())
	sim := &gateway.Simulator{ChargeSuccessRate: 1, CancelSuccessRate: 1}

	authHandler := NewAuthHandler(st, tokens)
	paymentHandler := NewPaymentHandler(st, sim, nil)
	blogHandler := NewBlogHandler(st)
	uploadHandler := NewUploadHandler(t.TempDir())

	requireAuth := middleware.RequireAuth(tokens, st)
	adminOnly := middleware.RequireRole(models.RoleAdmin)
	superuserOnly := middleware.RequireRole(models.RoleSuperuser)

	r := gin.New()
	api := r.Group("/api")
	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/logout", authHandler.Logout)
	auth.GET("/check-token", requireAuth, authHandler.CheckToken)
	auth.GET("/users", requireAuth, superuserOnly, authHandler.ListUsers)
	auth.PATCH("/users/:userId/role", requireAuth, superuserOnly, authHandler.UpdateRole)
	auth.PUT("/profile", requireAuth, authHandler.UpdateProfile)

	blog := api.Group("/blog")
	blog.GET("", blogHandler.List)
	blog.GET("/:id", blogHandler.Get)
	blog.POST("/upload", requireAuth, adminOnly, uploadHandler.Upload)
	blog.POST("", requireAuth, adminOnly, blogHandler.Create)
	blog.PUT("/:id", requireAuth, adminOnly, blogHandler.Update)
	blog.DELETE("/:id", requireAuth, adminOnly, blogHandler.Delete)

	payments := api.Group("/payments")
	payments.POST("", paymentHandler.Submit)
	payments.GET("", requireAuth, adminOnly, paymentHandler.List)
	payments.GET("/:id", requireAuth, adminOnly, paymentHandler.Get)
	payments.POST("/:id/cancel", requireAuth, paymentHandler.Cancel)

	return &testApp{router: r, mock: mock, tokens: tokens, sim: sim}
}

func (a *testApp) do(t *testing.T, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testApp) decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func bcryptHash(t *testing.T, password string) string {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func userRows(id int64, email, hash, name string, role models.Role) *sqlmock.Rows {
	return sqlmock.
		NewRows([]string{"id", "email", "password_hash", "name", "role", "created_at"}).
		AddRow(id, email, hash, name, string(role), time.Now())
}

func paymentRows(id int64, donationType, status, email string) *sqlmock.Rows {
	return sqlmock.
		NewRows([]string{
			"id", "donation_type", "amount", "is_corporate", "institution_name",
			"name", "email", "donate_for_someone", "recipient_name", "recipient_surname",
			"deduction_day", "status", "transaction_id", "cancelled_at", "created_at",
		}).
		AddRow(id, donationType, 100.0, false, "", "Ada Lovelace", email,
			false, "", "", nil, status, "tr_abc123", nil, time.Now())
}

// expectResolve queues the user lookup RequireAuth performs.
func (a *testApp) expectResolve(id int64, email string, role models.Role) {
	a.mock.ExpectQuery("SELECT (.+) FROM users WHERE id").
		WithArgs(id).
		WillReturnRows(userRows(id, email, "hash", "Someone", role))
}

// signIn issues a token for a user the next request will resolve.
func (a *testApp) signIn(t *testing.T, id int64, email string, role models.Role) string {
	t.Helper()

	tok, err := a.tokens.Issue(id)
	require.NoError(t, err)
	a.expectResolve(id, email, role)
	return tok
}
