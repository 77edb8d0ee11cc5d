package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"heritage-platform/internal/middleware"
	"heritage-platform/internal/models"
	"heritage-platform/internal/store"
	"heritage-platform/internal/token"
)

// AuthHandler serves registration, login, session management and user
// administration.
type AuthHandler struct {
	Store  *store.Store
	Tokens *token.Service
}

func NewAuthHandler(s *store.Store, tokens *token.Service) *AuthHandler {
	return &AuthHandler{Store: s, Tokens: tokens}
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Name, email and password are required")
		return
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error().Err(err).Msg("password hashing failed")
		fail(c, http.StatusInternalServerError, serverErrorMessage)
		return
	}

	user, err := h.Store.CreateUser(c.Request.Context(), req.Email, string(passwordHash), req.Name)
	if err != nil {
		if errors.Is(err, store.ErrEmailTaken) {
			fail(c, http.StatusBadRequest, "A user with this email address is already registered")
			return
		}
		log.Error().Err(err).Msg("user creation failed")
		fail(c, http.StatusInternalServerError, serverErrorMessage)
		return
	}

	tokenString, err := h.Tokens.Issue(user.ID)
	if err != nil {
		log.Error().Err(err).Msg("token issue failed")
		fail(c, http.StatusInternalServerError, serverErrorMessage)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "User registered successfully",
		"token":   tokenString,
		"user":    user,
	})
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, err := h.Store.GetUserByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			fail(c, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		log.Error().Err(err).Msg("login lookup failed")
		fail(c, http.StatusInternalServerError, serverErrorMessage)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		fail(c, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	tokenString, err := h.Tokens.Issue(user.ID)
	if err != nil {
		log.Error().Err(err).Msg("token issue failed")
		fail(c, http.StatusInternalServerError, serverErrorMessage)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Signed in successfully",
		"token":   tokenString,
		"user":    user,
	})
}

type LogoutRequest struct {
	Token string `json:"token"`
}

// Logout revokes the presented token: Authorization header or cookie
// first, request body as a fallback. Other tokens issued to the same
// user stay valid.
func (h *AuthHandler) Logout(c *gin.Context) {
	tokenString := middleware.ExtractToken(c)
	if tokenString == "" {
		var req LogoutRequest
		if err := c.ShouldBindJSON(&req); err == nil {
			tokenString = req.Token
		}
	}

	if !h.Tokens.Revoke(c.Request.Context(), tokenString) {
		fail(c, http.StatusBadRequest, "No token provided")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Signed out successfully"})
}

// CheckToken echoes the user the presented token resolves to. Runs
// behind RequireAuth.
func (h *AuthHandler) CheckToken(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		fail(c, http.StatusUnauthorized, "Please sign in")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}

// ListUsers returns every account. Superuser only.
func (h *AuthHandler) ListUsers(c *gin.Context) {
	users, err := h.Store.ListUsers(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("listing users failed")
		fail(c, http.StatusInternalServerError, serverErrorMessage)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "users": users})
}

type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// UpdateRole changes a user's role. Superuser only. Demoting the last
// remaining superuser is rejected with its own message so the client
// can tell it apart from plain validation failures.
func (h *AuthHandler) UpdateRole(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid user id")
		return
	}

	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Role is required")
		return
	}

	role := models.Role(req.Role)
	if !role.Valid() {
		fail(c, http.StatusBadRequest, "Invalid role")
		return
	}

	user, err := h.Store.SetRole(c.Request.Context(), userID, role)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			fail(c, http.StatusNotFound, "User not found")
		case errors.Is(err, store.ErrLastSuperuser):
			fail(c, http.StatusForbidden, "The last superuser cannot be demoted")
		default:
			log.Error().Err(err).Int64("user_id", userID).Msg("role update failed")
			fail(c, http.StatusInternalServerError, serverErrorMessage)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User role updated",
		"user":    user,
	})
}

type UpdateProfileRequest struct {
	Name            string `json:"name"`
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// UpdateProfile lets an authenticated user rename themselves and change
// their password. A password change requires the current password.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		fail(c, http.StatusUnauthorized, "Please sign in")
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" && req.NewPassword == "" {
		fail(c, http.StatusBadRequest, "Nothing to update")
		return
	}

	if req.NewPassword != "" {
		if len(req.NewPassword) < 6 {
			fail(c, http.StatusBadRequest, "New password must be at least 6 characters")
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
			fail(c, http.StatusBadRequest, "Current password is incorrect")
			return
		}

		newHash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			log.Error().Err(err).Msg("password hashing failed")
			fail(c, http.StatusInternalServerError, serverErrorMessage)
			return
		}
		if err := h.Store.UpdateUserPassword(c.Request.Context(), user.ID, string(newHash)); err != nil {
			log.Error().Err(err).Int64("user_id", user.ID).Msg("password update failed")
			fail(c, http.StatusInternalServerError, serverErrorMessage)
			return
		}
	}

	if req.Name != "" {
		updated, err := h.Store.UpdateUserName(c.Request.Context(), user.ID, req.Name)
		if err != nil {
			log.Error().Err(err).Int64("user_id", user.ID).Msg("rename failed")
			fail(c, http.StatusInternalServerError, serverErrorMessage)
			return
		}
		user = updated
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Profile updated",
		"user":    user,
	})
}
