package handlers

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yukikurage/projectly-api/internal/auth"
	"github.com/yukikurage/projectly-api/internal/constants"
	"github.com/yukikurage/projectly-api/internal/dto"
	apierrors "github.com/yukikurage/projectly-api/internal/errors"
	"github.com/yukikurage/projectly-api/internal/middleware"
	"github.com/yukikurage/projectly-api/internal/models"
	"github.com/yukikurage/projectly-api/internal/services"
)

// AuthHandler coordinates authentication-related HTTP handlers.
type AuthHandler struct {
	authService *services.AuthService
	tokens      *auth.TokenIssuer
	denylist    auth.Denylist
	log         *zap.Logger
}

// NewAuthHandler creates a new AuthHandler. denylist may be nil.
func NewAuthHandler(authService *services.AuthService, tokens *auth.TokenIssuer, denylist auth.Denylist, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		tokens:      tokens,
		denylist:    denylist,
		log:         log,
	}
}

// Register creates an account and signs it in.
func (h *AuthHandler) Register(c *gin.Context) {
	type RegisterRequest struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Name, email, and password are required")
		return
	}

	user, err := h.authService.Register(c.Request.Context(), services.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	h.signIn(c, http.StatusCreated, user)
}

// Login authenticates a user, initializes the session and issues a bearer
// token.
func (h *AuthHandler) Login(c *gin.Context) {
	type LoginRequest struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Email and password are required")
		return
	}

	user, err := h.authService.Login(c.Request.Context(), services.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	h.signIn(c, http.StatusOK, user)
}

func (h *AuthHandler) signIn(c *gin.Context, status int, user *models.User) {
	token, err := h.tokens.Issue(user.ID, user.Role)
	if err != nil {
		h.log.Error("failed to issue token", zap.Uint64("user_id", user.ID), zap.Error(err))
		apierrors.InternalError(c, "Failed to issue token")
		return
	}

	session := sessions.Default(c)
	session.Set(constants.ContextKeyUserID, user.ID)
	if err := session.Save(); err != nil {
		h.log.Error("failed to save session", zap.Error(err))
		apierrors.InternalError(c, "Failed to save session")
		return
	}

	c.JSON(status, dto.LoginResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
		Token: token,
	})
}

// Logout removes the session and revokes the bearer token of the request.
func (h *AuthHandler) Logout(c *gin.Context) {
	if tokenID, expiresAt, ok := middleware.GetToken(c); ok && h.denylist != nil {
		if err := h.denylist.Revoke(c.Request.Context(), tokenID, expiresAt); err != nil {
			h.log.Error("failed to revoke token", zap.Error(err))
			apierrors.ServiceUnavailable(c, "Failed to logout")
			return
		}
	}

	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := session.Save(); err != nil {
		apierrors.InternalError(c, "Failed to logout")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out successfully",
	})
}

// GetCurrentUser returns the authenticated user.
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	user, err := h.authService.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}
