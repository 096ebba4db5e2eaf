package controllers

import (
	"net/http"

	"linkly-be/internal/middleware"
	"linkly-be/internal/models"
	"linkly-be/internal/service"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	authService service.AuthService
}

func NewAuthController(authService service.AuthService) *AuthController {
	return &AuthController{
		authService: authService,
	}
}

// Register handles POST /auth/register. A successful registration also opens
// a session so the client is logged in immediately.
func (ac *AuthController) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	user, err := ac.authService.Register(req.Email, req.Name, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	_, sessionID, err := ac.authService.Login(req.Email, req.Password, middleware.GetIP(c), c.GetHeader("User-Agent"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.AuthResponse{
		Success:   true,
		User:      models.NewAuthUser(user),
		SessionID: sessionID,
	})
}

// Login handles POST /auth/login
func (ac *AuthController) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	user, sessionID, err := ac.authService.Login(req.Email, req.Password, middleware.GetIP(c), c.GetHeader("User-Agent"))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := models.AuthResponse{
		Success:   true,
		User:      models.NewAuthUser(user),
		SessionID: sessionID,
	}
	if stats, err := ac.authService.UserStats(user.ID); err == nil {
		resp.UserStats = stats
	}

	c.JSON(http.StatusOK, resp)
}

// Logout handles POST /auth/logout. Deleting an unknown session still
// succeeds; the end state is the same.
func (ac *AuthController) Logout(c *gin.Context) {
	sessionID := middleware.SessionID(c)
	if sessionID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	if _, err := ac.authService.Logout(sessionID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Stats handles GET /user/stats for the authenticated user
func (ac *AuthController) Stats(c *gin.Context) {
	user := middleware.CurrentUser(c)

	stats, err := ac.authService.UserStats(user.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GenerateAPIKey handles POST /generate-api-key. Enterprise accounts only;
// issuing a new key invalidates the previous one.
func (ac *AuthController) GenerateAPIKey(c *gin.Context) {
	user := middleware.CurrentUser(c)

	apiKey, err := ac.authService.GenerateAPIKey(user.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"apiKey":  apiKey,
	})
}
