package controllers

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"linkly-be/internal/domain"
	"linkly-be/internal/entities"
	"linkly-be/internal/models"
	"linkly-be/internal/service"

	"github.com/gin-gonic/gin"
)

// APIController serves the programmatic /v1 surface, authenticated by API key
// rather than by session.
type APIController struct {
	authService  service.AuthService
	urlService   service.URLService
	quotaService service.QuotaService
	baseURL      string
}

func NewAPIController(authService service.AuthService, urlService service.URLService, quotaService service.QuotaService, baseURL string) *APIController {
	return &APIController{
		authService:  authService,
		urlService:   urlService,
		quotaService: quotaService,
		baseURL:      baseURL,
	}
}

// apiError renders the machine-readable error shape of the /v1 surface
func apiError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error":   message,
		"code":    code,
	})
}

// authenticate resolves the x-api-key header to an enterprise account.
// Returns nil after writing the error response when authentication fails.
func (ac *APIController) authenticate(c *gin.Context) *entities.User {
	apiKey := c.GetHeader("x-api-key")
	if apiKey == "" {
		apiError(c, http.StatusUnauthorized, "MISSING_API_KEY", "API key is required. Pass it in the x-api-key header.")
		return nil
	}

	user, err := ac.authService.GetUserByAPIKey(apiKey)
	if err != nil {
		apiError(c, http.StatusUnauthorized, "INVALID_API_KEY", "Invalid API key")
		return nil
	}

	if service.EffectivePlan(user, time.Now().UTC()) != entities.PlanEnterprise {
		apiError(c, http.StatusForbidden, "INSUFFICIENT_PLAN", "API access requires an enterprise plan")
		return nil
	}

	return user
}

// apiUsageInfo builds the usage block attached to every /v1 response
func apiUsageInfo(used int, now time.Time) models.APIUsageInfo {
	return models.APIUsageInfo{
		Used:      used,
		Limit:     service.APIMonthlyLimit,
		Remaining: service.APIMonthlyLimit - used,
		ResetDate: monthResetDate(now),
	}
}

// monthResetDate returns the first day of the next month in UTC
func monthResetDate(now time.Time) string {
	y, m, _ := now.UTC().Date()
	return time.Date(y, m+1, 1, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
}

// CreateShortURL handles POST /v1/shorten
func (ac *APIController) CreateShortURL(c *gin.Context) {
	user := ac.authenticate(c)
	if user == nil {
		return
	}

	var req models.APIShortenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apiError(c, http.StatusBadRequest, "MISSING_URL", "Request body must include a url field")
		return
	}

	// Validate the custom code up front so its errors are not reported as
	// URL errors.
	if req.CustomCode != nil && *req.CustomCode != "" {
		if err := service.ValidateCustomCode(strings.TrimSpace(*req.CustomCode)); err != nil {
			apiError(c, http.StatusBadRequest, "INVALID_CUSTOM_CODE", err.Error())
			return
		}
	}

	now := time.Now().UTC()
	decision, err := ac.quotaService.EvaluateAPI(user, now)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
		return
	}
	if !decision.Allowed {
		c.JSON(http.StatusTooManyRequests, gin.H{
			"success":  false,
			"error":    "Monthly API request limit reached",
			"code":     "RATE_LIMIT_EXCEEDED",
			"apiUsage": apiUsageInfo(decision.Used, now),
		})
		return
	}

	identity := service.Identity{User: user}
	record, err := ac.urlService.Create(req.URL, req.CustomCode, identity, true)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrDuplicate):
			apiError(c, http.StatusConflict, "CODE_EXISTS", "That custom code is already taken")
		case errors.Is(err, domain.ErrInvalidInput):
			apiError(c, http.StatusBadRequest, "INVALID_URL", err.Error())
		default:
			log.Printf("Error: %v", err)
			apiError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
		}
		return
	}

	if err := ac.quotaService.RecordAPI(user.ID, now); err != nil {
		log.Printf("Warning: failed to record API usage for %s: %v", user.ID, err)
	}
	if err := ac.quotaService.Record(identity, now); err != nil {
		log.Printf("Warning: failed to record creation for %s: %v", user.ID, err)
	}

	c.JSON(http.StatusCreated, models.APIShortenResponse{
		Success:     true,
		ShortURL:    ac.baseURL + "/" + record.ShortCode,
		ShortCode:   record.ShortCode,
		OriginalURL: record.OriginalURL,
		CreatedAt:   record.CreatedAt,
		APIUsage:    apiUsageInfo(decision.Used+1, now),
	})
}

// Usage handles GET /v1/shorten - the caller's plan and current month usage
func (ac *APIController) Usage(c *gin.Context) {
	user := ac.authenticate(c)
	if user == nil {
		return
	}

	now := time.Now().UTC()
	decision, err := ac.quotaService.EvaluateAPI(user, now)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"plan":         user.Plan,
		"apiUsage":     apiUsageInfo(decision.Used, now),
		"currentMonth": now.Format("2006-01"),
	})
}
