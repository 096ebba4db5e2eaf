package controllers

import (
	"net/http"
	"time"

	"linkly-be/internal/domain"
	"linkly-be/internal/middleware"
	"linkly-be/internal/models"
	"linkly-be/internal/service"

	"github.com/gin-gonic/gin"
)

type ShortenerController struct {
	urlService   service.URLService
	quotaService service.QuotaService
	baseURL      string
}

func NewShortenerController(urlService service.URLService, quotaService service.QuotaService, baseURL string) *ShortenerController {
	return &ShortenerController{
		urlService:   urlService,
		quotaService: quotaService,
		baseURL:      baseURL,
	}
}

// identity resolves the caller for quota purposes: the authenticated user if
// a session was presented, otherwise the request fingerprint.
func (sc *ShortenerController) identity(c *gin.Context) service.Identity {
	return service.Identity{
		User:        middleware.CurrentUser(c),
		Fingerprint: middleware.Fingerprint(c),
	}
}

// CreateShortURL handles POST /shorten
func (sc *ShortenerController) CreateShortURL(c *gin.Context) {
	var req models.ShortenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	identity := sc.identity(c)
	now := time.Now().UTC()

	decision, err := sc.quotaService.Evaluate(identity, now)
	if err != nil {
		respondError(c, err)
		return
	}
	if !decision.Allowed {
		c.JSON(http.StatusTooManyRequests, quotaExceededBody(decision))
		return
	}

	record, err := sc.urlService.Create(req.URL, nil, identity, false)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := sc.quotaService.Record(identity, now); err != nil {
		respondError(c, err)
		return
	}

	resp := models.ShortenResponse{
		ShortURL:    sc.baseURL + "/" + record.ShortCode,
		ShortCode:   record.ShortCode,
		OriginalURL: record.OriginalURL,
	}
	if stats, err := sc.quotaService.Stats(identity, now); err == nil {
		resp.UserStats = stats
	}

	c.JSON(http.StatusCreated, resp)
}

// quotaExceededBody renders the 429 payload for a denied creation
func quotaExceededBody(decision *service.Decision) models.QuotaExceededResponse {
	body := models.QuotaExceededResponse{
		Reason:       decision.Reason,
		Limit:        decision.Limit,
		Used:         decision.Used,
		PlanType:     string(decision.Plan),
		NeedsUpgrade: true,
	}
	switch decision.Reason {
	case domain.ReasonDailyLimit:
		body.Error = "Daily URL limit reached"
		body.UpgradeMessage = "You've used all your free URLs for today. Upgrade for unlimited URLs."
	case domain.ReasonMonthlyLimit:
		body.Error = "Total URL limit reached"
		body.UpgradeMessage = "You've reached the lifetime limit of the free plan. Upgrade for unlimited URLs."
	default:
		body.Error = "URL limit reached"
		body.UpgradeMessage = "Upgrade for unlimited URLs."
	}
	return body
}

// RedirectToURL handles GET /:shortCode
func (sc *ShortenerController) RedirectToURL(c *gin.Context) {
	originalURL, err := sc.urlService.Resolve(c.Param("shortCode"))
	if err != nil {
		respondError(c, err)
		return
	}

	// 302 keeps the redirect uncached so every visit is counted
	c.Redirect(http.StatusFound, originalURL)
}

// Totals handles GET /shorten - aggregate URL and click counts
func (sc *ShortenerController) Totals(c *gin.Context) {
	urls, clicks, err := sc.urlService.Totals()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"totalUrls":   urls,
		"totalClicks": clicks,
	})
}

// AdminURLs handles GET /admin/urls - every stored record, newest first
func (sc *ShortenerController) AdminURLs(c *gin.Context) {
	records, err := sc.urlService.All()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total": len(records),
		"urls":  records,
	})
}
