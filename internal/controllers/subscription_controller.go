package controllers

import (
	"net/http"

	"linkly-be/internal/models"
	"linkly-be/internal/service"

	"github.com/gin-gonic/gin"
)

type SubscriptionController struct {
	subscriptionService service.SubscriptionService
}

func NewSubscriptionController(subscriptionService service.SubscriptionService) *SubscriptionController {
	return &SubscriptionController{
		subscriptionService: subscriptionService,
	}
}

// Record handles POST /subscriptions - the billing provider's activation
// callback. Redelivery of a known subscription ID is a no-op success.
func (sc *SubscriptionController) Record(c *gin.Context) {
	var req models.SubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	created, err := sc.subscriptionService.Record(req.SubscriptionID, req.PlanName, req.Email, req.DurationMonths)
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"success": true})
}

// Summary handles GET /subscriptions - the admin revenue report
func (sc *SubscriptionController) Summary(c *gin.Context) {
	summary, err := sc.subscriptionService.Summary()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}
