package controllers

import (
	"net/http"

	"linkly-be/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"
)

type QRCodeController struct {
	urlService service.URLService
	baseURL    string
}

func NewQRCodeController(urlService service.URLService, baseURL string) *QRCodeController {
	return &QRCodeController{
		urlService: urlService,
		baseURL:    baseURL,
	}
}

// GenerateQRCode handles GET /qrcode/:shortCode - renders a PNG QR code
// pointing at the short URL. Only codes that exist get a QR code.
func (qc *QRCodeController) GenerateQRCode(c *gin.Context) {
	shortCode := c.Param("shortCode")
	if shortCode == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Short code is required",
		})
		return
	}

	if _, err := qc.urlService.Get(shortCode); err != nil {
		respondError(c, err)
		return
	}

	shortURL := qc.baseURL + "/" + shortCode

	// 256x256 pixels, medium error recovery
	qrCode, err := qrcode.New(shortURL, qrcode.Medium)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to generate QR code",
		})
		return
	}

	pngData, err := qrCode.PNG(256)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to generate QR code image",
		})
		return
	}

	c.Header("Content-Type", "image/png")
	c.Header("Content-Disposition", "inline; filename=qrcode.png")
	c.Data(http.StatusOK, "image/png", pngData)
}
