package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type shopifyFulfillmentWebhookBody struct {
	OrderID int64  `json:"order_id"`
	Name    string `json:"name"`
	Status  string `json:"status"`

	TrackingNumber  string   `json:"tracking_number"`
	TrackingNumbers []string `json:"tracking_numbers"`
	TrackingCompany string   `json:"tracking_company"`
}

func (b *shopifyFulfillmentWebhookBody) trackingCode() string {
	if s := strings.TrimSpace(b.TrackingNumber); s != "" {
		return s
	}
	for _, n := range b.TrackingNumbers {
		if s := strings.TrimSpace(n); s != "" {
			return s
		}
	}
	return ""
}

// VerifyShopifyHMAC checks the X-Shopify-Hmac-Sha256 header against the raw body
func VerifyShopifyHMAC(secret string, body []byte, header string) bool {
	if secret == "" || header == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	// constant-time compare
	return hmac.Equal([]byte(expected), []byte(strings.TrimSpace(header)))
}

// HandleShopifyFulfillmentWebhook handles POST /webhooks/shopify/fulfillment.
// Configure Shopify webhook topics:
// - fulfillments/create
// - fulfillments/update
// The order's ledger rows get the tracking code when they have none, and non-edited statuses become fulfilled.
func HandleShopifyFulfillmentWebhook(secret string, svc *Services, logger *zap.Logger) gin.HandlerFunc {
	secret = strings.TrimSpace(secret)
	return func(c *gin.Context) {
		if secret == "" {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "shopify webhook not configured"})
			return
		}

		// Read raw body (Shopify HMAC is computed over raw bytes)
		bodyBytes, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
			return
		}

		if !VerifyShopifyHMAC(secret, bodyBytes, c.GetHeader("X-Shopify-Hmac-Sha256")) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid webhook signature"})
			return
		}

		var body shopifyFulfillmentWebhookBody
		if err := json.Unmarshal(bodyBytes, &body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON", "details": err.Error()})
			return
		}
		if body.OrderID == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "order_id required"})
			return
		}

		touched, err := svc.Ledger.ApplyFulfillment(c.Request.Context(), body.OrderID, body.trackingCode())
		if err != nil {
			// Return 200 so Shopify doesn't keep retrying; the next sync picks the order up again.
			logger.Error("Shopify webhook: failed to apply fulfillment", zap.Int64("order_id", body.OrderID), zap.Error(err))
			c.JSON(http.StatusOK, gin.H{"ok": true, "status": "error", "order_id": body.OrderID})
			return
		}

		status := "updated"
		if touched == 0 {
			status = "unchanged"
		}
		c.JSON(http.StatusOK, gin.H{
			"ok":       true,
			"status":   status,
			"rows":     touched,
			"order_id": body.OrderID,
			"topic":    c.GetHeader("X-Shopify-Topic"),
		})
	}
}
