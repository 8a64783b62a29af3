package shopify

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/jafarshop/orderledger/pkg/errors"
)

// FulfillmentRequest is the body of POST /orders/{id}/fulfillments.json
type FulfillmentRequest struct {
	Fulfillment FulfillmentInput `json:"fulfillment"`
}

type FulfillmentInput struct {
	TrackingNumber string `json:"tracking_number"`
	NotifyCustomer bool   `json:"notify_customer"`
}

// CreateFulfillment pushes a tracking number for an order. 200 and 201 are success;
// any other status comes back as *errors.ErrUpstream carrying the response body.
func (c *Client) CreateFulfillment(ctx context.Context, orderID int64, trackingNumber string, notifyCustomer bool) error {
	url := fmt.Sprintf("%s/orders/%d/fulfillments.json", c.baseURL, orderID)
	payload := FulfillmentRequest{
		Fulfillment: FulfillmentInput{
			TrackingNumber: trackingNumber,
			NotifyCustomer: notifyCustomer,
		},
	}

	resp, err := c.post(ctx, url, payload)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return &errors.ErrUpstream{Service: "shopify", StatusCode: resp.StatusCode, Body: truncate(string(resp.Body), 512)}
	}

	c.logger.Info("Pushed tracking number to Shopify",
		zap.Int64("order_id", orderID),
		zap.String("tracking_number", trackingNumber),
	)
	return nil
}
