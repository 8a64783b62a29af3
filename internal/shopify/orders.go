package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/jafarshop/orderledger/internal/domain"
	"github.com/jafarshop/orderledger/pkg/errors"
)

const (
	DefaultPageSize = 250
	DefaultMaxPages = 4
)

// OrderQuery controls the order listing. Zero values fall back to 250 per page, 4 pages.
type OrderQuery struct {
	FinancialStatus string
	PageSize        int
	MaxPages        int
}

type ordersPage struct {
	Orders []domain.Order `json:"orders"`
}

type orderEnvelope struct {
	Order domain.Order `json:"order"`
}

// OrdersURL builds the first page URL: orders.json?status=any&limit=N[&financial_status=...]
func (c *Client) OrdersURL(q OrderQuery) string {
	params := url.Values{}
	params.Set("status", "any")
	params.Set("limit", strconv.Itoa(pageSize(q)))
	if q.FinancialStatus != "" {
		params.Set("financial_status", q.FinancialStatus)
	}
	return c.baseURL + "/orders.json?" + params.Encode()
}

// ListOrders walks the cursor-paginated order listing following rel="next" links
// until they run out or MaxPages pages were read.
//
// On a non-success status or a failed request the walk stops and the orders already
// collected are returned together with the error, so callers can keep partial data.
func (c *Client) ListOrders(ctx context.Context, q OrderQuery) ([]domain.Order, error) {
	maxPages := q.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}

	var orders []domain.Order
	next := c.OrdersURL(q)
	for page := 1; next != "" && page <= maxPages; page++ {
		resp, err := c.get(ctx, next)
		if err != nil {
			c.logger.Warn("Stopping order pagination", zap.Int("page", page), zap.Int("collected", len(orders)), zap.Error(err))
			return orders, err
		}
		if !resp.ok() {
			c.logger.Warn("Shopify returned non-success status", zap.Int("page", page), zap.Int("status", resp.StatusCode))
			return orders, &errors.ErrUpstream{Service: "shopify", StatusCode: resp.StatusCode, Body: truncate(string(resp.Body), 512)}
		}

		var body ordersPage
		if err := json.Unmarshal(resp.Body, &body); err != nil {
			return orders, fmt.Errorf("failed to unmarshal orders page %d: %w", page, err)
		}
		orders = append(orders, body.Orders...)
		c.logger.Debug("Fetched orders page", zap.Int("page", page), zap.Int("orders", len(body.Orders)))

		next = NextPageURL(resp.Header.Get("Link"))
	}
	return orders, nil
}

// GetOrder fetches a single order by its numeric id
func (c *Client) GetOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	resp, err := c.get(ctx, fmt.Sprintf("%s/orders/%d.json", c.baseURL, orderID))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, &errors.ErrNotFound{Resource: "shopify_order", ID: strconv.FormatInt(orderID, 10)}
	}
	if !resp.ok() {
		return nil, &errors.ErrUpstream{Service: "shopify", StatusCode: resp.StatusCode, Body: truncate(string(resp.Body), 512)}
	}
	var env orderEnvelope
	if err := json.Unmarshal(resp.Body, &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal order: %w", err)
	}
	return &env.Order, nil
}

func pageSize(q OrderQuery) int {
	if q.PageSize <= 0 || q.PageSize > DefaultPageSize {
		return DefaultPageSize
	}
	return q.PageSize
}
