package handlers

import (
	stderrors "errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/orderledger/internal/domain"
	"github.com/jafarshop/orderledger/internal/report"
	"github.com/jafarshop/orderledger/internal/repository"
	"github.com/jafarshop/orderledger/internal/service"
	"github.com/jafarshop/orderledger/pkg/errors"
)

// DateLayout is the query parameter format for from/to dates
const DateLayout = "2006-01-02"

// Services bundles what the handlers call into
type Services struct {
	Jobs    *service.Jobs
	Ledger  *service.LedgerService
	Reports *service.ReportService
	Events  repository.SyncEventRepository
}

// respondError maps service errors to status codes
func respondError(c *gin.Context, logger *zap.Logger, err error, action string) {
	var (
		notFound   *errors.ErrNotFound
		conflict   *errors.ErrConflict
		validation *errors.ErrValidation
	)
	switch {
	case stderrors.As(err, &validation):
		body := gin.H{"error": validation.Error()}
		if len(validation.Fields) > 0 {
			body["fields"] = validation.Fields
		}
		c.JSON(http.StatusUnprocessableEntity, body)
	case stderrors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound.Error()})
	case stderrors.As(err, &conflict):
		body := gin.H{"error": conflict.Error()}
		if conflict.CurrentVersion > 0 {
			body["current_version"] = conflict.CurrentVersion
		}
		c.JSON(http.StatusConflict, body)
	case stderrors.Is(err, service.ErrNotConfigured):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		if upstream, ok := errors.AsUpstream(err); ok {
			logger.Warn("Upstream failure", zap.String("action", action), zap.Error(upstream))
			c.JSON(http.StatusBadGateway, gin.H{"error": "upstream failure", "details": upstream.Error()})
			return
		}
		logger.Error("Request failed", zap.String("action", action), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// parseDate reads an optional YYYY-MM-DD query parameter
func parseDate(c *gin.Context, name string) (time.Time, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return time.Time{}, true
	}
	t, err := parseLayout(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name + " date, expected YYYY-MM-DD", "value": raw})
		return time.Time{}, false
	}
	return t, true
}

// parsePeriod reads the fromKey/toKey query parameters
func parsePeriod(c *gin.Context, fromKey, toKey string) (report.Period, bool) {
	from, ok := parseDate(c, fromKey)
	if !ok {
		return report.Period{}, false
	}
	to, ok := parseDate(c, toKey)
	if !ok {
		return report.Period{}, false
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		c.JSON(http.StatusBadRequest, gin.H{"error": toKey + " must not be before " + fromKey})
		return report.Period{}, false
	}
	return report.Period{From: from, To: to}, true
}

// parseRowFilter reads from, to, product, variant and state
func parseRowFilter(c *gin.Context) (domain.RowFilter, bool) {
	p, ok := parsePeriod(c, "from", "to")
	if !ok {
		return domain.RowFilter{}, false
	}
	return domain.RowFilter{
		From:    p.From,
		To:      p.To,
		Product: strings.TrimSpace(c.Query("product")),
		Variant: strings.TrimSpace(c.Query("variant")),
		State:   strings.TrimSpace(c.Query("state")),
	}, true
}

// parseLayout parses a YYYY-MM-DD date; empty is the zero time
func parseLayout(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse(DateLayout, raw)
}
