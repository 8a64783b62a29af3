package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/orderledger/internal/report"
)

// SeriesRequest is the body of POST /v1/reports/variants/series
type SeriesRequest struct {
	Series []SeriesItem `json:"series" binding:"required,min=1,dive"`
}

// SeriesItem is one variant over a YYYY-MM-DD period
type SeriesItem struct {
	Variant string `json:"variant" binding:"required"`
	From    string `json:"from"`
	To      string `json:"to"`
}

// HandleProducts handles GET /v1/reports/products
func HandleProducts(svc *Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter, ok := parseRowFilter(c)
		if !ok {
			return
		}
		rows, err := svc.Reports.Products(c.Request.Context(), filter)
		if err != nil {
			respondError(c, logger, err, "products_report")
			return
		}
		c.JSON(http.StatusOK, gin.H{"products": rows, "total": totalOf(rows)})
	}
}

// HandleVariants handles GET /v1/reports/variants
func HandleVariants(svc *Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter, ok := parseRowFilter(c)
		if !ok {
			return
		}
		rows, err := svc.Reports.Variants(c.Request.Context(), filter)
		if err != nil {
			respondError(c, logger, err, "variants_report")
			return
		}
		c.JSON(http.StatusOK, gin.H{"variants": rows, "total": totalOf(rows)})
	}
}

// HandleLocations handles GET /v1/reports/locations
func HandleLocations(svc *Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter, ok := parseRowFilter(c)
		if !ok {
			return
		}
		rep, err := svc.Reports.Locations(c.Request.Context(), filter)
		if err != nil {
			respondError(c, logger, err, "locations_report")
			return
		}
		c.JSON(http.StatusOK, rep)
	}
}

// HandleCompareVariants handles GET /v1/reports/variants/compare
// Query: product, variants (comma separated, optional), from1, to1, from2, to2
func HandleCompareVariants(svc *Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		product := strings.TrimSpace(c.Query("product"))
		if product == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "product is required"})
			return
		}
		p1, ok := parsePeriod(c, "from1", "to1")
		if !ok {
			return
		}
		p2, ok := parsePeriod(c, "from2", "to2")
		if !ok {
			return
		}
		var variants []string
		for _, v := range strings.Split(c.Query("variants"), ",") {
			if v = strings.TrimSpace(v); v != "" {
				variants = append(variants, v)
			}
		}

		cmp, err := svc.Reports.CompareVariants(c.Request.Context(), product, variants, p1, p2)
		if err != nil {
			respondError(c, logger, err, "compare_variants")
			return
		}
		c.JSON(http.StatusOK, cmp)
	}
}

// HandleVariantTrend handles GET /v1/reports/variants/trend
func HandleVariantTrend(svc *Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		variant := strings.TrimSpace(c.Query("variant"))
		if variant == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "variant is required"})
			return
		}
		p, ok := parsePeriod(c, "from", "to")
		if !ok {
			return
		}
		points, err := svc.Reports.Trend(c.Request.Context(), variant, p)
		if err != nil {
			respondError(c, logger, err, "variant_trend")
			return
		}
		c.JSON(http.StatusOK, gin.H{"variant": variant, "points": points})
	}
}

// HandleVariantSeries handles POST /v1/reports/variants/series
func HandleVariantSeries(svc *Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SeriesRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
			return
		}

		reqs := make([]report.SeriesRequest, 0, len(req.Series))
		for _, item := range req.Series {
			p, ok := periodFromStrings(c, item.From, item.To)
			if !ok {
				return
			}
			reqs = append(reqs, report.SeriesRequest{Variant: strings.TrimSpace(item.Variant), Period: p})
		}

		series, err := svc.Reports.Series(c.Request.Context(), reqs)
		if err != nil {
			respondError(c, logger, err, "variant_series")
			return
		}
		c.JSON(http.StatusOK, gin.H{"series": series})
	}
}

func periodFromStrings(c *gin.Context, from, to string) (report.Period, bool) {
	var p report.Period
	var err error
	if p.From, err = parseLayout(from); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from date, expected YYYY-MM-DD", "value": from})
		return report.Period{}, false
	}
	if p.To, err = parseLayout(to); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to date, expected YYYY-MM-DD", "value": to})
		return report.Period{}, false
	}
	return p, true
}

func totalOf(rows []report.QuantityRow) int {
	total := 0
	for _, r := range rows {
		total += r.Quantity
	}
	return total
}
