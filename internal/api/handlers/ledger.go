package handlers

import (
	stderrors "errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/orderledger/internal/domain"
	"github.com/jafarshop/orderledger/internal/export"
	"github.com/jafarshop/orderledger/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// HandleGetLedger handles GET /v1/ledger
func HandleGetLedger(svc *Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter, ok := parseRowFilter(c)
		if !ok {
			return
		}
		view, err := svc.Ledger.Get(c.Request.Context(), filter)
		if err != nil {
			respondError(c, logger, err, "get_ledger")
			return
		}
		c.JSON(http.StatusOK, view)
	}
}

// HandleEditLedger handles PATCH /v1/ledger
func HandleEditLedger(svc *Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.EditRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
			return
		}
		res, err := svc.Ledger.ApplyEdits(c.Request.Context(), req)
		if err != nil {
			respondError(c, logger, err, "edit_ledger")
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// HandleFlushLedger handles POST /v1/ledger/flush
func HandleFlushLedger(svc *Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := svc.Ledger.Flush(c.Request.Context())
		if err != nil {
			respondError(c, logger, err, "flush_ledger")
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// HandlePushTracking handles POST /v1/ledger/tracking
func HandlePushTracking(svc *Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// An empty body pushes every pending row
		var req service.TrackingRequest
		if err := c.ShouldBindJSON(&req); err != nil && !stderrors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
			return
		}
		rep, err := svc.Ledger.PushTracking(c.Request.Context(), req)
		if err != nil {
			respondError(c, logger, err, "push_tracking")
			return
		}
		c.JSON(http.StatusOK, rep)
	}
}

// HandleExportLedger handles GET /v1/ledger/export.xlsx
func HandleExportLedger(svc *Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter, ok := parseRowFilter(c)
		if !ok {
			return
		}
		view, err := svc.Ledger.Get(c.Request.Context(), filter)
		if err != nil {
			respondError(c, logger, err, "export_ledger")
			return
		}

		l := &domain.Ledger{Version: view.Version, Rows: view.Rows, UpdatedAt: view.UpdatedAt}
		c.Header("Content-Type", xlsxContentType)
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="ledger-v%d.xlsx"`, view.Version))
		c.Status(http.StatusOK)
		if err := export.Write(c.Writer, l); err != nil {
			logger.Error("Failed to write ledger export", zap.Error(err))
		}
	}
}
