package handler

import (
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/shrestarohan/square-inventory-manager-sub000/internal/service"
	"github.com/shrestarohan/square-inventory-manager-sub000/internal/utils"
)

// ReconcileHandler exposes manual reconciliation runs to admins.
type ReconcileHandler struct {
	reconcileService *service.ReconcileService
	running          atomic.Bool
}

// NewReconcileHandler constructs a ReconcileHandler.
func NewReconcileHandler(reconcileService *service.ReconcileService) *ReconcileHandler {
	return &ReconcileHandler{reconcileService: reconcileService}
}

// RunRequest is the manual run request body. All fields are optional.
type RunRequest struct {
	DryRun     bool   `json:"dryRun"`
	MerchantID string `json:"merchantId"`
	MaxGTINs   int    `json:"maxGtins"`
}

// Run executes one reconciliation pass synchronously and returns its report.
// Only one run may be in flight at a time; the periodic worker holds the
// same service, so overlapping manual runs are refused, not queued.
func (h *ReconcileHandler) Run(c *gin.Context) {
	var req RunRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
			return
		}
	}

	if req.MaxGTINs < 0 {
		utils.Error(c, 400, "INVALID_REQUEST", "maxGtins must not be negative")
		return
	}

	if !h.running.CompareAndSwap(false, true) {
		utils.Error(c, 409, "RUN_IN_PROGRESS", "A reconciliation run is already in progress")
		return
	}
	defer h.running.Store(false)

	report, err := h.reconcileService.Run(c.Request.Context(), service.RunOptions{
		DryRun:        req.DryRun,
		MerchantScope: req.MerchantID,
		MaxGTINs:      req.MaxGTINs,
	})
	if err != nil {
		log.Error().Err(err).Msg("manual reconciliation run failed")
		utils.Error(c, 500, "RUN_FAILED", "Reconciliation run failed")
		return
	}

	utils.Success(c, 200, "Reconciliation run completed", report)
}
