package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hatchery-inc/hatchery/internal/shared/errors"
	"github.com/hatchery-inc/hatchery/internal/shared/logger"
	"github.com/hatchery-inc/hatchery/internal/shared/utils"
)

// PaymentHookHandler receives payment confirmations from the billing system.
type PaymentHookHandler struct {
	handlePaymentUC handlePaymentSuccessUseCase
	logger          logger.Interface
}

func NewPaymentHookHandler(handlePaymentUC handlePaymentSuccessUseCase, log logger.Interface) *PaymentHookHandler {
	return &PaymentHookHandler{
		handlePaymentUC: handlePaymentUC,
		logger:          log,
	}
}

type PaymentConfirmedRequest struct {
	OrderNo string `json:"order_no" binding:"required"`
}

func (h *PaymentHookHandler) PaymentConfirmed(c *gin.Context) {
	var req PaymentConfirmedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid payment confirmation body", "error", err)
		utils.ErrorResponseWithError(c, errors.NewValidationError("order_no is required"))
		return
	}

	result, err := h.handlePaymentUC.Execute(c.Request.Context(), req.OrderNo)
	if err != nil {
		if result != nil {
			h.logger.Warnw("provisioning failed for paid order",
				"order_no", req.OrderNo,
				"failed_step", result.FailedStep,
				"rolled_back", result.RolledBack)
		}
		respondError(c, h.logger, err)
		return
	}

	if result == nil {
		utils.SuccessResponse(c, http.StatusOK, "Order already provisioned", nil)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Instance provisioned", toProvisionResponse(result))
}
