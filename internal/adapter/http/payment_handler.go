package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	domain "github.com/son261103/api-sell-clothes-v1--sub000/internal/entity"
	"github.com/son261103/api-sell-clothes-v1--sub000/internal/logging"
	"github.com/son261103/api-sell-clothes-v1--sub000/internal/usecase"
)

type PaymentHandler struct {
	payments *usecase.PaymentService
}

func NewPaymentHandler(payments *usecase.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

type createPaymentReq struct {
	OrderID  string `json:"orderId" binding:"required"`
	MethodID int64  `json:"methodId" binding:"required"`
	BankCode string `json:"bankCode"`
}

func (h *PaymentHandler) Create(c *gin.Context) {
	var req createPaymentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	payment, err := h.payments.Create(ctx, usecase.CreatePaymentInput{
		OrderID:  req.OrderID,
		MethodID: req.MethodID,
		BankCode: req.BankCode,
		ClientIP: c.ClientIP(),
	})
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}
		logging.From(c).Error("create payment failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"paymentId":  payment.ID,
		"orderId":    payment.OrderID,
		"amount":     payment.Amount,
		"status":     string(payment.Status),
		"paymentUrl": payment.PaymentURL,
	})
}

// IPN is the gateway-facing confirmation endpoint. It accepts the flat
// key-value set the gateway posts and answers with the gateway's ack
// codes; internal detail is logged, never echoed back.
func (h *PaymentHandler) IPN(c *gin.Context) {
	params := map[string]string{}
	for k, vs := range c.Request.URL.Query() {
		if len(vs) > 0 {
			params[k] = vs[0]
		}
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	out, err := h.payments.Confirm(ctx, params)
	switch {
	case errors.Is(err, domain.ErrInvalidSignature):
		paymentCallbacksTotal.WithLabelValues("invalid_signature").Inc()
		c.JSON(http.StatusOK, gin.H{"RspCode": "97", "Message": "Invalid signature"})
	case errors.Is(err, domain.ErrPaymentNotFound), errors.Is(err, domain.ErrOrderNotFound):
		paymentCallbacksTotal.WithLabelValues("not_found").Inc()
		c.JSON(http.StatusOK, gin.H{"RspCode": "01", "Message": "Order not found"})
	case err != nil:
		paymentCallbacksTotal.WithLabelValues("error").Inc()
		logging.From(c).Error("payment confirm failed", "error", err)
		// non-2xx makes the gateway retry the delivery
		c.JSON(http.StatusInternalServerError, gin.H{"RspCode": "99", "Message": "Unknown error"})
	case out.Duplicate:
		paymentCallbacksTotal.WithLabelValues("duplicate").Inc()
		c.JSON(http.StatusOK, gin.H{"RspCode": "02", "Message": "Order already confirmed"})
	default:
		paymentCallbacksTotal.WithLabelValues("ok").Inc()
		c.JSON(http.StatusOK, gin.H{"RspCode": "00", "Message": "Confirm Success"})
	}
}
