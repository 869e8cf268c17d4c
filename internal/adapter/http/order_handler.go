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

type OrderHandler struct {
	checkout *usecase.Checkout
	status   *usecase.OrderStatusService
	query    usecase.OrderRepo
}

func NewOrderHandler(checkout *usecase.Checkout, status *usecase.OrderStatusService, query usecase.OrderRepo) *OrderHandler {
	return &OrderHandler{checkout: checkout, status: status, query: query}
}

type checkoutReq struct {
	UserID           int64   `json:"userId" binding:"required"`
	AddressID        int64   `json:"addressId" binding:"required"`
	VariantIDs       []int64 `json:"variantIds"`
	ShippingMethodID int64   `json:"shippingMethodId"`
	WeightKg         float64 `json:"weightKg"`
}

type orderItemResp struct {
	VariantID int64 `json:"variantId"`
	Quantity  int   `json:"quantity"`
	UnitPrice int64 `json:"unitPrice"`
}

type orderResp struct {
	OrderID     string          `json:"orderId"`
	Status      string          `json:"status"`
	TotalAmount int64           `json:"totalAmount"`
	ShippingFee int64           `json:"shippingFee"`
	Items       []orderItemResp `json:"items"`
}

func toOrderResp(o *domain.Order) orderResp {
	resp := orderResp{
		OrderID:     o.ID,
		Status:      string(o.Status),
		TotalAmount: o.TotalAmount,
		ShippingFee: o.ShippingFee,
	}
	for _, it := range o.Items {
		resp.Items = append(resp.Items, orderItemResp{
			VariantID: it.VariantID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}
	return resp
}

// Checkout handler: translate to use case input
func (h *OrderHandler) Checkout(c *gin.Context) {
	var req checkoutReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
		return
	}

	idemKey := c.GetHeader("X-Idempotency-Key") // prevent duplicated requests

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	out, err := h.checkout.Execute(ctx, usecase.CheckoutInput{
		UserID:           req.UserID,
		AddressID:        req.AddressID,
		VariantIDs:       req.VariantIDs,
		ShippingMethodID: req.ShippingMethodID,
		WeightKg:         req.WeightKg,
		IdempotencyKey:   idemKey,
	})
	if err != nil {
		checkoutsTotal.WithLabelValues("error").Inc()
		c.JSON(checkoutErrStatus(err), gin.H{"error": err.Error()})
		return
	}

	checkoutsTotal.WithLabelValues("ok").Inc()
	c.JSON(http.StatusCreated, toOrderResp(out.Order))
}

func checkoutErrStatus(err error) int {
	var stock *domain.InsufficientStockError
	switch {
	case errors.Is(err, domain.ErrEmptySelection):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrAddressNotOwned):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrAddressNotFound),
		errors.Is(err, domain.ErrVariantNotFound),
		errors.Is(err, domain.ErrShippingMethodNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrVariantUnavailable), errors.As(err, &stock):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func (h *OrderHandler) GetOrderByID(c *gin.Context) {
	id := c.Param("id")
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	order, err := h.query.GetByID(ctx, id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	c.JSON(http.StatusOK, toOrderResp(order))
}

type updateStatusReq struct {
	Status string `json:"status" binding:"required"`
}

// UpdateStatus drives a single lifecycle transition.
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var req updateStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	err := h.status.Transition(ctx, c.Param("id"), domain.OrderStatus(req.Status))
	if err != nil {
		h.transitionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orderId": c.Param("id"), "status": req.Status})
}

// Cancel transitions the order to CANCELLED and restores stock.
func (h *OrderHandler) Cancel(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.status.Cancel(ctx, c.Param("id")); err != nil {
		h.transitionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orderId": c.Param("id"), "status": string(domain.OrderCancelled)})
}

func (h *OrderHandler) transitionError(c *gin.Context, err error) {
	var invalid *domain.InvalidTransitionError
	switch {
	case errors.Is(err, domain.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
	case errors.As(err, &invalid):
		c.JSON(http.StatusConflict, gin.H{"error": invalid.Error()})
	default:
		logging.From(c).Error("order transition failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
	}
}
