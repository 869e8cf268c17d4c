package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	domain "github.com/son261103/api-sell-clothes-v1--sub000/internal/entity"
	"github.com/son261103/api-sell-clothes-v1--sub000/internal/usecase"
)

type CouponHandler struct {
	coupons *usecase.CouponService
}

func NewCouponHandler(coupons *usecase.CouponService) *CouponHandler {
	return &CouponHandler{coupons: coupons}
}

type validateCouponReq struct {
	Code        string `json:"code" binding:"required"`
	OrderAmount int64  `json:"orderAmount" binding:"required,gt=0"`
}

// Validate is the side-effect-free preview; safe to call repeatedly.
func (h *CouponHandler) Validate(c *gin.Context) {
	var req validateCouponReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	result, err := h.coupons.Validate(ctx, req.Code, req.OrderAmount)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"valid":          result.Valid,
		"message":        result.Reason,
		"discountAmount": result.DiscountAmount,
	})
}

type applyCouponReq struct {
	Code string `json:"code" binding:"required"`
}

// Apply freezes the discount onto the order and bumps the usage count.
func (h *CouponHandler) Apply(c *gin.Context) {
	var req applyCouponReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	discount, err := h.coupons.ApplyToOrder(ctx, c.Param("id"), req.Code)
	if err != nil {
		var exhausted *domain.CouponExhaustedError
		switch {
		case errors.Is(err, domain.ErrOrderNotFound), errors.Is(err, domain.ErrCouponNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.As(err, &exhausted):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"orderId": c.Param("id"), "discountAmount": discount})
}
