package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/son261103/api-sell-clothes-v1--sub000/internal/adapter/http/middleware"
	"github.com/son261103/api-sell-clothes-v1--sub000/internal/logging"
)

func NewRouter(oh *OrderHandler, ch *CouponHandler, ph *PaymentHandler, th *TokenHandler, authz *middleware.Authz) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.MetricsMiddleware())

	l := logging.New("http")
	r.Use(middleware.Logging(l))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})
	// Prometheus endpoint (scraped by Prometheus)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.POST("/v1/token", th.IssueToken)

	// gateway-facing; authenticated by its HMAC signature, not by JWT
	r.GET("/v1/payments/vnpay/ipn", ph.IPN)

	v1 := r.Group("/v1")
	{
		v1.POST("/checkout", authz.Require("orders.write"), oh.Checkout)
		v1.GET("/orders/:id", authz.Require("orders.read"), oh.GetOrderByID)
		v1.POST("/orders/:id/cancel", authz.Require("orders.write"), oh.Cancel)
		v1.PATCH("/orders/:id/status", authz.Require("orders.admin"), oh.UpdateStatus)
		v1.POST("/orders/:id/coupon", authz.Require("orders.write"), ch.Apply)
		v1.POST("/coupons/validate", authz.Require("coupons.read"), ch.Validate)
		v1.POST("/payments", authz.Require("payments.write"), ph.Create)
	}

	return r
}
