package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"checkout-service/internal/models"
	"checkout-service/internal/service"
	"checkout-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	checkoutService *service.CheckoutService
	webhookService  *service.WebhookService
}

// NewHandler creates a new HTTP handler
func NewHandler(checkoutService *service.CheckoutService, webhookService *service.WebhookService) *Handler {
	return &Handler{
		checkoutService: checkoutService,
		webhookService:  webhookService,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/payments", h.createPayment)
		v1.POST("/payments/webhook", h.paymentWebhook)
		v1.GET("/orders/:id", h.getOrder)
		v1.GET("/orders/:id/status", h.getOrderStatus)
		v1.GET("/users/:id/orders", h.listOrders)
		v1.PATCH("/orders/:id/status", h.updateOrderStatus)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// createPayment persists a pending order from the submitted cart and returns
// the signed gateway payload for the client-side redirect.
func (h *Handler) createPayment(c *gin.Context) {
	var req service.CheckoutRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	req.BuyerIP = buyerIP(c)

	resp, err := h.checkoutService.CreatePayment(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidLineItem):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, models.ErrConfiguration):
			c.JSON(http.StatusInternalServerError, gin.H{"error": "payment gateway is not configured"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create payment"})
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}

// paymentWebhook receives the gateway's form-encoded payment notification.
// The gateway protocol expects a bare plaintext "OK" acknowledgement.
func (h *Handler) paymentWebhook(c *gin.Context) {
	cb := service.Callback{
		MerchantOID: c.PostForm("merchant_oid"),
		Status:      c.PostForm("status"),
		TotalAmount: c.PostForm("total_amount"),
		Hash:        c.PostForm("hash"),
	}

	if err := h.webhookService.HandleCallback(c.Request.Context(), cb); err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}

	c.String(http.StatusOK, "OK")
}

// getOrder returns an order with its items, scoped to the requesting user.
func (h *Handler) getOrder(c *gin.Context) {
	userID := requestUserID(c)
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing user id"})
		return
	}

	order, items, err := h.checkoutService.GetOrder(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order": order,
		"items": items,
	})
}

// getOrderStatus returns just the order status; the confirmation page polls
// this after the gateway redirect.
func (h *Handler) getOrderStatus(c *gin.Context) {
	userID := requestUserID(c)
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing user id"})
		return
	}

	status, err := h.checkoutService.GetOrderStatus(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": status})
}

// listOrders returns a user's order history.
func (h *Handler) listOrders(c *gin.Context) {
	orders, err := h.checkoutService.ListOrders(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list orders"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// updateOrderStatus applies a fulfillment status change.
func (h *Handler) updateOrderStatus(c *gin.Context) {
	var body struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	err := h.checkoutService.AdvanceFulfillment(c.Request.Context(), c.Param("id"), body.Status)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": body.Status})
}

// buyerIP resolves the originating client address the way the gateway expects
// it signed: first X-Forwarded-For hop, then the socket peer.
func buyerIP(c *gin.Context) string {
	if fwd := c.GetHeader("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return "1.1.1.1"
}

// requestUserID extracts the caller identity forwarded by the auth layer.
func requestUserID(c *gin.Context) string {
	if id := c.GetHeader("X-User-ID"); id != "" {
		return id
	}
	return c.Query("userId")
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
