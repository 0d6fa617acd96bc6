package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"marketplace-service/internal/apperror"
	"marketplace-service/internal/auth"
	"marketplace-service/internal/models"
	"marketplace-service/internal/service"
	"marketplace-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Pinger reports whether a backing dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services groups the business engines behind the HTTP surface
type Services struct {
	Catalog     *service.CatalogService
	Commissions *service.CommissionService
	Orders      *service.OrderService
	Offers      *service.OfferService
	Ratings     *service.RatingService
	Questions   *service.QuestionService
	Messages    *service.MessageService
	Shipping    *service.ShippingService
	Wallets     *service.WalletService
	Payments    *service.PaymentService
}

// Handler contains HTTP handlers
type Handler struct {
	svc      Services
	verifier *auth.Verifier
	storage  Pinger
	logger   *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(svc Services, verifier *auth.Verifier, storage Pinger) *Handler {
	return &Handler{
		svc:      svc,
		verifier: verifier,
		storage:  storage,
		logger:   util.GetLogger(),
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
		v1.GET("/products", h.listProducts)
		v1.GET("/products/:id", h.getProduct)
		v1.GET("/products/:id/questions", h.listQuestions)
		v1.GET("/users/:id/ratings", h.userRatings)
		v1.GET("/payments/methods", h.paymentMethods)
		v1.GET("/shipping/carriers", h.listCarriers)
		v1.POST("/shipping/quote", h.quoteShipping)
		v1.POST("/shipping/webhook", h.trackingWebhook)
	}

	authed := v1.Group("", h.verifier.Middleware(h.respondError))
	{
		authed.GET("/products/mine", h.myProducts)
		authed.POST("/products", h.createProduct)
		authed.PUT("/products/:id", h.updateProduct)
		authed.PATCH("/products/:id", h.updateProduct)
		authed.DELETE("/products/:id", h.deleteProduct)
		authed.GET("/products/:id/offers", h.listOffers)

		authed.POST("/orders", h.createOrder)
		authed.GET("/orders/purchases", h.listPurchases)
		authed.GET("/orders/sales", h.listSales)
		authed.GET("/orders/:id", h.getOrder)
		authed.PATCH("/orders/:id", h.updateOrderState)

		authed.POST("/ratings", h.createRating)

		authed.POST("/offers", h.createOffer)
		authed.POST("/offers/:id/respond", h.respondOffer)

		authed.POST("/questions", h.askQuestion)
		authed.POST("/questions/:id/answer", h.answerQuestion)

		authed.POST("/messages", h.sendMessage)
		authed.GET("/messages", h.listMessages)
		authed.PATCH("/messages/:id/read", h.markMessageRead)

		authed.GET("/wallets", h.listWallets)
		authed.POST("/wallets/connect", h.connectWallet)
		authed.POST("/wallets/disconnect", h.disconnectWallet)
		authed.POST("/payments", h.processPayment)

		authed.POST("/shipping/shipments", h.createShipment)
		authed.GET("/shipping/shipments/:id", h.getShipment)

		admin := authed.Group("/admin")
		admin.GET("/commissions", h.listCommissions)
		admin.PUT("/commissions", h.upsertCommission)
		admin.GET("/commissions/totals", h.commissionTotals)
		admin.PATCH("/products/:id/state", h.setProductState)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck reports ready once storage answers a ping
func (h *Handler) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.storage.Ping(ctx); err != nil {
		h.logger.Warn("Readiness check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unavailable",
			"time":   time.Now().Unix(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

var statusByKind = map[apperror.Kind]int{
	apperror.KindNotFound:          http.StatusNotFound,
	apperror.KindForbidden:         http.StatusForbidden,
	apperror.KindUnauthorized:      http.StatusUnauthorized,
	apperror.KindConflict:          http.StatusBadRequest,
	apperror.KindInvalidRequest:    http.StatusBadRequest,
	apperror.KindInsufficientStock: http.StatusBadRequest,
	apperror.KindWalletNotLinked:   http.StatusBadRequest,
}

// respondError writes {"message": ...} with the status of the error kind
func (h *Handler) respondError(c *gin.Context, err error) {
	status, ok := statusByKind[apperror.KindOf(err)]
	if !ok {
		h.logger.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}
	c.JSON(status, gin.H{"message": apperror.MessageOf(err)})
}

// bindJSON decodes the body and answers 400 on malformed input
func (h *Handler) bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "Cuerpo de la solicitud inválido",
			"details": err.Error(),
		})
		return false
	}
	return true
}

// pathID parses the :id parameter
func (h *Handler) pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "ID inválido"})
		return 0, false
	}
	return id, true
}

func actor(c *gin.Context) models.Actor {
	a, _ := auth.ActorFrom(c)
	return a
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
