package api

import (
	"net/http"

	"marketplace-service/internal/service"

	"github.com/gin-gonic/gin"
)

// createOrder answers 201 for a new order and 200 when the Idempotency-Key replays one
func (h *Handler) createOrder(c *gin.Context) {
	var req service.CreateOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}
	req.IdempotencyKey = c.GetHeader("Idempotency-Key")

	order, created, err := h.svc.Orders.CreateOrder(c.Request.Context(), actor(c), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	status := http.StatusCreated
	if !created {
		status = http.StatusOK
	}
	c.JSON(status, order)
}

func (h *Handler) getOrder(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	order, err := h.svc.Orders.GetOrder(c.Request.Context(), actor(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) updateOrderState(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req service.UpdateOrderStateRequest
	if !h.bindJSON(c, &req) {
		return
	}

	order, err := h.svc.Orders.UpdateOrderState(c.Request.Context(), actor(c), id, &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) listPurchases(c *gin.Context) {
	orders, err := h.svc.Orders.ListPurchases(c.Request.Context(), actor(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *Handler) listSales(c *gin.Context) {
	orders, err := h.svc.Orders.ListSales(c.Request.Context(), actor(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *Handler) createRating(c *gin.Context) {
	var req service.CreateRatingRequest
	if !h.bindJSON(c, &req) {
		return
	}

	rating, err := h.svc.Ratings.CreateRating(c.Request.Context(), actor(c), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rating)
}

func (h *Handler) userRatings(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	summary, err := h.svc.Ratings.GetUserRatings(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) listWallets(c *gin.Context) {
	wallets, err := h.svc.Wallets.Wallets(c.Request.Context(), actor(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, wallets)
}

func (h *Handler) connectWallet(c *gin.Context) {
	var req service.ConnectWalletRequest
	if !h.bindJSON(c, &req) {
		return
	}

	wallets, err := h.svc.Wallets.Connect(c.Request.Context(), actor(c), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":    "Billetera " + req.Kind + " conectada exitosamente",
		"billeteras": wallets,
	})
}

func (h *Handler) disconnectWallet(c *gin.Context) {
	var req service.DisconnectWalletRequest
	if !h.bindJSON(c, &req) {
		return
	}

	wallets, err := h.svc.Wallets.Disconnect(c.Request.Context(), actor(c), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":    "Billetera " + req.Kind + " desconectada",
		"billeteras": wallets,
	})
}

func (h *Handler) paymentMethods(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"metodos": h.svc.Payments.Methods()})
}

func (h *Handler) processPayment(c *gin.Context) {
	var req service.ProcessPaymentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	tx, err := h.svc.Payments.ProcessPayment(c.Request.Context(), actor(c), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":     "Pago procesado exitosamente",
		"transaccion": tx,
	})
}
