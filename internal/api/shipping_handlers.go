package api

import (
	"encoding/json"
	"net/http"

	"marketplace-service/internal/service"

	"github.com/gin-gonic/gin"
)

func (h *Handler) listCarriers(c *gin.Context) {
	carriers, err := h.svc.Shipping.ListCarriers(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, carriers)
}

func (h *Handler) quoteShipping(c *gin.Context) {
	var req service.QuoteRequest
	if !h.bindJSON(c, &req) {
		return
	}

	quote, err := h.svc.Shipping.Quote(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

func (h *Handler) createShipment(c *gin.Context) {
	var req service.CreateShipmentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	shipment, err := h.svc.Shipping.CreateShipment(c.Request.Context(), actor(c), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, shipment)
}

func (h *Handler) getShipment(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	shipment, err := h.svc.Shipping.GetShipment(c.Request.Context(), actor(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, shipment)
}

// trackingWebhook takes carrier callbacks. Only the shared secret header guards it.
func (h *Handler) trackingWebhook(c *gin.Context) {
	if err := h.svc.Shipping.AuthorizeWebhook(c.GetHeader("X-Webhook-Secret")); err != nil {
		h.respondError(c, err)
		return
	}

	payload := map[string]interface{}{}
	dec := json.NewDecoder(c.Request.Body)
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Payload inválido"})
		return
	}

	shipment, event, err := h.svc.Shipping.IngestTrackingWebhook(c.Request.Context(), payload)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":     "Webhook procesado correctamente",
		"shipment_id": shipment.ID,
		"evento_id":   event.ID,
	})
}
