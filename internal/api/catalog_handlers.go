package api

import (
	"net/http"

	"marketplace-service/internal/models"
	"marketplace-service/internal/service"

	"github.com/gin-gonic/gin"
)

func (h *Handler) listProducts(c *gin.Context) {
	filter := models.ProductFilter{
		Category: c.Query("categoria"),
		Search:   c.Query("busqueda"),
		SortBy:   c.DefaultQuery("ordenar_por", "fecha"),
	}

	products, err := h.svc.Catalog.ListProducts(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// getProduct counts a view on every successful fetch
func (h *Handler) getProduct(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	product, err := h.svc.Catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) myProducts(c *gin.Context) {
	products, err := h.svc.Catalog.MyProducts(c.Request.Context(), actor(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *Handler) createProduct(c *gin.Context) {
	var req service.CreateProductRequest
	if !h.bindJSON(c, &req) {
		return
	}

	product, err := h.svc.Catalog.CreateProduct(c.Request.Context(), actor(c), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (h *Handler) updateProduct(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req service.UpdateProductRequest
	if !h.bindJSON(c, &req) {
		return
	}

	product, err := h.svc.Catalog.UpdateProduct(c.Request.Context(), actor(c), id, &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) deleteProduct(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	if err := h.svc.Catalog.DeleteProduct(c.Request.Context(), actor(c), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Producto eliminado exitosamente"})
}

type productStateRequest struct {
	State models.ProductState `json:"estado"`
}

func (h *Handler) setProductState(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req productStateRequest
	if !h.bindJSON(c, &req) {
		return
	}

	product, err := h.svc.Catalog.SetProductState(c.Request.Context(), actor(c), id, req.State)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) listCommissions(c *gin.Context) {
	commissions, err := h.svc.Commissions.ListCommissions(c.Request.Context(), actor(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, commissions)
}

func (h *Handler) upsertCommission(c *gin.Context) {
	var req service.UpsertCommissionRequest
	if !h.bindJSON(c, &req) {
		return
	}

	commission, err := h.svc.Commissions.UpsertCommission(c.Request.Context(), actor(c), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, commission)
}

func (h *Handler) commissionTotals(c *gin.Context) {
	totals, err := h.svc.Commissions.Totals(c.Request.Context(), actor(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, totals)
}
