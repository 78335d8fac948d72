package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mudogruer/istakip-18.01.26/internal/dto"
	"github.com/mudogruer/istakip-18.01.26/internal/middleware"
	"github.com/mudogruer/istakip-18.01.26/internal/repository"
	"github.com/mudogruer/istakip-18.01.26/internal/service"
)

type PurchaseHandler struct{ svc service.PurchaseService }

func NewPurchaseHandler(svc service.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{svc: svc}
}

// Create POST /v1/purchase
func (h *PurchaseHandler) Create(c *gin.Context) {
	var req dto.CreatePurchaseOrderRequest
	if !bindAndValidate(c, &req) {
		return
	}
	order, err := h.svc.Create(c.Request.Context(), middleware.Username(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// List GET /v1/purchase
func (h *PurchaseHandler) List(c *gin.Context) {
	filter := repository.PurchaseOrderFilter{
		Status:     c.Query("status"),
		SupplierID: c.Query("supplierId"),
		HasPending: c.Query("hasPending") == "true",
	}
	orders, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// Get GET /v1/purchase/:id
func (h *PurchaseHandler) Get(c *gin.Context) {
	order, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// AddItems POST /v1/purchase/:id/items
func (h *PurchaseHandler) AddItems(c *gin.Context) {
	var req dto.AddPurchaseItemsRequest
	if !bindAndValidate(c, &req) {
		return
	}
	order, err := h.svc.AddItems(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// Send POST /v1/purchase/:id/send
func (h *PurchaseHandler) Send(c *gin.Context) {
	order, err := h.svc.Send(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// ReceiveDelivery POST /v1/purchase/:id/delivery
func (h *PurchaseHandler) ReceiveDelivery(c *gin.Context) {
	var req dto.ReceiveDeliveryRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if req.ReceivedBy == "" {
		req.ReceivedBy = middleware.Username(c)
	}
	order, err := h.svc.ReceiveDelivery(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// Delete DELETE /v1/purchase/:id
func (h *PurchaseHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusNoContent, nil)
}

// MissingItems GET /v1/purchase/missing-items
func (h *PurchaseHandler) MissingItems(c *gin.Context) {
	items, err := h.svc.MissingItems(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// PendingItems GET /v1/purchase/pending-items
func (h *PurchaseHandler) PendingItems(c *gin.Context) {
	items, err := h.svc.PendingItems(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}
