package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mudogruer/istakip-18.01.26/internal/dto"
	"github.com/mudogruer/istakip-18.01.26/internal/service"
)

type ProductionHandler struct{ svc service.ProductionService }

func NewProductionHandler(svc service.ProductionService) *ProductionHandler {
	return &ProductionHandler{svc: svc}
}

// Create POST /v1/production
func (h *ProductionHandler) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if !bindAndValidate(c, &req) {
		return
	}
	order, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// List GET /v1/production
func (h *ProductionHandler) List(c *gin.Context) {
	var filter dto.OrderFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid query: " + err.Error()})
		return
	}
	orders, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// Get GET /v1/production/:id
func (h *ProductionHandler) Get(c *gin.Context) {
	order, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// Update PUT /v1/production/:id
func (h *ProductionHandler) Update(c *gin.Context) {
	var req dto.CreateOrderRequest
	if !bindAndValidate(c, &req) {
		return
	}
	order, err := h.svc.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// Delete DELETE /v1/production/:id
func (h *ProductionHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusNoContent, nil)
}

// RecordDelivery POST /v1/production/:id/delivery
func (h *ProductionHandler) RecordDelivery(c *gin.Context) {
	var req dto.RecordDeliveryRequest
	if !bindAndValidate(c, &req) {
		return
	}
	order, err := h.svc.RecordDelivery(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// ResolveIssue POST /v1/production/:id/issues/:issueId/resolve
func (h *ProductionHandler) ResolveIssue(c *gin.Context) {
	var req dto.ResolveIssueRequest
	if !bindAndValidate(c, &req) {
		return
	}
	order, err := h.svc.ResolveIssue(c.Request.Context(), c.Param("id"), c.Param("issueId"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// ByJob GET /v1/production/by-job/:jobId
func (h *ProductionHandler) ByJob(c *gin.Context) {
	resp, err := h.svc.ByJob(c.Request.Context(), c.Param("jobId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Summary GET /v1/production/summary
func (h *ProductionHandler) Summary(c *gin.Context) {
	resp, err := h.svc.Summary(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Alerts GET /v1/production/alerts
func (h *ProductionHandler) Alerts(c *gin.Context) {
	alerts, err := h.svc.Alerts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, alerts)
}

// Combinations GET /v1/production/combinations
func (h *ProductionHandler) Combinations(c *gin.Context) {
	names, err := h.svc.Combinations(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, names)
}
