package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mudogruer/istakip-18.01.26/internal/dto"
	"github.com/mudogruer/istakip-18.01.26/internal/middleware"
	"github.com/mudogruer/istakip-18.01.26/internal/service"
)

type SuppliersHandler struct{ svc service.SupplierService }

func NewSuppliersHandler(svc service.SupplierService) *SuppliersHandler {
	return &SuppliersHandler{svc: svc}
}

// Create POST /v1/suppliers
func (h *SuppliersHandler) Create(c *gin.Context) {
	var req dto.CreateSupplierRequest
	if !bindAndValidate(c, &req) {
		return
	}
	supplier, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, supplier)
}

// List GET /v1/suppliers
func (h *SuppliersHandler) List(c *gin.Context) {
	suppliers, err := h.svc.List(c.Request.Context(), c.Query("type"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, suppliers)
}

// Get GET /v1/suppliers/:id
func (h *SuppliersHandler) Get(c *gin.Context) {
	supplier, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, supplier)
}

// Update PUT /v1/suppliers/:id
func (h *SuppliersHandler) Update(c *gin.Context) {
	var req dto.UpdateSupplierRequest
	if !bindAndValidate(c, &req) {
		return
	}
	supplier, err := h.svc.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, supplier)
}

// Delete DELETE /v1/suppliers/:id
func (h *SuppliersHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusNoContent, nil)
}

// AddTransaction POST /v1/suppliers/:id/transactions
func (h *SuppliersHandler) AddTransaction(c *gin.Context) {
	var req dto.SupplierTransactionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	tx, err := h.svc.AddTransaction(c.Request.Context(), c.Param("id"), middleware.Username(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tx)
}

// Transactions GET /v1/suppliers/:id/transactions
func (h *SuppliersHandler) Transactions(c *gin.Context) {
	resp, err := h.svc.Transactions(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DeleteTransaction DELETE /v1/suppliers/:id/transactions/:txId
func (h *SuppliersHandler) DeleteTransaction(c *gin.Context) {
	if err := h.svc.DeleteTransaction(c.Request.Context(), c.Param("id"), c.Param("txId")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusNoContent, nil)
}
