package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/mudogruer/istakip-18.01.26/internal/apierror"
	"github.com/mudogruer/istakip-18.01.26/internal/dto"
	"github.com/mudogruer/istakip-18.01.26/internal/infra"
	"github.com/mudogruer/istakip-18.01.26/internal/repository"
	"github.com/mudogruer/istakip-18.01.26/internal/service"
)

type StockHandler struct{ svc service.StockService }

func NewStockHandler(svc service.StockService) *StockHandler {
	return &StockHandler{svc: svc}
}

// CreateItem POST /v1/stock/items
func (h *StockHandler) CreateItem(c *gin.Context) {
	var req dto.CreateStockItemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	item, err := h.svc.CreateItem(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// ListItems GET /v1/stock/items
func (h *StockHandler) ListItems(c *gin.Context) {
	filter := repository.StockItemFilter{
		Query:        c.Query("search"),
		SupplierID:   c.Query("supplierId"),
		CriticalOnly: c.Query("critical") == "true",
	}
	items, err := h.svc.ListItems(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// SearchItems GET /v1/stock/items/search?q=
func (h *StockHandler) SearchItems(c *gin.Context) {
	items, err := h.svc.ListItems(c.Request.Context(), repository.StockItemFilter{Query: c.Query("q")})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// GetItemByCode GET /v1/stock/items/by-code/:productCode/:colorCode
func (h *StockHandler) GetItemByCode(c *gin.Context) {
	item, err := h.svc.GetItemByCode(c.Request.Context(), c.Param("productCode"), c.Param("colorCode"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// GetItem GET /v1/stock/items/:id
func (h *StockHandler) GetItem(c *gin.Context) {
	item, err := h.svc.GetItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// UpdateItem PUT /v1/stock/items/:id
func (h *StockHandler) UpdateItem(c *gin.Context) {
	var req dto.UpdateStockItemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	item, err := h.svc.UpdateItem(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// DeleteItem DELETE /v1/stock/items/:id
func (h *StockHandler) DeleteItem(c *gin.Context) {
	if err := h.svc.DeleteItem(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusNoContent, nil)
}

// RecordMovement POST /v1/stock/movements
func (h *StockHandler) RecordMovement(c *gin.Context) {
	var req dto.MovementRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RecordMovement(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ListMovements GET /v1/stock/movements
func (h *StockHandler) ListMovements(c *gin.Context) {
	filter := repository.MovementFilter{
		ItemID: c.Query("itemId"),
		JobID:  c.Query("jobId"),
		Type:   c.Query("type"),
	}
	movements, err := h.svc.ListMovements(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, movements)
}

// ExportMovements GET /v1/stock/movements/export
func (h *StockHandler) ExportMovements(c *gin.Context) {
	filter := repository.MovementFilter{
		ItemID: c.Query("itemId"),
		JobID:  c.Query("jobId"),
		Type:   c.Query("type"),
		Limit:  10000,
	}
	movements, err := h.svc.ListMovements(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	buf, err := infra.ExportMovementsXLSX(movements)
	if err != nil {
		log.Error().Err(err).Msg("movement export failed")
		c.JSON(http.StatusInternalServerError, apierror.New("could not build export"))
		return
	}

	fileName := "movements_" + time.Now().UTC().Format("20060102") + ".xlsx"
	c.Header("Content-Disposition", `attachment; filename="`+fileName+`"`)
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		buf.Bytes())
}

// BulkReserve POST /v1/stock/bulk-reserve
func (h *StockHandler) BulkReserve(c *gin.Context) {
	var req dto.BulkReserveRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.BulkReserve(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	// Per-line failures are part of the payload, not an HTTP error.
	c.JSON(http.StatusOK, resp)
}

// ListReservations GET /v1/stock/reservations
func (h *StockHandler) ListReservations(c *gin.Context) {
	filter := repository.ReservationFilter{
		JobID:  c.Query("jobId"),
		ItemID: c.Query("itemId"),
		Status: c.Query("status"),
	}
	reservations, err := h.svc.ListReservations(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reservations)
}

// ReleaseReservation PUT /v1/stock/reservations/:id/release
func (h *StockHandler) ReleaseReservation(c *gin.Context) {
	resp, err := h.svc.ReleaseReservation(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CriticalItems GET /v1/stock/critical
func (h *StockHandler) CriticalItems(c *gin.Context) {
	items, err := h.svc.CriticalItems(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// CheckAvailability GET /v1/stock/availability-check?items=id:qty,id:qty
func (h *StockHandler) CheckAvailability(c *gin.Context) {
	query := c.Query("items")
	if query == "" {
		c.JSON(http.StatusBadRequest, apierror.New("items query parameter is required"))
		return
	}
	resp, err := h.svc.CheckAvailability(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
