package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/mudogruer/istakip-18.01.26/internal/apierror"
	"github.com/mudogruer/istakip-18.01.26/internal/dto"
	"github.com/mudogruer/istakip-18.01.26/internal/infra"
	"github.com/mudogruer/istakip-18.01.26/internal/repository"
	"github.com/mudogruer/istakip-18.01.26/internal/service"
	"github.com/mudogruer/istakip-18.01.26/internal/worker"
)

type JobsHandler struct {
	svc        service.JobService
	dispatcher *worker.Dispatcher
	pdfPath    string
	opsEmail   string
}

func NewJobsHandler(svc service.JobService, dispatcher *worker.Dispatcher, pdfPath, opsEmail string) *JobsHandler {
	return &JobsHandler{svc: svc, dispatcher: dispatcher, pdfPath: pdfPath, opsEmail: opsEmail}
}

// Create POST /v1/jobs
func (h *JobsHandler) Create(c *gin.Context) {
	var req dto.CreateJobRequest
	if !bindAndValidate(c, &req) {
		return
	}
	job, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, job)
}

// List GET /v1/jobs
func (h *JobsHandler) List(c *gin.Context) {
	filter := repository.JobFilter{
		Status:     c.Query("status"),
		StartType:  c.Query("startType"),
		CustomerID: c.Query("customerId"),
	}
	if v := c.Query("isArchive"); v != "" {
		isArchive := v == "true" || v == "1"
		filter.IsArchive = &isArchive
	}
	jobs, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, jobs)
}

// Get GET /v1/jobs/:id
func (h *JobsHandler) Get(c *gin.Context) {
	job, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// UpdateMeasure PUT /v1/jobs/:id/measure
func (h *JobsHandler) UpdateMeasure(c *gin.Context) {
	var req dto.MeasureUpdateRequest
	if !bindAndValidate(c, &req) {
		return
	}
	job, err := h.svc.UpdateMeasure(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// UpdateOffer PUT /v1/jobs/:id/offer
func (h *JobsHandler) UpdateOffer(c *gin.Context) {
	var req dto.OfferUpdateRequest
	if !bindAndValidate(c, &req) {
		return
	}
	job, err := h.svc.UpdateOffer(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// StartApproval POST /v1/jobs/:id/approval/start
func (h *JobsHandler) StartApproval(c *gin.Context) {
	var req dto.ApprovalStartRequest
	if !bindAndValidate(c, &req) {
		return
	}
	job, err := h.svc.StartApproval(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// UpdatePayment PUT /v1/jobs/:id/approval/payment
func (h *JobsHandler) UpdatePayment(c *gin.Context) {
	var req dto.PaymentUpdateRequest
	if !bindAndValidate(c, &req) {
		return
	}
	job, err := h.svc.UpdatePayment(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// UpdateStock PUT /v1/jobs/:id/stock
func (h *JobsHandler) UpdateStock(c *gin.Context) {
	var req dto.StockStatusRequest
	if !bindAndValidate(c, &req) {
		return
	}
	job, err := h.svc.UpdateStock(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// UpdateProduction PUT /v1/jobs/:id/production
func (h *JobsHandler) UpdateProduction(c *gin.Context) {
	var req dto.ProductionStatusRequest
	if !bindAndValidate(c, &req) {
		return
	}
	job, err := h.svc.UpdateProduction(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// ScheduleAssembly PUT /v1/jobs/:id/assembly/schedule
func (h *JobsHandler) ScheduleAssembly(c *gin.Context) {
	var req dto.AssemblyScheduleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	job, err := h.svc.ScheduleAssembly(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// CompleteAssembly PUT /v1/jobs/:id/assembly/complete
func (h *JobsHandler) CompleteAssembly(c *gin.Context) {
	var req dto.AssemblyCompleteRequest
	if !bindAndValidate(c, &req) {
		return
	}
	job, err := h.svc.CompleteAssembly(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// UpdateStatus PUT /v1/jobs/:id/status
func (h *JobsHandler) UpdateStatus(c *gin.Context) {
	var req dto.StatusUpdateRequest
	if !bindAndValidate(c, &req) {
		return
	}
	job, err := h.svc.UpdateStatus(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// CloseFinance PUT /v1/jobs/:id/finance/close
func (h *JobsHandler) CloseFinance(c *gin.Context) {
	var req dto.FinanceCloseRequest
	if !bindAndValidate(c, &req) {
		return
	}
	job, err := h.svc.CloseFinance(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	// Statement PDF goes to the office asynchronously; a mail failure never
	// blocks the closure.
	if h.dispatcher != nil && h.opsEmail != "" {
		if path, pdfErr := infra.GenerateClosingStatementPDF(job, h.pdfPath); pdfErr == nil {
			_ = h.dispatcher.EnqueueEmail(c.Request.Context(), worker.EmailJobPayload{
				ToEmail:        h.opsEmail,
				Subject:        "Closing statement " + job.ID,
				Body:           "The closing statement for " + job.Title + " is attached.",
				AttachmentPath: path,
			})
		} else {
			log.Error().Err(pdfErr).Str("job_id", job.ID).Msg("closing statement PDF failed")
		}
	}

	c.JSON(http.StatusOK, job)
}

// FinanceReceipt GET /v1/jobs/:id/finance/receipt
func (h *JobsHandler) FinanceReceipt(c *gin.Context) {
	job, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if !job.Finance.Closed {
		respondError(c, apierror.InvalidState("job is not financially closed"))
		return
	}

	path, err := infra.GenerateClosingStatementPDF(job, h.pdfPath)
	if err != nil {
		log.Error().Err(err).Str("job_id", job.ID).Msg("closing statement PDF failed")
		c.JSON(http.StatusInternalServerError, apierror.New("could not generate statement"))
		return
	}
	c.FileAttachment(path, "statement_"+job.ID+".pdf")
}
