package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/quoteflow/quoteflow/internal/application/service"
	"github.com/quoteflow/quoteflow/internal/domain/entity"
	"github.com/quoteflow/quoteflow/internal/domain/workflow"
)

// Options holds request-level defaults applied when the client omits a
// field.
type Options struct {
	ShareLinkExpiryDays int
	DefaultSignProvider string
}

// Handler exposes the workflow facade over HTTP. It does request
// binding and status-code mapping only; all policy lives below.
type Handler struct {
	facade *service.WorkflowFacade
	opts   Options
	logger *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(facade *service.WorkflowFacade, opts Options, logger *zap.Logger) *Handler {
	return &Handler{
		facade: facade,
		opts:   opts,
		logger: logger,
	}
}

// writeError maps application errors to HTTP status codes.
func (h *Handler) writeError(c *gin.Context, err error) {
	var transitionErr *workflow.TransitionError
	if errors.As(err, &transitionErr) {
		c.JSON(http.StatusConflict, gin.H{
			"error":   transitionErr.Error(),
			"current": string(transitionErr.Current),
			"allowed": transitionErr.AllowedStrings(),
		})
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrExpired):
		status = http.StatusGone
	case errors.Is(err, service.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, service.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, workflow.ErrInvalidTransition), errors.Is(err, workflow.ErrGuardFailed):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// --- quotes ---

type createQuoteRequest struct {
	Title    string  `json:"title" binding:"required"`
	Total    float64 `json:"total"`
	Currency string  `json:"currency"`
}

func (h *Handler) CreateQuote(c *gin.Context) {
	var req createQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	quote, err := h.facade.CreateQuote(c.Request.Context(), credential(c), service.CreateQuoteInput{
		Title:    req.Title,
		Total:    req.Total,
		Currency: req.Currency,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, quote)
}

func (h *Handler) GetQuote(c *gin.Context) {
	quote, err := h.facade.GetQuote(c.Request.Context(), credential(c), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

func (h *Handler) ListQuotes(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	quotes, err := h.facade.ListQuotes(c.Request.Context(), credential(c), limit, offset)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quotes": quotes})
}

type quoteActionRequest struct {
	Notes  string `json:"notes"`
	Reason string `json:"reason"`
}

func (h *Handler) SubmitQuote(c *gin.Context) {
	var req quoteActionRequest
	_ = c.ShouldBindJSON(&req)

	quote, err := h.facade.SubmitQuote(c.Request.Context(), credential(c), c.Param("id"), req.Notes)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

func (h *Handler) ApproveQuote(c *gin.Context) {
	var req quoteActionRequest
	_ = c.ShouldBindJSON(&req)

	quote, err := h.facade.ApproveQuote(c.Request.Context(), credential(c), c.Param("id"), req.Notes)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

func (h *Handler) RejectQuote(c *gin.Context) {
	var req quoteActionRequest
	_ = c.ShouldBindJSON(&req)

	quote, err := h.facade.RejectQuote(c.Request.Context(), credential(c), c.Param("id"), req.Reason)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

func (h *Handler) AcceptQuote(c *gin.Context) {
	var req quoteActionRequest
	_ = c.ShouldBindJSON(&req)

	quote, err := h.facade.AcceptQuote(c.Request.Context(), credential(c), c.Param("id"), req.Notes)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

func (h *Handler) DeclineQuote(c *gin.Context) {
	quote, err := h.facade.DeclineQuote(c.Request.Context(), credential(c), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

// --- contracts ---

type createContractRequest struct {
	Title      string  `json:"title" binding:"required"`
	TotalValue float64 `json:"total_value"`
	Currency   string  `json:"currency"`
}

func (h *Handler) CreateContract(c *gin.Context) {
	var req createContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	contract, err := h.facade.CreateContract(c.Request.Context(), credential(c), service.CreateContractInput{
		Title:      req.Title,
		TotalValue: req.TotalValue,
		Currency:   req.Currency,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, contract)
}

func (h *Handler) GetContract(c *gin.Context) {
	detail, err := h.facade.GetContract(c.Request.Context(), credential(c), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

type checkpointRequest struct {
	Name            string `json:"name" binding:"required"`
	CheckpointOrder int    `json:"checkpoint_order"`
	RequiredRole    string `json:"required_role"`
}

func (h *Handler) AddCheckpoint(c *gin.Context) {
	var req checkpointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cp, err := h.facade.AddCheckpoint(c.Request.Context(), credential(c), c.Param("id"), service.CheckpointInput{
		Name:            req.Name,
		CheckpointOrder: req.CheckpointOrder,
		RequiredRole:    entity.Role(req.RequiredRole),
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cp)
}

type decisionRequest struct {
	Decision       string `json:"decision" binding:"required"`
	Notes          string `json:"notes"`
	RejectedReason string `json:"rejected_reason"`
}

func (h *Handler) DecideCheckpoint(c *gin.Context) {
	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cp, err := h.facade.DecideCheckpoint(c.Request.Context(), credential(c),
		c.Param("id"), c.Param("checkpointId"), service.DecisionInput{
			Decision:       req.Decision,
			Notes:          req.Notes,
			RejectedReason: req.RejectedReason,
		})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cp)
}

type signatureRequest struct {
	Signers  []string `json:"signers" binding:"required"`
	Provider string   `json:"provider"`
	Message  string   `json:"message"`
}

func (h *Handler) RequestSignature(c *gin.Context) {
	var req signatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Provider == "" {
		req.Provider = h.opts.DefaultSignProvider
	}

	esign, err := h.facade.RequestSignature(c.Request.Context(), credential(c), c.Param("id"), service.SignatureInput{
		Signers:  req.Signers,
		Provider: req.Provider,
		Message:  req.Message,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, esign)
}

// --- quotations ---

type quotationLineRequest struct {
	Category    string  `json:"category"`
	Description string  `json:"description" binding:"required"`
	Quantity    float64 `json:"quantity"`
	Unit        string  `json:"unit"`
	UnitPrice   float64 `json:"unit_price"`
}

type createQuotationRequest struct {
	LeadName       string                 `json:"lead_name" binding:"required"`
	LeadCompany    string                 `json:"lead_company"`
	Currency       string                 `json:"currency"`
	DiscountAmount float64                `json:"discount_amount"`
	TaxAmount      float64                `json:"tax_amount"`
	ValidDays      int                    `json:"valid_days"`
	Lines          []quotationLineRequest `json:"lines"`
}

func (h *Handler) CreateQuotation(c *gin.Context) {
	var req createQuotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lines := make([]service.QuotationLineInput, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = service.QuotationLineInput{
			Category:    l.Category,
			Description: l.Description,
			Quantity:    l.Quantity,
			Unit:        l.Unit,
			UnitPrice:   l.UnitPrice,
		}
	}

	quotation, err := h.facade.CreateQuotation(c.Request.Context(), credential(c), service.CreateQuotationInput{
		LeadName:       req.LeadName,
		LeadCompany:    req.LeadCompany,
		Currency:       req.Currency,
		DiscountAmount: req.DiscountAmount,
		TaxAmount:      req.TaxAmount,
		ValidDays:      req.ValidDays,
		Lines:          lines,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, quotation)
}

func (h *Handler) GetQuotation(c *gin.Context) {
	quotation, err := h.facade.GetQuotation(c.Request.Context(), credential(c), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, quotation)
}

type statusUpdateRequest struct {
	Status string `json:"status" binding:"required"`
	Notes  string `json:"notes"`
}

func (h *Handler) UpdateQuotationStatus(c *gin.Context) {
	var req statusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	quotation, err := h.facade.UpdateQuotationStatus(c.Request.Context(), credential(c),
		c.Param("id"), req.Status, req.Notes)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, quotation)
}

func (h *Handler) GetQuotationStatus(c *gin.Context) {
	report, err := h.facade.GetQuotationStatus(c.Request.Context(), credential(c), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// --- share links and public access ---

type createShareLinkRequest struct {
	ExpiresInDays int `json:"expires_in_days"`
}

func (h *Handler) CreateShareLink(c *gin.Context) {
	var req createShareLinkRequest
	_ = c.ShouldBindJSON(&req)
	if req.ExpiresInDays <= 0 {
		req.ExpiresInDays = h.opts.ShareLinkExpiryDays
	}

	link, err := h.facade.CreateShareLink(c.Request.Context(), credential(c), c.Param("id"), req.ExpiresInDays)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, link)
}

func (h *Handler) GetSharedQuote(c *gin.Context) {
	view, err := h.facade.GetSharedQuote(c.Request.Context(), c.Param("token"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

type customerResponseRequest struct {
	ResponseType  string `json:"response_type" binding:"required"`
	CustomerName  string `json:"customer_name" binding:"required"`
	CustomerEmail string `json:"customer_email"`
	Signature     string `json:"signature"`
	Notes         string `json:"notes"`
}

func (h *Handler) SubmitQuoteResponse(c *gin.Context) {
	var req customerResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.facade.SubmitQuoteResponse(c.Request.Context(), c.Param("token"), service.ResponseInput{
		ResponseType:  req.ResponseType,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		Signature:     req.Signature,
		Notes:         req.Notes,
		IPAddress:     c.ClientIP(),
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) ListCustomerResponses(c *gin.Context) {
	responses, err := h.facade.ListCustomerResponses(c.Request.Context(), credential(c), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"responses": responses})
}

// --- versions ---

type createVersionRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) CreateQuoteVersion(c *gin.Context) {
	var req createVersionRequest
	_ = c.ShouldBindJSON(&req)

	version, err := h.facade.CreateQuoteVersion(c.Request.Context(), credential(c), c.Param("id"), req.Reason)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, version)
}

func (h *Handler) ListQuoteVersions(c *gin.Context) {
	versions, err := h.facade.ListQuoteVersions(c.Request.Context(), credential(c), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"versions": versions})
}

// --- audit ---

func (h *Handler) AuditTrail(c *gin.Context) {
	trail, err := h.facade.AuditTrail(c.Request.Context(), credential(c),
		c.Param("entityType"), c.Param("entityId"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": trail})
}
