package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quoteflow/quoteflow/internal/application/port"
	"github.com/quoteflow/quoteflow/internal/domain/entity"
	"github.com/quoteflow/quoteflow/pkg/utils"
)

// ResponseInput is a customer's answer submitted through a public link.
type ResponseInput struct {
	ResponseType  string
	CustomerName  string
	CustomerEmail string
	Signature     string
	Notes         string
	IPAddress     string
}

// PublicLineItem is a customer-safe projection of one quotation line.
type PublicLineItem struct {
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Unit        string  `json:"unit"`
	UnitPrice   float64 `json:"unitPrice"`
	LineTotal   float64 `json:"lineTotal"`
}

// PublicQuoteView is the read-only projection a customer sees through a
// share link. IsExpired is computed against the quotation's own validity
// date, independent of link expiry.
type PublicQuoteView struct {
	QuoteNumber string           `json:"quote_number"`
	CreatedAt   time.Time        `json:"created_at"`
	ValidUntil  time.Time        `json:"valid_until"`
	Status      string           `json:"status"`
	LeadName    string           `json:"lead_name"`
	LeadCompany string           `json:"lead_company,omitempty"`
	LineItems   []PublicLineItem `json:"lineItems"`
	Subtotal    float64          `json:"subtotal"`
	Discount    float64          `json:"discount"`
	Tax         float64          `json:"tax"`
	Total       float64          `json:"total"`
	Currency    string           `json:"currency"`
	IsExpired   bool             `json:"isExpired"`
	CanRespond  bool             `json:"canRespond"`
}

// ShareLinkService issues and resolves opaque expiring tokens exposing a
// quotation to a customer, and records the customer's responses.
type ShareLinkService interface {
	CreateOrReuse(ctx context.Context, quotationID string, actor *entity.Actor, expiresInDays int) (*entity.PublicShareLink, error)
	Resolve(ctx context.Context, token string) (*PublicQuoteView, error)
	SubmitResponse(ctx context.Context, token string, input ResponseInput) (*entity.CustomerResponse, error)
	ListResponses(ctx context.Context, quotationID string) ([]*entity.CustomerResponse, error)
}

type shareLinkServiceImpl struct {
	linkRepo      port.ShareLinkRepository
	responseRepo  port.ResponseRepository
	quotationRepo port.QuotationRepository
	lineRepo      port.QuotationLineRepository
	distribution  DistributionService
	audit         AuditService
	logger        Logger
}

// NewShareLinkService creates a new ShareLinkService
func NewShareLinkService(
	linkRepo port.ShareLinkRepository,
	responseRepo port.ResponseRepository,
	quotationRepo port.QuotationRepository,
	lineRepo port.QuotationLineRepository,
	distribution DistributionService,
	audit AuditService,
	logger Logger,
) ShareLinkService {
	return &shareLinkServiceImpl{
		linkRepo:      linkRepo,
		responseRepo:  responseRepo,
		quotationRepo: quotationRepo,
		lineRepo:      lineRepo,
		distribution:  distribution,
		audit:         audit,
		logger:        logger,
	}
}

// CreateOrReuse returns the quotation's unexpired link, minting a fresh
// token only when none exists. Idempotent per quotation.
func (s *shareLinkServiceImpl) CreateOrReuse(ctx context.Context, quotationID string, actor *entity.Actor, expiresInDays int) (*entity.PublicShareLink, error) {
	quotation, err := s.quotationRepo.GetByID(ctx, quotationID)
	if err != nil {
		return nil, fmt.Errorf("get quotation: %w", err)
	}
	if quotation == nil {
		return nil, fmt.Errorf("%w: quotation %s", ErrNotFound, quotationID)
	}

	now := time.Now().UTC()

	existing, err := s.linkRepo.GetActiveByQuotationID(ctx, quotationID, now)
	if err != nil {
		return nil, fmt.Errorf("find active link: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	if expiresInDays <= 0 {
		expiresInDays = 30
	}

	token, err := newShareToken()
	if err != nil {
		return nil, fmt.Errorf("generate share token: %w", err)
	}

	link := &entity.PublicShareLink{
		ID:          uuid.NewString(),
		QuotationID: quotationID,
		ShareToken:  token,
		ExpiresAt:   now.AddDate(0, 0, expiresInDays),
		CreatedAt:   now,
	}

	if err := s.linkRepo.Create(ctx, link); err != nil {
		s.logger.Error("Failed to create share link", "error", err, "quotation_id", quotationID)
		return nil, fmt.Errorf("create share link: %w", err)
	}

	if err := s.audit.Record(ctx, entity.AuditEntityShareLink, link.ID, "created", actor, nil,
		map[string]string{"quotation_id": quotationID, "expires_at": link.ExpiresAt.Format(time.RFC3339)}); err != nil {
		return nil, err
	}

	s.logger.Info("Share link created", "link_id", link.ID, "quotation_id", quotationID)
	return link, nil
}

// Resolve looks up a token and returns the customer projection. The view
// counter increment is an observable side effect of the read; a lost
// increment under concurrency is tolerated.
func (s *shareLinkServiceImpl) Resolve(ctx context.Context, token string) (*PublicQuoteView, error) {
	link, quotation, err := s.resolveLink(ctx, token)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.linkRepo.RecordView(ctx, link.ID, now); err != nil {
		s.logger.Error("Failed to record link view", "error", err, "link_id", link.ID)
	}

	lines, err := s.lineRepo.GetByQuotationID(ctx, quotation.ID)
	if err != nil {
		return nil, fmt.Errorf("get quotation lines: %w", err)
	}

	items := make([]PublicLineItem, 0, len(lines))
	for _, line := range lines {
		category := line.Category
		if category == "" {
			category = "Items"
		}
		unit := line.Unit
		if unit == "" {
			unit = "units"
		}
		items = append(items, PublicLineItem{
			Category:    category,
			Description: line.Description,
			Quantity:    line.Quantity,
			Unit:        unit,
			UnitPrice:   line.UnitPrice,
			LineTotal:   line.LineTotal,
		})
	}

	isExpired := quotation.IsExpired(now)
	return &PublicQuoteView{
		QuoteNumber: quotation.QuoteNumber,
		CreatedAt:   quotation.CreatedAt,
		ValidUntil:  quotation.ValidUntil,
		Status:      quotation.Status,
		LeadName:    quotation.LeadName,
		LeadCompany: quotation.LeadCompany,
		LineItems:   items,
		Subtotal:    quotation.Subtotal,
		Discount:    quotation.DiscountAmount,
		Tax:         quotation.TaxAmount,
		Total:       quotation.Total,
		Currency:    quotation.Currency,
		IsExpired:   isExpired,
		CanRespond:  !isExpired && quotation.Status == entity.QuotationStatusSent,
	}, nil
}

// SubmitResponse validates the link exactly as Resolve does, enforces
// first-decisive-response-wins, and records the response. Advancing the
// quotation's distribution status afterwards is best-effort.
func (s *shareLinkServiceImpl) SubmitResponse(ctx context.Context, token string, input ResponseInput) (*entity.CustomerResponse, error) {
	switch input.ResponseType {
	case entity.ResponseAccept, entity.ResponseReject, entity.ResponseRequestChanges:
	default:
		return nil, fmt.Errorf("%w: response_type must be accept, reject or request_changes", ErrValidation)
	}
	if strings.TrimSpace(input.CustomerName) == "" {
		return nil, fmt.Errorf("%w: customer_name is required", ErrValidation)
	}
	if email := strings.TrimSpace(input.CustomerEmail); email != "" {
		if err := utils.ValidateEmail(email); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
	}

	link, quotation, err := s.resolveLink(ctx, token)
	if err != nil {
		return nil, err
	}

	if entity.DecisiveResponse(input.ResponseType) {
		decided, err := s.responseRepo.HasDecisive(ctx, quotation.ID)
		if err != nil {
			return nil, fmt.Errorf("check existing responses: %w", err)
		}
		if decided {
			return nil, fmt.Errorf("%w: quotation %s already has a decisive response", ErrConflict, quotation.ID)
		}
	}

	resp := &entity.CustomerResponse{
		ID:            uuid.NewString(),
		QuotationID:   quotation.ID,
		ResponseType:  input.ResponseType,
		CustomerName:  strings.TrimSpace(input.CustomerName),
		CustomerEmail: strings.TrimSpace(input.CustomerEmail),
		Signature:     input.Signature,
		Notes:         utils.SanitizeString(input.Notes),
		IPAddress:     input.IPAddress,
		CreatedAt:     time.Now().UTC(),
	}

	if err := s.responseRepo.Create(ctx, resp); err != nil {
		if errors.Is(err, port.ErrDuplicateResponse) {
			return nil, fmt.Errorf("%w: quotation %s already has a decisive response", ErrConflict, quotation.ID)
		}
		s.logger.Error("Failed to save customer response", "error", err, "quotation_id", quotation.ID)
		return nil, fmt.Errorf("save response: %w", err)
	}

	customer := &entity.Actor{ID: "customer", Name: resp.CustomerName, Email: resp.CustomerEmail}
	if err := s.audit.Record(ctx, entity.AuditEntityResponse, resp.ID, resp.ResponseType, customer, nil, resp); err != nil {
		return nil, err
	}

	s.advanceOnResponse(ctx, quotation, resp)

	s.logger.Info("Customer response recorded",
		"quotation_id", quotation.ID,
		"response_type", resp.ResponseType,
		"link_id", link.ID,
	)
	return resp, nil
}

// ListResponses returns all responses for a quotation, newest first
func (s *shareLinkServiceImpl) ListResponses(ctx context.Context, quotationID string) ([]*entity.CustomerResponse, error) {
	responses, err := s.responseRepo.GetByQuotationID(ctx, quotationID)
	if err != nil {
		s.logger.Error("Failed to list responses", "error", err, "quotation_id", quotationID)
		return nil, fmt.Errorf("list responses: %w", err)
	}
	return responses, nil
}

// resolveLink is the shared token validation: absent tokens are NotFound,
// present-but-stale tokens are Expired. Never conflate the two.
func (s *shareLinkServiceImpl) resolveLink(ctx context.Context, token string) (*entity.PublicShareLink, *entity.Quotation, error) {
	link, err := s.linkRepo.GetByToken(ctx, token)
	if err != nil {
		return nil, nil, fmt.Errorf("get share link: %w", err)
	}
	if link == nil {
		return nil, nil, fmt.Errorf("%w: share link", ErrNotFound)
	}
	if link.IsExpired(time.Now().UTC()) {
		return nil, nil, fmt.Errorf("%w: share link expired", ErrExpired)
	}

	quotation, err := s.quotationRepo.GetByID(ctx, link.QuotationID)
	if err != nil {
		return nil, nil, fmt.Errorf("get quotation: %w", err)
	}
	if quotation == nil {
		return nil, nil, fmt.Errorf("%w: quotation %s", ErrNotFound, link.QuotationID)
	}

	return link, quotation, nil
}

// advanceOnResponse moves the quotation's distribution status to match a
// decisive response, stepping through viewed when it is still in sent.
// Failures are logged: the response record is this component's
// postcondition, the status advance belongs to distribution.
func (s *shareLinkServiceImpl) advanceOnResponse(ctx context.Context, quotation *entity.Quotation, resp *entity.CustomerResponse) {
	var target string
	switch resp.ResponseType {
	case entity.ResponseAccept:
		target = entity.QuotationStatusAccepted
	case entity.ResponseReject:
		target = entity.QuotationStatusRejected
	default:
		return
	}

	note := fmt.Sprintf("customer response by %s", resp.CustomerName)

	if quotation.Status == entity.QuotationStatusSent {
		if _, err := s.distribution.SetStatus(ctx, quotation.ID, nil, entity.QuotationStatusViewed, note); err != nil {
			s.logger.Error("Failed to advance quotation to viewed", "error", err, "quotation_id", quotation.ID)
			return
		}
	}

	if _, err := s.distribution.SetStatus(ctx, quotation.ID, nil, target, note); err != nil {
		s.logger.Error("Failed to advance quotation after response",
			"error", err,
			"quotation_id", quotation.ID,
			"target", target,
		)
	}
}

// newShareToken mints an opaque 256-bit token, base64url without padding.
func newShareToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
