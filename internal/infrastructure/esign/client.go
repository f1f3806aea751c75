package esign

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/quoteflow/quoteflow/internal/application/port"
)

// Config holds e-signature provider configuration
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client is an HTTP client for an external e-signature provider. The
// local ESignRequest row remains the system of record; callers treat
// provider failures as non-fatal.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *zap.Logger
}

// NewClient creates a new e-signature provider client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type signatureRequestBody struct {
	ContractID string   `json:"contract_id"`
	Signers    []string `json:"signers"`
	Message    string   `json:"message,omitempty"`
	Provider   string   `json:"provider"`
}

type signatureResponseBody struct {
	Handle string `json:"handle"`
}

// RequestSignatures submits a signature request to the provider and
// returns the provider's handle for the envelope.
func (c *Client) RequestSignatures(ctx context.Context, req port.SignatureRequest) (string, error) {
	body, err := json.Marshal(signatureRequestBody{
		ContractID: req.ContractID,
		Signers:    req.Signers,
		Message:    req.Message,
		Provider:   req.Provider,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal signature request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/signature-requests", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build signature request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		c.logger.Error("Signature provider request failed",
			zap.String("contract_id", req.ContractID),
			zap.Error(err))
		return "", fmt.Errorf("failed to reach signature provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("Signature provider rejected request",
			zap.String("contract_id", req.ContractID),
			zap.Int("status", resp.StatusCode))
		return "", fmt.Errorf("signature provider returned status %d", resp.StatusCode)
	}

	var parsed signatureResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode signature response: %w", err)
	}

	c.logger.Info("Signature request submitted",
		zap.String("contract_id", req.ContractID),
		zap.String("handle", parsed.Handle))
	return parsed.Handle, nil
}

// Verify interface compliance
var _ port.SignatureProvider = (*Client)(nil)
