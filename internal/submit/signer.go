package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"solana-staking-pipeline/internal/txbuild"
)

// CustodyClient requests signatures from an external custody service that
// holds the wallet keys. Private keys never enter this process.
type CustodyClient interface {
	SignTransaction(ctx context.Context, req SignRequest) (string, error)
}

// SignRequest identifies the wallet and carries the unsigned transaction
// as base64. AuthorizationContext is an opaque blob forwarded verbatim
// when the custody policy requires one.
type SignRequest struct {
	WalletID             string          `json:"walletId"`
	Transaction          string          `json:"transaction"`
	AuthorizationContext json.RawMessage `json:"authorizationContext,omitempty"`
}

type signResponse struct {
	SignedTransaction string `json:"signedTransaction"`
}

// HTTPCustodyClient talks to the custody service over HTTP POST.
type HTTPCustodyClient struct {
	endpoint   string
	httpClient *http.Client
	logger     *log.Logger
}

// CustodyOption configures an HTTPCustodyClient.
type CustodyOption func(*HTTPCustodyClient)

// WithCustodyHTTPClient replaces the default HTTP client.
func WithCustodyHTTPClient(c *http.Client) CustodyOption {
	return func(h *HTTPCustodyClient) {
		h.httpClient = c
	}
}

// WithCustodyLogger sets the logger.
func WithCustodyLogger(l *log.Logger) CustodyOption {
	return func(h *HTTPCustodyClient) {
		h.logger = l
	}
}

// NewHTTPCustodyClient creates a custody client for the given endpoint.
func NewHTTPCustodyClient(endpoint string, opts ...CustodyOption) *HTTPCustodyClient {
	c := &HTTPCustodyClient{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ CustodyClient = (*HTTPCustodyClient)(nil)

func (c *HTTPCustodyClient) SignTransaction(ctx context.Context, req SignRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal sign request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create sign request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("custody request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return "", fmt.Errorf("read custody response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("custody returned status %d: %s", resp.StatusCode, respBody)
	}

	var signed signResponse
	if err := json.Unmarshal(respBody, &signed); err != nil {
		return "", fmt.Errorf("decode custody response: %w", err)
	}
	if signed.SignedTransaction == "" {
		return "", fmt.Errorf("custody response missing signedTransaction")
	}
	return signed.SignedTransaction, nil
}

// Signer validates a built transaction and hands it to custody for
// signing. Validation runs before every signing attempt so malformed
// transactions never reach the custody service.
type Signer struct {
	custody CustodyClient
	logger  *log.Logger
}

// SignerOptions configures a Signer.
type SignerOptions struct {
	Custody CustodyClient
	Logger  *log.Logger
}

// NewSigner creates a Signer.
func NewSigner(opts SignerOptions) (*Signer, error) {
	if opts.Custody == nil {
		return nil, fmt.Errorf("custody client is required")
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Signer{custody: opts.Custody, logger: opts.Logger}, nil
}

// Sign validates txBase64 and returns the custody-signed transaction as
// base64. A validation failure is returned as-is; custody failures are
// wrapped in SigningError.
func (s *Signer) Sign(ctx context.Context, walletID, txBase64 string, authCtx json.RawMessage) (string, error) {
	if err := txbuild.Validate(txBase64); err != nil {
		return "", err
	}

	signed, err := s.custody.SignTransaction(ctx, SignRequest{
		WalletID:             walletID,
		Transaction:          txBase64,
		AuthorizationContext: authCtx,
	})
	if err != nil {
		return "", &SigningError{Cause: err}
	}
	s.logger.Printf("signed transaction for wallet %s", walletID)
	return signed, nil
}
