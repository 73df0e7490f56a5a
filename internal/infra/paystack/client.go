package paystack

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
)

// ErrGateway covers every provider-side failure: unreachable host,
// non-2xx response, rejected request.
var ErrGateway = errors.New("payment gateway error")

type Client struct {
	httpClient *http.Client
	baseURL    string
	secretKey  string
}

type InitializeResult struct {
	AuthorizationURL string
	Reference        string
}

type VerifyResult struct {
	Status   string
	Amount   int64
	Metadata json.RawMessage
}

func NewClient(httpClient *http.Client, baseURL, secretKey string) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		secretKey:  secretKey,
	}
}

// Initialize opens a hosted checkout session. Amount is in major currency
// units and converted to the provider's minor unit. Metadata is serialized
// to a JSON string, which is how the provider round-trips it back on
// webhook events.
func (c *Client) Initialize(ctx context.Context, email, reference string, amount float64, callbackURL string, metadata map[string]any) (InitializeResult, error) {
	if c.secretKey == "" {
		return InitializeResult{}, fmt.Errorf("paystack secret key is empty")
	}
	if strings.TrimSpace(email) == "" || strings.TrimSpace(reference) == "" || amount <= 0 {
		return InitializeResult{}, fmt.Errorf("invalid initialize payload")
	}

	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return InitializeResult{}, fmt.Errorf("marshal checkout metadata: %w", err)
	}

	body, err := json.Marshal(map[string]any{
		"email":        email,
		"reference":    reference,
		"amount":       int64(math.Round(amount * 100)),
		"callback_url": callbackURL,
		"metadata":     string(metadataJSON),
	})
	if err != nil {
		return InitializeResult{}, fmt.Errorf("marshal initialize request: %w", err)
	}

	var resp struct {
		Status  bool   `json:"status"`
		Message string `json:"message"`
		Data    struct {
			AuthorizationURL string `json:"authorization_url"`
			AccessCode       string `json:"access_code"`
			Reference        string `json:"reference"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/transaction/initialize", body, &resp); err != nil {
		return InitializeResult{}, err
	}
	if !resp.Status || resp.Data.Reference == "" {
		return InitializeResult{}, fmt.Errorf("%w: initialize rejected: %s", ErrGateway, resp.Message)
	}

	return InitializeResult{
		AuthorizationURL: resp.Data.AuthorizationURL,
		Reference:        resp.Data.Reference,
	}, nil
}

// Verify asks the provider for the authoritative state of a transaction.
// It is the trust anchor for the browser-redirect settlement path, which
// carries no signature of its own.
func (c *Client) Verify(ctx context.Context, reference string) (VerifyResult, error) {
	if c.secretKey == "" {
		return VerifyResult{}, fmt.Errorf("paystack secret key is empty")
	}
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return VerifyResult{}, fmt.Errorf("reference is required")
	}

	var resp struct {
		Status  bool   `json:"status"`
		Message string `json:"message"`
		Data    struct {
			Status   string          `json:"status"`
			Amount   int64           `json:"amount"`
			Metadata json.RawMessage `json:"metadata"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/transaction/verify/"+url.PathEscape(reference), nil, &resp); err != nil {
		return VerifyResult{}, err
	}
	if !resp.Status {
		return VerifyResult{}, fmt.Errorf("%w: verify rejected: %s", ErrGateway, resp.Message)
	}

	return VerifyResult{
		Status:   resp.Data.Status,
		Amount:   resp.Data.Amount,
		Metadata: resp.Data.Metadata,
	}, nil
}

// ValidateSignature recomputes the keyed hash the provider sends with each
// webhook. A mismatch means the request is not authentic.
func (c *Client) ValidateSignature(rawBody []byte, signatureHeader string) bool {
	if c.secretKey == "" || signatureHeader == "" {
		return false
	}

	mac := hmac.New(sha512.New, []byte(c.secretKey))
	mac.Write(rawBody)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(strings.ToLower(strings.TrimSpace(signatureHeader))))
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, target any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build gateway request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGateway, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s %s returned %d: %s", ErrGateway, method, path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrGateway, err)
	}

	return nil
}
