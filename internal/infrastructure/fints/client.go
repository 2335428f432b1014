package fints

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"finanzen/internal/domain/transaction"
)

// There is no native FinTS protocol stack in Go worth depending on, so
// the PIN/TAN session runs in a small bridge service; this client speaks
// JSON to it. The bridge enforces the per-request timeouts against the
// bank and reports failures as plain errors here.

const (
	defaultTimeout   = 90 * time.Second
	transactionsPath = "/transactions"
	balancePath      = "/balance"
)

// Credentials carries what the bridge needs to open a FinTS dialog for
// one account.
type Credentials struct {
	BLZ       string `json:"blz"`
	LoginName string `json:"login_name"`
	PIN       string `json:"pin"`
	Endpoint  string `json:"endpoint"`
	IBAN      string `json:"iban"`
}

// Balance is the current balance as reported by the bank.
type Balance struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
	Date     string `json:"date"`
}

// Client handles communication with the FinTS bridge
type Client struct {
	httpClient *http.Client
	baseURL    string
	productID  string
}

// Ensure Client implements ClientInterface
var _ ClientInterface = (*Client)(nil)

// NewClient creates a new FinTS bridge client
func NewClient(baseURL, productID string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		baseURL:   baseURL,
		productID: productID,
	}
}

type transactionsRequest struct {
	Credentials
	ProductID string `json:"product_id"`
	Since     string `json:"since"`
}

type transactionsResponse struct {
	Success bool                    `json:"success"`
	Error   string                  `json:"error"`
	Data    []transaction.RawRecord `json:"data"`
	Count   int                     `json:"count"`
}

type balanceRequest struct {
	Credentials
	ProductID string `json:"product_id"`
}

type balanceResponse struct {
	Success bool    `json:"success"`
	Error   string  `json:"error"`
	Data    Balance `json:"data"`
}

// FetchTransactions retrieves the account's transactions booked since the
// given date.
func (c *Client) FetchTransactions(ctx context.Context, creds Credentials, since time.Time) ([]transaction.RawRecord, error) {
	req := transactionsRequest{
		Credentials: creds,
		ProductID:   c.productID,
		Since:       since.Format(transaction.DateLayout),
	}

	var resp transactionsResponse
	if err := c.post(ctx, transactionsPath, req, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("bridge refused transaction fetch: %s", resp.Error)
	}

	return resp.Data, nil
}

// FetchBalance retrieves the account's current balance.
func (c *Client) FetchBalance(ctx context.Context, creds Credentials) (*Balance, error) {
	req := balanceRequest{
		Credentials: creds,
		ProductID:   c.productID,
	}

	var resp balanceResponse
	if err := c.post(ctx, balancePath, req, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("bridge refused balance fetch: %s", resp.Error)
	}

	return &resp.Data, nil
}

func (c *Client) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode bridge request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build bridge request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("bridge request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("bridge returned status %d: %s", resp.StatusCode, string(data))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode bridge response: %w", err)
	}

	return nil
}
