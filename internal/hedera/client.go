// Package hedera adapts the external Hedera gateway service: value
// transfers, membership token mints, consensus topic appends and account
// queries. The gateway owns the operator signing key; this package only
// speaks HTTP to it.
package hedera

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"

	"github.com/truth-market/internal/circuitbreaker"
	"github.com/truth-market/internal/config"
	"github.com/truth-market/internal/logging"
	"github.com/truth-market/internal/models"
	"github.com/truth-market/internal/retry"
)

// accountPattern matches Hedera account ids of the form shard.realm.num
var accountPattern = regexp.MustCompile(`^\d+\.\d+\.\d+$`)

// TransferResult is the outcome of a value transfer
type TransferResult struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transactionId"`
	Status        string `json:"status"`
}

// MintResult is the outcome of a membership token mint. Unavailable means no
// badge collection is configured; this is distinct from a mint failure, which
// surfaces as an error.
type MintResult struct {
	Success       bool   `json:"success"`
	Unavailable   bool   `json:"unavailable,omitempty"`
	SerialNumber  string `json:"serialNumber,omitempty"`
	TransactionID string `json:"transactionId,omitempty"`
	Status        string `json:"status,omitempty"`
}

// TopicResult is the outcome of a consensus topic append
type TopicResult struct {
	Success        bool   `json:"success"`
	TransactionID  string `json:"transactionId"`
	SequenceNumber int64  `json:"sequenceNumber"`
}

// Balance is an account balance in tinybar
type Balance struct {
	AccountID string `json:"accountId"`
	Tinybar   int64  `json:"tinybar"`
}

// Client calls the Hedera gateway over HTTP
type Client struct {
	baseURL      string
	treasury     string
	topicID      string
	badgeTokenID string
	httpClient   *http.Client
	breaker      *circuitbreaker.CircuitBreaker
	retryConfig  *retry.Config
}

// NewClient creates a new gateway client
func NewClient(cfg config.LedgerConfig) *Client {
	return &Client{
		baseURL:      cfg.GatewayURL,
		treasury:     cfg.TreasuryAccount,
		topicID:      cfg.TopicID,
		badgeTokenID: cfg.BadgeTokenID,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		breaker:      circuitbreaker.NewCircuitBreaker(circuitbreaker.DefaultConfig("hedera-gateway")),
		retryConfig:  retry.DefaultConfig(),
	}
}

// TreasuryAccount returns the platform operator account id
func (c *Client) TreasuryAccount() string {
	return c.treasury
}

// BadgeMintingConfigured reports whether a badge collection is set up
func (c *Client) BadgeMintingConfigured() bool {
	return c.badgeTokenID != ""
}

// BadgeTokenID returns the configured badge collection id, empty when
// minting is unavailable
func (c *Client) BadgeTokenID() string {
	return c.badgeTokenID
}

// VerifyIdentity format-validates a shard.realm.num account id without any
// network call.
func (c *Client) VerifyIdentity(accountID string) bool {
	return accountPattern.MatchString(accountID)
}

// TransferValue moves tinybar from the treasury to a recipient account
func (c *Client) TransferValue(ctx context.Context, toAccount string, amountTinybar int64) (*TransferResult, error) {
	if !c.VerifyIdentity(toAccount) {
		return nil, fmt.Errorf("invalid recipient account id: %s", toAccount)
	}
	if amountTinybar <= 0 {
		return nil, fmt.Errorf("transfer amount must be positive, got %d", amountTinybar)
	}

	payload := map[string]interface{}{
		"from":          c.treasury,
		"to":            toAccount,
		"amountTinybar": amountTinybar,
	}

	var result TransferResult
	if err := c.post(ctx, "/v1/transfers", payload, &result); err != nil {
		return nil, fmt.Errorf("transfer to %s failed: %w", toAccount, err)
	}

	logging.FromContext(ctx).WithFields(map[string]interface{}{
		"to":            toAccount,
		"amountTinybar": amountTinybar,
		"transactionId": result.TransactionID,
	}).Info("Ledger transfer completed")

	return &result, nil
}

// MintMembershipToken mints one collectible into the badge collection with
// the given metadata. Returns an unavailable sentinel when no collection is
// configured; a failed mint attempt is an error.
func (c *Client) MintMembershipToken(ctx context.Context, metadata *models.BadgeMetadata) (*MintResult, error) {
	if !c.BadgeMintingConfigured() {
		return &MintResult{Unavailable: true}, nil
	}

	payload := map[string]interface{}{
		"tokenId":  c.badgeTokenID,
		"metadata": metadata,
	}

	var result MintResult
	path := fmt.Sprintf("/v1/tokens/%s/mint", c.badgeTokenID)
	if err := c.post(ctx, path, payload, &result); err != nil {
		return nil, fmt.Errorf("mint for %s failed: %w", metadata.Recipient, err)
	}

	logging.FromContext(ctx).WithFields(map[string]interface{}{
		"tokenId":       c.badgeTokenID,
		"serialNumber":  result.SerialNumber,
		"transactionId": result.TransactionID,
	}).Info("Membership token minted")

	return &result, nil
}

// SubmitTopicMessage appends a message to the configured consensus topic.
// Used for best-effort audit logging; callers treat failures as non-fatal.
func (c *Client) SubmitTopicMessage(ctx context.Context, message interface{}) (*TopicResult, error) {
	if c.topicID == "" {
		return nil, fmt.Errorf("no consensus topic configured")
	}

	payload := map[string]interface{}{
		"topicId": c.topicID,
		"message": message,
	}

	var result TopicResult
	path := fmt.Sprintf("/v1/topics/%s/messages", c.topicID)
	if err := c.post(ctx, path, payload, &result); err != nil {
		return nil, fmt.Errorf("topic append failed: %w", err)
	}

	return &result, nil
}

// AccountBalance queries the tinybar balance of an account
func (c *Client) AccountBalance(ctx context.Context, accountID string) (*Balance, error) {
	if !c.VerifyIdentity(accountID) {
		return nil, fmt.Errorf("invalid account id: %s", accountID)
	}

	var balance Balance
	path := fmt.Sprintf("/v1/accounts/%s/balance", accountID)
	if err := c.get(ctx, path, &balance); err != nil {
		return nil, fmt.Errorf("balance query for %s failed: %w", accountID, err)
	}

	return &balance, nil
}

func (c *Client) post(ctx context.Context, path string, payload interface{}, dest interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	return retry.WithRetry(ctx, func(ctx context.Context, _ int) error {
		return c.breaker.Execute(ctx, func() error {
			return c.do(ctx, http.MethodPost, path, body, dest)
		})
	})
}

func (c *Client) get(ctx context.Context, path string, dest interface{}) error {
	return retry.WithRetry(ctx, func(ctx context.Context, _ int) error {
		return c.breaker.Execute(ctx, func() error {
			return c.do(ctx, http.MethodGet, path, nil, dest)
		})
	})
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, dest interface{}) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}

	respBody, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("failed to read gateway response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("gateway error: status=%d, body=%s", resp.StatusCode, string(respBody))
	}

	if dest != nil {
		if err := json.Unmarshal(respBody, dest); err != nil {
			return fmt.Errorf("failed to parse gateway response: %w", err)
		}
	}

	return nil
}
