package chain

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tokimonsterAI/agent/internal/observability"
)

// Default configuration values.
const (
	DefaultTimeout      = 30 * time.Second
	DefaultMaxRetries   = 3
	DefaultRetryDelay   = 1 * time.Second
	DefaultMaxDelay     = 10 * time.Second
	DefaultBackoffMult  = 2.0
	DefaultMaxGasAmount = 200000
	DefaultExpiration   = 20 * time.Second
	DefaultWaitTimeout  = 20 * time.Second
	DefaultPollInterval = 500 * time.Millisecond
	DefaultMaxPoll      = 2 * time.Second
)

// AptosClient implements Client over the fullnode REST API (v1).
type AptosClient struct {
	baseURL      string
	client       *http.Client
	maxRetries   int
	retryDelay   time.Duration
	maxDelay     time.Duration
	backoffMult  float64
	maxGasAmount uint64
	expiration   time.Duration
	waitTimeout  time.Duration
	pollInterval time.Duration
	now          func() time.Time
	logger       *zap.Logger
}

// ClientOption configures AptosClient.
type ClientOption func(*AptosClient)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *AptosClient) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *AptosClient) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *AptosClient) {
		c.retryDelay = d
	}
}

// WithMaxDelay sets maximum retry delay.
func WithMaxDelay(d time.Duration) ClientOption {
	return func(c *AptosClient) {
		c.maxDelay = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *AptosClient) {
		c.client = client
	}
}

// WithMaxGasAmount sets the gas limit of built transactions.
func WithMaxGasAmount(n uint64) ClientOption {
	return func(c *AptosClient) {
		c.maxGasAmount = n
	}
}

// WithWaitTimeout sets how long WaitForTransaction polls before giving up.
func WithWaitTimeout(d time.Duration) ClientOption {
	return func(c *AptosClient) {
		c.waitTimeout = d
	}
}

// WithPollInterval sets the initial WaitForTransaction poll interval.
func WithPollInterval(d time.Duration) ClientOption {
	return func(c *AptosClient) {
		c.pollInterval = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *AptosClient) {
		c.logger = logger
	}
}

// NewAptosClient creates a client for the node at baseURL (e.g. https://fullnode.testnet.aptoslabs.com/v1).
func NewAptosClient(baseURL string, opts ...ClientOption) *AptosClient {
	c := &AptosClient{
		baseURL:      strings.TrimRight(baseURL, "/"),
		client:       &http.Client{Timeout: DefaultTimeout},
		maxRetries:   DefaultMaxRetries,
		retryDelay:   DefaultRetryDelay,
		maxDelay:     DefaultMaxDelay,
		backoffMult:  DefaultBackoffMult,
		maxGasAmount: DefaultMaxGasAmount,
		expiration:   DefaultExpiration,
		waitTimeout:  DefaultWaitTimeout,
		pollInterval: DefaultPollInterval,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c
}

// Compile-time interface check.
var _ Client = (*AptosClient)(nil)

// BuildTransaction fetches the sender sequence number and gas price and
// assembles an unsigned transaction.
func (c *AptosClient) BuildTransaction(ctx context.Context, sender *Account, fn EntryFunction) (*Transaction, error) {
	var acct accountResponse
	if err := c.do(ctx, http.MethodGet, "/accounts/"+sender.Address, nil, &acct); err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	seq, err := strconv.ParseUint(acct.SequenceNumber, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse sequence number %q: %w", acct.SequenceNumber, err)
	}

	var gas gasEstimateResponse
	if err := c.do(ctx, http.MethodGet, "/estimate_gas_price", nil, &gas); err != nil {
		return nil, fmt.Errorf("estimate gas price: %w", err)
	}

	if fn.TypeArguments == nil {
		fn.TypeArguments = []string{}
	}

	return &Transaction{
		Sender:                  sender.Address,
		SequenceNumber:          seq,
		MaxGasAmount:            c.maxGasAmount,
		GasUnitPrice:            gas.GasEstimate,
		ExpirationTimestampSecs: uint64(c.now().Add(c.expiration).Unix()),
		Payload:                 fn,
	}, nil
}

// Simulate dry-runs tx with an empty signature.
func (c *AptosClient) Simulate(ctx context.Context, sender *Account, tx *Transaction) (*SimulationResult, error) {
	req := submitRequest{
		transactionRequest: toRequest(tx),
		Signature: signature{
			Type:      "ed25519_signature",
			PublicKey: sender.PublicKeyHex(),
			Signature: "0x" + strings.Repeat("00", 64),
		},
	}

	var results []userTransaction
	if err := c.do(ctx, http.MethodPost, "/transactions/simulate", req, &results); err != nil {
		return nil, fmt.Errorf("simulate: %w", err)
	}
	if len(results) == 0 {
		return nil, errors.New("simulate: empty response")
	}

	r := results[0]
	gasUsed, _ := strconv.ParseUint(r.GasUsed, 10, 64)
	return &SimulationResult{
		Success:  r.Success,
		VMStatus: r.VMStatus,
		GasUsed:  gasUsed,
	}, nil
}

// SignAndSubmit obtains the signing message from the node, signs it and submits the transaction.
func (c *AptosClient) SignAndSubmit(ctx context.Context, sender *Account, tx *Transaction) (string, error) {
	body := toRequest(tx)

	var signingMessage string
	if err := c.do(ctx, http.MethodPost, "/transactions/encode_submission", body, &signingMessage); err != nil {
		return "", fmt.Errorf("encode submission: %w", err)
	}
	msg, err := hex.DecodeString(strings.TrimPrefix(signingMessage, "0x"))
	if err != nil {
		return "", fmt.Errorf("decode signing message: %w", err)
	}

	req := submitRequest{
		transactionRequest: body,
		Signature: signature{
			Type:      "ed25519_signature",
			PublicKey: sender.PublicKeyHex(),
			Signature: "0x" + hex.EncodeToString(sender.Sign(msg)),
		},
	}

	var pending userTransaction
	if err := c.do(ctx, http.MethodPost, "/transactions", req, &pending); err != nil {
		return "", fmt.Errorf("submit: %w", err)
	}
	if pending.Hash == "" {
		return "", errors.New("submit: response without hash")
	}
	return pending.Hash, nil
}

// WaitForTransaction polls the transaction by hash with backoff until it is
// committed or the wait timeout elapses.
func (c *AptosClient) WaitForTransaction(ctx context.Context, hash string) (*CommittedTransaction, error) {
	ctx, cancel := context.WithTimeout(ctx, c.waitTimeout)
	defer cancel()

	delay := c.pollInterval
	for {
		var tx userTransaction
		err := c.do(ctx, http.MethodGet, "/transactions/by_hash/"+hash, nil, &tx)

		var apiErr *APIError
		switch {
		case err == nil && tx.Type != "pending_transaction":
			committed := &CommittedTransaction{
				Hash:     tx.Hash,
				Success:  tx.Success,
				VMStatus: tx.VMStatus,
			}
			committed.Version, _ = strconv.ParseUint(tx.Version, 10, 64)
			if !tx.Success {
				return committed, &TransactionFailedError{Hash: tx.Hash, VMStatus: tx.VMStatus}
			}
			return committed, nil
		case err == nil:
		case errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound:
		default:
			return nil, fmt.Errorf("get transaction %s: %w", hash, err)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("wait for transaction %s: %w", hash, ctx.Err())
		case <-time.After(delay):
		}
		delay = time.Duration(float64(delay) * c.backoffMult)
		if delay > DefaultMaxPoll {
			delay = DefaultMaxPoll
		}
	}
}

// do performs a REST call with retries and exponential backoff.
// Transport errors, 429 and 5xx are retried; other non-2xx statuses return *APIError.
func (c *AptosClient) do(ctx context.Context, method, path string, in, out interface{}) (err error) {
	start := time.Now()
	defer func() {
		observability.RecordExternalCall("aptos", routeName(path), time.Since(start), err)
	}()

	var body []byte
	if in != nil {
		body, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}

	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = decodeAPIError(resp.StatusCode, respBody)
			c.logger.Debug("retrying aptos request",
				zap.String("path", path),
				zap.Int("status", resp.StatusCode),
				zap.Int("attempt", attempt+1))
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return decodeAPIError(resp.StatusCode, respBody)
		}

		if out != nil {
			if err := json.Unmarshal(respBody, out); err != nil {
				return fmt.Errorf("unmarshal response: %w", err)
			}
		}
		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func decodeAPIError(status int, body []byte) *APIError {
	var e errorResponse
	if err := json.Unmarshal(body, &e); err != nil || e.Message == "" {
		return &APIError{StatusCode: status, Message: strings.TrimSpace(string(body))}
	}
	return &APIError{
		StatusCode:  status,
		Message:     e.Message,
		ErrorCode:   e.ErrorCode,
		VMErrorCode: e.VMErrorCode,
	}
}

// routeName collapses path parameters for metric labels.
func routeName(path string) string {
	switch {
	case strings.HasPrefix(path, "/accounts/"):
		return "/accounts/:address"
	case strings.HasPrefix(path, "/transactions/by_hash/"):
		return "/transactions/by_hash/:hash"
	default:
		return path
	}
}
