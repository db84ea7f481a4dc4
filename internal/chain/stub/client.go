package stub

import (
	"context"
	"fmt"
	"sync"

	"github.com/tokimonsterAI/agent/internal/chain"
)

// Client implements chain.Client for testing.
type Client struct {
	mu sync.Mutex

	BuildErr        error
	SimulateSuccess bool
	SimulateStatus  string
	SimulateErr     error
	SubmitErr       error
	WaitErr         error
	Hash            string

	Built     []*chain.Transaction
	Simulated int
	Submitted int
	Waited    []string
}

// NewClient creates a stub whose simulations succeed.
func NewClient() *Client {
	return &Client{
		SimulateSuccess: true,
		SimulateStatus:  "Executed successfully",
		Hash:            "0x5eed",
	}
}

// Compile-time interface check.
var _ chain.Client = (*Client)(nil)

// BuildTransaction records fn and returns an unsigned transaction.
func (c *Client) BuildTransaction(_ context.Context, sender *chain.Account, fn chain.EntryFunction) (*chain.Transaction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.BuildErr != nil {
		return nil, c.BuildErr
	}
	tx := &chain.Transaction{
		Sender:         sender.Address,
		SequenceNumber: uint64(len(c.Built)),
		Payload:        fn,
	}
	c.Built = append(c.Built, tx)
	return tx, nil
}

// Simulate returns the configured simulation outcome.
func (c *Client) Simulate(context.Context, *chain.Account, *chain.Transaction) (*chain.SimulationResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Simulated++
	if c.SimulateErr != nil {
		return nil, c.SimulateErr
	}
	return &chain.SimulationResult{Success: c.SimulateSuccess, VMStatus: c.SimulateStatus}, nil
}

// SignAndSubmit counts the submission and returns Hash.
func (c *Client) SignAndSubmit(context.Context, *chain.Account, *chain.Transaction) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.SubmitErr != nil {
		return "", c.SubmitErr
	}
	c.Submitted++
	return fmt.Sprintf("%s%02d", c.Hash, c.Submitted), nil
}

// WaitForTransaction reports hash as committed.
func (c *Client) WaitForTransaction(_ context.Context, hash string) (*chain.CommittedTransaction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Waited = append(c.Waited, hash)
	if c.WaitErr != nil {
		return nil, c.WaitErr
	}
	return &chain.CommittedTransaction{Hash: hash, Success: true, VMStatus: "Executed successfully"}, nil
}

// SubmittedCount returns the number of successful submissions.
func (c *Client) SubmittedCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Submitted
}
