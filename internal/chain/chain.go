// Package chain builds, simulates and submits entry-function transactions
// on an Aptos network.
package chain

import (
	"context"
	"fmt"
)

// Client defines the transaction lifecycle used by the deploy action.
type Client interface {
	// BuildTransaction prepares an unsigned transaction calling fn from sender.
	BuildTransaction(ctx context.Context, sender *Account, fn EntryFunction) (*Transaction, error)

	// Simulate dry-runs tx without committing it.
	Simulate(ctx context.Context, sender *Account, tx *Transaction) (*SimulationResult, error)

	// SignAndSubmit signs tx with sender's key and submits it. Returns the transaction hash.
	SignAndSubmit(ctx context.Context, sender *Account, tx *Transaction) (string, error)

	// WaitForTransaction blocks until hash is committed.
	// Returns *TransactionFailedError when the transaction committed unsuccessfully.
	WaitForTransaction(ctx context.Context, hash string) (*CommittedTransaction, error)
}

// EntryFunction is a Move entry function call.
// Arguments must already be in their JSON wire form: strings for u64 and wider,
// numbers for u8 through u32, 0x-prefixed hex for addresses.
type EntryFunction struct {
	Function      string
	TypeArguments []string
	Arguments     []interface{}
}

// Transaction is an unsigned user transaction.
type Transaction struct {
	Sender                  string
	SequenceNumber          uint64
	MaxGasAmount            uint64
	GasUnitPrice            uint64
	ExpirationTimestampSecs uint64
	Payload                 EntryFunction
}

// SimulationResult is the outcome of a simulated transaction.
type SimulationResult struct {
	Success  bool
	VMStatus string
	GasUsed  uint64
}

// CommittedTransaction is a transaction that reached the ledger.
type CommittedTransaction struct {
	Hash     string
	Version  uint64
	Success  bool
	VMStatus string
}

// SimulationError reports a simulation that did not succeed.
type SimulationError struct {
	VMStatus string
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("simulation failed: %s", e.VMStatus)
}

// TransactionFailedError reports a committed transaction that aborted.
type TransactionFailedError struct {
	Hash     string
	VMStatus string
}

func (e *TransactionFailedError) Error() string {
	return fmt.Sprintf("transaction %s failed: %s", e.Hash, e.VMStatus)
}

// APIError is a non-retryable error response from the node.
type APIError struct {
	StatusCode  int
	Message     string
	ErrorCode   string
	VMErrorCode int
}

func (e *APIError) Error() string {
	if e.ErrorCode != "" {
		return fmt.Sprintf("aptos api error %d (%s): %s", e.StatusCode, e.ErrorCode, e.Message)
	}
	return fmt.Sprintf("aptos api error %d: %s", e.StatusCode, e.Message)
}
