package stub

import (
	"context"
	"sync"

	"pumpscope/internal/solana"
)

// RPCClient implements solana.RPCClient for testing.
type RPCClient struct {
	mu       sync.Mutex
	Accounts map[string]*solana.AccountInfo
	Owned    map[string][]solana.ProgramAccount

	// Err, when set, is returned by every call.
	Err error

	calls map[string]int
}

// NewRPCClient creates a new stub RPC client.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		Accounts: make(map[string]*solana.AccountInfo),
		Owned:    make(map[string][]solana.ProgramAccount),
		calls:    make(map[string]int),
	}
}

// GetAccountInfo returns the stored account, or nil if absent.
func (c *RPCClient) GetAccountInfo(_ context.Context, pubkey string) (*solana.AccountInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls["getAccountInfo"]++
	if c.Err != nil {
		return nil, c.Err
	}
	info, ok := c.Accounts[pubkey]
	if !ok {
		return nil, nil
	}
	infoCopy := *info
	return &infoCopy, nil
}

// GetProgramAccounts returns the accounts stored for a program.
func (c *RPCClient) GetProgramAccounts(_ context.Context, programID string) ([]solana.ProgramAccount, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls["getProgramAccounts"]++
	if c.Err != nil {
		return nil, c.Err
	}
	owned := c.Owned[programID]
	result := make([]solana.ProgramAccount, len(owned))
	copy(result, owned)
	return result, nil
}

// AddAccount adds account info to the stub store.
func (c *RPCClient) AddAccount(pubkey string, info *solana.AccountInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Accounts[pubkey] = info
}

// AddProgramAccounts adds owned accounts for a program to the stub store.
func (c *RPCClient) AddProgramAccounts(programID string, accounts ...solana.ProgramAccount) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Owned[programID] = append(c.Owned[programID], accounts...)
}

// Calls returns how many times a method was called.
func (c *RPCClient) Calls(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[method]
}

var _ solana.RPCClient = (*RPCClient)(nil)
