package solana

import "context"

// RPCClient defines the read-only Solana RPC interface used to inspect programs.
type RPCClient interface {
	// GetAccountInfo retrieves account info by public key. Returns nil if the account does not exist.
	GetAccountInfo(ctx context.Context, pubkey string) (*AccountInfo, error)

	// GetProgramAccounts retrieves all accounts owned by a program.
	GetProgramAccounts(ctx context.Context, programID string) ([]ProgramAccount, error)
}

// Compile-time interface check.
var _ RPCClient = (*HTTPClient)(nil)
