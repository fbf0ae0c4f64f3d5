package domain

// ProgramAccountSummary is a projection of an account owned by an on-chain program.
type ProgramAccountSummary struct {
	Pubkey   string
	Lamports uint64
	DataSize int  // length of the first encoded data chunk
	PDA      bool // address is off the ed25519 curve
}

// ProgramReport describes an on-chain program and a sample of its accounts.
type ProgramReport struct {
	ProgramID      string
	Network        string
	AccountCount   int // total accounts, before truncation
	ProgramExists  bool
	ProgramBalance uint64
	Accounts       []ProgramAccountSummary
}
