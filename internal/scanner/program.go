package scanner

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"pumpscope/internal/domain"
	"pumpscope/internal/solana"
)

// Default program inspection settings.
const (
	DefaultProgramID      = "D5HsjjMSrCJyEF1aUuionRsx7MXfKEFWtmSnAN3cQBvB"
	DefaultNetwork        = "devnet"
	DefaultMaxAccounts    = 20
	DefaultProgramTimeout = 10 * time.Second
)

// ProgramInspectorOptions for creating ProgramInspector.
type ProgramInspectorOptions struct {
	RPC       solana.RPCClient
	ProgramID string
	Network   string

	MaxAccounts int           // default 20
	Timeout     time.Duration // whole inspection, default 10s

	Logger *zerolog.Logger
}

// ProgramInspector reads an on-chain program and a sample of the accounts it owns.
type ProgramInspector struct {
	rpc         solana.RPCClient
	programID   string
	network     string
	maxAccounts int
	timeout     time.Duration
	logger      zerolog.Logger
}

// NewProgramInspector creates a new ProgramInspector. The program id must be a valid public key.
func NewProgramInspector(opts ProgramInspectorOptions) (*ProgramInspector, error) {
	if opts.RPC == nil {
		return nil, fmt.Errorf("rpc client is required")
	}
	if _, err := solana.ParsePubkey(opts.ProgramID); err != nil {
		return nil, fmt.Errorf("program id %q: %w", opts.ProgramID, err)
	}

	p := &ProgramInspector{
		rpc:         opts.RPC,
		programID:   opts.ProgramID,
		network:     opts.Network,
		maxAccounts: opts.MaxAccounts,
		timeout:     opts.Timeout,
		logger:      zerolog.Nop(),
	}
	if p.network == "" {
		p.network = DefaultNetwork
	}
	if p.maxAccounts <= 0 {
		p.maxAccounts = DefaultMaxAccounts
	}
	if p.timeout <= 0 {
		p.timeout = DefaultProgramTimeout
	}
	if opts.Logger != nil {
		p.logger = *opts.Logger
	}
	return p, nil
}

// ProgramID returns the inspected program id.
func (p *ProgramInspector) ProgramID() string {
	return p.programID
}

// Network returns the configured network name.
func (p *ProgramInspector) Network() string {
	return p.network
}

// Inspect fetches the program's accounts and the program account itself.
// Any RPC failure fails the whole inspection.
func (p *ProgramInspector) Inspect(ctx context.Context) (*domain.ProgramReport, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var (
		accounts []solana.ProgramAccount
		info     *solana.AccountInfo
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		defer recoverInto(&err)
		accounts, err = p.rpc.GetProgramAccounts(gctx, p.programID)
		if err != nil {
			return fmt.Errorf("get program accounts: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		defer recoverInto(&err)
		info, err = p.rpc.GetAccountInfo(gctx, p.programID)
		if err != nil {
			return fmt.Errorf("get account info: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		p.logger.Warn().Err(err).Str("program_id", p.programID).Msg("program inspection failed")
		return nil, err
	}

	report := &domain.ProgramReport{
		ProgramID:     p.programID,
		Network:       p.network,
		AccountCount:  len(accounts),
		ProgramExists: info != nil,
	}
	if info != nil {
		report.ProgramBalance = info.Lamports
	}

	sample := accounts
	if len(sample) > p.maxAccounts {
		sample = sample[:p.maxAccounts]
	}
	report.Accounts = make([]domain.ProgramAccountSummary, len(sample))
	for i, a := range sample {
		report.Accounts[i] = SummarizeAccount(a.Pubkey, a.Account)
	}

	p.logger.Debug().
		Str("program_id", p.programID).
		Int("accounts", report.AccountCount).
		Bool("exists", report.ProgramExists).
		Msg("program inspected")

	return report, nil
}

// SummarizeAccount projects an account onto the fields served to clients.
func SummarizeAccount(pubkey string, info solana.AccountInfo) domain.ProgramAccountSummary {
	return domain.ProgramAccountSummary{
		Pubkey:   pubkey,
		Lamports: info.Lamports,
		DataSize: len(info.Data),
		PDA:      solana.IsProgramDerived(pubkey),
	}
}

func recoverInto(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("panic: %v", r)
	}
}
