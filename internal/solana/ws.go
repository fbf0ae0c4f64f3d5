package solana

import "context"

// ProgramSubscriber streams account changes for accounts owned by a program.
type ProgramSubscriber interface {
	// SubscribeProgram subscribes to programSubscribe notifications for programID.
	// The channel is closed when the client is closed.
	SubscribeProgram(ctx context.Context, programID string) (<-chan AccountNotification, error)

	// Close closes the WebSocket connection.
	Close() error
}

// AccountNotification is one programNotification message.
type AccountNotification struct {
	Slot    uint64
	Pubkey  string
	Account AccountInfo
}
