package domain

// WaitlistEntry is a normalized (trimmed, lowercased) email on the waitlist.
// Entries are append-only and never deleted.
type WaitlistEntry struct {
	Email     string // PK
	CreatedAt int64  // ms, zero when the backend does not record it
}
