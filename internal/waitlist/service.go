// Package waitlist accepts email sign-ups and keeps the waitlist unique.
package waitlist

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"pumpscope/internal/domain"
	"pumpscope/internal/observability"
	"pumpscope/internal/storage"
)

// ErrInvalidEmail is returned when a submission does not look like an email address.
var ErrInvalidEmail = errors.New("invalid email")

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// NormalizeEmail trims and validates raw, returning the lowercase form.
func NormalizeEmail(raw string) (string, error) {
	email := strings.TrimSpace(raw)
	if !emailPattern.MatchString(email) {
		return "", ErrInvalidEmail
	}
	return strings.ToLower(email), nil
}

// Result is the outcome of a submission.
type Result struct {
	// Added is false when the email was already on the waitlist.
	Added bool
	Count int
}

// Options configures a Service.
type Options struct {
	Store  storage.WaitlistStore
	Logger *zerolog.Logger
	Now    func() time.Time
}

// Service validates submissions and writes them to the store.
type Service struct {
	store  storage.WaitlistStore
	logger zerolog.Logger
	now    func() time.Time
}

// NewService creates a waitlist service.
func NewService(opts Options) (*Service, error) {
	if opts.Store == nil {
		return nil, errors.New("waitlist store is required")
	}

	s := &Service{
		store:  opts.Store,
		logger: zerolog.Nop(),
		now:    time.Now,
	}
	if opts.Logger != nil {
		s.logger = opts.Logger.With().Str("component", "waitlist").Logger()
	}
	if opts.Now != nil {
		s.now = opts.Now
	}
	return s, nil
}

// Submit adds raw to the waitlist. The entry is durable when Submit returns without error.
func (s *Service) Submit(ctx context.Context, raw string) (*Result, error) {
	email, err := NormalizeEmail(raw)
	if err != nil {
		observability.RecordWaitlistSubmission(observability.OutcomeInvalid)
		return nil, err
	}

	entry := &domain.WaitlistEntry{
		Email:     email,
		CreatedAt: s.now().UnixMilli(),
	}

	added := true
	if err := s.store.Insert(ctx, entry); err != nil {
		if !errors.Is(err, storage.ErrDuplicateKey) {
			observability.RecordWaitlistSubmission(observability.OutcomeError)
			s.logger.Error().Err(err).Msg("insert waitlist entry")
			return nil, fmt.Errorf("insert waitlist entry: %w", err)
		}
		added = false
	}

	count, err := s.store.Count(ctx)
	if err != nil {
		observability.RecordWaitlistSubmission(observability.OutcomeError)
		s.logger.Error().Err(err).Msg("count waitlist")
		return nil, fmt.Errorf("count waitlist: %w", err)
	}

	if added {
		observability.RecordWaitlistSubmission(observability.OutcomeAdded)
		s.logger.Info().Int("count", count).Msg("waitlist entry added")
	} else {
		observability.RecordWaitlistSubmission(observability.OutcomeDuplicate)
		s.logger.Debug().Msg("waitlist entry already present")
	}
	observability.UpdateWaitlistSize(count)

	return &Result{Added: added, Count: count}, nil
}

// Count returns the current waitlist size.
func (s *Service) Count(ctx context.Context) (int, error) {
	count, err := s.store.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count waitlist: %w", err)
	}
	observability.UpdateWaitlistSize(count)
	return count, nil
}

// Export returns every entry in insertion order.
func (s *Service) Export(ctx context.Context) ([]*domain.WaitlistEntry, error) {
	entries, err := s.store.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list waitlist: %w", err)
	}
	return entries, nil
}
