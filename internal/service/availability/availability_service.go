package availability

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Domenick1991/leadbooking/internal/calendly"
	"github.com/Domenick1991/leadbooking/internal/domain"
	"go.uber.org/zap"
)

const (
	minWindowDays  = 1
	maxWindowDays  = 7
	minFetchBuffer = 60 * time.Second
)

// SlotSource is the provider query for open slots in a time range.
type SlotSource interface {
	AvailableTimes(ctx context.Context, start, end time.Time, tz string) ([]string, error)
}

type AvailabilityUseCase interface {
	FetchSlots(ctx context.Context, tz string) (domain.SlotSet, error)
}

// Service turns the provider's heterogeneous availability responses into a
// canonical SlotSet. It never fabricates slots: a provider failure is
// surfaced as PROVIDER_UNAVAILABLE with the raw response attached.
type Service struct {
	source     SlotSource
	windowDays int
	buffer     time.Duration
	now        func() time.Time
	log        *zap.Logger
}

type Option func(*Service)

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(source SlotSource, windowDays int, buffer time.Duration, log *zap.Logger, opts ...Option) *Service {
	if windowDays < minWindowDays {
		windowDays = minWindowDays
	}
	if windowDays > maxWindowDays {
		windowDays = maxWindowDays
	}
	if buffer < minFetchBuffer {
		buffer = minFetchBuffer
	}
	s := &Service{
		source:     source,
		windowDays: windowDays,
		buffer:     buffer,
		now:        time.Now,
		log:        log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) FetchSlots(ctx context.Context, tz string) (domain.SlotSet, error) {
	now := s.now()
	start := now.Add(s.buffer)
	end := start.Add(time.Duration(s.windowDays) * 24 * time.Hour)

	raw, err := s.source.AvailableTimes(ctx, start, end, tz)
	if err != nil {
		var apiErr *calendly.APIError
		if errors.As(err, &apiErr) {
			s.log.Warn("availability query failed",
				zap.Int("status", apiErr.Status),
				zap.ByteString("body", apiErr.Body))
			return nil, &domain.BookingError{
				Code:    domain.CodeProviderUnavailable,
				Message: "scheduling provider unavailable",
				Detail:  json.RawMessage(apiErr.Body),
			}
		}
		return nil, err
	}

	slots := domain.ParseSlotSet(now, raw)
	s.log.Debug("fetched availability", zap.Int("raw", len(raw)), zap.Int("slots", len(slots)))
	return slots, nil
}

var _ AvailabilityUseCase = (*Service)(nil)
