package booking

import (
	"context"
	"errors"
	"time"

	"github.com/Domenick1991/leadbooking/internal/calendly"
	"github.com/Domenick1991/leadbooking/internal/domain"
	"github.com/Domenick1991/leadbooking/internal/kafka"
	"github.com/Domenick1991/leadbooking/internal/repository"
	"github.com/Domenick1991/leadbooking/internal/tokenstore"
	"go.uber.org/zap"
)

type BookingUseCase interface {
	Book(ctx context.Context, input BookInput) (*domain.Confirmation, error)
}

// Provider creates the booking with the external scheduler.
type Provider interface {
	CreateInvitee(ctx context.Context, req calendly.InviteeRequest) (map[string]any, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type BookInput struct {
	LeadID    string
	Profile   domain.BookingProfile
	StartTime string
	Token     string
}

// Service submits one booking attempt. Token consumption happens here,
// before the provider call, so the at-most-once guarantee does not depend
// on the caller's wiring.
type Service struct {
	provider    Provider
	tokens      tokenstore.Store
	leads       repository.LeadRepository
	producer    Producer
	leadTopic   string
	notifyTopic string
	buffer      time.Duration
	now         func() time.Time
	log         *zap.Logger
}

type ServiceOption func(*Service)

func WithLeadRepository(repo repository.LeadRepository) ServiceOption {
	return func(s *Service) { s.leads = repo }
}

func WithProducer(p Producer, leadTopic, notifyTopic string) ServiceOption {
	return func(s *Service) {
		s.producer = p
		s.leadTopic = leadTopic
		s.notifyTopic = notifyTopic
	}
}

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

func NewService(provider Provider, tokens tokenstore.Store, buffer time.Duration, log *zap.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		provider: provider,
		tokens:   tokens,
		buffer:   buffer,
		now:      time.Now,
		log:      log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Book(ctx context.Context, input BookInput) (*domain.Confirmation, error) {
	start, err := domain.ParseSlot(input.StartTime)
	if err != nil {
		return nil, domain.NewBookingError(domain.CodeInvalidTime, "invalid start_time format")
	}
	// small forward buffer absorbs clock skew
	if !start.After(s.now().Add(s.buffer)) {
		return nil, domain.NewBookingError(domain.CodeInvalidTime, "start_time must be in the future")
	}

	// One-time consumption first: whatever happens next, this token is
	// spent and a retry must go through a fresh fetch.
	ok, err := s.tokens.Consume(ctx, input.Token, start)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.NewBookingError(domain.CodeInvalidToken, "booking token is invalid, expired, or did not offer this slot")
	}

	first, last := domain.SplitName(input.Profile.Name, input.Profile.Email)
	fullName := input.Profile.Name
	if fullName == "" {
		fullName = first + " " + last
	}
	tz := input.Profile.Timezone
	if tz == "" {
		tz = "UTC"
	}

	answers := make([]map[string]any, 0, 5)
	for _, qa := range input.Profile.QuestionAnswers() {
		answers = append(answers, map[string]any{
			"question": qa.Question,
			"answer":   qa.Answer,
			"position": qa.Position,
		})
	}

	payload, err := s.provider.CreateInvitee(ctx, calendly.InviteeRequest{
		StartTime: start,
		FirstName: first,
		LastName:  last,
		FullName:  fullName,
		Email:     input.Profile.Email,
		Timezone:  tz,
		Phone:     input.Profile.Phone,
		Answers:   answers,
	})
	if err != nil {
		var apiErr *calendly.APIError
		if errors.As(err, &apiErr) {
			classified := calendly.Classify(apiErr)
			s.log.Warn("provider rejected booking",
				zap.Int("status", apiErr.Status),
				zap.String("code", string(classified.Code)))
			s.recordOutcome(ctx, input, domain.LeadStatusBookFailed, nil, classified.Code)
			return nil, classified
		}
		return nil, err
	}

	conf := calendly.ParseConfirmation(payload)
	if conf.StartTime == nil {
		conf.StartTime = &start
	}
	s.recordOutcome(ctx, input, domain.LeadStatusBooked, conf.StartTime, "")
	s.log.Info("booking confirmed",
		zap.String("lead_id", input.LeadID),
		zap.Time("start", *conf.StartTime))
	return &conf, nil
}

func (s *Service) recordOutcome(ctx context.Context, input BookInput, status domain.LeadStatus, slotTime *time.Time, failCode domain.ErrorCode) {
	if s.leads != nil && input.LeadID != "" {
		if err := s.leads.UpdateOutcome(ctx, input.LeadID, status, slotTime); err != nil {
			s.log.Warn("failed to record booking outcome", zap.String("lead_id", input.LeadID), zap.Error(err))
		}
	}

	if s.producer == nil || s.leadTopic == "" {
		return
	}
	eventType := kafka.EventBookingConfirmed
	if status != domain.LeadStatusBooked {
		eventType = kafka.EventBookingFailed
	}
	event := kafka.LeadEvent{
		Type:       eventType,
		LeadID:     input.LeadID,
		Name:       input.Profile.Name,
		Email:      input.Profile.Email,
		Status:     string(status),
		SlotTime:   slotTime,
		FailCode:   string(failCode),
		OccurredAt: time.Now().UTC(),
	}
	key := input.LeadID
	if key == "" {
		key = input.Profile.Email
	}
	if err := s.producer.Publish(ctx, s.leadTopic, key, event); err != nil {
		s.log.Warn("failed to publish booking event", zap.Error(err))
	}
	if s.notifyTopic != "" {
		if err := s.producer.Publish(ctx, s.notifyTopic, key, event); err != nil {
			s.log.Warn("failed to publish notification event", zap.Error(err))
		}
	}
}

var _ BookingUseCase = (*Service)(nil)
