package lead

import (
	"context"
	"time"

	"github.com/Domenick1991/leadbooking/internal/domain"
	"github.com/Domenick1991/leadbooking/internal/kafka"
	"github.com/Domenick1991/leadbooking/internal/repository"
	"github.com/Domenick1991/leadbooking/internal/service/availability"
	"github.com/Domenick1991/leadbooking/internal/tokenstore"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type LeadUseCase interface {
	Submit(ctx context.Context, input SubmitInput) (*SubmitResult, error)
}

// BotVerifier is the pass/fail bot gate consulted before any slot fetch.
type BotVerifier interface {
	Verify(ctx context.Context, token string) bool
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type SubmitInput struct {
	Profile        domain.BookingProfile
	RecaptchaToken string
}

// SubmitResult is the collecting→selecting handoff: the offered slot set
// and the one-time token bound to it.
type SubmitResult struct {
	LeadID string
	Slots  domain.SlotSet
	Token  string
}

// Service owns the first step of the flow: gate the submission, fetch the
// offer, bind it to a token, and leave an audit trail.
type Service struct {
	slots       availability.AvailabilityUseCase
	tokens      tokenstore.Store
	verifier    BotVerifier
	leads       repository.LeadRepository
	producer    Producer
	leadTopic   string
	notifyTopic string
	tokenTTL    time.Duration
	redirectURL string
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

func WithDisqualifyRedirect(url string) ServiceOption {
	return func(s *Service) { s.redirectURL = url }
}

func NewService(
	slots availability.AvailabilityUseCase,
	tokens tokenstore.Store,
	verifier BotVerifier,
	tokenTTL time.Duration,
	log *zap.Logger,
	opts ...ServiceOption,
) *Service {
	s := &Service{
		slots:    slots,
		tokens:   tokens,
		verifier: verifier,
		tokenTTL: tokenTTL,
		log:      log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Submit(ctx context.Context, input SubmitInput) (*SubmitResult, error) {
	if s.verifier != nil && !s.verifier.Verify(ctx, input.RecaptchaToken) {
		return nil, domain.NewBookingError(domain.CodeBotCheckFailed, "bot verification failed")
	}

	leadID := uuid.NewString()

	if input.Profile.LowIntent() {
		s.recordLead(ctx, leadID, input.Profile, domain.LeadStatusDisqualified)
		s.publish(ctx, kafka.EventLeadDisqualified, leadID, input.Profile, domain.LeadStatusDisqualified, nil, "")
		return nil, &domain.BookingError{
			Code:    domain.CodeDisqualified,
			Message: "lead does not qualify for a call",
			Detail:  s.redirectURL,
		}
	}

	slots, err := s.slots.FetchSlots(ctx, input.Profile.Timezone)
	if err != nil {
		return nil, err
	}
	if len(slots) == 0 {
		return nil, domain.NewBookingError(domain.CodeProviderUnavailable, "no available times returned by provider")
	}

	token, err := s.tokens.Issue(ctx, slots, s.tokenTTL)
	if err != nil {
		return nil, err
	}

	s.recordLead(ctx, leadID, input.Profile, domain.LeadStatusSubmitted)
	s.publish(ctx, kafka.EventLeadSubmitted, leadID, input.Profile, domain.LeadStatusSubmitted, nil, "")

	s.log.Info("lead qualified",
		zap.String("lead_id", leadID),
		zap.Int("slots", len(slots)))

	return &SubmitResult{LeadID: leadID, Slots: slots, Token: token}, nil
}

func (s *Service) recordLead(ctx context.Context, id string, p domain.BookingProfile, status domain.LeadStatus) {
	if s.leads == nil {
		return
	}
	based := p.Based
	if based == "" {
		based = p.OtherBased
	}
	lead := &domain.Lead{
		ID:          id,
		Name:        p.Name,
		Email:       p.Email,
		Based:       based,
		Occupation:  p.Occupation,
		Income:      p.MonthlyIncome,
		Willingness: p.Willingness,
		Status:      status,
	}
	if err := s.leads.Create(ctx, lead); err != nil {
		s.log.Warn("failed to record lead", zap.String("lead_id", id), zap.Error(err))
	}
}

func (s *Service) publish(ctx context.Context, eventType, leadID string, p domain.BookingProfile, status domain.LeadStatus, slotTime *time.Time, failCode string) {
	if s.producer == nil || s.leadTopic == "" {
		return
	}
	event := kafka.LeadEvent{
		Type:       eventType,
		LeadID:     leadID,
		Name:       p.Name,
		Email:      p.Email,
		Status:     string(status),
		SlotTime:   slotTime,
		FailCode:   failCode,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.producer.Publish(ctx, s.leadTopic, leadID, event); err != nil {
		s.log.Warn("failed to publish lead event", zap.String("type", eventType), zap.Error(err))
	}
	if s.notifyTopic != "" {
		if err := s.producer.Publish(ctx, s.notifyTopic, leadID, event); err != nil {
			s.log.Warn("failed to publish notification event", zap.String("type", eventType), zap.Error(err))
		}
	}
}

var _ LeadUseCase = (*Service)(nil)
