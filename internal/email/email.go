package email

import (
	"context"
	"fmt"

	"github.com/Domenick1991/leadbooking/internal/kafka"
	"go.uber.org/zap"
)

// Sender notifies the operator about lead and booking events. Delivery is
// a stub logging the message; swap in an SMTP client for production.
type Sender struct {
	operator string
	log      *zap.Logger
}

func NewSender(operator string, log *zap.Logger) *Sender {
	return &Sender{operator: operator, log: log}
}

func (s *Sender) Send(ctx context.Context, event kafka.LeadEvent) error {
	subject := fmt.Sprintf("[leadbooking] %s: %s <%s>", event.Type, event.Name, event.Email)
	body := fmt.Sprintf("lead %s is now %s", event.LeadID, event.Status)
	if event.SlotTime != nil {
		body += fmt.Sprintf(", slot %s", event.SlotTime.UTC())
	}
	s.log.Info("operator notification",
		zap.String("to", s.operator),
		zap.String("subject", subject),
		zap.String("body", body))
	return nil
}
