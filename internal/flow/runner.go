package flow

import (
	"context"
	"sync"
	"time"

	"github.com/Domenick1991/leadbooking/internal/domain"
	"go.uber.org/zap"
)

// Offer is a fresh slot set bound to a one-time token.
type Offer struct {
	LeadID string
	Slots  domain.SlotSet
	Token  string
}

// SlotFetcher performs the collecting→selecting network call.
type SlotFetcher interface {
	Fetch(ctx context.Context, profile domain.BookingProfile) (*Offer, error)
}

// Booker performs the booking network call.
type Booker interface {
	Book(ctx context.Context, profile domain.BookingProfile, slot time.Time, token, leadID string) (*domain.Confirmation, error)
}

// Sleeper waits out a backoff period; injectable so tests run instantly.
type Sleeper func(ctx context.Context, d time.Duration) error

func defaultSleeper(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Session drives one client's state machine, executing commands against
// the fetcher and booker. Dispatch is serialized, so a session never has
// two booking attempts in flight.
type Session struct {
	mu      sync.Mutex
	state   State
	fetcher SlotFetcher
	booker  Booker
	sleep   Sleeper
	log     *zap.Logger
}

type SessionOption func(*Session)

func WithSleeper(s Sleeper) SessionOption {
	return func(sess *Session) { sess.sleep = s }
}

func NewSession(fetcher SlotFetcher, booker Booker, log *zap.Logger, opts ...SessionOption) *Session {
	sess := &Session{
		state:   NewState(),
		fetcher: fetcher,
		booker:  booker,
		sleep:   defaultSleeper,
		log:     log,
	}
	for _, opt := range opts {
		opt(sess)
	}
	return sess
}

func (sess *Session) State() State {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.state
}

// Dispatch applies the event and runs any resulting commands to
// completion, feeding their outcomes back into the machine.
func (sess *Session) Dispatch(ctx context.Context, e Event) State {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	queue := sess.apply(e)
	for len(queue) > 0 {
		cmd := queue[0]
		queue = queue[1:]

		switch c := cmd.(type) {
		case Wait:
			if err := sess.sleep(ctx, c.Duration); err != nil {
				// session abandoned mid-backoff; drop remaining commands
				return sess.state
			}

		case FetchSlots:
			profile := domain.BookingProfile{}
			if sess.state.Profile != nil {
				profile = *sess.state.Profile
			}
			offer, err := sess.fetcher.Fetch(ctx, profile)
			if err != nil {
				sess.log.Warn("slot fetch failed", zap.Error(err))
				queue = append(queue, sess.apply(OfferFailed{Code: domain.CodeOf(err)})...)
				continue
			}
			queue = append(queue, sess.apply(SlotsOffered{LeadID: offer.LeadID, Slots: offer.Slots, Token: offer.Token})...)

		case Book:
			conf, err := sess.booker.Book(ctx, c.Profile, c.Slot, c.Token, c.LeadID)
			if err != nil {
				sess.log.Warn("booking attempt failed", zap.Error(err))
				queue = append(queue, sess.apply(BookingFailed{Code: domain.CodeOf(err)})...)
				continue
			}
			queue = append(queue, sess.apply(BookingSucceeded{Confirmation: *conf})...)
		}
	}
	return sess.state
}

func (sess *Session) apply(e Event) []Command {
	next, cmds := Transition(sess.state, e)
	sess.state = next
	return cmds
}
