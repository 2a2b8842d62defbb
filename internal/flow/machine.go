// Package flow models the client's three-step booking journey as an
// explicit state machine: a pure transition function per phase takes an
// event and yields the next state plus side-effect commands, so the whole
// journey is unit-testable without a network.
package flow

import (
	"time"

	"github.com/Domenick1991/leadbooking/internal/domain"
)

type Phase string

const (
	PhaseCollecting Phase = "collecting"
	PhaseSelecting  Phase = "selecting"
	PhaseConfirmed  Phase = "confirmed"
)

const (
	// MaxRetryAttempts bounds the re-fetch procedure after a stale slot.
	MaxRetryAttempts = 3
	// RetryBackoffBase is doubled on every attempt: 500ms, 1s, 2s.
	RetryBackoffBase = 500 * time.Millisecond
)

// State is the complete client-session snapshot. It is owned by one
// session and never shared.
type State struct {
	Phase        Phase
	Profile      *domain.BookingProfile
	LeadID       string
	Slots        domain.SlotSet
	Token        string
	Selected     *time.Time
	Confirmation *domain.Confirmation

	// Pending serializes booking attempts: while true no new booking
	// command is issued.
	Pending bool
	// Attempt counts re-fetch attempts of the current retry procedure.
	Attempt int

	// Notice is the user-facing message for the last transition, so every
	// failure leaves an actionable next step on screen.
	Notice string
	// Terminal marks the retry procedure as exhausted.
	Terminal bool
}

func NewState() State {
	return State{Phase: PhaseCollecting}
}

// Event is a completed network call or user action driving the machine.
type Event interface{ isEvent() }

type (
	// SubmitProfile is the user completing the qualification form.
	SubmitProfile struct{ Profile domain.BookingProfile }
	// SlotsOffered is a successful fetch + token issue.
	SlotsOffered struct {
		LeadID string
		Slots  domain.SlotSet
		Token  string
	}
	// OfferFailed is a failed fetch.
	OfferFailed struct{ Code domain.ErrorCode }
	// SelectSlot is the user picking a concrete time.
	SelectSlot struct{ Slot time.Time }
	// ConfirmSelection is the user submitting the picked slot.
	ConfirmSelection struct{}
	// BookingSucceeded carries the provider confirmation.
	BookingSucceeded struct{ Confirmation domain.Confirmation }
	// BookingFailed carries the classified failure.
	BookingFailed struct{ Code domain.ErrorCode }
	// Reset discards everything and restarts the flow.
	Reset struct{}
)

func (SubmitProfile) isEvent()    {}
func (SlotsOffered) isEvent()     {}
func (OfferFailed) isEvent()      {}
func (SelectSlot) isEvent()       {}
func (ConfirmSelection) isEvent() {}
func (BookingSucceeded) isEvent() {}
func (BookingFailed) isEvent()    {}
func (Reset) isEvent()            {}

// Command is a side effect the runner must perform after a transition.
type Command interface{ isCommand() }

type (
	// FetchSlots asks for a fresh slot set and token.
	FetchSlots struct{}
	// Book submits the booking attempt.
	Book struct {
		Profile domain.BookingProfile
		Slot    time.Time
		Token   string
		LeadID  string
	}
	// Wait pauses before the next command (retry backoff).
	Wait struct{ Duration time.Duration }
)

func (FetchSlots) isCommand() {}
func (Book) isCommand()       {}
func (Wait) isCommand()       {}

// Transition applies one event. Unknown event/phase combinations leave the
// state untouched.
func Transition(s State, e Event) (State, []Command) {
	if _, ok := e.(Reset); ok {
		return NewState(), nil
	}

	switch s.Phase {
	case PhaseCollecting:
		return transitionCollecting(s, e)
	case PhaseSelecting:
		return transitionSelecting(s, e)
	case PhaseConfirmed:
		return s, nil
	default:
		return s, nil
	}
}

func transitionCollecting(s State, e Event) (State, []Command) {
	switch ev := e.(type) {
	case SubmitProfile:
		profile := ev.Profile
		s.Profile = &profile
		s.Notice = ""
		return s, []Command{FetchSlots{}}

	case SlotsOffered:
		s.Phase = PhaseSelecting
		s.LeadID = ev.LeadID
		s.Slots = ev.Slots
		s.Token = ev.Token
		s.Selected = nil
		s.Attempt = 0
		s.Terminal = false
		s.Notice = ""
		return s, nil

	case OfferFailed:
		s.Notice = noticeFor(ev.Code)
		return s, nil
	}
	return s, nil
}

func transitionSelecting(s State, e Event) (State, []Command) {
	switch ev := e.(type) {
	case SelectSlot:
		slot := ev.Slot.UTC()
		s.Selected = &slot
		return s, nil

	case ConfirmSelection:
		if s.Pending {
			// one booking attempt in flight per session
			return s, nil
		}
		if s.Selected == nil {
			s.Notice = "pick a slot first"
			return s, nil
		}
		if !s.Slots.Contains(*s.Selected) {
			// stale before we even asked: go straight to re-fetch
			s.Notice = "slot is no longer offered, refreshing times"
			return beginRetry(s)
		}
		s.Pending = true
		return s, []Command{Book{Profile: *s.Profile, Slot: *s.Selected, Token: s.Token, LeadID: s.LeadID}}

	case BookingSucceeded:
		s.Phase = PhaseConfirmed
		conf := ev.Confirmation
		s.Confirmation = &conf
		s.Pending = false
		s.Notice = ""
		return s, nil

	case BookingFailed:
		s.Pending = false
		switch {
		case ev.Code == domain.CodeInvalidToken:
			// unrecoverable binding: restart from scratch
			next := NewState()
			next.Notice = "booking token expired, please restart the flow"
			return next, nil
		case domain.Retryable(ev.Code):
			s.Notice = noticeFor(ev.Code)
			return beginRetry(s)
		default:
			s.Notice = noticeFor(ev.Code)
			return s, nil
		}

	case SlotsOffered:
		// retry re-fetch succeeded: swap in the fresh offer, re-prompt
		s.LeadID = ev.LeadID
		s.Slots = ev.Slots
		s.Token = ev.Token
		s.Selected = nil
		s.Attempt = 0
		s.Terminal = false
		s.Notice = "slots refreshed, please pick a new time"
		return s, nil

	case OfferFailed:
		if s.Attempt < MaxRetryAttempts {
			return continueRetry(s)
		}
		// exhausted: clear stale data, stay selecting with a terminal notice
		s.Slots = nil
		s.Token = ""
		s.Selected = nil
		s.Attempt = 0
		s.Terminal = true
		s.Notice = "unable to refresh slots, please try again later"
		return s, nil
	}
	return s, nil
}

func beginRetry(s State) (State, []Command) {
	s.Attempt = 1
	return s, []Command{Wait{Duration: RetryBackoffBase}, FetchSlots{}}
}

func continueRetry(s State) (State, []Command) {
	if s.Attempt >= MaxRetryAttempts {
		s.Slots = nil
		s.Token = ""
		s.Selected = nil
		s.Attempt = 0
		s.Terminal = true
		s.Notice = "unable to refresh slots, please try again later"
		return s, nil
	}
	backoff := RetryBackoffBase << s.Attempt
	s.Attempt++
	return s, []Command{Wait{Duration: backoff}, FetchSlots{}}
}

func noticeFor(code domain.ErrorCode) string {
	switch code {
	case domain.CodeSlotTaken:
		return "slot already filled, select a different slot"
	case domain.CodeInvalidTime:
		return "selected time was invalid, refreshing slots"
	case domain.CodeProviderUnavailable:
		return "scheduling provider unavailable, please retry"
	case domain.CodeBotCheckFailed:
		return "verification failed, please retry"
	case domain.CodeDisqualified:
		return "this offer is not available for your answers"
	default:
		return "booking failed, please retry or restart"
	}
}
