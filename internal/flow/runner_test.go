package flow

import (
	"context"
	"testing"
	"time"

	"github.com/Domenick1991/leadbooking/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// scriptedFetcher returns its outcomes in order, then repeats the last one.
type scriptedFetcher struct {
	outcomes []fetchOutcome
	calls    int
}

type fetchOutcome struct {
	offer *Offer
	err   error
}

func (f *scriptedFetcher) Fetch(ctx context.Context, profile domain.BookingProfile) (*Offer, error) {
	idx := f.calls
	if idx >= len(f.outcomes) {
		idx = len(f.outcomes) - 1
	}
	f.calls++
	out := f.outcomes[idx]
	return out.offer, out.err
}

type scriptedBooker struct {
	outcomes []bookOutcome
	calls    int
}

type bookOutcome struct {
	conf *domain.Confirmation
	err  error
}

func (b *scriptedBooker) Book(ctx context.Context, profile domain.BookingProfile, slot time.Time, token, leadID string) (*domain.Confirmation, error) {
	idx := b.calls
	if idx >= len(b.outcomes) {
		idx = len(b.outcomes) - 1
	}
	b.calls++
	out := b.outcomes[idx]
	return out.conf, out.err
}

// recordingSleeper captures backoff durations without sleeping.
func recordingSleeper(waits *[]time.Duration) Sleeper {
	return func(ctx context.Context, d time.Duration) error {
		*waits = append(*waits, d)
		return nil
	}
}

func runnerOffer(t *testing.T, token string, slots ...string) *Offer {
	t.Helper()
	set := domain.ParseSlotSet(time.Date(2029, 1, 1, 0, 0, 0, 0, time.UTC), slots)
	require.Len(t, set, len(slots))
	return &Offer{LeadID: "lead-1", Slots: set, Token: token}
}

func TestSession_HappyPath(t *testing.T) {
	fetcher := &scriptedFetcher{outcomes: []fetchOutcome{
		{offer: runnerOffer(t, "tok-1", "2030-01-02T09:00:00Z")},
	}}
	start := slotAt("2030-01-02T09:00:00Z")
	booker := &scriptedBooker{outcomes: []bookOutcome{
		{conf: &domain.Confirmation{EventName: "Intro Call", StartTime: &start}},
	}}

	sess := NewSession(fetcher, booker, zap.NewNop())
	ctx := context.Background()

	state := sess.Dispatch(ctx, SubmitProfile{Profile: machineProfile()})
	require.Equal(t, PhaseSelecting, state.Phase)
	assert.Equal(t, "tok-1", state.Token)

	sess.Dispatch(ctx, SelectSlot{Slot: start})
	state = sess.Dispatch(ctx, ConfirmSelection{})

	assert.Equal(t, PhaseConfirmed, state.Phase)
	require.NotNil(t, state.Confirmation)
	assert.Equal(t, "Intro Call", state.Confirmation.EventName)
	assert.Equal(t, 1, booker.calls)
}

func TestSession_SlotTakenRetriesWithBackoffAndRecovers(t *testing.T) {
	fetcher := &scriptedFetcher{outcomes: []fetchOutcome{
		{offer: runnerOffer(t, "tok-1", "2030-01-02T09:00:00Z")},
		{offer: runnerOffer(t, "tok-2", "2030-01-02T10:00:00Z")},
	}}
	booker := &scriptedBooker{outcomes: []bookOutcome{
		{err: domain.NewBookingError(domain.CodeSlotTaken, "taken")},
	}}

	var waits []time.Duration
	sess := NewSession(fetcher, booker, zap.NewNop(), WithSleeper(recordingSleeper(&waits)))
	ctx := context.Background()

	sess.Dispatch(ctx, SubmitProfile{Profile: machineProfile()})
	sess.Dispatch(ctx, SelectSlot{Slot: slotAt("2030-01-02T09:00:00Z")})
	state := sess.Dispatch(ctx, ConfirmSelection{})

	// the failed attempt triggered one backoff and one re-fetch
	assert.Equal(t, []time.Duration{500 * time.Millisecond}, waits)
	assert.Equal(t, 2, fetcher.calls)
	assert.Equal(t, PhaseSelecting, state.Phase)
	assert.Equal(t, "tok-2", state.Token)
	assert.Nil(t, state.Selected)
	assert.False(t, state.Pending)
}

func TestSession_RetryExhaustionBacksOffThreeTimes(t *testing.T) {
	fetcher := &scriptedFetcher{outcomes: []fetchOutcome{
		{offer: runnerOffer(t, "tok-1", "2030-01-02T09:00:00Z")},
		{err: domain.NewBookingError(domain.CodeProviderUnavailable, "down")},
	}}
	booker := &scriptedBooker{outcomes: []bookOutcome{
		{err: domain.NewBookingError(domain.CodeSlotTaken, "taken")},
	}}

	var waits []time.Duration
	sess := NewSession(fetcher, booker, zap.NewNop(), WithSleeper(recordingSleeper(&waits)))
	ctx := context.Background()

	sess.Dispatch(ctx, SubmitProfile{Profile: machineProfile()})
	sess.Dispatch(ctx, SelectSlot{Slot: slotAt("2030-01-02T09:00:00Z")})
	state := sess.Dispatch(ctx, ConfirmSelection{})

	assert.Equal(t, []time.Duration{
		500 * time.Millisecond,
		1000 * time.Millisecond,
		2000 * time.Millisecond,
	}, waits)
	assert.True(t, state.Terminal)
	assert.Empty(t, state.Slots)
	assert.Empty(t, state.Token)
	assert.Equal(t, PhaseSelecting, state.Phase)
}

func TestSession_InvalidTokenRestarts(t *testing.T) {
	fetcher := &scriptedFetcher{outcomes: []fetchOutcome{
		{offer: runnerOffer(t, "tok-1", "2030-01-02T09:00:00Z")},
	}}
	booker := &scriptedBooker{outcomes: []bookOutcome{
		{err: domain.NewBookingError(domain.CodeInvalidToken, "expired")},
	}}

	sess := NewSession(fetcher, booker, zap.NewNop())
	ctx := context.Background()

	sess.Dispatch(ctx, SubmitProfile{Profile: machineProfile()})
	sess.Dispatch(ctx, SelectSlot{Slot: slotAt("2030-01-02T09:00:00Z")})
	state := sess.Dispatch(ctx, ConfirmSelection{})

	assert.Equal(t, PhaseCollecting, state.Phase)
	assert.Empty(t, state.Token)
	assert.NotEmpty(t, state.Notice)
	assert.Equal(t, 1, fetcher.calls, "a restarted flow must not auto-refetch")
}

func TestSession_CancelledBackoffDropsRemainingCommands(t *testing.T) {
	fetcher := &scriptedFetcher{outcomes: []fetchOutcome{
		{offer: runnerOffer(t, "tok-1", "2030-01-02T09:00:00Z")},
	}}
	booker := &scriptedBooker{outcomes: []bookOutcome{
		{err: domain.NewBookingError(domain.CodeSlotTaken, "taken")},
	}}

	sess := NewSession(fetcher, booker, zap.NewNop(), WithSleeper(func(ctx context.Context, d time.Duration) error {
		return context.Canceled
	}))
	ctx := context.Background()

	sess.Dispatch(ctx, SubmitProfile{Profile: machineProfile()})
	sess.Dispatch(ctx, SelectSlot{Slot: slotAt("2030-01-02T09:00:00Z")})
	sess.Dispatch(ctx, ConfirmSelection{})

	assert.Equal(t, 1, fetcher.calls, "cancelled backoff must not re-fetch")
}

func TestSession_DefaultSleeperHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := defaultSleeper(ctx, time.Hour)

	assert.ErrorIs(t, err, context.Canceled)
}
