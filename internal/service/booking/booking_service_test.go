package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Domenick1991/leadbooking/internal/calendly"
	"github.com/Domenick1991/leadbooking/internal/domain"
	"github.com/Domenick1991/leadbooking/internal/tokenstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) CreateInvitee(ctx context.Context, req calendly.InviteeRequest) (map[string]any, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]any), args.Error(1)
}

type MockLeadRepository struct {
	mock.Mock
}

func (m *MockLeadRepository) Create(ctx context.Context, lead *domain.Lead) error {
	args := m.Called(ctx, lead)
	return args.Error(0)
}

func (m *MockLeadRepository) UpdateOutcome(ctx context.Context, id string, status domain.LeadStatus, slotTime *time.Time) error {
	args := m.Called(ctx, id, status, slotTime)
	return args.Error(0)
}

func (m *MockLeadRepository) GetByID(ctx context.Context, id string) (*domain.Lead, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Lead), args.Error(1)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

var testNow = time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)

const testSlot = "2030-01-02T09:00:00Z"

func issueToken(t *testing.T, store tokenstore.Store, slots ...string) string {
	t.Helper()
	set := domain.ParseSlotSet(testNow, slots)
	require.Len(t, set, len(slots))
	token, err := store.Issue(context.Background(), set, time.Hour)
	require.NoError(t, err)
	return token
}

func testProfile() domain.BookingProfile {
	return domain.BookingProfile{
		Name:          "Ada Lovelace",
		Email:         "ada@x.com",
		Phone:         "+1 555",
		Based:         "Canada",
		Occupation:    "Engineer",
		MonthlyIncome: "1000$-5000$",
		Willingness:   "$1000-$5000",
		Timezone:      "Europe/Berlin",
	}
}

func TestBook_Success(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	token := issueToken(t, store, testSlot, "2030-01-02T10:00:00Z")

	provider := new(MockProvider)
	provider.On("CreateInvitee", mock.Anything, mock.MatchedBy(func(req calendly.InviteeRequest) bool {
		return req.FirstName == "Ada" &&
			req.LastName == "Lovelace" &&
			req.Email == "ada@x.com" &&
			req.Timezone == "Europe/Berlin" &&
			req.StartTime.Equal(time.Date(2030, 1, 2, 9, 0, 0, 0, time.UTC)) &&
			len(req.Answers) == 5
	})).Return(map[string]any{
		"name":       "Intro Call",
		"start_time": testSlot,
		"join_url":   "https://zoom.us/j/123",
	}, nil)

	svc := NewService(provider, store, 30*time.Second, zap.NewNop(), WithClock(func() time.Time { return testNow }))

	conf, err := svc.Book(context.Background(), BookInput{
		Profile:   testProfile(),
		StartTime: testSlot,
		Token:     token,
	})

	require.NoError(t, err)
	assert.Equal(t, "Intro Call", conf.EventName)
	assert.Equal(t, "https://zoom.us/j/123", conf.JoinURL)
	require.NotNil(t, conf.StartTime)
	provider.AssertExpectations(t)

	// token is spent
	_, ok, err := store.Peek(context.Background(), token)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBook_ConfirmationFallsBackToRequestedStart(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	token := issueToken(t, store, testSlot)

	provider := new(MockProvider)
	provider.On("CreateInvitee", mock.Anything, mock.Anything).
		Return(map[string]any{"raw": "created"}, nil)

	svc := NewService(provider, store, 30*time.Second, zap.NewNop(), WithClock(func() time.Time { return testNow }))

	conf, err := svc.Book(context.Background(), BookInput{
		Profile:   testProfile(),
		StartTime: testSlot,
		Token:     token,
	})

	require.NoError(t, err)
	require.NotNil(t, conf.StartTime)
	assert.Equal(t, time.Date(2030, 1, 2, 9, 0, 0, 0, time.UTC), conf.StartTime.UTC())
}

func TestBook_MalformedStartTime(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	provider := new(MockProvider)

	svc := NewService(provider, store, 30*time.Second, zap.NewNop())

	_, err := svc.Book(context.Background(), BookInput{
		Profile:   testProfile(),
		StartTime: "tomorrow at nine",
		Token:     "whatever",
	})

	assert.Equal(t, domain.CodeInvalidTime, domain.CodeOf(err))
	provider.AssertNotCalled(t, "CreateInvitee", mock.Anything, mock.Anything)
}

func TestBook_PastStartTime(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	token := issueToken(t, store, testSlot)
	provider := new(MockProvider)

	svc := NewService(provider, store, 30*time.Second, zap.NewNop(),
		WithClock(func() time.Time { return time.Date(2030, 1, 2, 9, 0, 0, 0, time.UTC) }))

	_, err := svc.Book(context.Background(), BookInput{
		Profile:   testProfile(),
		StartTime: testSlot,
		Token:     token,
	})

	assert.Equal(t, domain.CodeInvalidTime, domain.CodeOf(err))
	provider.AssertNotCalled(t, "CreateInvitee", mock.Anything, mock.Anything)
}

func TestBook_UnknownToken(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	provider := new(MockProvider)

	svc := NewService(provider, store, 30*time.Second, zap.NewNop(), WithClock(func() time.Time { return testNow }))

	_, err := svc.Book(context.Background(), BookInput{
		Profile:   testProfile(),
		StartTime: testSlot,
		Token:     "never-issued",
	})

	assert.Equal(t, domain.CodeInvalidToken, domain.CodeOf(err))
	provider.AssertNotCalled(t, "CreateInvitee", mock.Anything, mock.Anything)
}

func TestBook_SlotOutsideOffer(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	token := issueToken(t, store, testSlot)
	provider := new(MockProvider)

	svc := NewService(provider, store, 30*time.Second, zap.NewNop(), WithClock(func() time.Time { return testNow }))

	_, err := svc.Book(context.Background(), BookInput{
		Profile:   testProfile(),
		StartTime: "2030-01-02T11:00:00Z",
		Token:     token,
	})

	assert.Equal(t, domain.CodeInvalidToken, domain.CodeOf(err))
	provider.AssertNotCalled(t, "CreateInvitee", mock.Anything, mock.Anything)

	// the mismatch still spends the token
	_, ok, peekErr := store.Peek(context.Background(), token)
	require.NoError(t, peekErr)
	assert.False(t, ok)
}

func TestBook_TokenSpentEvenWhenProviderFails(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	token := issueToken(t, store, testSlot)

	provider := new(MockProvider)
	provider.On("CreateInvitee", mock.Anything, mock.Anything).
		Return(nil, &calendly.APIError{Status: 409, Body: []byte(`{"message":"conflict"}`)})

	svc := NewService(provider, store, 30*time.Second, zap.NewNop(), WithClock(func() time.Time { return testNow }))

	_, err := svc.Book(context.Background(), BookInput{
		Profile:   testProfile(),
		StartTime: testSlot,
		Token:     token,
	})

	assert.Equal(t, domain.CodeSlotTaken, domain.CodeOf(err))

	_, ok, peekErr := store.Peek(context.Background(), token)
	require.NoError(t, peekErr)
	assert.False(t, ok)
}

func TestBook_ClassifiesProviderRejection(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	token := issueToken(t, store, testSlot)

	provider := new(MockProvider)
	provider.On("CreateInvitee", mock.Anything, mock.Anything).
		Return(nil, &calendly.APIError{
			Status: 400,
			Body:   []byte(`{"message":"bad request","details":[{"parameter":"start_time"}]}`),
		})

	svc := NewService(provider, store, 30*time.Second, zap.NewNop(), WithClock(func() time.Time { return testNow }))

	_, err := svc.Book(context.Background(), BookInput{
		Profile:   testProfile(),
		StartTime: testSlot,
		Token:     token,
	})

	assert.Equal(t, domain.CodeInvalidTime, domain.CodeOf(err))
	assert.True(t, domain.Retryable(domain.CodeOf(err)))
}

func TestBook_TransportErrorPassesThrough(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	token := issueToken(t, store, testSlot)

	netErr := errors.New("dial tcp: connection refused")
	provider := new(MockProvider)
	provider.On("CreateInvitee", mock.Anything, mock.Anything).Return(nil, netErr)

	svc := NewService(provider, store, 30*time.Second, zap.NewNop(), WithClock(func() time.Time { return testNow }))

	_, err := svc.Book(context.Background(), BookInput{
		Profile:   testProfile(),
		StartTime: testSlot,
		Token:     token,
	})

	assert.ErrorIs(t, err, netErr)
}

func TestBook_RecordsOutcomeAndPublishes(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	token := issueToken(t, store, testSlot)

	provider := new(MockProvider)
	provider.On("CreateInvitee", mock.Anything, mock.Anything).
		Return(map[string]any{"start_time": testSlot}, nil)

	repo := new(MockLeadRepository)
	repo.On("UpdateOutcome", mock.Anything, "lead-1", domain.LeadStatusBooked, mock.Anything).Return(nil)

	producer := new(MockProducer)
	producer.On("Publish", mock.Anything, "leads", "lead-1", mock.Anything).Return(nil)
	producer.On("Publish", mock.Anything, "notifications", "lead-1", mock.Anything).Return(nil)

	svc := NewService(provider, store, 30*time.Second, zap.NewNop(),
		WithClock(func() time.Time { return testNow }),
		WithLeadRepository(repo),
		WithProducer(producer, "leads", "notifications"),
	)

	_, err := svc.Book(context.Background(), BookInput{
		LeadID:    "lead-1",
		Profile:   testProfile(),
		StartTime: testSlot,
		Token:     token,
	})

	require.NoError(t, err)
	repo.AssertExpectations(t)
	producer.AssertExpectations(t)
}

func TestBook_RecordsFailureOutcome(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	token := issueToken(t, store, testSlot)

	provider := new(MockProvider)
	provider.On("CreateInvitee", mock.Anything, mock.Anything).
		Return(nil, &calendly.APIError{Status: 409, Body: []byte(`{}`)})

	repo := new(MockLeadRepository)
	repo.On("UpdateOutcome", mock.Anything, "lead-1", domain.LeadStatusBookFailed, mock.Anything).Return(nil)

	svc := NewService(provider, store, 30*time.Second, zap.NewNop(),
		WithClock(func() time.Time { return testNow }),
		WithLeadRepository(repo),
	)

	_, err := svc.Book(context.Background(), BookInput{
		LeadID:    "lead-1",
		Profile:   testProfile(),
		StartTime: testSlot,
		Token:     token,
	})

	require.Error(t, err)
	repo.AssertExpectations(t)
}
