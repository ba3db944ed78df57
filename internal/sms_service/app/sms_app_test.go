package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/replytics/dashboard-api/internal/sms_service/domain"
)

// --- Mocks ---

type MockConversationRepository struct {
	mock.Mock
}

func (m *MockConversationRepository) GetByID(ctx context.Context, id string, businessID string) (*domain.Conversation, error) {
	args := m.Called(ctx, id, businessID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Conversation), args.Error(1)
}

func (m *MockConversationRepository) List(ctx context.Context, businessID string, limit, offset int) (*domain.ConversationPage, error) {
	args := m.Called(ctx, businessID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ConversationPage), args.Error(1)
}

func (m *MockConversationRepository) TouchLastMessageAt(ctx context.Context, id string, businessID string) error {
	args := m.Called(ctx, id, businessID)
	return args.Error(0)
}

type MockMessageRepository struct {
	mock.Mock
}

func (m *MockMessageRepository) Create(ctx context.Context, message *domain.Message) error {
	args := m.Called(ctx, message)
	if args.Error(0) == nil && message.ID == "" {
		message.ID = "msg-generated"
	}
	return args.Error(0)
}

func (m *MockMessageRepository) List(ctx context.Context, businessID string, filter domain.MessageFilter) (*domain.MessagePage, error) {
	args := m.Called(ctx, businessID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MessagePage), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	args := m.Called(ctx, subject, data)
	return args.Error(0)
}

type smsAppTestComponents struct {
	app               *Application
	mockConversations *MockConversationRepository
	mockMessages      *MockMessageRepository
	mockPublisher     *MockPublisher
}

func setupSMSAppTest(t *testing.T) smsAppTestComponents {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mockConversations := new(MockConversationRepository)
	mockMessages := new(MockMessageRepository)
	mockPublisher := new(MockPublisher)
	app := NewApplication(mockConversations, mockMessages, mockPublisher, logger)
	return smsAppTestComponents{
		app:               app,
		mockConversations: mockConversations,
		mockMessages:      mockMessages,
		mockPublisher:     mockPublisher,
	}
}

// --- Tests ---

func TestApplication_SendMessage(t *testing.T) {
	ctx := context.Background()
	businessID := "biz-1"
	conversationID := "conv-1"

	t.Run("Success", func(t *testing.T) {
		comps := setupSMSAppTest(t)
		conversation := &domain.Conversation{ID: conversationID, BusinessID: businessID, CustomerPhone: "+15550100"}
		comps.mockConversations.On("GetByID", ctx, conversationID, businessID).Return(conversation, nil).Once()
		comps.mockMessages.On("Create", ctx, mock.MatchedBy(func(m *domain.Message) bool {
			return m.Direction == domain.DirectionOutbound && m.Status == domain.StatusPending &&
				m.PhoneNumber == "+15550100" && m.BusinessID == businessID
		})).Return(nil).Once()
		comps.mockConversations.On("TouchLastMessageAt", ctx, conversationID, businessID).Return(nil).Once()
		comps.mockPublisher.On("Publish", ctx, domain.SubjectSMSSend, mock.MatchedBy(func(data []byte) bool {
			var event domain.SendRequestedEvent
			return json.Unmarshal(data, &event) == nil && event.ConversationID == conversationID
		})).Return(nil).Once()

		message, err := comps.app.SendMessage(ctx, businessID, conversationID, "See you at 3pm")

		require.NoError(t, err)
		assert.Equal(t, domain.StatusPending, message.Status)
		comps.mockPublisher.AssertExpectations(t)
		comps.mockMessages.AssertExpectations(t)
	})

	t.Run("ForeignConversationReadsAsNotFound", func(t *testing.T) {
		comps := setupSMSAppTest(t)
		comps.mockConversations.On("GetByID", ctx, conversationID, "biz-other").
			Return(nil, domain.ErrConversationNotFound).Once()

		message, err := comps.app.SendMessage(ctx, "biz-other", conversationID, "hello")

		require.ErrorIs(t, err, domain.ErrConversationNotFound)
		assert.Nil(t, message)
		comps.mockMessages.AssertNotCalled(t, "Create")
		comps.mockPublisher.AssertNotCalled(t, "Publish")
	})

	t.Run("RejectsEmptyBody", func(t *testing.T) {
		comps := setupSMSAppTest(t)

		_, err := comps.app.SendMessage(ctx, businessID, conversationID, "")

		require.ErrorIs(t, err, domain.ErrValidation)
		comps.mockConversations.AssertNotCalled(t, "GetByID")
	})

	t.Run("RejectsOversizedBody", func(t *testing.T) {
		comps := setupSMSAppTest(t)

		_, err := comps.app.SendMessage(ctx, businessID, conversationID, strings.Repeat("a", domain.MaxMessageLength+1))

		require.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("PublishFailureStillReturnsMessage", func(t *testing.T) {
		comps := setupSMSAppTest(t)
		conversation := &domain.Conversation{ID: conversationID, BusinessID: businessID, CustomerPhone: "+15550100"}
		comps.mockConversations.On("GetByID", ctx, conversationID, businessID).Return(conversation, nil).Once()
		comps.mockMessages.On("Create", ctx, mock.AnythingOfType("*domain.Message")).Return(nil).Once()
		comps.mockConversations.On("TouchLastMessageAt", ctx, conversationID, businessID).Return(nil).Once()
		comps.mockPublisher.On("Publish", ctx, domain.SubjectSMSSend, mock.Anything).
			Return(assert.AnError).Once()

		message, err := comps.app.SendMessage(ctx, businessID, conversationID, "hello")

		require.NoError(t, err)
		assert.Equal(t, domain.StatusPending, message.Status)
	})
}

func TestApplication_ListMessages(t *testing.T) {
	ctx := context.Background()
	businessID := "biz-1"

	t.Run("ConversationOwnershipCheckedWhenFiltered", func(t *testing.T) {
		comps := setupSMSAppTest(t)
		comps.mockConversations.On("GetByID", ctx, "conv-foreign", businessID).
			Return(nil, domain.ErrConversationNotFound).Once()

		page, err := comps.app.ListMessages(ctx, businessID, domain.MessageFilter{ConversationID: "conv-foreign"})

		require.ErrorIs(t, err, domain.ErrConversationNotFound)
		assert.Nil(t, page)
		comps.mockMessages.AssertNotCalled(t, "List")
	})

	t.Run("DefaultsLimit", func(t *testing.T) {
		comps := setupSMSAppTest(t)
		comps.mockMessages.On("List", ctx, businessID, mock.MatchedBy(func(f domain.MessageFilter) bool {
			return f.Limit == 50
		})).Return(&domain.MessagePage{Messages: []*domain.Message{}, Total: 0}, nil).Once()

		page, err := comps.app.ListMessages(ctx, businessID, domain.MessageFilter{})

		require.NoError(t, err)
		assert.Equal(t, int64(0), page.Total)
	})
}

func TestApplication_ListConversations(t *testing.T) {
	ctx := context.Background()
	businessID := "biz-1"

	t.Run("DefaultsLimitTo20", func(t *testing.T) {
		comps := setupSMSAppTest(t)
		comps.mockConversations.On("List", ctx, businessID, 20, 0).
			Return(&domain.ConversationPage{Conversations: []*domain.Conversation{}, Total: 0}, nil).Once()

		_, err := comps.app.ListConversations(ctx, businessID, 0, 0)
		require.NoError(t, err)
		comps.mockConversations.AssertExpectations(t)
	})

	t.Run("RejectsLimitOver50", func(t *testing.T) {
		comps := setupSMSAppTest(t)

		_, err := comps.app.ListConversations(ctx, businessID, 100, 0)
		require.ErrorIs(t, err, domain.ErrValidation)
	})
}
