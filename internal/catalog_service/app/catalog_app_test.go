package app

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/replytics/dashboard-api/internal/catalog_service/domain"
)

// --- Mocks ---

type MockServiceRepository struct {
	mock.Mock
}

func (m *MockServiceRepository) Create(ctx context.Context, service *domain.Service) error {
	args := m.Called(ctx, service)
	return args.Error(0)
}

func (m *MockServiceRepository) CreateBatch(ctx context.Context, services []*domain.Service) error {
	args := m.Called(ctx, services)
	return args.Error(0)
}

func (m *MockServiceRepository) GetByID(ctx context.Context, id string, businessID string) (*domain.Service, error) {
	args := m.Called(ctx, id, businessID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Service), args.Error(1)
}

func (m *MockServiceRepository) ListByBusinessID(ctx context.Context, businessID string, includeInactive bool) ([]*domain.Service, error) {
	args := m.Called(ctx, businessID, includeInactive)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Service), args.Error(1)
}

func (m *MockServiceRepository) CountByBusinessID(ctx context.Context, businessID string) (int, error) {
	args := m.Called(ctx, businessID)
	return args.Int(0), args.Error(1)
}

func (m *MockServiceRepository) Update(ctx context.Context, service *domain.Service) error {
	args := m.Called(ctx, service)
	return args.Error(0)
}

func (m *MockServiceRepository) SoftDelete(ctx context.Context, id string, businessID string) error {
	args := m.Called(ctx, id, businessID)
	return args.Error(0)
}

func (m *MockServiceRepository) Reorder(ctx context.Context, businessID string, orderedIDs []string) error {
	args := m.Called(ctx, businessID, orderedIDs)
	return args.Error(0)
}

func setupCatalogAppTest(t *testing.T) (*Application, *MockServiceRepository) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mockRepo := new(MockServiceRepository)
	return NewApplication(mockRepo, logger), mockRepo
}

// --- Tests ---

func TestApplication_CreateService(t *testing.T) {
	ctx := context.Background()
	businessID := "biz-1"

	t.Run("AppendsAtEndOfDisplayOrder", func(t *testing.T) {
		app, mockRepo := setupCatalogAppTest(t)
		mockRepo.On("CountByBusinessID", ctx, businessID).Return(4, nil).Once()
		mockRepo.On("Create", ctx, mock.MatchedBy(func(s *domain.Service) bool {
			return s.DisplayOrder == 4 && s.Name == "Haircut"
		})).Return(nil).Once()

		service, err := app.CreateService(ctx, &domain.Service{
			BusinessID: businessID, Name: "Haircut", DurationMinutes: 45, PriceCents: 4500, IsActive: true,
		})

		require.NoError(t, err)
		assert.Equal(t, 4, service.DisplayOrder)
		mockRepo.AssertExpectations(t)
	})

	t.Run("RejectsInvalidDuration", func(t *testing.T) {
		app, mockRepo := setupCatalogAppTest(t)

		_, err := app.CreateService(ctx, &domain.Service{
			BusinessID: businessID, Name: "Haircut", DurationMinutes: 2, PriceCents: 4500,
		})

		require.ErrorIs(t, err, domain.ErrValidation)
		mockRepo.AssertNotCalled(t, "Create")
	})

	t.Run("RejectsEmptyName", func(t *testing.T) {
		app, _ := setupCatalogAppTest(t)

		_, err := app.CreateService(ctx, &domain.Service{
			BusinessID: businessID, DurationMinutes: 45, PriceCents: 4500,
		})

		require.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestApplication_UpdateService(t *testing.T) {
	ctx := context.Background()
	businessID := "biz-1"
	serviceID := "svc-1"

	t.Run("OwnershipCheckedBeforeWrite", func(t *testing.T) {
		app, mockRepo := setupCatalogAppTest(t)
		mockRepo.On("GetByID", ctx, serviceID, businessID).Return(nil, domain.ErrServiceNotFound).Once()

		service, err := app.UpdateService(ctx, serviceID, businessID, domain.ServicePatch{})

		require.ErrorIs(t, err, domain.ErrServiceNotFound)
		assert.Nil(t, service)
		mockRepo.AssertNotCalled(t, "Update")
	})

	t.Run("AppliesPatch", func(t *testing.T) {
		app, mockRepo := setupCatalogAppTest(t)
		stored := &domain.Service{ID: serviceID, BusinessID: businessID, Name: "Haircut", DurationMinutes: 45, PriceCents: 4500}
		price := int64(5000)
		mockRepo.On("GetByID", ctx, serviceID, businessID).Return(stored, nil).Once()
		mockRepo.On("Update", ctx, mock.MatchedBy(func(s *domain.Service) bool {
			return s.PriceCents == 5000 && s.Name == "Haircut"
		})).Return(nil).Once()

		service, err := app.UpdateService(ctx, serviceID, businessID, domain.ServicePatch{PriceCents: &price})

		require.NoError(t, err)
		assert.Equal(t, int64(5000), service.PriceCents)
		mockRepo.AssertExpectations(t)
	})
}

func TestApplication_DeleteService(t *testing.T) {
	ctx := context.Background()

	t.Run("CrossTenantReadsAsNotFound", func(t *testing.T) {
		app, mockRepo := setupCatalogAppTest(t)
		mockRepo.On("GetByID", ctx, "svc-1", "biz-other").Return(nil, domain.ErrServiceNotFound).Once()

		err := app.DeleteService(ctx, "svc-1", "biz-other")

		require.ErrorIs(t, err, domain.ErrServiceNotFound)
		mockRepo.AssertNotCalled(t, "SoftDelete")
	})

	t.Run("SoftDeletes", func(t *testing.T) {
		app, mockRepo := setupCatalogAppTest(t)
		mockRepo.On("GetByID", ctx, "svc-1", "biz-1").Return(&domain.Service{ID: "svc-1"}, nil).Once()
		mockRepo.On("SoftDelete", ctx, "svc-1", "biz-1").Return(nil).Once()

		require.NoError(t, app.DeleteService(ctx, "svc-1", "biz-1"))
		mockRepo.AssertExpectations(t)
	})
}

func TestApplication_ReorderServices(t *testing.T) {
	ctx := context.Background()
	businessID := "biz-1"

	t.Run("Success", func(t *testing.T) {
		app, mockRepo := setupCatalogAppTest(t)
		ids := []string{"svc-2", "svc-1", "svc-3"}
		mockRepo.On("Reorder", ctx, businessID, ids).Return(nil).Once()

		require.NoError(t, app.ReorderServices(ctx, businessID, ids))
		mockRepo.AssertExpectations(t)
	})

	t.Run("RejectsEmptyList", func(t *testing.T) {
		app, mockRepo := setupCatalogAppTest(t)

		err := app.ReorderServices(ctx, businessID, nil)

		require.ErrorIs(t, err, domain.ErrValidation)
		mockRepo.AssertNotCalled(t, "Reorder")
	})

	t.Run("RejectsDuplicateIDs", func(t *testing.T) {
		app, _ := setupCatalogAppTest(t)

		err := app.ReorderServices(ctx, businessID, []string{"svc-1", "svc-1"})

		require.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("ForeignIDSurfacesNotFound", func(t *testing.T) {
		app, mockRepo := setupCatalogAppTest(t)
		ids := []string{"svc-1", "svc-foreign"}
		mockRepo.On("Reorder", ctx, businessID, ids).Return(domain.ErrServiceNotFound).Once()

		err := app.ReorderServices(ctx, businessID, ids)

		require.ErrorIs(t, err, domain.ErrServiceNotFound)
	})
}

func TestApplication_ApplyTemplate(t *testing.T) {
	ctx := context.Background()
	businessID := "biz-1"

	t.Run("InsertsAfterExistingItems", func(t *testing.T) {
		app, mockRepo := setupCatalogAppTest(t)
		mockRepo.On("CountByBusinessID", ctx, businessID).Return(2, nil).Once()
		mockRepo.On("CreateBatch", ctx, mock.MatchedBy(func(services []*domain.Service) bool {
			return len(services) == len(domain.IndustryTemplates["salon"]) &&
				services[0].DisplayOrder == 2 && services[0].IsActive
		})).Return(nil).Once()

		services, err := app.ApplyTemplate(ctx, businessID, "salon")

		require.NoError(t, err)
		assert.Len(t, services, len(domain.IndustryTemplates["salon"]))
		mockRepo.AssertExpectations(t)
	})

	t.Run("UnknownTemplate", func(t *testing.T) {
		app, mockRepo := setupCatalogAppTest(t)

		services, err := app.ApplyTemplate(ctx, businessID, "spaceport")

		require.ErrorIs(t, err, domain.ErrUnknownTemplate)
		assert.Nil(t, services)
		mockRepo.AssertNotCalled(t, "CreateBatch")
	})
}
