package app

import (
	"context"
	"log/slog"

	"github.com/replytics/dashboard-api/internal/catalog_service/domain"
)

// Application manages a business's service catalog.
type Application struct {
	serviceRepo domain.ServiceRepository
	logger      *slog.Logger
}

func NewApplication(serviceRepo domain.ServiceRepository, logger *slog.Logger) *Application {
	return &Application{serviceRepo: serviceRepo, logger: logger}
}

// ListServices returns the catalog in display order. Inactive items are
// omitted unless includeInactive is set.
func (a *Application) ListServices(ctx context.Context, businessID string, includeInactive bool) ([]*domain.Service, error) {
	return a.serviceRepo.ListByBusinessID(ctx, businessID, includeInactive)
}

// CreateService appends a new item at the end of the display order.
func (a *Application) CreateService(ctx context.Context, service *domain.Service) (*domain.Service, error) {
	if err := service.Validate(); err != nil {
		return nil, err
	}
	count, err := a.serviceRepo.CountByBusinessID(ctx, service.BusinessID)
	if err != nil {
		return nil, err
	}
	service.DisplayOrder = count
	if err := a.serviceRepo.Create(ctx, service); err != nil {
		a.logger.ErrorContext(ctx, "Failed to create service", "error", err, "business_id", service.BusinessID)
		return nil, err
	}
	return service, nil
}

// GetService fetches one catalog item, scoped to the business.
func (a *Application) GetService(ctx context.Context, id string, businessID string) (*domain.Service, error) {
	return a.serviceRepo.GetByID(ctx, id, businessID)
}

// UpdateService applies a partial update after an ownership check.
func (a *Application) UpdateService(ctx context.Context, id string, businessID string, patch domain.ServicePatch) (*domain.Service, error) {
	service, err := a.serviceRepo.GetByID(ctx, id, businessID)
	if err != nil {
		return nil, err
	}
	patch.Apply(service)
	if err := service.Validate(); err != nil {
		return nil, err
	}
	if err := a.serviceRepo.Update(ctx, service); err != nil {
		a.logger.ErrorContext(ctx, "Failed to update service", "error", err, "service_id", id, "business_id", businessID)
		return nil, err
	}
	return service, nil
}

// DeleteService soft-deletes an item after an ownership check.
func (a *Application) DeleteService(ctx context.Context, id string, businessID string) error {
	if _, err := a.serviceRepo.GetByID(ctx, id, businessID); err != nil {
		return err
	}
	return a.serviceRepo.SoftDelete(ctx, id, businessID)
}

// ReorderServices rewrites display_order from the given id list. Every id
// must belong to the business and the list must cover it exactly once.
func (a *Application) ReorderServices(ctx context.Context, businessID string, orderedIDs []string) error {
	if len(orderedIDs) == 0 {
		return domain.ErrValidation
	}
	seen := make(map[string]bool, len(orderedIDs))
	for _, id := range orderedIDs {
		if seen[id] {
			return domain.ErrValidation
		}
		seen[id] = true
	}
	if err := a.serviceRepo.Reorder(ctx, businessID, orderedIDs); err != nil {
		a.logger.ErrorContext(ctx, "Failed to reorder services", "error", err, "business_id", businessID)
		return err
	}
	return nil
}

// ApplyTemplate inserts a named industry starter catalog after the
// business's existing items.
func (a *Application) ApplyTemplate(ctx context.Context, businessID string, templateName string) ([]*domain.Service, error) {
	template, ok := domain.IndustryTemplates[templateName]
	if !ok {
		return nil, domain.ErrUnknownTemplate
	}
	count, err := a.serviceRepo.CountByBusinessID(ctx, businessID)
	if err != nil {
		return nil, err
	}

	services := make([]*domain.Service, 0, len(template))
	for i, item := range template {
		services = append(services, &domain.Service{
			BusinessID:      businessID,
			Name:            item.Name,
			Description:     item.Description,
			DurationMinutes: item.DurationMinutes,
			PriceCents:      item.PriceCents,
			Category:        item.Category,
			IsActive:        true,
			DisplayOrder:    count + i,
		})
	}
	if err := a.serviceRepo.CreateBatch(ctx, services); err != nil {
		a.logger.ErrorContext(ctx, "Failed to apply service template", "error", err, "business_id", businessID, "template", templateName)
		return nil, err
	}
	return services, nil
}
