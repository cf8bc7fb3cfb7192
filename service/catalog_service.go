package service

import (
	"context"
	"strings"

	"homeservices/pkg/logger"
	"homeservices/pkg/models"
	"homeservices/storage"
)

type CatalogService interface {
	Create(ctx context.Context, providerID string, svc *models.Service) (*models.Service, error)
	Update(ctx context.Context, providerID string, svc *models.Service) (*models.Service, error)
	Delete(ctx context.Context, providerID, serviceID string) error
	Get(ctx context.Context, id string) (*models.Service, error)
	List(ctx context.Context) ([]*models.Service, error)
	ListByProvider(ctx context.Context, providerID string) ([]*models.Service, error)
}

type catalogService struct {
	stg storage.IStorage
	log logger.ILogger
}

func NewCatalogService(stg storage.IStorage, log logger.ILogger) CatalogService {
	return &catalogService{stg: stg, log: log}
}

func (s *catalogService) Create(ctx context.Context, providerID string, svc *models.Service) (*models.Service, error) {
	provider, err := s.provider(ctx, providerID)
	if err != nil {
		return nil, err
	}

	in := *svc
	normalize(&in)
	in.ProviderID = provider.ID
	in.ProviderName = provider.Name
	in.ProviderPhone = provider.Phone
	if err := in.Validate(); err != nil {
		return nil, err
	}

	out, err := s.stg.Service().Create(ctx, &in)
	if err != nil {
		return nil, err
	}
	s.log.Info("service added", logger.String("service_id", out.ID), logger.String("provider_id", provider.ID))
	return out, nil
}

func (s *catalogService) Update(ctx context.Context, providerID string, svc *models.Service) (*models.Service, error) {
	provider, err := s.provider(ctx, providerID)
	if err != nil {
		return nil, err
	}
	cur, err := s.stg.Service().GetByID(ctx, svc.ID)
	if err != nil {
		return nil, err
	}
	if cur.ProviderID != provider.ID {
		return nil, models.ErrForbidden
	}

	in := *svc
	normalize(&in)
	in.ProviderID = provider.ID
	in.ProviderName = provider.Name
	in.ProviderPhone = provider.Phone
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return s.stg.Service().Update(ctx, &in)
}

// Delete removes the catalog entry only. Bookings keep their copied title
// and price.
func (s *catalogService) Delete(ctx context.Context, providerID, serviceID string) error {
	if providerID == "" {
		return models.ErrUnauthenticated
	}
	cur, err := s.stg.Service().GetByID(ctx, serviceID)
	if err != nil {
		return err
	}
	if cur.ProviderID != providerID {
		return models.ErrForbidden
	}
	if err := s.stg.Service().Delete(ctx, serviceID); err != nil {
		return err
	}
	s.log.Info("service deleted", logger.String("service_id", serviceID))
	return nil
}

func (s *catalogService) Get(ctx context.Context, id string) (*models.Service, error) {
	return s.stg.Service().GetByID(ctx, id)
}

func (s *catalogService) List(ctx context.Context) ([]*models.Service, error) {
	return s.stg.Service().GetAll(ctx)
}

func (s *catalogService) ListByProvider(ctx context.Context, providerID string) ([]*models.Service, error) {
	return s.stg.Service().GetByProvider(ctx, providerID)
}

func (s *catalogService) provider(ctx context.Context, providerID string) (*models.Profile, error) {
	if providerID == "" {
		return nil, models.ErrUnauthenticated
	}
	p, err := s.stg.User().GetByID(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if p.Role != models.RoleProvider {
		return nil, models.ErrForbidden
	}
	return p, nil
}

func normalize(svc *models.Service) {
	svc.Title = strings.TrimSpace(svc.Title)
	svc.Category = strings.TrimSpace(svc.Category)
	svc.Subservice = strings.TrimSpace(svc.Subservice)
}
