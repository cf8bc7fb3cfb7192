package service

import (
	"context"

	"homeservices/pkg/logger"
	"homeservices/pkg/models"
	"homeservices/storage"
)

type UserService interface {
	// Register finds or creates the profile behind a Telegram account.
	// Signing in through the provider side promotes a customer to provider.
	Register(ctx context.Context, teleID int64, name string, role models.Role) (*models.Profile, error)
	Create(ctx context.Context, p *models.Profile) (*models.Profile, error)
	Get(ctx context.Context, id string) (*models.Profile, error)
	GetByTelegram(ctx context.Context, teleID int64) (*models.Profile, error)
	UpdateProfile(ctx context.Context, id string, upd models.ProfileUpdate) (*models.Profile, error)
	SetPhone(ctx context.Context, id, phone string) error
	SetAddress(ctx context.Context, id, address string) error
}

type userService struct {
	stg storage.IUserStorage
	log logger.ILogger
}

func NewUserService(stg storage.IStorage, log logger.ILogger) UserService {
	return &userService{
		stg: stg.User(),
		log: log,
	}
}

func (s *userService) Register(ctx context.Context, teleID int64, name string, role models.Role) (*models.Profile, error) {
	p, err := s.stg.GetOrCreateByTelegram(ctx, teleID, name, role)
	if err != nil {
		return nil, err
	}
	if role == models.RoleProvider && p.Role != models.RoleProvider {
		if err := s.stg.UpdateRole(ctx, p.ID, models.RoleProvider); err != nil {
			return nil, err
		}
		p.Role = models.RoleProvider
		s.log.Info("profile promoted to provider", logger.String("user_id", p.ID))
	}
	return p, nil
}

func (s *userService) Create(ctx context.Context, p *models.Profile) (*models.Profile, error) {
	if !p.Role.Valid() {
		return nil, &models.ValidationError{Field: "role", Reason: "must be customer or provider"}
	}
	upd := models.ProfileUpdate{Name: p.Name, Phone: p.Phone, Address: p.Address}
	upd.Normalize()
	if err := upd.Validate(); err != nil {
		return nil, err
	}
	in := *p
	in.Name, in.Phone, in.Address = upd.Name, upd.Phone, upd.Address
	return s.stg.Create(ctx, &in)
}

func (s *userService) Get(ctx context.Context, id string) (*models.Profile, error) {
	return s.stg.GetByID(ctx, id)
}

func (s *userService) GetByTelegram(ctx context.Context, teleID int64) (*models.Profile, error) {
	return s.stg.GetByTelegramID(ctx, teleID)
}

func (s *userService) UpdateProfile(ctx context.Context, id string, upd models.ProfileUpdate) (*models.Profile, error) {
	upd.Normalize()
	if err := upd.Validate(); err != nil {
		return nil, err
	}
	if err := s.stg.UpdateName(ctx, id, upd.Name); err != nil {
		return nil, err
	}
	if err := s.stg.UpdatePhone(ctx, id, upd.Phone); err != nil {
		return nil, err
	}
	if err := s.stg.UpdateAddress(ctx, id, upd.Address); err != nil {
		return nil, err
	}
	return s.stg.GetByID(ctx, id)
}

func (s *userService) SetPhone(ctx context.Context, id, phone string) error {
	if err := models.ValidatePhone(phone); err != nil {
		return err
	}
	return s.stg.UpdatePhone(ctx, id, phone)
}

func (s *userService) SetAddress(ctx context.Context, id, address string) error {
	return s.stg.UpdateAddress(ctx, id, address)
}
