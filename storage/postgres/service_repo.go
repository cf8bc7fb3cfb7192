package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"homeservices/pkg/logger"
	"homeservices/pkg/models"
	"homeservices/storage"
)

const serviceColumns = `id::text, title, category, subservice, price, provider_id::text, provider_name, provider_phone, created_at, updated_at`

type serviceRepo struct {
	db  *pgxpool.Pool
	log logger.ILogger
}

func NewServiceRepo(db *pgxpool.Pool, log logger.ILogger) storage.IServiceStorage {
	return &serviceRepo{db: db, log: log}
}

func (r *serviceRepo) Create(ctx context.Context, svc *models.Service) (*models.Service, error) {
	query := `
		INSERT INTO services (id, title, category, subservice, price, provider_id, provider_name, provider_phone)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + serviceColumns
	out, err := scanService(r.db.QueryRow(ctx, query,
		uuid.NewString(), svc.Title, svc.Category, svc.Subservice, svc.Price,
		svc.ProviderID, svc.ProviderName, svc.ProviderPhone,
	))
	if err != nil {
		r.log.Error("failed to create service", logger.Error(err))
		return nil, err
	}
	return out, nil
}

func (r *serviceRepo) Update(ctx context.Context, svc *models.Service) (*models.Service, error) {
	if _, err := uuid.Parse(svc.ID); err != nil {
		return nil, &models.NotFoundError{Entity: "service", ID: svc.ID}
	}
	query := `
		UPDATE services
		SET title = $2, category = $3, subservice = $4, price = $5, provider_name = $6, provider_phone = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + serviceColumns
	out, err := scanService(r.db.QueryRow(ctx, query,
		svc.ID, svc.Title, svc.Category, svc.Subservice, svc.Price, svc.ProviderName, svc.ProviderPhone,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &models.NotFoundError{Entity: "service", ID: svc.ID}
		}
		r.log.Error("failed to update service", logger.String("id", svc.ID), logger.Error(err))
		return nil, err
	}
	return out, nil
}

func (r *serviceRepo) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return &models.NotFoundError{Entity: "service", ID: id}
	}
	res, err := r.db.Exec(ctx, "DELETE FROM services WHERE id = $1", id)
	if err != nil {
		r.log.Error("failed to delete service", logger.String("id", id), logger.Error(err))
		return err
	}
	if res.RowsAffected() == 0 {
		return &models.NotFoundError{Entity: "service", ID: id}
	}
	return nil
}

func (r *serviceRepo) GetByID(ctx context.Context, id string) (*models.Service, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, &models.NotFoundError{Entity: "service", ID: id}
	}
	out, err := scanService(r.db.QueryRow(ctx, `SELECT `+serviceColumns+` FROM services WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &models.NotFoundError{Entity: "service", ID: id}
		}
		r.log.Error("failed to get service", logger.String("id", id), logger.Error(err))
		return nil, err
	}
	return out, nil
}

func (r *serviceRepo) GetAll(ctx context.Context) ([]*models.Service, error) {
	return r.scanServices(ctx, `SELECT `+serviceColumns+` FROM services ORDER BY created_at DESC`)
}

func (r *serviceRepo) GetByProvider(ctx context.Context, providerID string) ([]*models.Service, error) {
	if _, err := uuid.Parse(providerID); err != nil {
		return []*models.Service{}, nil
	}
	return r.scanServices(ctx, `SELECT `+serviceColumns+` FROM services WHERE provider_id = $1 ORDER BY created_at DESC`, providerID)
}

func (r *serviceRepo) scanServices(ctx context.Context, query string, args ...interface{}) ([]*models.Service, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("failed to list services", logger.Error(err))
		return nil, err
	}
	defer rows.Close()

	services := make([]*models.Service, 0)
	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		services = append(services, svc)
	}
	return services, rows.Err()
}

func scanService(row pgx.Row) (*models.Service, error) {
	var s models.Service
	err := row.Scan(&s.ID, &s.Title, &s.Category, &s.Subservice, &s.Price,
		&s.ProviderID, &s.ProviderName, &s.ProviderPhone, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
