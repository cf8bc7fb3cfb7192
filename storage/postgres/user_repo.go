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

const userColumns = `id::text, telegram_id, name, phone, address, role, created_at, updated_at`

type userRepo struct {
	db  *pgxpool.Pool
	log logger.ILogger
}

func NewUserRepo(db *pgxpool.Pool, log logger.ILogger) storage.IUserStorage {
	return &userRepo{db: db, log: log}
}

func (r *userRepo) Create(ctx context.Context, p *models.Profile) (*models.Profile, error) {
	id := p.ID
	if id == "" {
		id = uuid.NewString()
	}
	query := `
		INSERT INTO users (id, telegram_id, name, phone, address, role)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + userColumns
	out, err := scanProfile(r.db.QueryRow(ctx, query, id, p.TelegramID, p.Name, p.Phone, p.Address, string(p.Role)))
	if err != nil {
		r.log.Error("failed to create user", logger.Error(err))
		return nil, err
	}
	return out, nil
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, &models.NotFoundError{Entity: "profile", ID: id}
	}
	out, err := scanProfile(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &models.NotFoundError{Entity: "profile", ID: id}
		}
		r.log.Error("failed to get user by id", logger.String("id", id), logger.Error(err))
		return nil, err
	}
	return out, nil
}

func (r *userRepo) GetByTelegramID(ctx context.Context, teleID int64) (*models.Profile, error) {
	out, err := scanProfile(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE telegram_id = $1`, teleID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &models.NotFoundError{Entity: "profile", ID: "telegram"}
		}
		r.log.Error("failed to get user", logger.Int64("telegram_id", teleID), logger.Error(err))
		return nil, err
	}
	return out, nil
}

func (r *userRepo) GetOrCreateByTelegram(ctx context.Context, teleID int64, name string, role models.Role) (*models.Profile, error) {
	query := `
		INSERT INTO users (telegram_id, name, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (telegram_id) DO UPDATE
		SET updated_at = NOW()
		RETURNING ` + userColumns
	out, err := scanProfile(r.db.QueryRow(ctx, query, teleID, name, string(role)))
	if err != nil {
		r.log.Error("failed to get or create user", logger.Int64("telegram_id", teleID), logger.Error(err))
		return nil, err
	}
	return out, nil
}

func (r *userRepo) UpdatePhone(ctx context.Context, id, phone string) error {
	return r.set(ctx, "phone", id, phone)
}

func (r *userRepo) UpdateAddress(ctx context.Context, id, address string) error {
	return r.set(ctx, "address", id, address)
}

func (r *userRepo) UpdateName(ctx context.Context, id, name string) error {
	return r.set(ctx, "name", id, name)
}

func (r *userRepo) UpdateRole(ctx context.Context, id string, role models.Role) error {
	return r.set(ctx, "role", id, string(role))
}

// set updates a single column; column is always a literal from this file.
func (r *userRepo) set(ctx context.Context, column, id, value string) error {
	if _, err := uuid.Parse(id); err != nil {
		return &models.NotFoundError{Entity: "profile", ID: id}
	}
	res, err := r.db.Exec(ctx, "UPDATE users SET "+column+" = $1, updated_at = NOW() WHERE id = $2", value, id)
	if err != nil {
		r.log.Error("failed to update user "+column, logger.String("id", id), logger.Error(err))
		return err
	}
	if res.RowsAffected() == 0 {
		return &models.NotFoundError{Entity: "profile", ID: id}
	}
	return nil
}

func scanProfile(row pgx.Row) (*models.Profile, error) {
	var (
		p    models.Profile
		role string
	)
	if err := row.Scan(&p.ID, &p.TelegramID, &p.Name, &p.Phone, &p.Address, &role, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Role = models.Role(role)
	return &p, nil
}
