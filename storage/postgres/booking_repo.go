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

const bookingColumns = `
	id::text, service_id, service_title, provider_id, provider_name, provider_phone,
	customer_id, customer_name, customer_phone, customer_address, time_slot, price, status,
	created_at, updated_at, payment_done, payment_done_at, paid, paid_at,
	payout_requested, payout_requested_at`

type bookingRepo struct {
	db        *pgxpool.Pool
	log       logger.ILogger
	publisher storage.IChangePublisher
}

// NewBookingRepo builds the repo. A nil publisher means writes are not
// announced to any feed.
func NewBookingRepo(db *pgxpool.Pool, log logger.ILogger, publisher storage.IChangePublisher) storage.IBookingStorage {
	return &bookingRepo{db: db, log: log, publisher: publisher}
}

func (r *bookingRepo) Create(ctx context.Context, booking *models.Booking) (*models.Booking, error) {
	query := `
		INSERT INTO bookings (id, service_id, service_title, provider_id, provider_name, provider_phone,
			customer_id, customer_name, customer_phone, customer_address, time_slot, price, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING ` + bookingColumns

	row := r.db.QueryRow(ctx, query,
		uuid.NewString(),
		booking.ServiceID,
		booking.ServiceTitle,
		booking.ProviderID,
		booking.ProviderName,
		booking.ProviderPhone,
		booking.CustomerID,
		booking.CustomerName,
		booking.CustomerPhone,
		booking.CustomerAddress,
		booking.TimeSlot,
		booking.Price,
		string(booking.Status),
	)
	out, err := scanBooking(row)
	if err != nil {
		r.log.Error("failed to create booking", logger.Error(err))
		return nil, err
	}

	r.announce(ctx, out)
	return out, nil
}

func (r *bookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, &models.NotFoundError{Entity: "booking", ID: id}
	}
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	b, err := scanBooking(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &models.NotFoundError{Entity: "booking", ID: id}
		}
		r.log.Error("failed to get booking by id", logger.String("id", id), logger.Error(err))
		return nil, err
	}
	return b, nil
}

func (r *bookingRepo) List(ctx context.Context, filter models.BookingFilter) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
		WHERE ($1 = '' OR customer_id = $1) AND ($2 = '' OR provider_id = $2)
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, filter.CustomerID, filter.ProviderID)
	if err != nil {
		r.log.Error("failed to list bookings", logger.Error(err))
		return nil, err
	}
	defer rows.Close()

	bookings := make([]*models.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// UpdateStatus writes only status and updated_at. Concurrent writers race and
// the last one wins.
func (r *bookingRepo) UpdateStatus(ctx context.Context, id string, status models.Status) (*models.Booking, error) {
	query := `UPDATE bookings SET status = $2, updated_at = NOW() WHERE id = $1 RETURNING ` + bookingColumns
	return r.write(ctx, "update booking status", id, query, string(status))
}

func (r *bookingRepo) CompareAndUpdateStatus(ctx context.Context, id string, from, to models.Status) (*models.Booking, error) {
	query := `UPDATE bookings SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2 RETURNING ` + bookingColumns
	b, err := r.write(ctx, "compare and update booking status", id, query, string(from), string(to))
	if errors.Is(err, models.ErrNotFound) {
		// the row may exist with another status
		if _, getErr := r.GetByID(ctx, id); getErr == nil {
			return nil, models.ErrConcurrentUpdate
		}
	}
	return b, err
}

func (r *bookingRepo) MarkPaymentDone(ctx context.Context, id string) (*models.Booking, error) {
	query := `UPDATE bookings
		SET payment_done = TRUE, payment_done_at = COALESCE(payment_done_at, NOW()), updated_at = NOW()
		WHERE id = $1 RETURNING ` + bookingColumns
	return r.write(ctx, "mark payment done", id, query)
}

func (r *bookingRepo) RequestPayout(ctx context.Context, id string) (*models.Booking, error) {
	query := `UPDATE bookings
		SET payout_requested = TRUE, payout_requested_at = NOW(), updated_at = NOW()
		WHERE id = $1 RETURNING ` + bookingColumns
	return r.write(ctx, "request payout", id, query)
}

func (r *bookingRepo) MarkPaid(ctx context.Context, id string) (*models.Booking, error) {
	query := `UPDATE bookings
		SET paid = TRUE, paid_at = COALESCE(paid_at, NOW()), updated_at = NOW()
		WHERE id = $1 RETURNING ` + bookingColumns
	return r.write(ctx, "mark paid", id, query)
}

func (r *bookingRepo) write(ctx context.Context, op, id, query string, args ...interface{}) (*models.Booking, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, &models.NotFoundError{Entity: "booking", ID: id}
	}
	b, err := scanBooking(r.db.QueryRow(ctx, query, append([]interface{}{id}, args...)...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &models.NotFoundError{Entity: "booking", ID: id}
		}
		r.log.Error("failed to "+op, logger.String("id", id), logger.Error(err))
		return nil, err
	}
	r.announce(ctx, b)
	return b, nil
}

func (r *bookingRepo) announce(ctx context.Context, b *models.Booking) {
	if r.publisher == nil {
		return
	}
	if err := r.publisher.Publish(ctx, models.ChangeOf(b)); err != nil {
		r.log.Warning("failed to publish booking change", logger.String("booking_id", b.ID), logger.Error(err))
	}
}

func scanBooking(row pgx.Row) (*models.Booking, error) {
	var (
		b      models.Booking
		status string
	)
	err := row.Scan(
		&b.ID, &b.ServiceID, &b.ServiceTitle, &b.ProviderID, &b.ProviderName, &b.ProviderPhone,
		&b.CustomerID, &b.CustomerName, &b.CustomerPhone, &b.CustomerAddress, &b.TimeSlot, &b.Price, &status,
		&b.CreatedAt, &b.UpdatedAt, &b.PaymentDone, &b.PaymentDoneAt, &b.Paid, &b.PaidAt,
		&b.PayoutRequested, &b.PayoutRequestedAt,
	)
	if err != nil {
		return nil, err
	}
	b.Status = models.Status(status)
	return &b, nil
}
