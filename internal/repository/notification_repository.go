package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/travel-request-service/internal/domain"
)

// Notification is a persisted in-app notification row.
type Notification struct {
	ID                    string
	UserID                string
	TravelRequestID       string
	Status                domain.RequestStatus
	Destination           string
	DepartureDate         time.Time
	ReturnDate            time.Time
	ReasonForCancellation *string
	ReadAt                *time.Time
	CreatedAt             time.Time
}

// NotificationRepository stores in-app notifications.
type NotificationRepository interface {
	Create(ctx context.Context, notification *Notification) error
	ListByUser(ctx context.Context, userID string, limit int) ([]Notification, error)
}

type notificationRepository struct {
	pool *pgxpool.Pool
}

// NewNotificationRepository returns a Postgres-backed implementation.
func NewNotificationRepository(pool *pgxpool.Pool) NotificationRepository {
	return &notificationRepository{pool: pool}
}

func (r *notificationRepository) Create(ctx context.Context, notification *Notification) error {
	const query = `
        INSERT INTO notifications (user_id, travel_request_id, status, destination,
                                   departure_date, return_date, reason_for_cancellation)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		notification.UserID,
		notification.TravelRequestID,
		notification.Status,
		notification.Destination,
		notification.DepartureDate,
		notification.ReturnDate,
		notification.ReasonForCancellation,
	).Scan(&notification.ID, &notification.CreatedAt)
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID string, limit int) ([]Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
        SELECT id, user_id, travel_request_id, status, destination,
               departure_date, return_date, reason_for_cancellation, read_at, created_at
        FROM notifications WHERE user_id=$1
        ORDER BY created_at DESC LIMIT $2`
	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(
			&n.ID,
			&n.UserID,
			&n.TravelRequestID,
			&n.Status,
			&n.Destination,
			&n.DepartureDate,
			&n.ReturnDate,
			&n.ReasonForCancellation,
			&n.ReadAt,
			&n.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, n)
	}
	return result, rows.Err()
}
