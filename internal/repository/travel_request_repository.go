package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/travel-request-service/internal/domain"
)

// PageSize is the fixed number of items returned per listing page.
const PageSize = 15

// TravelRequestFilter captures listing parameters. A nil OwnerID means
// no ownership scoping (admin view).
type TravelRequestFilter struct {
	OwnerID     *string
	Status      *domain.RequestStatus
	Destination *string
	StartDate   *time.Time
	EndDate     *time.Time
	Page        int
}

// Page carries offset-based paging metadata alongside a result set.
type Page struct {
	Items      []domain.TravelRequest
	Current    int
	PerPage    int
	Total      int
	TotalPages int
}

// TravelRequestRepository encapsulates travel request persistence.
type TravelRequestRepository interface {
	Create(ctx context.Context, request *domain.TravelRequest) error
	GetByID(ctx context.Context, id string) (*domain.TravelRequest, error)
	// UpdateStatus persists the entity's status fields guarded by a
	// compare-and-swap on the previously observed status. Returns
	// ErrStaleStatus when the row moved underneath the caller.
	UpdateStatus(ctx context.Context, request *domain.TravelRequest, previous domain.RequestStatus) error
	ListWithFilter(ctx context.Context, filter TravelRequestFilter) (*Page, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// ErrStaleStatus signals a lost compare-and-swap on a status update.
var ErrStaleStatus = fmt.Errorf("travel request status changed concurrently")

type travelRequestRepository struct {
	pool *pgxpool.Pool
}

// NewTravelRequestRepository instantiates repository.
func NewTravelRequestRepository(pool *pgxpool.Pool) TravelRequestRepository {
	return &travelRequestRepository{pool: pool}
}

func (r *travelRequestRepository) Create(ctx context.Context, request *domain.TravelRequest) error {
	const query = `
        INSERT INTO travel_requests (user_id, destination, departure_date, return_date, status)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		request.UserID,
		request.Destination,
		request.DepartureDate,
		request.ReturnDate,
		request.Status,
	).Scan(&request.ID, &request.CreatedAt, &request.UpdatedAt)
}

func (r *travelRequestRepository) GetByID(ctx context.Context, id string) (*domain.TravelRequest, error) {
	const query = `
        SELECT id, user_id, destination, departure_date, return_date, status,
               reason_for_cancellation, created_at, updated_at
        FROM travel_requests WHERE id=$1`
	var request domain.TravelRequest
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&request.ID,
		&request.UserID,
		&request.Destination,
		&request.DepartureDate,
		&request.ReturnDate,
		&request.Status,
		&request.ReasonForCancellation,
		&request.CreatedAt,
		&request.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *travelRequestRepository) UpdateStatus(ctx context.Context, request *domain.TravelRequest, previous domain.RequestStatus) error {
	const query = `
        UPDATE travel_requests
        SET status=$1, reason_for_cancellation=$2, updated_at=NOW()
        WHERE id=$3 AND status=$4
        RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query,
		request.Status,
		request.ReasonForCancellation,
		request.ID,
		previous,
	).Scan(&request.UpdatedAt)
	if err == pgx.ErrNoRows {
		return ErrStaleStatus
	}
	return err
}

func (r *travelRequestRepository) ListWithFilter(ctx context.Context, filter TravelRequestFilter) (*Page, error) {
	clauses, args := buildFilterClauses(filter)
	where := strings.Join(clauses, " AND ")

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM travel_requests WHERE %s`, where)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * PageSize

	query := fmt.Sprintf(`
        SELECT id, user_id, destination, departure_date, return_date, status,
               reason_for_cancellation, created_at, updated_at
        FROM travel_requests WHERE %s
        ORDER BY created_at DESC LIMIT %d OFFSET %d`, where, PageSize, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items, err := scanTravelRequests(rows)
	if err != nil {
		return nil, err
	}

	return &Page{
		Items:      items,
		Current:    page,
		PerPage:    PageSize,
		Total:      total,
		TotalPages: totalPages(total, PageSize),
	}, nil
}

func (r *travelRequestRepository) Delete(ctx context.Context, id string) (bool, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM travel_requests WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

// buildFilterClauses translates filter criteria into WHERE clauses. The
// date-range filter is an overlap test: a request matches when its
// [departure, return] interval intersects [start, end].
func buildFilterClauses(filter TravelRequestFilter) ([]string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.OwnerID != nil {
		args = append(args, *filter.OwnerID)
		clauses = append(clauses, fmt.Sprintf("user_id=$%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.Destination != nil && strings.TrimSpace(*filter.Destination) != "" {
		args = append(args, "%"+strings.ToLower(strings.TrimSpace(*filter.Destination))+"%")
		clauses = append(clauses, fmt.Sprintf("LOWER(destination) LIKE $%d", len(args)))
	}
	if filter.StartDate != nil && filter.EndDate != nil {
		args = append(args, *filter.EndDate)
		clauses = append(clauses, fmt.Sprintf("departure_date <= $%d", len(args)))
		args = append(args, *filter.StartDate)
		clauses = append(clauses, fmt.Sprintf("return_date >= $%d", len(args)))
	}

	return clauses, args
}

func totalPages(total, perPage int) int {
	if total <= 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}

func scanTravelRequests(rows pgx.Rows) ([]domain.TravelRequest, error) {
	var result []domain.TravelRequest
	for rows.Next() {
		var request domain.TravelRequest
		if err := rows.Scan(
			&request.ID,
			&request.UserID,
			&request.Destination,
			&request.DepartureDate,
			&request.ReturnDate,
			&request.Status,
			&request.ReasonForCancellation,
			&request.CreatedAt,
			&request.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, request)
	}
	return result, rows.Err()
}
