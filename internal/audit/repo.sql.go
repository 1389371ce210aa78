package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed trail persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListEvents loads the auditable event catalog.
func (r *Repository) ListEvents(ctx context.Context) ([]Event, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM auditable_events ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var events []Event
	for rows.Next() {
		var ev Event
		if err := rows.Scan(&ev.ID, &ev.Name); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// InsertTrail appends one trail row.
func (r *Repository) InsertTrail(ctx context.Context, eventID, userID int64, details map[string]any) error {
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO audit_trails (event_id, user_id, details, created_at) VALUES ($1, $2, $3, NOW())`,
		eventID, userID, detailsJSON)
	return err
}

// ListTrail returns trail rows newest first.
func (r *Repository) ListTrail(ctx context.Context, filters TrailFilters) ([]Trail, error) {
	query := `SELECT t.id, t.event_id, e.name, t.user_id, t.details, t.created_at
FROM audit_trails t JOIN auditable_events e ON e.id = t.event_id
WHERE ($1 = '' OR e.name = $1) AND ($2 = 0 OR t.user_id = $2)
ORDER BY t.created_at DESC, t.id DESC
LIMIT $3 OFFSET $4`
	rows, err := r.pool.Query(ctx, query, filters.EventName, filters.UserID, filters.Limit, filters.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var trails []Trail
	for rows.Next() {
		var (
			t           Trail
			detailsJSON []byte
			createdAt   time.Time
		)
		if err := rows.Scan(&t.ID, &t.EventID, &t.EventName, &t.UserID, &detailsJSON, &createdAt); err != nil {
			return nil, err
		}
		if len(detailsJSON) > 0 {
			if err := json.Unmarshal(detailsJSON, &t.Details); err != nil {
				return nil, err
			}
		}
		t.CreatedAt = createdAt
		trails = append(trails, t)
	}
	return trails, rows.Err()
}
