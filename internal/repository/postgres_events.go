package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Shivanand-hulikatti/eventure/internal/model"
)

func (q *pgQueries) InsertEvent(ctx context.Context, e model.Event) error {
	_, err := q.db.Exec(ctx,
		`INSERT INTO events (event_id, user_id, name, location, host, start_time, end_time, description, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID, e.OwnerID, e.Name, e.Location, e.Host, e.StartTime, e.EndTime, e.Description, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (q *pgQueries) InsertArrival(ctx context.Context, a model.ArrivalOption) error {
	_, err := q.db.Exec(ctx,
		`INSERT INTO arrivals (arrival_id, event_id, arrival_time, capacity)
		 VALUES ($1, $2, $3, $4)`,
		a.ID, a.EventID, a.ArrivalTime, a.Capacity,
	)
	if err != nil {
		return fmt.Errorf("insert arrival: %w", err)
	}
	return nil
}

func (q *pgQueries) GetEvent(ctx context.Context, eventID string) (*model.Event, error) {
	var e model.Event
	err := q.db.QueryRow(ctx,
		`SELECT event_id, user_id, name, location, host, start_time, end_time, description, created_at
		 FROM events WHERE event_id = $1`,
		eventID,
	).Scan(&e.ID, &e.OwnerID, &e.Name, &e.Location, &e.Host, &e.StartTime, &e.EndTime, &e.Description, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return &e, nil
}

func (q *pgQueries) GetArrival(ctx context.Context, arrivalID string) (*model.ArrivalOption, error) {
	var a model.ArrivalOption
	err := q.db.QueryRow(ctx,
		`SELECT arrival_id, event_id, arrival_time, capacity
		 FROM arrivals WHERE arrival_id = $1`,
		arrivalID,
	).Scan(&a.ID, &a.EventID, &a.ArrivalTime, &a.Capacity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get arrival: %w", err)
	}
	return &a, nil
}

func (q *pgQueries) DeleteEventReservations(ctx context.Context, eventID string) (int64, error) {
	tag, err := q.db.Exec(ctx,
		`DELETE FROM reservations
		 WHERE arrival_id IN (SELECT arrival_id FROM arrivals WHERE event_id = $1)`,
		eventID,
	)
	if err != nil {
		return 0, fmt.Errorf("delete reservations: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (q *pgQueries) DeleteEventArrivals(ctx context.Context, eventID string) (int64, error) {
	tag, err := q.db.Exec(ctx, `DELETE FROM arrivals WHERE event_id = $1`, eventID)
	if err != nil {
		return 0, fmt.Errorf("delete arrivals: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (q *pgQueries) DeleteEvent(ctx context.Context, eventID string) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM events WHERE event_id = $1`, eventID)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ArrivalOccupancy counts active reservations on one arrival option next to
// its stored capacity.
func (q *pgQueries) ArrivalOccupancy(ctx context.Context, arrivalID string) (model.Occupancy, error) {
	var o model.Occupancy
	err := q.db.QueryRow(ctx,
		`SELECT COUNT(r.reservation_id), a.capacity
		 FROM arrivals a
		 LEFT JOIN reservations r ON r.arrival_id = a.arrival_id AND NOT r.is_canceled
		 WHERE a.arrival_id = $1
		 GROUP BY a.arrival_id, a.capacity`,
		arrivalID,
	).Scan(&o.Filled, &o.Capacity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Occupancy{}, ErrNotFound
		}
		return model.Occupancy{}, fmt.Errorf("arrival occupancy: %w", err)
	}
	return o, nil
}

// EventOccupancy sums an event's arrival options. One unlimited option
// makes the whole event unlimited.
func (q *pgQueries) EventOccupancy(ctx context.Context, eventID string) (model.Occupancy, error) {
	var o model.Occupancy
	err := q.db.QueryRow(ctx,
		`SELECT
		   (SELECT COUNT(*)
		    FROM reservations r
		    JOIN arrivals a ON a.arrival_id = r.arrival_id
		    WHERE a.event_id = e.event_id AND NOT r.is_canceled),
		   COALESCE((SELECT CASE WHEN bool_or(a.capacity < 0) THEN -1 ELSE SUM(a.capacity) END
		             FROM arrivals a
		             WHERE a.event_id = e.event_id), 0)
		 FROM events e
		 WHERE e.event_id = $1`,
		eventID,
	).Scan(&o.Filled, &o.Capacity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Occupancy{}, ErrNotFound
		}
		return model.Occupancy{}, fmt.Errorf("event occupancy: %w", err)
	}
	return o, nil
}

func (q *pgQueries) InsertReservation(ctx context.Context, r model.Reservation) error {
	_, err := q.db.Exec(ctx,
		`INSERT INTO reservations (reservation_id, user_id, arrival_id, is_canceled, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		r.ID, r.UserID, r.ArrivalID, r.Canceled, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert reservation: %w", err)
	}
	return nil
}

// ActiveBookings returns the user's active reservations, oldest first.
func (q *pgQueries) ActiveBookings(ctx context.Context, userID string) ([]model.Booking, error) {
	rows, err := q.db.Query(ctx,
		`SELECT r.reservation_id, a.arrival_id, e.event_id, e.name, e.location, a.arrival_time, e.end_time
		 FROM reservations r
		 JOIN arrivals a ON a.arrival_id = r.arrival_id
		 JOIN events e ON e.event_id = a.event_id
		 WHERE r.user_id = $1 AND NOT r.is_canceled
		 ORDER BY r.created_at ASC, r.reservation_id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list active bookings: %w", err)
	}
	defer rows.Close()

	var out []model.Booking
	for rows.Next() {
		var b model.Booking
		if err := rows.Scan(&b.ReservationID, &b.ArrivalID, &b.EventID, &b.EventName, &b.Location, &b.ArrivalTime, &b.EventEnd); err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (q *pgQueries) HasActiveReservation(ctx context.Context, userID, eventID string) (bool, error) {
	var exists bool
	err := q.db.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1
		   FROM reservations r
		   JOIN arrivals a ON a.arrival_id = r.arrival_id
		   WHERE r.user_id = $1 AND a.event_id = $2 AND NOT r.is_canceled
		 )`,
		userID, eventID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check active reservation: %w", err)
	}
	return exists, nil
}

// CancelReservations flags every active reservation the user holds for the
// event as canceled.
func (q *pgQueries) CancelReservations(ctx context.Context, userID, eventID string) (int64, error) {
	tag, err := q.db.Exec(ctx,
		`UPDATE reservations
		 SET is_canceled = TRUE
		 WHERE user_id = $1
		   AND NOT is_canceled
		   AND arrival_id IN (SELECT arrival_id FROM arrivals WHERE event_id = $2)`,
		userID, eventID,
	)
	if err != nil {
		return 0, fmt.Errorf("cancel reservations: %w", err)
	}
	return tag.RowsAffected(), nil
}
