package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/eventure/internal/model"
)

// summaryCTE computes per-event filled counts, effective capacity and
// whether the viewer ($1) holds an active reservation.
const summaryCTE = `
WITH filled AS (
    SELECT a.event_id, COUNT(*) AS filled
    FROM reservations r
    JOIN arrivals a ON a.arrival_id = r.arrival_id
    WHERE NOT r.is_canceled
    GROUP BY a.event_id
), capacity AS (
    SELECT event_id,
           CASE WHEN bool_or(capacity < 0) THEN -1 ELSE SUM(capacity) END AS capacity
    FROM arrivals
    GROUP BY event_id
), registered AS (
    SELECT DISTINCT a.event_id
    FROM reservations r
    JOIN arrivals a ON a.arrival_id = r.arrival_id
    WHERE r.user_id = $1 AND NOT r.is_canceled
)`

const summaryColumns = `
e.event_id, e.name, e.location, e.host,
COALESCE(f.filled, 0), COALESCE(c.capacity, 0),
e.start_time, e.end_time, e.description`

const summaryJoins = `
FROM events e
LEFT JOIN filled f ON f.event_id = e.event_id
LEFT JOIN capacity c ON c.event_id = e.event_id
LEFT JOIN registered g ON g.event_id = e.event_id`

// ListEvents returns upcoming events (ending after now) ordered by start time.
func (q *pgQueries) ListEvents(ctx context.Context, viewerID string, filter model.EventFilter, now time.Time) ([]model.EventSummary, error) {
	where := `WHERE e.end_time > $2`
	switch filter {
	case model.FilterOpen:
		where += ` AND COALESCE(f.filled, 0) <> c.capacity`
	case model.FilterUnregistered:
		where += ` AND g.event_id IS NULL`
	}
	sql := summaryCTE + `
SELECT ` + summaryColumns + `, g.event_id IS NOT NULL` + summaryJoins + `
` + where + `
ORDER BY e.start_time ASC, e.event_id ASC`

	return q.querySummaries(ctx, sql, false, viewerID, now)
}

func (q *pgQueries) GetEventSummary(ctx context.Context, viewerID, eventID string) (*model.EventSummary, error) {
	sql := summaryCTE + `
SELECT ` + summaryColumns + `, g.event_id IS NOT NULL` + summaryJoins + `
WHERE e.event_id = $2`

	out, err := q.querySummaries(ctx, sql, false, viewerID, eventID)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return &out[0], nil
}

// ListEventsByOwner returns the owner's events, newest first. The owner is
// also the viewer.
func (q *pgQueries) ListEventsByOwner(ctx context.Context, ownerID string) ([]model.EventSummary, error) {
	sql := summaryCTE + `
SELECT ` + summaryColumns + `, g.event_id IS NOT NULL` + summaryJoins + `
WHERE e.user_id = $1
ORDER BY e.created_at DESC, e.event_id ASC`

	return q.querySummaries(ctx, sql, false, ownerID)
}

// ListReservationHistory returns one row per reservation the user ever made,
// canceled ones included, newest first.
func (q *pgQueries) ListReservationHistory(ctx context.Context, userID string) ([]model.EventSummary, error) {
	sql := summaryCTE + `
SELECT r.reservation_id, ` + summaryColumns + `, NOT r.is_canceled` + summaryJoins + `
JOIN arrivals a ON a.event_id = e.event_id
JOIN reservations r ON r.arrival_id = a.arrival_id
WHERE r.user_id = $1
ORDER BY r.created_at DESC, r.reservation_id ASC`

	return q.querySummaries(ctx, sql, true, userID)
}

func (q *pgQueries) querySummaries(ctx context.Context, sql string, withReservation bool, args ...any) ([]model.EventSummary, error) {
	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list event summaries: %w", err)
	}
	defer rows.Close()

	var out []model.EventSummary
	for rows.Next() {
		var s model.EventSummary
		dst := []any{&s.EventID, &s.Name, &s.Location, &s.Host, &s.Filled, &s.Capacity,
			&s.StartTime, &s.EndTime, &s.Description, &s.IsRegistered}
		if withReservation {
			dst = append([]any{&s.ReservationID}, dst...)
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, fmt.Errorf("scan event summary: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (q *pgQueries) ListArrivals(ctx context.Context, eventID string) ([]model.ArrivalSummary, error) {
	rows, err := q.db.Query(ctx,
		`SELECT a.arrival_id, a.arrival_time, COUNT(r.reservation_id), a.capacity
		 FROM arrivals a
		 LEFT JOIN reservations r ON r.arrival_id = a.arrival_id AND NOT r.is_canceled
		 WHERE a.event_id = $1
		 GROUP BY a.arrival_id, a.arrival_time, a.capacity
		 ORDER BY a.arrival_time ASC`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("list arrivals: %w", err)
	}
	defer rows.Close()

	var out []model.ArrivalSummary
	for rows.Next() {
		var a model.ArrivalSummary
		if err := rows.Scan(&a.ArrivalID, &a.ArrivalTime, &a.Filled, &a.Capacity); err != nil {
			return nil, fmt.Errorf("scan arrival: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (q *pgQueries) ListAttendees(ctx context.Context, eventID string) ([]model.Attendee, error) {
	rows, err := q.db.Query(ctx,
		`SELECT u.username, u.picture, a.arrival_time
		 FROM reservations r
		 JOIN arrivals a ON a.arrival_id = r.arrival_id
		 JOIN users u ON u.user_id = r.user_id
		 WHERE a.event_id = $1 AND NOT r.is_canceled
		 ORDER BY u.username ASC`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("list attendees: %w", err)
	}
	defer rows.Close()

	var out []model.Attendee
	for rows.Next() {
		var a model.Attendee
		if err := rows.Scan(&a.Username, &a.Picture, &a.ArrivalTime); err != nil {
			return nil, fmt.Errorf("scan attendee: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Search matches term as a case-insensitive substring of "name @ location"
// among upcoming events.
func (q *pgQueries) Search(ctx context.Context, term string, now time.Time, limit int) ([]model.SearchHit, error) {
	rows, err := q.db.Query(ctx,
		`SELECT event_id, name, location
		 FROM events
		 WHERE (name || ' @ ' || location) ILIKE '%' || $1 || '%' ESCAPE '\'
		   AND end_time > $2
		 ORDER BY start_time ASC, event_id ASC
		 LIMIT $3`,
		escapeLike(term), now, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("search events: %w", err)
	}
	defer rows.Close()

	var out []model.SearchHit
	for rows.Next() {
		var h model.SearchHit
		if err := rows.Scan(&h.EventID, &h.Name, &h.Location); err != nil {
			return nil, fmt.Errorf("scan search hit: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes LIKE wildcards in user input match literally.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
