package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/eventure/internal/model"
)

// uniqueViolation is the PostgreSQL SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres is the PostgreSQL-backed Store.
type Postgres struct {
	*pgQueries
	pool *pgxpool.Pool
}

var _ Store = (*Postgres)(nil)

// NewPostgres constructs a Postgres store on top of a connection pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pgQueries: &pgQueries{db: pool}, pool: pool}
}

// InTx runs fn in a READ COMMITTED transaction. Row locks taken through
// LockUser, LockArrival and LockEvent are held until fn returns, which is
// what serialises check-then-write sequences on the same seat.
func (p *Postgres) InTx(ctx context.Context, fn func(q Queries) error) (err error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = fn(&pgQueries{db: tx}); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// pgQueries implements Queries against any DBTX.
type pgQueries struct {
	db DBTX
}

func (q *pgQueries) CreateUser(ctx context.Context, u model.User) error {
	_, err := q.db.Exec(ctx,
		`INSERT INTO users (user_id, username, picture, email, password, session_token)
		 VALUES ($1, $2, $3, $4, $5, NULL)`,
		u.ID, u.Username, u.Picture, u.Email, u.PasswordHash,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (q *pgQueries) GetUserByID(ctx context.Context, userID string) (*model.User, error) {
	return q.getUser(ctx, `WHERE user_id = $1`, userID)
}

func (q *pgQueries) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return q.getUser(ctx, `WHERE email = $1`, email)
}

func (q *pgQueries) getUser(ctx context.Context, where string, arg string) (*model.User, error) {
	var u model.User
	err := q.db.QueryRow(ctx,
		`SELECT user_id, username, picture, email, password, session_token
		 FROM users `+where,
		arg,
	).Scan(&u.ID, &u.Username, &u.Picture, &u.Email, &u.PasswordHash, &u.SessionToken)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func (q *pgQueries) SetSessionToken(ctx context.Context, userID string, token *string) error {
	tag, err := q.db.Exec(ctx,
		`UPDATE users SET session_token = $1 WHERE user_id = $2`,
		token, userID,
	)
	if err != nil {
		return fmt.Errorf("update session token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (q *pgQueries) LockUser(ctx context.Context, userID string) error {
	return q.lock(ctx, `SELECT user_id FROM users WHERE user_id = $1 FOR UPDATE`, userID, "user")
}

func (q *pgQueries) LockArrival(ctx context.Context, arrivalID string) error {
	return q.lock(ctx, `SELECT arrival_id FROM arrivals WHERE arrival_id = $1 FOR UPDATE`, arrivalID, "arrival")
}

// LockEvent locks the event row and every arrival row under it, so no
// reservation can slip in against an arrival that is being deleted.
func (q *pgQueries) LockEvent(ctx context.Context, eventID string) error {
	if err := q.lock(ctx, `SELECT event_id FROM events WHERE event_id = $1 FOR UPDATE`, eventID, "event"); err != nil {
		return err
	}
	rows, err := q.db.Query(ctx,
		`SELECT arrival_id FROM arrivals WHERE event_id = $1 ORDER BY arrival_id FOR UPDATE`,
		eventID,
	)
	if err != nil {
		return fmt.Errorf("lock arrivals: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("lock arrivals: %w", err)
	}
	return nil
}

func (q *pgQueries) lock(ctx context.Context, sql, id, what string) error {
	var got string
	if err := q.db.QueryRow(ctx, sql, id).Scan(&got); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("lock %s row: %w", what, err)
	}
	return nil
}
