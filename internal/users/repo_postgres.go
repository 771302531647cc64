package users

import (
	"context"
	"errors"
	"fmt"

	"edgetrust/pkg/utils"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// DB is satisfied by *pgxpool.Pool and by pgxmock pools.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresRepo stores users in a single table with a unique email constraint.
type PostgresRepo struct {
	db DB
}

func NewPostgresRepo(db DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS users (
  id            TEXT PRIMARY KEY,
  name          TEXT NOT NULL,
  email         TEXT NOT NULL UNIQUE,
  age           INTEGER NOT NULL,
  password_hash TEXT NOT NULL,
  role          TEXT NOT NULL,
  teams         TEXT[] NOT NULL DEFAULT '{}',
  created_at    TIMESTAMPTZ NOT NULL,
  updated_at    TIMESTAMPTZ NOT NULL
)
`

// EnsureSchema creates the users table when it does not exist.
func (r *PostgresRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure users schema: %w", err)
	}
	return nil
}

const selectUser = `
SELECT id, name, email, age, password_hash, role, teams, created_at, updated_at
FROM users
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (User, error) {
	var u User
	if err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.Age,
		&u.PasswordHash,
		&u.Role,
		&u.Teams,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

func (r *PostgresRepo) FindByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(r.db.QueryRow(ctx, selectUser+"WHERE email = $1", email))
}

func (r *PostgresRepo) FindByID(ctx context.Context, id string) (User, error) {
	return scanUser(r.db.QueryRow(ctx, selectUser+"WHERE id = $1", id))
}

func (r *PostgresRepo) List(ctx context.Context) ([]User, error) {
	rows, err := r.db.Query(ctx, selectUser+"ORDER BY created_at, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) IsEmpty(ctx context.Context) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users)`).Scan(&exists)
	return !exists, err
}

func (r *PostgresRepo) Insert(ctx context.Context, u User) error {
	const q = `
INSERT INTO users (
  id, name, email, age, password_hash, role, teams, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9
)
`
	_, err := r.db.Exec(ctx, q,
		u.ID,
		u.Name,
		u.Email,
		u.Age,
		u.PasswordHash,
		u.Role,
		u.Teams,
		u.CreatedAt,
		u.UpdatedAt,
	)
	return mapWriteError(err)
}

// Update locks the row for the duration of mutate so concurrent admin edits
// serialize instead of overwriting each other.
func (r *PostgresRepo) Update(ctx context.Context, id string, mutate func(*User) error) (User, error) {
	const q = `
UPDATE users
SET name = $2, email = $3, age = $4, password_hash = $5, role = $6, teams = $7, updated_at = $8
WHERE id = $1
`
	var out User
	err := utils.WithTx(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		u, err := scanUser(tx.QueryRow(ctx, selectUser+"WHERE id = $1 FOR UPDATE", id))
		if err != nil {
			return err
		}
		if err := mutate(&u); err != nil {
			return err
		}
		u.ID = id
		if _, err := tx.Exec(ctx, q,
			u.ID,
			u.Name,
			u.Email,
			u.Age,
			u.PasswordHash,
			u.Role,
			u.Teams,
			u.UpdatedAt,
		); err != nil {
			return mapWriteError(err)
		}
		out = u
		return nil
	})
	if err != nil {
		return User{}, err
	}
	return out, nil
}

func (r *PostgresRepo) Delete(ctx context.Context, id string) (User, error) {
	return scanUser(r.db.QueryRow(ctx, `
DELETE FROM users
WHERE id = $1
RETURNING id, name, email, age, password_hash, role, teams, created_at, updated_at
`, id))
}

func mapWriteError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", ErrDuplicateEmail, pgErr.ConstraintName)
	}
	return err
}
