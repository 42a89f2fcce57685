package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"wastemarket/mobile/internal/models"
)

const uniqueViolation = "23505"

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Create(ctx context.Context, account models.Account) error {
	const query = `
		INSERT INTO users (
			id, username, email, password_hash, avatar, created_at, updated_at
		) VALUES (
			$1, $2, LOWER($3), $4, $5, $6, $6
		)
	`

	_, err := r.pool.Exec(ctx, query,
		account.ID,
		account.Username,
		account.Email,
		account.PasswordHash,
		account.Avatar,
		account.CreatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrEmailTaken
	}
	return err
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (models.Account, error) {
	const query = `
		SELECT id, username, email, password_hash, avatar, created_at, updated_at
		FROM users WHERE email = LOWER($1)
	`
	return scanAccount(r.pool.QueryRow(ctx, query, email))
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (models.Account, error) {
	const query = `
		SELECT id, username, email, password_hash, avatar, created_at, updated_at
		FROM users WHERE id = $1
	`
	return scanAccount(r.pool.QueryRow(ctx, query, id))
}

func (r *UserRepository) Update(ctx context.Context, account models.Account) error {
	const query = `
		UPDATE users
		SET username = $2, avatar = $3, password_hash = $4, updated_at = $5
		WHERE id = $1
	`
	cmd, err := r.pool.Exec(ctx, query,
		account.ID,
		account.Username,
		account.Avatar,
		account.PasswordHash,
		account.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func scanAccount(row pgx.Row) (models.Account, error) {
	var account models.Account
	if err := row.Scan(
		&account.ID,
		&account.Username,
		&account.Email,
		&account.PasswordHash,
		&account.Avatar,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Account{}, ErrUserNotFound
		}
		return models.Account{}, err
	}
	return account, nil
}
