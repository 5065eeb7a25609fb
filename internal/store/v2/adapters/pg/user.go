package pg

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/socialauth/internal/domain/repository"
)

type userRepo struct{ pool *pgxpool.Pool }

const userColumns = `id, username, email, first_name, last_name, password_hash, is_active, created_at, last_login_at`

func scanUser(row pgx.Row) (*repository.User, error) {
	var u repository.User
	if err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName,
		&u.PasswordHash, &u.IsActive, &u.CreatedAt, &u.LastLoginAt,
	); err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (r *userRepo) GetByID(ctx context.Context, userID string) (*repository.User, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, repository.ErrNotFound
	}
	return scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM app_user WHERE id = $1`, userID))
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) ([]repository.User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+userColumns+` FROM app_user u
		WHERE LOWER(u.email) = LOWER($1)
		   OR EXISTS (SELECT 1 FROM email_address e WHERE e.user_id = u.id AND LOWER(e.email) = LOWER($1))
		ORDER BY u.created_at`, strings.TrimSpace(email))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []repository.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *userRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM app_user WHERE LOWER(username) = LOWER($1))`,
		username,
	).Scan(&exists)
	return exists, err
}

func (r *userRepo) Create(ctx context.Context, input repository.CreateUserInput) (*repository.User, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	u := &repository.User{
		ID:           uuid.NewString(),
		Username:     input.Username,
		Email:        input.Email,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		PasswordHash: input.PasswordHash,
		IsActive:     true,
		CreatedAt:    now,
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO app_user (id, username, email, first_name, last_name, password_hash, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE, $7)`,
		u.ID, u.Username, u.Email, u.FirstName, u.LastName, u.PasswordHash, now,
	); err != nil {
		return nil, mapErr(err)
	}

	for _, e := range input.EmailAddresses {
		if err := insertEmail(ctx, tx, u.ID, e, now); err != nil {
			return nil, err
		}
	}

	if input.SocialAccount != nil {
		if _, err := insertSocialAccount(ctx, tx, u.ID, *input.SocialAccount, now); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return u, nil
}

func insertEmail(ctx context.Context, q querier, userID string, e repository.EmailAddressInput, now time.Time) error {
	_, err := q.Exec(ctx, `
		INSERT INTO email_address (id, user_id, email, verified, is_primary, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, email) DO UPDATE
		SET verified = email_address.verified OR EXCLUDED.verified`,
		uuid.NewString(), userID, strings.ToLower(e.Email), e.Verified, e.Primary, now,
	)
	return mapErr(err)
}

func (r *userRepo) SetPasswordHash(ctx context.Context, userID, hash string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE app_user SET password_hash = $2 WHERE id = $1`, userID, hash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *userRepo) TouchLastLogin(ctx context.Context, userID string, at time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE app_user SET last_login_at = $2 WHERE id = $1`, userID, at)
	return err
}

func (r *userRepo) ListEmails(ctx context.Context, userID string) ([]repository.EmailAddress, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, email, verified, is_primary, created_at
		FROM email_address WHERE user_id = $1
		ORDER BY is_primary DESC, created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []repository.EmailAddress
	for rows.Next() {
		var e repository.EmailAddress
		if err := rows.Scan(&e.ID, &e.UserID, &e.Email, &e.Verified, &e.Primary, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *userRepo) MarkEmailVerified(ctx context.Context, userID, email string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE email_address SET verified = TRUE WHERE user_id = $1 AND LOWER(email) = LOWER($2)`,
		userID, email,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
