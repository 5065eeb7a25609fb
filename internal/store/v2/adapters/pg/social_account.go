package pg

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/socialauth/internal/domain/repository"
)

type socialAccountRepo struct{ pool *pgxpool.Pool }

const socialAccountColumns = `id, user_id, provider, uid, extra_data, token, token_secret, token_expires_at, created_at, last_login`

func scanSocialAccount(row pgx.Row) (*repository.SocialAccount, error) {
	var (
		a         repository.SocialAccount
		extra     []byte
		token     *string
		secret    *string
		expiresAt *time.Time
	)
	if err := row.Scan(
		&a.ID, &a.UserID, &a.Provider, &a.UID, &extra,
		&token, &secret, &expiresAt, &a.CreatedAt, &a.LastLogin,
	); err != nil {
		return nil, mapErr(err)
	}
	if len(extra) > 0 {
		if err := json.Unmarshal(extra, &a.ExtraData); err != nil {
			return nil, err
		}
	}
	if token != nil {
		a.Token = &repository.SocialToken{Token: *token, ExpiresAt: expiresAt}
		if secret != nil {
			a.Token.TokenSecret = *secret
		}
	}
	return &a, nil
}

func (r *socialAccountRepo) GetByProviderUID(ctx context.Context, provider, uid string) (*repository.SocialAccount, error) {
	return scanSocialAccount(r.pool.QueryRow(ctx,
		`SELECT `+socialAccountColumns+` FROM social_account WHERE provider = $1 AND uid = $2`,
		provider, uid,
	))
}

func (r *socialAccountRepo) ListByUser(ctx context.Context, userID string) ([]repository.SocialAccount, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+socialAccountColumns+` FROM social_account WHERE user_id = $1 ORDER BY created_at`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []repository.SocialAccount
	for rows.Next() {
		a, err := scanSocialAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (r *socialAccountRepo) Create(ctx context.Context, userID string, input repository.SocialAccountInput) (*repository.SocialAccount, error) {
	return insertSocialAccount(ctx, r.pool, userID, input, time.Now().UTC())
}

func insertSocialAccount(ctx context.Context, q querier, userID string, input repository.SocialAccountInput, now time.Time) (*repository.SocialAccount, error) {
	extra, err := marshalExtra(input.ExtraData)
	if err != nil {
		return nil, err
	}
	token, secret, expiresAt := tokenColumns(input.Token)

	a := &repository.SocialAccount{
		ID:        uuid.NewString(),
		UserID:    userID,
		Provider:  input.Provider,
		UID:       input.UID,
		ExtraData: input.ExtraData,
		Token:     input.Token,
		CreatedAt: now,
		LastLogin: now,
	}
	_, err = q.Exec(ctx, `
		INSERT INTO social_account (id, user_id, provider, uid, extra_data, token, token_secret, token_expires_at, created_at, last_login)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)`,
		a.ID, userID, input.Provider, input.UID, extra, token, secret, expiresAt, now,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	return a, nil
}

func (r *socialAccountRepo) UpdateLogin(ctx context.Context, accountID string, extra map[string]any, tok *repository.SocialToken, at time.Time) error {
	raw, err := marshalExtra(extra)
	if err != nil {
		return err
	}
	token, secret, expiresAt := tokenColumns(tok)

	// token NULL conserva el anterior: un refresh sin token no borra el guardado
	tag, err := r.pool.Exec(ctx, `
		UPDATE social_account
		SET extra_data = $2,
		    token = COALESCE($3, token),
		    token_secret = CASE WHEN $3::text IS NULL THEN token_secret ELSE $4 END,
		    token_expires_at = CASE WHEN $3::text IS NULL THEN token_expires_at ELSE $5 END,
		    last_login = $6
		WHERE id = $1`,
		accountID, raw, token, secret, expiresAt, at,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *socialAccountRepo) Delete(ctx context.Context, accountID string) error {
	if _, err := uuid.Parse(accountID); err != nil {
		return repository.ErrNotFound
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM social_account WHERE id = $1`, accountID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func marshalExtra(extra map[string]any) ([]byte, error) {
	if extra == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(extra)
}

func tokenColumns(t *repository.SocialToken) (token, secret *string, expiresAt *time.Time) {
	if t == nil || t.Token == "" {
		return nil, nil, nil
	}
	return &t.Token, nullIfEmpty(t.TokenSecret), t.ExpiresAt
}
