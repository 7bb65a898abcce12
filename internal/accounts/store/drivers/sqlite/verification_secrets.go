package sqlite

import (
	"context"
	"time"

	"github.com/karwaan/bazaar/internal/accounts/store"
)

type verificationSecretsRepo struct {
	q querier
}

func (r *verificationSecretsRepo) Get(ctx context.Context, accountID, channel string) ([]byte, error) {
	var secret []byte
	err := r.q.QueryRowContext(ctx,
		`SELECT secret FROM verification_secrets WHERE account_id = ? AND channel = ?`,
		accountID, channel).Scan(&secret)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return secret, nil
}

func (r *verificationSecretsRepo) Put(ctx context.Context, accountID, channel string, secret []byte) error {
	now := fmtTime(time.Now())
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO verification_secrets (account_id, channel, secret, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (account_id, channel)
		DO UPDATE SET secret = excluded.secret, updated_at = excluded.updated_at`,
		accountID, channel, secret, now, now)
	return err
}

func (r *verificationSecretsRepo) Delete(ctx context.Context, accountID, channel string) error {
	res, err := r.q.ExecContext(ctx,
		`DELETE FROM verification_secrets WHERE account_id = ? AND channel = ?`,
		accountID, channel)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
