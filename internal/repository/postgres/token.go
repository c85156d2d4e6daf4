package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"taskhub/internal/entities"
)

const (
	insertTokenQuery = `INSERT INTO refresh_tokens(jti, user_id, expires_at)
VALUES ($1,$2,$3)`
	selectTokenQuery = `SELECT jti, user_id, expires_at, revoked_at, created_at
FROM refresh_tokens WHERE jti=$1`
	revokeTokenQuery = `UPDATE refresh_tokens SET revoked_at=NOW()
WHERE jti=$1 AND revoked_at IS NULL`
	revokeUserTokensQuery = `UPDATE refresh_tokens SET revoked_at=NOW()
WHERE user_id=$1 AND revoked_at IS NULL AND expires_at > NOW()`
	purgeTokensQuery = `DELETE FROM refresh_tokens WHERE expires_at < $1`
)

// SaveRefreshToken persists a freshly issued refresh token record.
func (p *Postgres) SaveRefreshToken(ctx context.Context, rec entities.RefreshTokenRecord) error {
	if _, err := p.db.Exec(ctx, insertTokenQuery, rec.JTI, rec.UserID, rec.ExpiresAt); err != nil {
		p.log.Errorw("failed to insert refresh token", "error", err, "user_id", rec.UserID)
		return fmt.Errorf("insert refresh token: %w", err)
	}
	return nil
}

// RefreshTokenByJTI returns the stored record for a token id.
func (p *Postgres) RefreshTokenByJTI(ctx context.Context, jti string) (*entities.RefreshTokenRecord, error) {
	var rec entities.RefreshTokenRecord
	err := p.db.QueryRow(ctx, selectTokenQuery, jti).
		Scan(&rec.JTI, &rec.UserID, &rec.ExpiresAt, &rec.RevokedAt, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entities.ErrTokenInvalid
		}
		p.log.Errorw("failed to query refresh token", "error", err)
		return nil, fmt.Errorf("refresh token by jti: %w", err)
	}

	return &rec, nil
}

// RevokeRefreshToken marks one token revoked. Already-revoked tokens keep
// their original revocation time.
func (p *Postgres) RevokeRefreshToken(ctx context.Context, jti string) error {
	if _, err := p.db.Exec(ctx, revokeTokenQuery, jti); err != nil {
		p.log.Errorw("failed to revoke refresh token", "error", err)
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// RevokeUserRefreshTokens revokes every live token of the user.
func (p *Postgres) RevokeUserRefreshTokens(ctx context.Context, userID string) (int, error) {
	tag, err := p.db.Exec(ctx, revokeUserTokensQuery, userID)
	if err != nil {
		p.log.Errorw("failed to revoke user tokens", "error", err, "user_id", userID)
		return 0, fmt.Errorf("revoke user tokens: %w", err)
	}

	n := int(tag.RowsAffected())
	if n > 0 {
		p.log.Infow("user refresh tokens revoked", "user_id", userID, "count", n)
	}
	return n, nil
}

// PurgeExpiredTokens deletes records expired before now.
func (p *Postgres) PurgeExpiredTokens(ctx context.Context, now time.Time) (int, error) {
	tag, err := p.db.Exec(ctx, purgeTokensQuery, now)
	if err != nil {
		p.log.Errorw("failed to purge expired tokens", "error", err)
		return 0, fmt.Errorf("purge expired tokens: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
