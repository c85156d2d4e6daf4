// Package entities contains core business entities.
package entities

import "time"

// TokenPair bundles the signed tokens returned on login and refresh.
type TokenPair struct {
	Access  string
	Refresh string
}

// RefreshTokenRecord is the server-side state of an issued refresh token,
// keyed by the token's JTI claim. Rotation and logout set RevokedAt.
type RefreshTokenRecord struct {
	JTI       string
	UserID    string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}

// Revoked reports whether the token was rotated or explicitly revoked.
func (r RefreshTokenRecord) Revoked() bool {
	return r.RevokedAt != nil
}
