package models

import "time"

// RefreshToken is a persisted refresh-token record. The Token value is an
// opaque random secret, unique across all records. RevokedAt is set at most
// once and never cleared; rows are not deleted by the auth core.
type RefreshToken struct {
	ID        string
	UserID    int64
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	RevokedAt *time.Time
}

// Expired reports whether the record's expiry has passed at the given time.
func (t *RefreshToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// Revoked reports whether the record has been revoked.
func (t *RefreshToken) Revoked() bool {
	return t.RevokedAt != nil
}

// Active reports whether the record can still be rotated: not revoked and
// not expired. Expiry is evaluated here, not in SQL, so callers can tell
// "expired but not yet revoked" apart from revoked rows when auditing.
func (t *RefreshToken) Active(now time.Time) bool {
	return !t.Revoked() && !t.Expired(now)
}
