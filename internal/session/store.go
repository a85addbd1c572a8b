package session

import (
	"context"
	"time"
)

// Session is an authenticated user session. The CSRF secret lives on the
// record so mutating requests can be verified against it directly.
type Session struct {
	ID        string            // opaque, unguessable identifier
	UserID    string            // owner
	CSRFToken string            // random secret, compared verbatim
	Data      map[string]string // extensible; carries userAgent, lastActivityAt
	CreatedAt time.Time
	UpdatedAt time.Time
	ExpiresAt time.Time // absolute expiry; only ever extended
}

// Data keys with defined meaning. lastActivityAt holds an ISO-8601 string
// and is optional on older records.
const (
	DataKeyUserAgent      = "userAgent"
	DataKeyLastActivityAt = "lastActivityAt"
)

// LastActivity hydrates the optional activity timestamp. An absent entry
// yields the zero time with ok=false; only a present but unparsable value
// is an error.
func (s *Session) LastActivity() (time.Time, bool, error) {
	raw, present := s.Data[DataKeyLastActivityAt]
	if !present || raw == "" {
		return time.Time{}, false, nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}

// Expired reports whether the session is past its expiry. Callers check
// this even though the store applies its own TTL eviction; the two clocks
// may disagree.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Store defines how sessions are stored and retrieved.
// Implementations (e.g., Redis) must remain stateless and opaque.
type Store interface {
	// Create issues a new session for userID with a fresh id and CSRF
	// secret at the store's default TTL.
	Create(ctx context.Context, userID, userAgent string) (*Session, error)

	// Get returns (nil, nil) when the id is unknown or the stored payload
	// is malformed; a non-nil error means the store itself failed.
	Get(ctx context.Context, id string) (*Session, error)

	// Refresh extends the session's expiry. It never shortens the TTL and
	// never mutates CSRFToken, UserID, or Data contents.
	Refresh(ctx context.Context, id string) error

	// Delete removes the session; deleting a missing session is not an
	// error.
	Delete(ctx context.Context, id string) error
}
