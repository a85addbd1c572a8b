package session

import (
	"fmt"
	"time"
)

// record is the wire form of a Session. All timestamps persist as
// ISO-8601 strings and are rehydrated to time.Time on every read.
type record struct {
	ID        string            `json:"id"`
	UserID    string            `json:"user_id"`
	CSRFToken string            `json:"csrf_token"`
	Data      map[string]string `json:"data,omitempty"`
	CreatedAt string            `json:"created_at"`
	UpdatedAt string            `json:"updated_at"`
	ExpiresAt string            `json:"expires_at"`
}

func dehydrate(s *Session) record {
	return record{
		ID:        s.ID,
		UserID:    s.UserID,
		CSRFToken: s.CSRFToken,
		Data:      s.Data,
		CreatedAt: s.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt: s.UpdatedAt.Format(time.RFC3339Nano),
		ExpiresAt: s.ExpiresAt.Format(time.RFC3339Nano),
	}
}

func hydrate(r record) (*Session, error) {
	createdAt, err := parseInstant("created_at", r.CreatedAt)
	if err != nil {
		return nil, err
	}
	updatedAt, err := parseInstant("updated_at", r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	expiresAt, err := parseInstant("expires_at", r.ExpiresAt)
	if err != nil {
		return nil, err
	}

	return &Session{
		ID:        r.ID,
		UserID:    r.UserID,
		CSRFToken: r.CSRFToken,
		Data:      r.Data,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
		ExpiresAt: expiresAt,
	}, nil
}

func parseInstant(field, raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("session: bad %s timestamp: %w", field, err)
	}
	return t, nil
}
