package model

import "time"

// Session binds an opaque token to a user
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Valid reports whether the session is still within ttl at now.
func (s Session) Valid(now time.Time, ttl time.Duration) bool {
	return now.Sub(s.CreatedAt) < ttl
}

func (s Session) Record() Record {
	return Record{
		"token":      s.Token,
		"user_id":    s.UserID,
		"created_at": Timestamp(s.CreatedAt),
	}
}

// SessionFromRecord decodes a stored session. ok is false when the record is
// malformed; such sessions are treated as invalid.
func SessionFromRecord(r Record) (Session, bool) {
	created, err := ParseTimestamp(r.String("created_at"))
	if err != nil {
		return Session{}, false
	}
	return Session{
		Token:     r.String("token"),
		UserID:    r.String("user_id"),
		CreatedAt: created,
	}, true
}
