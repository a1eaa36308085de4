// Package session holds the per-session interaction log. A session lives for
// the lifetime of one interactive run; nothing here is persisted.
package session

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of an interaction record.
type Role int

const (
	RoleUser Role = iota
	RoleSystem
)

func (r Role) String() string {
	if r == RoleUser {
		return "user"
	}
	return "system"
}

// Record is one logged exchange entry. Records are immutable once appended.
type Record struct {
	Role    Role
	Content string
	Time    time.Time
}

// Session owns the append-only interaction log for one user. Appends happen
// only from the single update loop that owns the session, so the log needs no
// locking; isolation across sessions comes from each Session being reachable
// from exactly one loop.
type Session struct {
	ID  string
	log []Record
}

// New creates an empty session.
func New() *Session {
	return &Session{ID: uuid.NewString()}
}

// Append adds a record to the log. Prior records are never modified.
func (s *Session) Append(role Role, content string) {
	s.log = append(s.log, Record{Role: role, Content: content, Time: time.Now()})
}

// Records returns the log in append order. The returned slice is a copy; the
// caller cannot mutate session state through it.
func (s *Session) Records() []Record {
	out := make([]Record, len(s.log))
	copy(out, s.log)
	return out
}

// Len returns the number of logged records.
func (s *Session) Len() int { return len(s.log) }
