// Package session keeps one booking conversation per platform user.
//
// Stores hand out deep copies: callers mutate their copy and Put it back, so a
// rejected input never leaks into the stored session.
package session

import (
	"context"
	"errors"

	"github.com/qemplois/assistant/booking"
)

// ErrNilSession is returned by Put when given a nil session.
var ErrNilSession = errors.New("session: nil session")

// Store persists sessions keyed by platform and user.
type Store interface {
	// Get returns the session for key and whether it existed.
	Get(ctx context.Context, key booking.Key) (*booking.Session, bool, error)
	// Put creates or replaces the session under its own key.
	Put(ctx context.Context, s *booking.Session) error
	// Delete removes the session for key. Missing keys are not an error.
	Delete(ctx context.Context, key booking.Key) error
}

// Load returns the stored session for key or a fresh idle one. created
// reports that the session did not exist yet and still has to be Put.
func Load(ctx context.Context, st Store, key booking.Key) (s *booking.Session, created bool, err error) {
	s, ok, err := st.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return booking.NewSession(key), true, nil
	}
	return s, false, nil
}
