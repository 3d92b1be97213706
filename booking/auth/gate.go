// Package auth links chat identities to Q-Emplois accounts.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/qemplois/assistant/booking"
)

const component = "auth"

const (
	// TokenTTL bounds how long a link sent on /start stays usable.
	TokenTTL = 15 * time.Minute
	// LinkTTL is how long a linked account is remembered.
	LinkTTL = 30 * 24 * time.Hour
)

// DefaultLinkBase is the account page users are sent to.
const DefaultLinkBase = "https://qemplois.ca/auth"

var (
	// ErrInvalidToken is returned for unknown or expired link tokens.
	ErrInvalidToken = errors.New("auth: invalid or expired token")
	// ErrTokenMismatch is returned when a token was issued to another identity.
	ErrTokenMismatch = errors.New("auth: token does not match platform user")
	// ErrMissingField is returned for incomplete link requests.
	ErrMissingField = errors.New("auth: missing field")
)

// Account is the Q-Emplois account a chat identity is linked to.
type Account struct {
	UserID   string    `json:"user_id"`
	Token    string    `json:"token,omitempty"`
	Username string    `json:"username,omitempty"`
	LinkedAt time.Time `json:"linked_at"`
}

// LinkRequest completes a link started by LinkURL. Field names follow the
// website's callback payload.
type LinkRequest struct {
	Token            string `json:"token"`
	UserID           string `json:"userId"`
	Platform         string `json:"platform"`
	PlatformUserID   string `json:"platformUserId"`
	PlatformUsername string `json:"platformUsername,omitempty"`
}

// Key is the chat identity being linked.
func (r LinkRequest) Key() booking.Key {
	return booking.Key{Platform: booking.Platform(r.Platform), UserID: r.PlatformUserID}
}

func (r LinkRequest) validate() error {
	switch {
	case r.Token == "":
		return errors.Join(ErrMissingField, errors.New("token"))
	case r.UserID == "":
		return errors.Join(ErrMissingField, errors.New("userId"))
	case r.Platform == "":
		return errors.Join(ErrMissingField, errors.New("platform"))
	case r.PlatformUserID == "":
		return errors.Join(ErrMissingField, errors.New("platformUserId"))
	}
	return nil
}

// Gate decides whether a chat identity may book.
type Gate interface {
	Linked(ctx context.Context, key booking.Key) (Account, bool, error)
	LinkURL(ctx context.Context, key booking.Key) (string, error)
	Link(ctx context.Context, req LinkRequest) error
	Unlink(ctx context.Context, key booking.Key) (bool, error)
}

// Open lets everyone through. Used in demo mode and development.
type Open struct {
	LinkBase string
}

// Linked implements Gate.
func (Open) Linked(context.Context, booking.Key) (Account, bool, error) {
	return Account{}, true, nil
}

// LinkURL implements Gate.
func (o Open) LinkURL(context.Context, booking.Key) (string, error) {
	if o.LinkBase == "" {
		return DefaultLinkBase, nil
	}
	return o.LinkBase, nil
}

// Link implements Gate.
func (Open) Link(_ context.Context, req LinkRequest) error {
	return req.validate()
}

// Unlink implements Gate.
func (Open) Unlink(context.Context, booking.Key) (bool, error) {
	return false, nil
}
