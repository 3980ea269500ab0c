package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/phrazzld/taskpulse/internal/store"
)

// ErrNoRecipient is returned when no address can be found for a user.
var ErrNoRecipient = errors.New("no recipient address")

// RecipientResolver finds the address that reminders for a user go to.
type RecipientResolver interface {
	Resolve(ctx context.Context, userID string) (string, error)
}

// StoreResolver resolves recipients from the user store. When the user has
// no record and a fallback domain is configured, it addresses
// {user_id}@{fallback domain} instead.
type StoreResolver struct {
	users          store.UserStore
	fallbackDomain string
}

// NewStoreResolver creates a StoreResolver. An empty fallbackDomain disables
// the fallback.
func NewStoreResolver(users store.UserStore, fallbackDomain string) *StoreResolver {
	return &StoreResolver{
		users:          users,
		fallbackDomain: strings.TrimPrefix(strings.TrimSpace(fallbackDomain), "@"),
	}
}

// Resolve implements RecipientResolver. It returns an error wrapping
// ErrNoRecipient when the user is unknown and there is no fallback.
func (r *StoreResolver) Resolve(ctx context.Context, userID string) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", fmt.Errorf("%w: empty user id", ErrNoRecipient)
	}

	email, err := r.users.GetEmail(ctx, userID)
	switch {
	case err == nil && email != "":
		return email, nil
	case err == nil, errors.Is(err, store.ErrUserNotFound):
		if r.fallbackDomain == "" {
			return "", fmt.Errorf("%w: user %s", ErrNoRecipient, userID)
		}
		return userID + "@" + r.fallbackDomain, nil
	default:
		return "", fmt.Errorf("failed to look up recipient: %w", err)
	}
}
