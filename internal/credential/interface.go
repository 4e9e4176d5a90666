package credential

import (
	"context"
	"errors"
)

// ErrNoCredential is returned when neither the configured store nor the
// user supplied a key.
var ErrNoCredential = errors.New("no credential found: add GEMINI_API_KEY to the secrets file or supply an API key")

// Resolver produces the API credential for a request.
type Resolver interface {
	// Resolve returns the configured key if present, otherwise userInput.
	Resolve(userInput string) (string, error)
}

// Store is a Resolver backed by a reloadable secrets file.
type Store interface {
	Resolver
	Reload(ctx context.Context) error
	// Watch reloads the secrets file whenever it changes until ctx is done.
	Watch(ctx context.Context) error
}
