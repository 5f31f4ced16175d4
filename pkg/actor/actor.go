// Package actor identifies the user or system performing an action.
//
// Movements in the ledger record who triggered them; handlers attach
// the acting user to the request context and the service layer reads
// it back here.
package actor

import (
	"context"
)

// Actor represents the entity performing an action in the system.
type Actor struct {
	// ID is the unique identifier of the actor (user id)
	ID string `json:"id"`

	// Name is the actor's display name
	Name string `json:"name,omitempty"`
}

// contextKey is the type for context keys to avoid collisions
type contextKey string

const actorContextKey contextKey = "actor"

// FromContext retrieves the Actor from the context.
// Returns the system actor if none is present (e.g., background jobs).
func FromContext(ctx context.Context) *Actor {
	if ctx == nil {
		return SystemActor()
	}
	a, ok := ctx.Value(actorContextKey).(*Actor)
	if !ok || a == nil {
		return SystemActor()
	}
	return a
}

// WithActor returns a new context with the Actor attached.
func WithActor(ctx context.Context, a *Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, actorContextKey, a)
}

// SystemActor returns an Actor representing the system itself.
// Use this for background jobs, scheduled tasks, and system-initiated operations.
func SystemActor() *Actor {
	return &Actor{
		ID:   "system",
		Name: "System",
	}
}

// IsSystem returns true if the actor represents the system.
func (a *Actor) IsSystem() bool {
	if a == nil {
		return true
	}
	return a.ID == "system"
}
