// Package skills implements the intent handlers and the dispatch contract
// between the classifier and the dialogue orchestrator.
//
// Every handler takes the classifier's extracted argument and returns
// user-facing text; any upstream failure surfaces as an error that the
// orchestrator converts into a diagnostic reply.
package skills

import (
	"context"

	"github.com/hsinyulin/finchat/internal/models"
)

// Handler answers one intent category.
type Handler interface {
	Handle(ctx context.Context, arg string) (string, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, arg string) (string, error)

// Handle calls the wrapped function.
func (f HandlerFunc) Handle(ctx context.Context, arg string) (string, error) {
	return f(ctx, arg)
}

// Registry maps skill ids to their handlers.
type Registry struct {
	handlers map[models.SkillID]Handler
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[models.SkillID]Handler)}
}

// Register binds a handler to a skill id, replacing any previous binding.
func (r *Registry) Register(id models.SkillID, h Handler) {
	r.handlers[id] = h
}

// Lookup returns the handler for a skill id.
func (r *Registry) Lookup(id models.SkillID) (Handler, bool) {
	h, ok := r.handlers[id]
	return h, ok
}
