package policy

import (
	"context"

	"github.com/diewo77/freelance/auth"
	"github.com/diewo77/freelance/gate"
	"github.com/diewo77/freelance/internal/handlers"
)

// Resource type names registered on the gate.
const (
	ResourceInvoice = handlers.ResourceInvoice
	ResourceClient  = handlers.ResourceClient
)

// AuthGate resolves the acting user from the request context before asking the gate.
type AuthGate struct {
	Gate *gate.Gate[uint]
}

// NewAuthGate returns a gate with the ownership policy registered for every resource.
func NewAuthGate() *AuthGate {
	g := gate.NewGate[uint]()
	owner := NewOwnershipPolicy()
	for _, rt := range []string{ResourceInvoice, ResourceClient} {
		g.Register(rt, owner)
	}
	return &AuthGate{Gate: g}
}

// Authorize returns nil if the context user may perform action, gate.ErrUnauthorized otherwise.
func (ag *AuthGate) Authorize(ctx context.Context, action gate.Action, resourceType string, resource any) error {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return gate.ErrUnauthorized
	}
	return ag.Gate.Authorize(ctx, userID, action, resourceType, resource)
}

func (ag *AuthGate) Can(ctx context.Context, action gate.Action, resourceType string, resource any) bool {
	return ag.Authorize(ctx, action, resourceType, resource) == nil
}
