package gate_test

import (
	"context"
	"errors"
	"testing"

	"github.com/diewo77/freelance/gate"
)

type invoice struct{ owner uint }

func ownerOnly() gate.Policy[uint] {
	return gate.PolicyFunc[uint](func(_ context.Context, user uint, _ gate.Action, resource any) bool {
		if resource == nil {
			return true
		}
		inv, ok := resource.(*invoice)
		return ok && inv.owner == user
	})
}

func TestGate_Authorize_NoUser(t *testing.T) {
	g := gate.NewGate[uint]()
	g.Register("invoice", ownerOnly())

	if err := g.Authorize(context.Background(), 0, gate.ActionView, "invoice", nil); !errors.Is(err, gate.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestGate_Authorize_NoPolicy(t *testing.T) {
	g := gate.NewGate[uint]()

	if err := g.Authorize(context.Background(), 1, gate.ActionView, "client", nil); !errors.Is(err, gate.ErrNoPolicyDefined) {
		t.Errorf("expected ErrNoPolicyDefined, got %v", err)
	}
}

func TestGate_Authorize_Owner(t *testing.T) {
	g := gate.NewGate[uint]()
	g.Register("invoice", ownerOnly())
	inv := &invoice{owner: 3}

	if err := g.Authorize(context.Background(), 3, gate.ActionUpdate, "invoice", inv); err != nil {
		t.Errorf("owner should be allowed, got %v", err)
	}
	if err := g.Authorize(context.Background(), 4, gate.ActionSend, "invoice", inv); !errors.Is(err, gate.ErrUnauthorized) {
		t.Errorf("non-owner should be denied, got %v", err)
	}
}

func TestGate_Can(t *testing.T) {
	g := gate.NewGate[uint]()
	g.Register("invoice", ownerOnly())

	if !g.Can(context.Background(), 1, gate.ActionList, "invoice", nil) {
		t.Error("listing needs no resource")
	}
	g.Register("invoice", gate.PolicyFunc[uint](func(context.Context, uint, gate.Action, any) bool { return false }))
	if g.Can(context.Background(), 1, gate.ActionList, "invoice", nil) {
		t.Error("Register should replace the previous policy")
	}
}
