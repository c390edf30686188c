package policy_test

import (
	"context"
	"errors"
	"testing"

	"github.com/diewo77/freelance/auth"
	"github.com/diewo77/freelance/gate"
	"github.com/diewo77/freelance/internal/models"
	"github.com/diewo77/freelance/internal/policy"
)

// mockNonOwnable is a test resource that does NOT implement Ownable.
type mockNonOwnable struct {
	ID uint
}

func TestOwnershipPolicy_NilResource(t *testing.T) {
	p := policy.NewOwnershipPolicy()
	ctx := context.Background()

	if !p.Can(ctx, 1, gate.ActionList, nil) {
		t.Error("Expected Can to return true for nil resource")
	}
	if !p.Can(ctx, 1, gate.ActionCreate, nil) {
		t.Error("Expected Can to return true for nil resource on create")
	}
}

func TestOwnershipPolicy_Models(t *testing.T) {
	p := policy.NewOwnershipPolicy()
	ctx := context.Background()
	resources := []any{
		&models.Invoice{UserID: 42},
		&models.Client{UserID: 42},
		&models.Day{UserID: 42},
		&models.Settings{UserID: 42},
	}
	for _, res := range resources {
		if !p.Can(ctx, 42, gate.ActionUpdate, res) {
			t.Errorf("owner should access %T", res)
		}
		if p.Can(ctx, 99, gate.ActionDelete, res) {
			t.Errorf("non-owner should be denied on %T", res)
		}
	}
}

func TestOwnershipPolicy_NonOwnableResource(t *testing.T) {
	p := policy.NewOwnershipPolicy()
	if p.Can(context.Background(), 1, gate.ActionView, &mockNonOwnable{ID: 1}) {
		t.Error("Expected non-Ownable resource to be denied")
	}
}

func TestAuthGate_UsesContextUser(t *testing.T) {
	ag := policy.NewAuthGate()
	inv := &models.Invoice{UserID: 5}

	if err := ag.Authorize(context.Background(), gate.ActionView, policy.ResourceInvoice, inv); !errors.Is(err, gate.ErrUnauthorized) {
		t.Fatalf("anonymous context must be unauthorized, got %v", err)
	}
	ctx := auth.WithUserID(context.Background(), 5)
	if !ag.Can(ctx, gate.ActionSend, policy.ResourceInvoice, inv) {
		t.Fatal("owner should be able to send")
	}
	other := auth.WithUserID(context.Background(), 6)
	if ag.Can(other, gate.ActionView, policy.ResourceInvoice, inv) {
		t.Fatal("other user must be denied")
	}
}

func TestAuthGate_RegisteredResources(t *testing.T) {
	ag := policy.NewAuthGate()
	ctx := auth.WithUserID(context.Background(), 5)
	for _, rt := range []string{policy.ResourceInvoice, policy.ResourceClient} {
		if err := ag.Authorize(ctx, gate.ActionList, rt, nil); err != nil {
			t.Errorf("%s: expected policy, got %v", rt, err)
		}
	}
	if err := ag.Authorize(ctx, gate.ActionList, "day", nil); !errors.Is(err, gate.ErrNoPolicyDefined) {
		t.Errorf("day is scoped by query, expected ErrNoPolicyDefined, got %v", err)
	}
}
