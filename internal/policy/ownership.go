package policy

import (
	"context"

	"github.com/diewo77/freelance/gate"
)

// Ownable is implemented by every user-owned model (client, day, invoice, settings).
type Ownable interface {
	GetUserID() uint
}

// OwnershipPolicy allows an action only on resources owned by the acting user.
type OwnershipPolicy struct{}

func NewOwnershipPolicy() *OwnershipPolicy {
	return &OwnershipPolicy{}
}

// Can allows list/create (nil resource) and denies resources that are not Ownable.
func (p *OwnershipPolicy) Can(_ context.Context, userID uint, _ gate.Action, resource any) bool {
	if resource == nil {
		return true
	}
	ownable, ok := resource.(Ownable)
	if !ok {
		return false
	}
	return ownable.GetUserID() == userID
}
