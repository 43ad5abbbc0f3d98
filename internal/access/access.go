// Package access defines the permission model consumed from the external
// access-control module. The registry only asserts the caller bitmask;
// role storage and the governance proposal pipeline live outside this
// service.
package access

import "context"

// Permission bit flags, matching the on-chain layout.
const (
	PermRegisterProject uint64 = 1 << 0
	PermVerifyProject   uint64 = 1 << 1
	PermMintCredits     uint64 = 1 << 2
	PermTransferCredits uint64 = 1 << 3
	PermRetireCredits   uint64 = 1 << 4
	PermAssignRoles     uint64 = 1 << 5
	PermApproveCompliance uint64 = 1 << 6
	PermSubmitMonitoring  uint64 = 1 << 7
)

// Grant is the access decision for one caller identity.
type Grant struct {
	Active      bool
	Permissions uint64
}

// Allows reports whether the grant covers the required permission bit.
func (g Grant) Allows(required uint64) bool {
	return g.Active && g.Permissions&required != 0
}

// Authorizer resolves the grant for a caller address. Implementations are
// external; AllowAll exists for local development and tests.
type Authorizer interface {
	GrantFor(ctx context.Context, address string) (Grant, error)
}

// AllowAll authorizes every caller with every permission.
type AllowAll struct{}

// GrantFor implements Authorizer.
func (AllowAll) GrantFor(ctx context.Context, address string) (Grant, error) {
	return Grant{Active: true, Permissions: ^uint64(0)}, nil
}
