// Package policy holds the pure authorization decision functions for
// travel requests. Functions take the acting identity and the resource
// and return nil when the action is allowed; they never mutate state.
package policy

import (
	"github.com/spec-kit/travel-request-service/internal/domain"
	apperrors "github.com/spec-kit/travel-request-service/pkg/util"
)

// Actor is the authenticated identity performing an operation. It is
// passed explicitly into every use case; there is no ambient session.
type Actor struct {
	ID   string
	Role domain.Role
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == domain.RoleAdmin
}

// CanList always allows listing; result scope is narrowed by the caller
// to the actor's own requests unless the actor is an admin.
func CanList(_ Actor) error {
	return nil
}

// CanView allows admins and the owning user to read a request.
func CanView(actor Actor, request *domain.TravelRequest) error {
	if actor.IsAdmin() || actor.ID == request.UserID {
		return nil
	}
	return apperrors.NewForbidden("not authorized to view this travel request")
}

// CanCreate allows any authenticated actor to create a request. Ownership
// is forced to the actor server-side.
func CanCreate(_ Actor) error {
	return nil
}

// CanTransition restricts administrative status changes to admins.
func CanTransition(actor Actor, _ *domain.TravelRequest, _ domain.RequestStatus) error {
	if actor.IsAdmin() {
		return nil
	}
	return apperrors.NewForbidden("only administrators may change status")
}

// CanSelfCancel allows only the owning user to cancel their request.
func CanSelfCancel(actor Actor, request *domain.TravelRequest) error {
	if actor.ID == request.UserID {
		return nil
	}
	return apperrors.NewForbidden("may only cancel own requests")
}
