package policy

import (
	"errors"
	"testing"

	"github.com/spec-kit/travel-request-service/internal/domain"
	apperrors "github.com/spec-kit/travel-request-service/pkg/util"
)

var (
	owner    = Actor{ID: "u-1", Role: domain.RoleUser}
	stranger = Actor{ID: "u-2", Role: domain.RoleUser}
	admin    = Actor{ID: "a-1", Role: domain.RoleAdmin}
)

func request() *domain.TravelRequest {
	return &domain.TravelRequest{ID: "tr-1", UserID: owner.ID, Status: domain.RequestStatusRequested}
}

func assertForbidden(t *testing.T, err error) {
	t.Helper()
	var de *apperrors.DomainError
	if !errors.As(err, &de) || de.Code != "FORBIDDEN" {
		t.Fatalf("expected FORBIDDEN, got %v", err)
	}
}

func TestCanView(t *testing.T) {
	if err := CanView(owner, request()); err != nil {
		t.Fatalf("owner must view own request: %v", err)
	}
	if err := CanView(admin, request()); err != nil {
		t.Fatalf("admin must view any request: %v", err)
	}
	assertForbidden(t, CanView(stranger, request()))
}

func TestCanTransition(t *testing.T) {
	if err := CanTransition(admin, request(), domain.RequestStatusApproved); err != nil {
		t.Fatalf("admin must transition: %v", err)
	}
	assertForbidden(t, CanTransition(owner, request(), domain.RequestStatusApproved))
	assertForbidden(t, CanTransition(stranger, request(), domain.RequestStatusCancelled))
}

func TestCanSelfCancel(t *testing.T) {
	if err := CanSelfCancel(owner, request()); err != nil {
		t.Fatalf("owner must be able to self-cancel: %v", err)
	}
	assertForbidden(t, CanSelfCancel(stranger, request()))
	// admins do not get to use the self-cancel path on others' requests
	assertForbidden(t, CanSelfCancel(admin, request()))
}

func TestCanListAndCreate(t *testing.T) {
	for _, actor := range []Actor{owner, stranger, admin} {
		if err := CanList(actor); err != nil {
			t.Fatalf("CanList(%s): %v", actor.ID, err)
		}
		if err := CanCreate(actor); err != nil {
			t.Fatalf("CanCreate(%s): %v", actor.ID, err)
		}
	}
}
