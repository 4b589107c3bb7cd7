package domain

import (
	"testing"
	"time"
)

const threshold = 7

func dateIn(days int) time.Time {
	return time.Now().UTC().AddDate(0, 0, days)
}

func TestCanBeCancelledRequested(t *testing.T) {
	tr := &TravelRequest{Status: RequestStatusRequested, DepartureDate: dateIn(1)}
	if !tr.CanBeCancelled(time.Now(), threshold) {
		t.Fatal("requested items must always be cancellable")
	}
}

func TestCanBeCancelledCancelled(t *testing.T) {
	tr := &TravelRequest{Status: RequestStatusCancelled, DepartureDate: dateIn(30)}
	if tr.CanBeCancelled(time.Now(), threshold) {
		t.Fatal("cancelled items must never be cancellable again")
	}
}

func TestCanBeCancelledApprovedByDeparture(t *testing.T) {
	cases := []struct {
		name   string
		days   int
		expect bool
	}{
		{"departing today", 0, false},
		{"two days out", 2, false},
		{"one day under threshold", threshold - 1, false},
		{"exactly at threshold", threshold, true},
		{"well beyond threshold", threshold + 10, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tr := &TravelRequest{Status: RequestStatusApproved, DepartureDate: dateIn(tc.days)}
			if got := tr.CanBeCancelled(time.Now(), threshold); got != tc.expect {
				t.Fatalf("departure in %d days: got %v, want %v", tc.days, got, tc.expect)
			}
		})
	}
}

func TestCanBeCancelledApprovedWithoutDeparture(t *testing.T) {
	tr := &TravelRequest{Status: RequestStatusApproved}
	if tr.CanBeCancelled(time.Now(), threshold) {
		t.Fatal("approved item without a departure date must not be cancellable")
	}
}

func TestApplyStatusRecordsReason(t *testing.T) {
	tr := &TravelRequest{Status: RequestStatusApproved}
	changed := tr.ApplyStatus(RequestStatusCancelled, "trip no longer needed")
	if !changed {
		t.Fatal("expected status change")
	}
	if tr.Status != RequestStatusCancelled {
		t.Fatalf("status = %s, want cancelled", tr.Status)
	}
	if tr.ReasonForCancellation == nil || *tr.ReasonForCancellation != "trip no longer needed" {
		t.Fatalf("reason not recorded: %v", tr.ReasonForCancellation)
	}
}

func TestApplyStatusWithoutReason(t *testing.T) {
	tr := &TravelRequest{Status: RequestStatusRequested}
	if !tr.ApplyStatus(RequestStatusCancelled, "") {
		t.Fatal("expected status change")
	}
	if tr.ReasonForCancellation != nil {
		t.Fatalf("reason must stay unset when none supplied, got %q", *tr.ReasonForCancellation)
	}
}

func TestApplyStatusIdempotent(t *testing.T) {
	tr := &TravelRequest{Status: RequestStatusApproved}
	if tr.ApplyStatus(RequestStatusApproved, "") {
		t.Fatal("re-approving an approved item must report no change")
	}
	if tr.Status != RequestStatusApproved {
		t.Fatalf("status = %s, want approved", tr.Status)
	}
}
