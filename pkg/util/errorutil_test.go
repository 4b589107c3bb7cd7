package util

import (
	"errors"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
)

func TestToDomainErrorPassesThrough(t *testing.T) {
	original := NewBusinessRule("too late")
	got := ToDomainError(original)
	if got.Code != "BUSINESS_RULE" || got.HTTPStatus != http.StatusUnprocessableEntity {
		t.Fatalf("unexpected mapping: %+v", got)
	}
}

func TestToDomainErrorMapsNoRows(t *testing.T) {
	got := ToDomainError(pgx.ErrNoRows)
	if got.Code != "NOT_FOUND" || got.HTTPStatus != http.StatusNotFound {
		t.Fatalf("unexpected mapping: %+v", got)
	}
}

func TestToDomainErrorMapsFiberErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    *fiber.Error
		code   string
		status int
	}{
		{"route not found", fiber.ErrNotFound, "NOT_FOUND", http.StatusNotFound},
		{"method not allowed", fiber.ErrMethodNotAllowed, "METHOD_NOT_ALLOWED", http.StatusMethodNotAllowed},
		{"bad request", fiber.ErrBadRequest, "REQUEST_FAILED", http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ToDomainError(tc.err)
			if got.Code != tc.code || got.HTTPStatus != tc.status {
				t.Fatalf("got %s/%d, want %s/%d", got.Code, got.HTTPStatus, tc.code, tc.status)
			}
		})
	}
}

func TestToDomainErrorHidesInternals(t *testing.T) {
	got := ToDomainError(errors.New("pq: connection refused"))
	if got.Code != "INTERNAL_ERROR" || got.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("unexpected mapping: %+v", got)
	}
	if got.Message != "internal server error" {
		t.Fatalf("internal detail leaked: %q", got.Message)
	}
	// 5xx fiber errors keep the generic 500 shape too
	if got := ToDomainError(fiber.ErrServiceUnavailable); got.Code != "INTERNAL_ERROR" {
		t.Fatalf("5xx fiber error must stay generic, got %+v", got)
	}
}
