package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/travel-request-service/internal/api/dto"
	"github.com/spec-kit/travel-request-service/internal/auth"
	"github.com/spec-kit/travel-request-service/internal/domain"
	"github.com/spec-kit/travel-request-service/internal/repository"
	"github.com/spec-kit/travel-request-service/internal/service"
	apperrors "github.com/spec-kit/travel-request-service/pkg/util"
)

// TravelRequestsHandler manages travel request endpoints.
type TravelRequestsHandler struct {
	service *service.TravelRequestService
}

// NewTravelRequestsHandler constructs handler.
func NewTravelRequestsHandler(requestService *service.TravelRequestService) *TravelRequestsHandler {
	return &TravelRequestsHandler{service: requestService}
}

// List GET /travel-requests.
func (h *TravelRequestsHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	filter, err := parseListQuery(c)
	if err != nil {
		return err
	}
	page, err := h.service.List(c.Context(), principal.Actor(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.TravelRequestResponse, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, travelRequestResponse(&page.Items[i]))
	}
	return c.JSON(fiber.Map{
		"status": "success",
		"data":   items,
		"meta":   paginationMeta(page),
	})
}

// Create POST /travel-requests.
func (h *TravelRequestsHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateTravelRequestRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.TravelRequestCreateInput{Destination: req.Destination}
	details := map[string]any{}
	if departure, err := parseDate(req.DepartureDate); err != nil {
		details["departure_date"] = "must be a date in YYYY-MM-DD format"
	} else {
		input.DepartureDate = departure
	}
	if ret, err := parseDate(req.ReturnDate); err != nil {
		details["return_date"] = "must be a date in YYYY-MM-DD format"
	} else {
		input.ReturnDate = ret
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid travel request payload", details)
	}

	request, err := h.service.Create(c.Context(), principal.Actor(), input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"status": "success",
		"data":   travelRequestResponse(request),
	})
}

// Get GET /travel-requests/:id.
func (h *TravelRequestsHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	request, err := h.service.Get(c.Context(), principal.Actor(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"status": "success",
		"data":   travelRequestResponse(request),
	})
}

// UpdateStatus PATCH /travel-requests/:id/status.
func (h *TravelRequestsHandler) UpdateStatus(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.UpdateTravelRequestStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	newStatus := domain.RequestStatus(strings.TrimSpace(req.Status))
	request, err := h.service.UpdateStatus(c.Context(), principal.Actor(), c.Params("id"), newStatus, req.ReasonForCancellation)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"status": "success",
		"data":   travelRequestResponse(request),
	})
}

// Cancel POST /travel-requests/:id/cancel.
func (h *TravelRequestsHandler) Cancel(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CancelTravelRequestRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	request, err := h.service.Cancel(c.Context(), principal.Actor(), c.Params("id"), req.ReasonForCancellation)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"status": "success",
		"data":   travelRequestResponse(request),
	})
}

func parseListQuery(c *fiber.Ctx) (service.TravelRequestListFilter, error) {
	filter := service.TravelRequestListFilter{Page: parsePage(c.Query("page"))}

	if statusStr := strings.TrimSpace(c.Query("status")); statusStr != "" {
		status := domain.RequestStatus(statusStr)
		if !status.IsValid() {
			return filter, apperrors.NewValidationError("invalid status filter", map[string]any{
				"status": "must be one of requested, approved, cancelled",
			})
		}
		filter.Status = &status
	}
	if destination := strings.TrimSpace(c.Query("destination")); destination != "" {
		filter.Destination = &destination
	}

	startStr := strings.TrimSpace(c.Query("start_date"))
	endStr := strings.TrimSpace(c.Query("end_date"))
	if startStr != "" || endStr != "" {
		details := map[string]any{}
		if startStr == "" {
			details["start_date"] = "required when filtering by date range"
		}
		if endStr == "" {
			details["end_date"] = "required when filtering by date range"
		}
		start, err := parseDate(startStr)
		if err != nil && startStr != "" {
			details["start_date"] = "must be a date in YYYY-MM-DD format"
		}
		end, err := parseDate(endStr)
		if err != nil && endStr != "" {
			details["end_date"] = "must be a date in YYYY-MM-DD format"
		}
		if len(details) > 0 {
			return filter, apperrors.NewValidationError("invalid date range filter", details)
		}
		if end.Before(start) {
			return filter, apperrors.NewValidationError("invalid date range filter", map[string]any{
				"end_date": "must be on or after start_date",
			})
		}
		filter.StartDate = &start
		filter.EndDate = &end
	}

	return filter, nil
}

func parsePage(val string) int {
	if val == "" {
		return 1
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed < 1 {
		return 1
	}
	return parsed
}

func parseDate(val string) (time.Time, error) {
	return time.Parse(dto.DateLayout, val)
}

func travelRequestResponse(request *domain.TravelRequest) dto.TravelRequestResponse {
	return dto.TravelRequestResponse{
		ID:                    request.ID,
		UserID:                request.UserID,
		Destination:           request.Destination,
		DepartureDate:         request.DepartureDate.Format(dto.DateLayout),
		ReturnDate:            request.ReturnDate.Format(dto.DateLayout),
		Status:                string(request.Status),
		ReasonForCancellation: request.ReasonForCancellation,
		CreatedAt:             request.CreatedAt,
		UpdatedAt:             request.UpdatedAt,
	}
}

func paginationMeta(page *repository.Page) dto.PaginationMeta {
	return dto.PaginationMeta{
		CurrentPage: page.Current,
		PerPage:     page.PerPage,
		Total:       page.Total,
		TotalPages:  page.TotalPages,
	}
}
