package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/goodmove/logistics-api/internal/api/metrics"
	"github.com/goodmove/logistics-api/internal/core/domain"
	"github.com/goodmove/logistics-api/internal/core/ports"
)

// reminderLayouts are tried in order. Zone-less forms come from HTML
// datetime-local inputs and are read as UTC.
var reminderLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

type ReminderHandler struct {
	service ports.ReminderService
}

func NewReminderHandler(service ports.ReminderService) *ReminderHandler {
	return &ReminderHandler{service: service}
}

// Create handles POST /api/reminders.
//
// @Summary      Set a reminder
// @Tags         reminders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      reminderRequest  true  "Reminder text and future date/time"
// @Success      200   {object}  reminderResponse
// @Failure      400   {object}  apiError
// @Router       /api/reminders [post]
func (h *ReminderHandler) Create(c echo.Context) error {
	email, _, err := ctxClaims(c)
	if err != nil {
		return err
	}
	var req reminderRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	at, err := parseReminderTime(req.DateTime)
	if err != nil {
		return err
	}

	reminder, err := h.service.SetReminder(c.Request().Context(), email, req.Text, at)
	if err != nil {
		return err
	}
	metrics.RemindersCreatedTotal.Inc()

	return c.JSON(http.StatusOK, reminderResponse{
		Success:  true,
		Message:  "Reminder set successfully",
		Reminder: reminder,
	})
}

// List handles GET /api/reminders.
//
// @Summary      List the caller's reminders
// @Tags         reminders
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  remindersResponse
// @Router       /api/reminders [get]
func (h *ReminderHandler) List(c echo.Context) error {
	email, _, err := ctxClaims(c)
	if err != nil {
		return err
	}

	reminders, err := h.service.ListReminders(c.Request().Context(), email)
	if err != nil {
		return err
	}
	if reminders == nil {
		reminders = []*domain.Reminder{}
	}

	return c.JSON(http.StatusOK, remindersResponse{Success: true, Reminders: reminders})
}

func parseReminderTime(s string) (time.Time, error) {
	for _, layout := range reminderLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, domain.NewValidationError("dateTime must be an ISO-8601 date and time")
}
