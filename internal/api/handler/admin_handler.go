package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/goodmove/logistics-api/internal/core/ports"
)

type AdminHandler struct {
	service ports.AdminService
}

func NewAdminHandler(service ports.AdminService) *AdminHandler {
	return &AdminHandler{service: service}
}

// Users handles GET /api/admin/users.
//
// @Summary      All users with load aggregates
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  adminUsersResponse
// @Failure      403  {object}  apiError
// @Router       /api/admin/users [get]
func (h *AdminHandler) Users(c echo.Context) error {
	email, _, err := ctxClaims(c)
	if err != nil {
		return err
	}

	views, err := h.service.ListUsers(c.Request().Context(), email)
	if err != nil {
		return err
	}

	users := make([]adminUserView, 0, len(views))
	for _, v := range views {
		users = append(users, toAdminUserView(v))
	}

	return c.JSON(http.StatusOK, adminUsersResponse{Success: true, Users: users})
}
