package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-seat-booking/internal/model"
	"github.com/iliyamo/event-seat-booking/internal/repository"
)

type UserService interface {
	CreateUser(ctx context.Context, name, email string) (model.User, error)
	GetUser(ctx context.Context, id uint64) (model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	UpdateUser(ctx context.Context, id uint64, p repository.UserPatch) (model.User, error)
	DeleteUser(ctx context.Context, id uint64) error
}

type UserHandler struct {
	users UserService
}

func NewUserHandler(users UserService) *UserHandler { return &UserHandler{users: users} }

type createUserRequest struct {
	Name  string `json:"name" validate:"required,max=255"`
	Email string `json:"email" validate:"required,email,max=255"`
}

type updateUserRequest struct {
	Name  *string `json:"name" validate:"omitempty,min=1,max=255"`
	Email *string `json:"email" validate:"omitempty,email,max=255"`
}

// Create handles POST /v1/users.  A taken email answers 409.
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserRequest
	if err := bind(c, &req); err != nil {
		return writeError(c, err)
	}
	u, err := h.users.CreateUser(c.Request().Context(), req.Name, req.Email)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, u)
}

func (h *UserHandler) List(c echo.Context) error {
	users, err := h.users.ListUsers(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, users)
}

func (h *UserHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	u, err := h.users.GetUser(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

// Update handles PUT /v1/users/:id.  Omitted fields keep their value; a
// taken email answers 409.
func (h *UserHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var req updateUserRequest
	if err := bind(c, &req); err != nil {
		return writeError(c, err)
	}
	u, err := h.users.UpdateUser(c.Request().Context(), id, repository.UserPatch{Name: req.Name, Email: req.Email})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

// Delete handles DELETE /v1/users/:id.  Users with bookings answer 409.
func (h *UserHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	if err := h.users.DeleteUser(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
