package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskflow/taskflow-backend/internal/core/ports"
)

type UserHandler struct {
	users ports.UserService
}

func NewUserHandler(users ports.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// Me returns the caller's own profile.
//
// @Summary      Current user
// @Tags         users
// @Produce      json
// @Success      200  {object}  Envelope{data=authResponse}
// @Failure      401  {object}  Envelope
// @Failure      403  {object}  Envelope
// @Failure      404  {object}  Envelope
// @Security     CookieAuth
// @Router       /users/me [get]
func (h *UserHandler) Me(c echo.Context) error {
	id, err := actor(c)
	if err != nil {
		return err
	}
	u, err := h.users.Me(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "User details fetched.", authResponse{
		ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role.String(),
	})
}

// AvailableMembers searches MEMBER users, by name prefix, who are not yet in the project.
//
// @Summary      Search members to add
// @Tags         users
// @Produce      json
// @Param        projectId  path      string  true  "Project ID"
// @Param        query      query     string  true  "Name prefix"
// @Success      200        {object}  Envelope{data=[]memberResponse}
// @Failure      400        {object}  Envelope
// @Failure      403        {object}  Envelope
// @Failure      404        {object}  Envelope
// @Security     CookieAuth
// @Router       /users/projects/{projectId}/available-members [get]
func (h *UserHandler) AvailableMembers(c echo.Context) error {
	id, err := actor(c)
	if err != nil {
		return err
	}
	projectID, err := pathID(c, "projectId")
	if err != nil {
		return err
	}
	views, err := h.users.SearchAvailableMembers(c.Request().Context(), id, projectID, c.QueryParam("query"))
	if err != nil {
		return err
	}
	if len(views) == 0 {
		return notFound(c, "Members not found.")
	}
	return respond(c, http.StatusOK, "Available members fetched.", toMemberResponses(views))
}

// AvailableForTask lists project members with no open task in the project.
//
// @Summary      Members free for a new task
// @Tags         users
// @Produce      json
// @Param        projectId  path      string  true  "Project ID"
// @Success      200        {object}  Envelope{data=[]memberResponse}
// @Failure      403        {object}  Envelope
// @Failure      404        {object}  Envelope
// @Security     CookieAuth
// @Router       /users/projects/{projectId}/tasks/available-members [get]
func (h *UserHandler) AvailableForTask(c echo.Context) error {
	id, err := actor(c)
	if err != nil {
		return err
	}
	projectID, err := pathID(c, "projectId")
	if err != nil {
		return err
	}
	views, err := h.users.AvailableForTask(c.Request().Context(), id, projectID)
	if err != nil {
		return err
	}
	if len(views) == 0 {
		return notFound(c, "Members not found.")
	}
	return respond(c, http.StatusOK, "Available members fetched.", toMemberResponses(views))
}
