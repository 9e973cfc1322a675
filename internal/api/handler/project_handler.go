package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskflow/taskflow-backend/internal/core/ports"
)

type ProjectHandler struct {
	projects ports.ProjectService
}

func NewProjectHandler(projects ports.ProjectService) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

type projectRequest struct {
	Name        string `json:"name"        validate:"required,max=255"`
	Description string `json:"description" validate:"max=1000"`
}

type addMembersRequest struct {
	MemberIDs []string `json:"memberIds" validate:"required,min=1,dive,required"`
}

type projectResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ManagerName string `json:"managerName"`
}

type memberResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type membersResponse struct {
	ProjectID   string           `json:"projectId"`
	ProjectName string           `json:"projectName"`
	Members     []memberResponse `json:"members"`
}

func toProjectResponse(v ports.ProjectView) projectResponse {
	return projectResponse{ID: v.ID, Name: v.Name, Description: v.Description, ManagerName: v.ManagerName}
}

func toMemberResponses(views []ports.MemberView) []memberResponse {
	out := make([]memberResponse, 0, len(views))
	for _, v := range views {
		out = append(out, memberResponse{ID: v.ID, Name: v.Name, Email: v.Email})
	}
	return out
}

func toMembersResponse(m *ports.ProjectMembers) membersResponse {
	return membersResponse{ProjectID: m.ProjectID, ProjectName: m.ProjectName, Members: toMemberResponses(m.Members)}
}

// Create registers a project owned by the calling manager.
//
// @Summary      Create project
// @Tags         managers
// @Accept       json
// @Produce      json
// @Param        body  body      projectRequest  true  "Project details"
// @Success      201   {object}  Envelope{data=projectResponse}
// @Failure      400   {object}  Envelope
// @Failure      401   {object}  Envelope
// @Failure      403   {object}  Envelope
// @Security     CookieAuth
// @Router       /managers/projects [post]
func (h *ProjectHandler) Create(c echo.Context) error {
	id, err := actor(c)
	if err != nil {
		return err
	}
	var req projectRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body.")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	view, err := h.projects.Create(c.Request().Context(), id, ports.ProjectInput{Name: req.Name, Description: req.Description})
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "Project created successfully.", toProjectResponse(*view))
}

// List returns the calling manager's projects.
//
// @Summary      List own projects
// @Tags         managers
// @Produce      json
// @Success      200  {object}  Envelope{data=[]projectResponse}
// @Failure      401  {object}  Envelope
// @Failure      403  {object}  Envelope
// @Security     CookieAuth
// @Router       /managers/projects [get]
func (h *ProjectHandler) List(c echo.Context) error {
	id, err := actor(c)
	if err != nil {
		return err
	}
	views, err := h.projects.List(c.Request().Context(), id)
	if err != nil {
		return err
	}
	out := make([]projectResponse, 0, len(views))
	for _, v := range views {
		out = append(out, toProjectResponse(v))
	}
	return respond(c, http.StatusOK, "Projects were fetched.", out)
}

// Get returns one owned project.
//
// @Summary      Get project
// @Tags         managers
// @Produce      json
// @Param        id   path      string  true  "Project ID"
// @Success      200  {object}  Envelope{data=projectResponse}
// @Failure      403  {object}  Envelope
// @Failure      404  {object}  Envelope
// @Security     CookieAuth
// @Router       /managers/projects/{id} [get]
func (h *ProjectHandler) Get(c echo.Context) error {
	id, err := actor(c)
	if err != nil {
		return err
	}
	projectID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	view, err := h.projects.Get(c.Request().Context(), id, projectID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Project fetched successfully.", toProjectResponse(*view))
}

// Delete removes an owned project together with its tasks.
//
// @Summary      Delete project
// @Tags         managers
// @Produce      json
// @Param        id   path      string  true  "Project ID"
// @Success      200  {object}  Envelope{data=string}
// @Failure      403  {object}  Envelope
// @Failure      404  {object}  Envelope
// @Security     CookieAuth
// @Router       /managers/projects/{id} [delete]
func (h *ProjectHandler) Delete(c echo.Context) error {
	id, err := actor(c)
	if err != nil {
		return err
	}
	projectID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.projects.Delete(c.Request().Context(), id, projectID); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Project deleted successfully.", projectID)
}

// AddMembers unions existing MEMBER users into the project's member set.
//
// @Summary      Add project members
// @Tags         managers
// @Accept       json
// @Produce      json
// @Param        id    path      string             true  "Project ID"
// @Param        body  body      addMembersRequest  true  "Member IDs"
// @Success      200   {object}  Envelope{data=membersResponse}
// @Failure      400   {object}  Envelope
// @Failure      403   {object}  Envelope
// @Failure      404   {object}  Envelope
// @Security     CookieAuth
// @Router       /managers/projects/{id}/members [post]
func (h *ProjectHandler) AddMembers(c echo.Context) error {
	id, err := actor(c)
	if err != nil {
		return err
	}
	projectID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req addMembersRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body.")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	members, err := h.projects.AddMembers(c.Request().Context(), id, projectID, req.MemberIDs)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Members added successfully.", toMembersResponse(members))
}

// Members lists the project's member set.
//
// @Summary      List project members
// @Tags         managers
// @Produce      json
// @Param        id   path      string  true  "Project ID"
// @Success      200  {object}  Envelope{data=membersResponse}
// @Failure      403  {object}  Envelope
// @Failure      404  {object}  Envelope
// @Security     CookieAuth
// @Router       /managers/projects/{id}/members [get]
func (h *ProjectHandler) Members(c echo.Context) error {
	id, err := actor(c)
	if err != nil {
		return err
	}
	projectID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	members, err := h.projects.Members(c.Request().Context(), id, projectID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Members fetched successfully.", toMembersResponse(members))
}

// CountMembers returns the number of distinct members across the caller's projects.
//
// @Summary      Count members across own projects
// @Tags         managers
// @Produce      json
// @Success      200  {object}  Envelope{data=int}
// @Failure      403  {object}  Envelope
// @Security     CookieAuth
// @Router       /managers/projects/members [get]
func (h *ProjectHandler) CountMembers(c echo.Context) error {
	id, err := actor(c)
	if err != nil {
		return err
	}
	n, err := h.projects.CountMembers(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Total members fetched.", n)
}
