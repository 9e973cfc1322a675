package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/taskflow/taskflow-backend/internal/api/metrics"
	"github.com/taskflow/taskflow-backend/internal/core/domain"
	"github.com/taskflow/taskflow-backend/internal/core/ports"
)

const dateLayout = "2006-01-02"

type TaskHandler struct {
	tasks ports.TaskService
}

func NewTaskHandler(tasks ports.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

type taskRequest struct {
	MemberID    string `json:"memberId"    validate:"required"`
	Title       string `json:"taskTitle"   validate:"required,min=3,max=200"`
	Description string `json:"description" validate:"max=1000"`
	DueDate     string `json:"dueDate"     validate:"required,datetime=2006-01-02"`
	Status      string `json:"status"      validate:"required,taskstatus"`
	Priority    string `json:"priority"    validate:"required,taskpriority"`
}

type taskResponse struct {
	ID          string `json:"id"`
	Title       string `json:"taskTitle"`
	Description string `json:"description,omitempty"`
	DueDate     string `json:"dueDate,omitempty"`
	Status      string `json:"status,omitempty"`
	Priority    string `json:"priority,omitempty"`
	ProjectName string `json:"projectName,omitempty"`
	AssignedTo  string `json:"assignedTo,omitempty"`
}

type statsResponse struct {
	TotalTasks           int64   `json:"totalTasks"`
	TasksInProgress      int64   `json:"tasksInProgress"`
	InProgressPercentage float64 `json:"inProgressPercentage"`
}

func toTaskResponse(v *ports.TaskView) taskResponse {
	out := taskResponse{
		ID:          v.ID,
		Title:       v.Title,
		Description: v.Description,
		Status:      string(v.Status),
		Priority:    string(v.Priority),
		ProjectName: v.ProjectName,
		AssignedTo:  v.MemberName,
	}
	if !v.DueDate.IsZero() {
		out.DueDate = v.DueDate.UTC().Format(dateLayout)
	}
	return out
}

// Create assigns a task to a member of an owned project.
//
// @Summary      Create task
// @Tags         managers
// @Accept       json
// @Produce      json
// @Param        id    path      string       true  "Project ID"
// @Param        body  body      taskRequest  true  "Task details"
// @Success      201   {object}  Envelope{data=taskResponse}
// @Failure      400   {object}  Envelope
// @Failure      403   {object}  Envelope
// @Failure      404   {object}  Envelope
// @Security     CookieAuth
// @Router       /managers/projects/{id}/tasks [post]
func (h *TaskHandler) Create(c echo.Context) error {
	id, err := actor(c)
	if err != nil {
		return err
	}
	projectID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req taskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body.")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	due, err := time.Parse(dateLayout, req.DueDate)
	if err != nil {
		return domain.NewValidationError("dueDate", "dueDate must be a date in YYYY-MM-DD format")
	}

	view, err := h.tasks.Create(c.Request().Context(), id, ports.CreateTaskInput{
		ProjectID:   projectID,
		MemberID:    req.MemberID,
		Title:       req.Title,
		Description: req.Description,
		DueDate:     due,
		Status:      req.Status,
		Priority:    req.Priority,
	})
	if err != nil {
		return err
	}
	metrics.TasksCreatedTotal.WithLabelValues(string(view.Priority)).Inc()
	return respond(c, http.StatusCreated, "Task created successfully.", toTaskResponse(view))
}

// Delete removes a task from an owned project.
//
// @Summary      Delete task
// @Tags         managers
// @Produce      json
// @Param        projectId  path      string  true  "Project ID"
// @Param        taskId     path      string  true  "Task ID"
// @Success      200        {object}  Envelope{data=taskResponse}
// @Failure      403        {object}  Envelope
// @Failure      404        {object}  Envelope
// @Security     CookieAuth
// @Router       /managers/projects/{projectId}/tasks/{taskId} [delete]
func (h *TaskHandler) Delete(c echo.Context) error {
	id, err := actor(c)
	if err != nil {
		return err
	}
	projectID, err := pathID(c, "projectId")
	if err != nil {
		return err
	}
	taskID, err := pathID(c, "taskId")
	if err != nil {
		return err
	}
	view, err := h.tasks.Delete(c.Request().Context(), id, projectID, taskID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Task deleted successfully.", taskResponse{ID: view.ID, Title: view.Title})
}

// Stats aggregates the tasks of every project the caller manages.
//
// @Summary      Task statistics
// @Tags         managers
// @Produce      json
// @Success      200  {object}  Envelope{data=statsResponse}
// @Failure      403  {object}  Envelope
// @Security     CookieAuth
// @Router       /managers/projects/tasks/stats [get]
func (h *TaskHandler) Stats(c echo.Context) error {
	id, err := actor(c)
	if err != nil {
		return err
	}
	stats, err := h.tasks.Stats(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Task stats fetched.", statsResponse{
		TotalTasks:           stats.TotalTasks,
		TasksInProgress:      stats.TasksInProgress,
		InProgressPercentage: stats.InProgressPercentage,
	})
}

// MyTasks lists the tasks assigned to the calling member.
//
// @Summary      List own tasks
// @Tags         members
// @Produce      json
// @Success      200  {object}  Envelope{data=[]taskResponse}
// @Failure      403  {object}  Envelope
// @Failure      404  {object}  Envelope
// @Security     CookieAuth
// @Router       /members/tasks/my [get]
func (h *TaskHandler) MyTasks(c echo.Context) error {
	id, err := actor(c)
	if err != nil {
		return err
	}
	views, err := h.tasks.MyTasks(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if len(views) == 0 {
		return notFound(c, "Tasks not found.")
	}
	out := make([]taskResponse, 0, len(views))
	for i := range views {
		out = append(out, toTaskResponse(&views[i]))
	}
	return respond(c, http.StatusOK, "Tasks fetched successfully.", out)
}

// UpdateStatus sets the status of one of the caller's tasks.
//
// @Summary      Update task status
// @Tags         members
// @Produce      json
// @Param        id      path      string  true  "Task ID"
// @Param        status  query     string  true  "TODO, IN_PROGRESS or DONE"
// @Success      200     {object}  Envelope{data=taskResponse}
// @Failure      400     {object}  Envelope
// @Failure      404     {object}  Envelope
// @Security     CookieAuth
// @Router       /members/tasks/{id}/status [patch]
func (h *TaskHandler) UpdateStatus(c echo.Context) error {
	id, err := actor(c)
	if err != nil {
		return err
	}
	taskID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	view, err := h.tasks.UpdateStatus(c.Request().Context(), id, taskID, c.QueryParam("status"))
	if err != nil {
		return err
	}
	metrics.TaskUpdatesTotal.WithLabelValues("status").Inc()
	return respond(c, http.StatusOK, "Task status updated to "+string(view.Status)+".", toTaskResponse(view))
}

// UpdatePriority sets the priority of one of the caller's tasks.
//
// @Summary      Update task priority
// @Tags         members
// @Produce      json
// @Param        id        path      string  true  "Task ID"
// @Param        priority  query     string  true  "LOW, MEDIUM or HIGH"
// @Success      200       {object}  Envelope{data=taskResponse}
// @Failure      400       {object}  Envelope
// @Failure      404       {object}  Envelope
// @Security     CookieAuth
// @Router       /members/tasks/{id}/priority [patch]
func (h *TaskHandler) UpdatePriority(c echo.Context) error {
	id, err := actor(c)
	if err != nil {
		return err
	}
	taskID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	view, err := h.tasks.UpdatePriority(c.Request().Context(), id, taskID, c.QueryParam("priority"))
	if err != nil {
		return err
	}
	metrics.TaskUpdatesTotal.WithLabelValues("priority").Inc()
	return respond(c, http.StatusOK, "Task priority updated to "+string(view.Priority)+".", toTaskResponse(view))
}
