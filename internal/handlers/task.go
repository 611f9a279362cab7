package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mirelhas/task-docs-api/internal/dto"
	apierrors "github.com/mirelhas/task-docs-api/internal/errors"
	"github.com/mirelhas/task-docs-api/internal/middleware"
	"github.com/mirelhas/task-docs-api/internal/models"
	"github.com/mirelhas/task-docs-api/internal/repository"
	"github.com/mirelhas/task-docs-api/internal/services"
	"github.com/mirelhas/task-docs-api/internal/uploads"
	"github.com/mirelhas/task-docs-api/internal/utils"
)

type TaskHandler struct {
	taskService *services.TaskService
}

func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// ListTasks returns tasks visible to the current user.
// Admins see all tasks; everyone else only sees tasks where they are the
// assignee or the creator.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	user, exists := middleware.GetCurrentUser(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	params := utils.GetPaginationParams(c)

	filter := repository.TaskFilter{
		Page:     params.Page,
		PageSize: params.Limit,
	}

	if status := c.Query("status"); status != "" {
		s := models.TaskStatus(status)
		filter.Status = &s
	}
	if priority := c.Query("priority"); priority != "" {
		p := models.TaskPriority(priority)
		filter.Priority = &p
	}
	if dueDate := c.Query("dueDate"); dueDate != "" {
		day, err := parseDate(dueDate)
		if err != nil {
			apierrors.BadRequest(c, "Invalid dueDate")
			return
		}
		start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
		end := start.Add(24 * time.Hour)
		filter.DueDateFrom = &start
		filter.DueDateTo = &end
	}
	if assignedTo := c.Query("assignedTo"); assignedTo != "" {
		id, err := strconv.ParseUint(assignedTo, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid assignedTo")
			return
		}
		filter.AssignedToID = &id
	}

	tasks, total, err := h.taskService.ListTasks(user, filter)
	if err != nil {
		apierrors.InternalError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks, params.Page, utils.TotalPages(total, params.Limit)))
}

// GetTask returns a single task. Authorization and loading are handled by
// the RequireTaskAccess middleware.
func (h *TaskHandler) GetTask(c *gin.Context) {
	task, exists := middleware.GetContextTask(c)
	if !exists {
		apierrors.InternalError(c, errors.New("task missing from context"))
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskResponse(*task))
}

// CreateTask creates a new task from a multipart form, storing any uploaded
// PDF attachments.
func (h *TaskHandler) CreateTask(c *gin.Context) {
	user, exists := middleware.GetCurrentUser(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	type CreateTaskRequest struct {
		Title       string `form:"title" binding:"required"`
		Description string `form:"description" binding:"required"`
		Status      string `form:"status" binding:"omitempty,oneof=pending in-progress completed"`
		Priority    string `form:"priority" binding:"omitempty,oneof=low medium high"`
		DueDate     string `form:"dueDate" binding:"required"`
		AssignedTo  string `form:"assignedTo" binding:"required"`
	}

	var req CreateTaskRequest
	if err := c.ShouldBind(&req); err != nil {
		apierrors.BadRequest(c, "Please provide title, description, due date and assignee")
		return
	}

	dueDate, err := parseDate(req.DueDate)
	if err != nil {
		apierrors.BadRequest(c, "Invalid due date")
		return
	}

	assignedTo, err := strconv.ParseUint(req.AssignedTo, 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid assignee")
		return
	}

	task, err := h.taskService.CreateTask(services.CreateTaskInput{
		Title:        req.Title,
		Description:  req.Description,
		Status:       models.TaskStatus(req.Status),
		Priority:     models.TaskPriority(req.Priority),
		DueDate:      dueDate,
		AssignedToID: assignedTo,
		CreatorID:    user.ID,
		Files:        formFiles(c),
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskResponse(*task))
}

// UpdateTask applies a partial update. Omitted or empty form fields leave
// the existing values in place; the existingDocuments field controls which
// attachments are retained.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	user, exists := middleware.GetCurrentUser(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	task, exists := middleware.GetContextTask(c)
	if !exists {
		apierrors.InternalError(c, errors.New("task missing from context"))
		return
	}

	type UpdateTaskRequest struct {
		Title       string `form:"title"`
		Description string `form:"description"`
		Status      string `form:"status" binding:"omitempty,oneof=pending in-progress completed"`
		Priority    string `form:"priority" binding:"omitempty,oneof=low medium high"`
		DueDate     string `form:"dueDate"`
		AssignedTo  string `form:"assignedTo"`
	}

	var req UpdateTaskRequest
	if err := c.ShouldBind(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	input := services.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      models.TaskStatus(req.Status),
		Priority:    models.TaskPriority(req.Priority),
		Files:       formFiles(c),
	}

	if req.DueDate != "" {
		dueDate, err := parseDate(req.DueDate)
		if err != nil {
			apierrors.BadRequest(c, "Invalid due date")
			return
		}
		input.DueDate = &dueDate
	}

	if req.AssignedTo != "" {
		assignedTo, err := strconv.ParseUint(req.AssignedTo, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid assignee")
			return
		}
		input.AssignedToID = &assignedTo
	}

	form, _ := c.MultipartForm()
	input.Retained, input.RetainedPresent = uploads.RetainedSet(form)

	updated, err := h.taskService.UpdateTask(task.ID, user, input)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskResponse(*updated))
}

// DeleteTask deletes a task and all of its attachments
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	user, exists := middleware.GetCurrentUser(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	task, exists := middleware.GetContextTask(c)
	if !exists {
		apierrors.InternalError(c, errors.New("task missing from context"))
		return
	}

	if err := h.taskService.DeleteTask(task.ID, user); err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{},
	})
}

// formFiles returns the uploaded document files, if any
func formFiles(c *gin.Context) []*multipart.FileHeader {
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return nil
	}
	return form.File[uploads.FormFieldDocuments]
}

// parseDate accepts RFC 3339 timestamps and bare dates
func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}

// respondTaskError maps task service errors to HTTP responses
func respondTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTaskNotFound):
		apierrors.NotFound(c, "Task not found")
	case errors.Is(err, services.ErrAssigneeNotFound):
		apierrors.NotFound(c, "Assigned user not found")
	case errors.Is(err, services.ErrTaskPermissionDenied):
		apierrors.Forbidden(c, "Not authorized to access this task")
	case errors.Is(err, services.ErrNotTaskCreator):
		apierrors.Forbidden(c, "Not authorized to delete this task")
	case errors.Is(err, uploads.ErrInvalidMimeType):
		apierrors.BadRequest(c, "Only PDF files are allowed")
	case errors.Is(err, uploads.ErrFileTooLarge):
		apierrors.BadRequest(c, "File too large. Maximum size is 5MB")
	case errors.Is(err, uploads.ErrTooManyAttachments):
		apierrors.BadRequest(c, "Too many files. Maximum is 3")
	default:
		apierrors.InternalError(c, err)
	}
}
