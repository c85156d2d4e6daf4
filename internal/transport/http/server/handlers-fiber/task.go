package handlers_fiber

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"taskhub/internal/entities"
	"taskhub/internal/mapper"
	"taskhub/internal/transport/http/dto"
	"taskhub/internal/transport/http/middleware"
)

// CreateTask creates a task owned by the caller.
func (h *Handler) CreateTask(c *fiber.Ctx) error {
	p, ok := middleware.PrincipalFromCtx(c)
	if !ok {
		return writeUnauthorized(c)
	}

	var body dto.CreateTaskRequest
	if err := c.BodyParser(&body); err != nil {
		return c.Status(http.StatusBadRequest).JSON(errorResponse(dto.CodeInvalidArgument, "invalid body"))
	}

	task, err := h.uc.CreateTask(c.Context(), p, mapper.TaskFromCreateRequest(body))
	if err != nil {
		h.log.Errorw("failed to create task", "error", err.Error())
		return writeError(c, err)
	}

	return c.Status(http.StatusCreated).JSON(dto.TaskResponse{Task: mapper.ToDTOTask(*task)})
}

// GetTask returns a task by id.
func (h *Handler) GetTask(c *fiber.Ctx) error {
	p, ok := middleware.PrincipalFromCtx(c)
	if !ok {
		return writeUnauthorized(c)
	}

	task, err := h.uc.Task(c.Context(), p, c.Params("id"))
	if err != nil {
		h.log.Errorw("failed to get task", "error", err.Error(), "task_id", c.Params("id"))
		return writeError(c, err)
	}

	return c.Status(http.StatusOK).JSON(dto.TaskResponse{Task: mapper.ToDTOTask(*task)})
}

// ListTasks returns tasks matching the query filters, newest first.
func (h *Handler) ListTasks(c *fiber.Ctx) error {
	p, ok := middleware.PrincipalFromCtx(c)
	if !ok {
		return writeUnauthorized(c)
	}

	filter := entities.TaskFilter{
		Limit:  c.QueryInt("limit"),
		Offset: c.QueryInt("offset"),
	}
	if s := c.Query("status"); s != "" {
		status := entities.TaskStatus(s)
		filter.Status = &status
	}
	if s := c.Query("priority"); s != "" {
		priority := entities.TaskPriority(s)
		filter.Priority = &priority
	}
	if s := c.Query("owner_id"); s != "" {
		owner := s
		filter.OwnerID = &owner
	}

	tasks, err := h.uc.Tasks(c.Context(), p, filter)
	if err != nil {
		h.log.Errorw("failed to list tasks", "error", err.Error())
		return writeError(c, err)
	}

	return c.Status(http.StatusOK).JSON(dto.TasksResponse{Tasks: mapper.ToDTOTaskList(tasks)})
}

// UpdateTask patches an OPEN task.
func (h *Handler) UpdateTask(c *fiber.Ctx) error {
	p, ok := middleware.PrincipalFromCtx(c)
	if !ok {
		return writeUnauthorized(c)
	}

	var body dto.UpdateTaskRequest
	if err := c.BodyParser(&body); err != nil {
		return c.Status(http.StatusBadRequest).JSON(errorResponse(dto.CodeInvalidArgument, "invalid body"))
	}

	task, err := h.uc.UpdateTask(c.Context(), p, c.Params("id"), mapper.TaskPatchFromUpdateRequest(body))
	if err != nil {
		h.log.Errorw("failed to update task", "error", err.Error(), "task_id", c.Params("id"))
		return writeError(c, err)
	}

	return c.Status(http.StatusOK).JSON(dto.TaskResponse{Task: mapper.ToDTOTask(*task)})
}

// CompleteTask marks a task DONE idempotently.
func (h *Handler) CompleteTask(c *fiber.Ctx) error {
	p, ok := middleware.PrincipalFromCtx(c)
	if !ok {
		return writeUnauthorized(c)
	}

	task, err := h.uc.CompleteTask(c.Context(), p, c.Params("id"))
	if err != nil {
		h.log.Errorw("failed to complete task", "error", err.Error(), "task_id", c.Params("id"))
		return writeError(c, err)
	}

	return c.Status(http.StatusOK).JSON(dto.TaskResponse{Task: mapper.ToDTOTask(*task)})
}

// DeleteTask removes a task.
func (h *Handler) DeleteTask(c *fiber.Ctx) error {
	p, ok := middleware.PrincipalFromCtx(c)
	if !ok {
		return writeUnauthorized(c)
	}

	if err := h.uc.DeleteTask(c.Context(), p, c.Params("id")); err != nil {
		h.log.Errorw("failed to delete task", "error", err.Error(), "task_id", c.Params("id"))
		return writeError(c, err)
	}

	return c.SendStatus(http.StatusNoContent)
}
