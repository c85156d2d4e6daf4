package handlers_fiber

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"taskhub/internal/entities"
	"taskhub/internal/mapper"
	"taskhub/internal/transport/http/dto"
	"taskhub/internal/transport/http/middleware"
)

// CreateExport enqueues a background export of the caller's tasks. The job
// runs asynchronously, so the reply is 202 with the queued job.
func (h *Handler) CreateExport(c *fiber.Ctx) error {
	p, ok := middleware.PrincipalFromCtx(c)
	if !ok {
		return writeUnauthorized(c)
	}

	var body dto.CreateExportRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&body); err != nil {
			return c.Status(http.StatusBadRequest).JSON(errorResponse(dto.CodeInvalidArgument, "invalid body"))
		}
	}

	job, err := h.uc.CreateExport(c.Context(), p, entities.JobKind(body.Kind))
	if err != nil {
		h.log.Errorw("failed to enqueue export", "error", err.Error())
		return writeError(c, err)
	}

	return c.Status(http.StatusAccepted).JSON(dto.ExportResponse{Job: mapper.ToDTOExportJob(*job)})
}

// GetExport returns an export job by id.
func (h *Handler) GetExport(c *fiber.Ctx) error {
	p, ok := middleware.PrincipalFromCtx(c)
	if !ok {
		return writeUnauthorized(c)
	}

	job, err := h.uc.Export(c.Context(), p, c.Params("id"))
	if err != nil {
		h.log.Errorw("failed to get export", "error", err.Error(), "job_id", c.Params("id"))
		return writeError(c, err)
	}

	return c.Status(http.StatusOK).JSON(dto.ExportResponse{Job: mapper.ToDTOExportJob(*job)})
}

// ListExports returns the caller's export jobs newest first.
func (h *Handler) ListExports(c *fiber.Ctx) error {
	p, ok := middleware.PrincipalFromCtx(c)
	if !ok {
		return writeUnauthorized(c)
	}

	jobs, err := h.uc.Exports(c.Context(), p, c.QueryInt("limit"), c.QueryInt("offset"))
	if err != nil {
		h.log.Errorw("failed to list exports", "error", err.Error())
		return writeError(c, err)
	}

	return c.Status(http.StatusOK).JSON(dto.ExportsResponse{Jobs: mapper.ToDTOExportJobList(jobs)})
}

// RetryExport requeues a FAILED export job.
func (h *Handler) RetryExport(c *fiber.Ctx) error {
	p, ok := middleware.PrincipalFromCtx(c)
	if !ok {
		return writeUnauthorized(c)
	}

	job, err := h.uc.RetryExport(c.Context(), p, c.Params("id"))
	if err != nil {
		h.log.Errorw("failed to retry export", "error", err.Error(), "job_id", c.Params("id"))
		return writeError(c, err)
	}

	return c.Status(http.StatusOK).JSON(dto.ExportResponse{Job: mapper.ToDTOExportJob(*job)})
}
