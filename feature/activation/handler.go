package activation

import (
	"errors"

	"treediff/core/changelog"
	"treediff/core/logger"
	"treediff/core/reconcile"
	"treediff/core/storage"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for activation control diffs.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the activation routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/activation")
	group.Post("/diff", h.HandleDiff)
	group.Post("/diff/many", h.HandleDiffMany)
	group.Post("/diff/snapshots", h.HandleDiffSnapshots)
	group.Get("/changelog", h.HandleChangelog)
	group.Get("/archives", h.HandleArchives)
	group.Get("/archives/:run", h.HandleArchive)
}

// HandleDiff diffs the existing and calculated controls of the request body.
func (h *Handler) HandleDiff(c *fiber.Ctx) error {
	var req DiffRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	report, err := h.service.Diff(c.UserContext(), req)
	if err != nil {
		return h.fail(c, "Diff failed", err)
	}
	return c.JSON(report)
}

// HandleDiffMany diffs two collections of controls.
func (h *Handler) HandleDiffMany(c *fiber.Ctx) error {
	var req DiffManyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	report, err := h.service.DiffMany(c.UserContext(), req)
	if err != nil {
		return h.fail(c, "Diff failed", err)
	}
	return c.JSON(report)
}

// HandleDiffSnapshots diffs two stored snapshots.
func (h *Handler) HandleDiffSnapshots(c *fiber.Ctx) error {
	var req SnapshotRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	report, err := h.service.DiffSnapshots(c.UserContext(), req)
	if err != nil {
		return h.fail(c, "Snapshot diff failed", err)
	}
	return c.JSON(report)
}

// HandleChangelog returns persisted changelog entries.
// Query: run_id, entity, type, limit.
func (h *Handler) HandleChangelog(c *fiber.Ctx) error {
	var f changelog.Filter
	if err := c.QueryParser(&f); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid query"})
	}

	entries, err := h.service.History(c.UserContext(), f)
	if err != nil {
		return h.fail(c, "Changelog query failed", err)
	}
	return c.JSON(fiber.Map{"count": len(entries), "entries": entries})
}

// HandleArchives lists archived runs.
func (h *Handler) HandleArchives(c *fiber.Ctx) error {
	infos, err := h.service.Archives(c.UserContext())
	if err != nil {
		return h.fail(c, "Archive listing failed", err)
	}
	return c.JSON(fiber.Map{"count": len(infos), "archives": infos})
}

// HandleArchive returns one archived run.
func (h *Handler) HandleArchive(c *fiber.Ctx) error {
	archive, err := h.service.Archive(c.UserContext(), c.Params("run"))
	if err != nil {
		return h.fail(c, "Archive lookup failed", err)
	}
	return c.JSON(archive)
}

func (h *Handler) fail(c *fiber.Ctx, msg string, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, reconcile.ErrMissingKey):
		status = fiber.StatusBadRequest
	case errors.Is(err, reconcile.ErrDuplicateKey):
		status = fiber.StatusConflict
	case errors.Is(err, ErrChangelogDisabled), errors.Is(err, ErrArchiveDisabled), errors.Is(err, ErrSnapshotsDisabled):
		status = fiber.StatusServiceUnavailable
	case storage.IsNotFound(err):
		status = fiber.StatusNotFound
	}

	l := logger.WithRayID(h.service.logger, c)
	if status == fiber.StatusInternalServerError {
		l.Error(msg, zap.Error(err))
	} else {
		l.Warn(msg, zap.Error(err), zap.Int("status", status))
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
