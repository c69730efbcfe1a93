package handler

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"mime/multipart"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/CalTopSoft/backend-devhub/internal/model"
	"github.com/CalTopSoft/backend-devhub/internal/repository"
	"github.com/CalTopSoft/backend-devhub/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Handlers stay minimal: parse, call the service, translate errors.
func RegisterRoutes(app *fiber.App, db *sql.DB, projSvc service.ProjectService) {
	// Health endpoint: checks DB connectivity only
	app.Get("/health", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	})

	// Simple liveness probe
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	// List projects with limit & offset
	app.Get("/projects", func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := projSvc.List(c.UserContext(), repository.PageQuery{Limit: limit, Offset: offset})
		if err != nil {
			return svcError(c, err)
		}
		return c.JSON(res)
	})

	// Submit a new project (multipart/form-data)
	app.Post("/projects", func(c *fiber.Ctx) error {
		in, err := parseCreateInput(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_FORM", "cannot parse multipart form")
		}

		p, err := projSvc.Create(c.UserContext(), *in)
		if err != nil {
			return svcError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(p)
	})

	// Get project by ID
	app.Get("/projects/:id", func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		p, err := projSvc.Get(c.UserContext(), id)
		if err != nil {
			return svcError(c, err)
		}
		return c.JSON(p)
	})

	// Resubmit after rejection or a change request
	app.Post("/projects/:id/submit", func(c *fiber.Ctx) error {
		return transition(c, projSvc.Submit)
	})

	// Moderator decisions
	app.Post("/projects/:id/approve", func(c *fiber.Ctx) error {
		return transition(c, projSvc.ModeratorApprove)
	})

	app.Post("/projects/:id/reject", func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var body struct {
			Reasons []string `json:"reasons"`
		}
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}
		p, err := projSvc.ModeratorReject(c.UserContext(), id, body.Reasons)
		if err != nil {
			return svcError(c, err)
		}
		return c.JSON(p)
	})

	app.Post("/projects/:id/request-changes", func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var body struct {
			Notes []string `json:"notes"`
		}
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}
		p, err := projSvc.RequestChanges(c.UserContext(), id, body.Notes)
		if err != nil {
			return svcError(c, err)
		}
		return c.JSON(p)
	})

	// Propose an edit against a published project (multipart/form-data)
	app.Put("/projects/:id/draft", func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		changes, err := parseDraftChanges(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_FORM", "cannot parse multipart form")
		}
		p, err := projSvc.AuthorEditPublished(c.UserContext(), id, *changes)
		if err != nil {
			return svcError(c, err)
		}
		return c.Status(fiber.StatusAccepted).JSON(p)
	})

	app.Post("/projects/:id/draft/approve", func(c *fiber.Ctx) error {
		return transition(c, projSvc.ModeratorApproveDraft)
	})

	app.Post("/projects/:id/draft/reject", func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var body struct {
			Feedback string `json:"feedback"`
		}
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}
		p, err := projSvc.ModeratorRejectDraft(c.UserContext(), id, body.Feedback)
		if err != nil {
			return svcError(c, err)
		}
		return c.JSON(p)
	})

	app.Delete("/projects/:id/draft", func(c *fiber.Ctx) error {
		return transition(c, projSvc.ClearRejectedDraft)
	})

	// Accept an unscanned or flagged asset with a recorded justification
	app.Post("/projects/:id/assets/:kind/override-scan", func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var body struct {
			Justification string `json:"justification"`
		}
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}
		p, err := projSvc.OverrideScanVerdict(c.UserContext(), id, model.AssetKind(c.Params("kind")), body.Justification)
		if err != nil {
			return svcError(c, err)
		}
		return c.JSON(p)
	})
}

// transition handles the id-only state transitions that differ only in the
// service method they call.
func transition(c *fiber.Ctx, op func(context.Context, string) (*model.Project, error)) error {
	id, err := parseID(c)
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
	}
	p, err := op(c.UserContext(), id)
	if err != nil {
		return svcError(c, err)
	}
	return c.JSON(p)
}

func parseID(c *fiber.Ctx) (string, error) {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return "", err
	}
	return id, nil
}

// svcError translates service errors into standardized responses without
// leaking internals.
func svcError(c *fiber.Ctx, err error) error {
	var rejected *service.ScanRejectedError
	switch {
	case errors.As(err, &rejected):
		return writeError(c, fiber.StatusUnprocessableEntity, "SCAN_REJECTED", rejected.Error())
	case errors.Is(err, service.ErrIDRequired), errors.Is(err, service.ErrValidation):
		return writeError(c, fiber.StatusBadRequest, "INVALID_INPUT", err.Error())
	case errors.Is(err, service.ErrNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "project not found")
	case errors.Is(err, service.ErrInvalidState):
		return writeError(c, fiber.StatusConflict, "INVALID_STATE", err.Error())
	case errors.Is(err, service.ErrNoChanges):
		return writeError(c, fiber.StatusUnprocessableEntity, "NO_CHANGES", "draft contains no changes")
	case errors.Is(err, repository.ErrConflict):
		return writeError(c, fiber.StatusConflict, "CONFLICT", "concurrent modification, retry")
	default:
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

func readUpload(fh *multipart.FileHeader) (*service.FileUpload, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	ct := fh.Header.Get("Content-Type")
	if ct == "" {
		ct = "application/octet-stream"
	}
	return &service.FileUpload{Data: data, FileName: fh.Filename, ContentType: ct}, nil
}

func firstUpload(form *multipart.Form, field string) (*service.FileUpload, error) {
	fhs := form.File[field]
	if len(fhs) == 0 {
		return nil, nil
	}
	return readUpload(fhs[0])
}

func allUploads(form *multipart.Form, field string) ([]service.FileUpload, error) {
	var out []service.FileUpload
	for _, fh := range form.File[field] {
		up, err := readUpload(fh)
		if err != nil {
			return nil, err
		}
		out = append(out, *up)
	}
	return out, nil
}

func formValue(form *multipart.Form, field string) string {
	if vs := form.Value[field]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// formValuePtr distinguishes "field absent" from "field set to empty".
func formValuePtr(form *multipart.Form, field string) *string {
	if vs := form.Value[field]; len(vs) > 0 {
		return &vs[0]
	}
	return nil
}

func parseCreateInput(c *fiber.Ctx) (*service.CreateProjectInput, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, err
	}

	in := &service.CreateProjectInput{
		OrgID:     formValue(form, "org_id"),
		AuthorID:  formValue(form, "author_id"),
		Name:      formValue(form, "name"),
		ShortDesc: formValue(form, "short_desc"),
		LongDesc:  formValue(form, "long_desc"),
		AppURL:    formValue(form, "app_url"),
	}
	if in.Code, err = firstUpload(form, "code"); err != nil {
		return nil, err
	}
	if in.Doc, err = firstUpload(form, "doc"); err != nil {
		return nil, err
	}
	if in.Icon, err = firstUpload(form, "icon"); err != nil {
		return nil, err
	}
	if in.Images, err = allUploads(form, "images"); err != nil {
		return nil, err
	}
	return in, nil
}

func parseDraftChanges(c *fiber.Ctx) (*service.DraftChanges, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, err
	}

	changes := &service.DraftChanges{
		Name:      formValuePtr(form, "name"),
		ShortDesc: formValuePtr(form, "short_desc"),
		LongDesc:  formValuePtr(form, "long_desc"),
		AppURL:    formValuePtr(form, "app_url"),
	}
	if changes.Code, err = firstUpload(form, "code"); err != nil {
		return nil, err
	}
	if changes.Doc, err = firstUpload(form, "doc"); err != nil {
		return nil, err
	}
	if changes.Icon, err = firstUpload(form, "icon"); err != nil {
		return nil, err
	}
	if formValue(form, "replace_images") == "true" {
		changes.ReplaceImages = true
		if changes.Images, err = allUploads(form, "images"); err != nil {
			return nil, err
		}
	}
	return changes, nil
}
