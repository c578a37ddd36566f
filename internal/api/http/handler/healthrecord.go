package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/consulto_backend/internal/repo"
	"github.com/Alijeyrad/consulto_backend/internal/service/healthrecord"
)

type HealthRecordHandler struct {
	svc healthrecord.Service
}

func NewHealthRecordHandler(svc healthrecord.Service) *HealthRecordHandler {
	return &HealthRecordHandler{svc: svc}
}

func mapHealthRecordError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, healthrecord.ErrInvalidKind),
		errors.Is(err, healthrecord.ErrEmptyContent),
		errors.Is(err, healthrecord.ErrContentTooLong),
		errors.Is(err, healthrecord.ErrInvalidAttachment),
		errors.Is(err, healthrecord.ErrUnsupportedFileType):
		return badRequest(c, err.Error())
	case errors.Is(err, healthrecord.ErrNotAuthorized):
		return forbidden(c, err.Error())
	case errors.Is(err, healthrecord.ErrStorageDisabled):
		return unavailable(c, err.Error())
	default:
		return internalError(c)
	}
}

// POST /api/health-records
func (h *HealthRecordHandler) Append(c fiber.Ctx) error {
	actor, found := actorFromLocals(c)
	if !found {
		return unauthorized(c)
	}

	var body struct {
		Kind          string  `json:"kind"`
		Content       string  `json:"content"`
		AttachmentKey *string `json:"attachment_key"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	rec, err := h.svc.Append(c.Context(), healthrecord.AppendRequest{
		UserID:        actor.ID,
		Kind:          repo.RecordKind(body.Kind),
		Content:       body.Content,
		AttachmentKey: body.AttachmentKey,
	})
	if err != nil {
		return mapHealthRecordError(c, err)
	}
	return created(c, rec)
}

// POST /api/health-records/attachments
func (h *HealthRecordHandler) PresignAttachment(c fiber.Ctx) error {
	actor, found := actorFromLocals(c)
	if !found {
		return unauthorized(c)
	}

	var body struct {
		Filename    string `json:"filename"`
		ContentType string `json:"content_type"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	p, err := h.svc.PresignAttachment(c.Context(), healthrecord.PresignRequest{
		UserID:      actor.ID,
		Filename:    body.Filename,
		ContentType: body.ContentType,
	})
	if err != nil {
		return mapHealthRecordError(c, err)
	}
	return created(c, p)
}

// GET /api/users/:userId/health-records
func (h *HealthRecordHandler) List(c fiber.Ctx) error {
	actor, found := actorFromLocals(c)
	if !found {
		return unauthorized(c)
	}
	owner, valid := uuidParam(c, "userId")
	if !valid {
		return badRequest(c, "invalid user id")
	}

	list, err := h.svc.ListForUser(c.Context(), healthrecord.ListRequest{
		UserID:   owner,
		ReaderID: actor.ID,
		Page:     pageFromQuery(c),
	})
	if err != nil {
		return mapHealthRecordError(c, err)
	}
	return ok(c, list)
}

// GET /api/users/:userId/health-records/attachment?key=<object key>
func (h *HealthRecordHandler) AttachmentURL(c fiber.Ctx) error {
	actor, found := actorFromLocals(c)
	if !found {
		return unauthorized(c)
	}
	owner, valid := uuidParam(c, "userId")
	if !valid {
		return badRequest(c, "invalid user id")
	}
	key := c.Query("key")
	if key == "" {
		return badRequest(c, "key is required")
	}

	p, err := h.svc.AttachmentURL(c.Context(), owner, actor.ID, key)
	if err != nil {
		return mapHealthRecordError(c, err)
	}
	return ok(c, p)
}
