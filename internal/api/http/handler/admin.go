package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/consulto_backend/internal/service/admin"
)

type AdminHandler struct {
	svc admin.Service
}

func NewAdminHandler(svc admin.Service) *AdminHandler {
	return &AdminHandler{svc: svc}
}

func mapAdminError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, admin.ErrConsultantNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, admin.ErrInvalidFilter):
		return badRequest(c, err.Error())
	default:
		return internalError(c)
	}
}

// GET /api/admin/consultants/pending
func (h *AdminHandler) ListPendingConsultants(c fiber.Ctx) error {
	list, err := h.svc.ListPendingConsultants(c.Context(), pageFromQuery(c))
	if err != nil {
		return mapAdminError(c, err)
	}
	return ok(c, list)
}

// PUT /api/admin/consultants/:id/approval
func (h *AdminHandler) SetApproval(c fiber.Ctx) error {
	actor, found := actorFromLocals(c)
	if !found {
		return unauthorized(c)
	}
	id, valid := uuidParam(c, "id")
	if !valid {
		return badRequest(c, "invalid consultant id")
	}

	var body struct {
		Approved *bool `json:"approved"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if body.Approved == nil {
		return badRequest(c, "approved is required")
	}

	u, err := h.svc.ApproveConsultant(c.Context(), admin.ApproveRequest{
		AdminID:      actor.ID,
		ConsultantID: id,
		Approved:     *body.Approved,
	})
	if err != nil {
		return mapAdminError(c, err)
	}
	return ok(c, u)
}

// GET /api/admin/audit-logs?actor_id=&entity=&entity_id=&since=
func (h *AdminHandler) ListAuditLog(c fiber.Ctx) error {
	actorID, valid := optionalUUID(c.Query("actor_id"))
	if !valid {
		return badRequest(c, "invalid actor_id")
	}
	entityID, valid := optionalUUID(c.Query("entity_id"))
	if !valid {
		return badRequest(c, "invalid entity_id")
	}
	since, valid := optionalTime(c.Query("since"))
	if !valid {
		return badRequest(c, "since must be an RFC 3339 timestamp")
	}

	list, err := h.svc.ListAuditLog(c.Context(), admin.AuditQuery{
		ActorID:  actorID,
		Entity:   c.Query("entity"),
		EntityID: entityID,
		Since:    since,
		Page:     pageFromQuery(c),
	})
	if err != nil {
		return mapAdminError(c, err)
	}
	return ok(c, list)
}

// GET /api/admin/bookings?user_id=&consultant_id=&status=&date=
func (h *AdminHandler) ListBookings(c fiber.Ctx) error {
	userID, valid := optionalUUID(c.Query("user_id"))
	if !valid {
		return badRequest(c, "invalid user_id")
	}
	consultantID, valid := optionalUUID(c.Query("consultant_id"))
	if !valid {
		return badRequest(c, "invalid consultant_id")
	}

	list, err := h.svc.ListBookings(c.Context(), admin.BookingQuery{
		UserID:       userID,
		ConsultantID: consultantID,
		Status:       c.Query("status"),
		Date:         c.Query("date"),
		Page:         pageFromQuery(c),
	})
	if err != nil {
		return mapAdminError(c, err)
	}
	return ok(c, list)
}
