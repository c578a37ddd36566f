package handler

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/Alijeyrad/consulto_backend/internal/repo"
	"github.com/Alijeyrad/consulto_backend/internal/service/booking"
)

type BookingHandler struct {
	svc booking.Service
}

func NewBookingHandler(svc booking.Service) *BookingHandler {
	return &BookingHandler{svc: svc}
}

func mapBookingError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, booking.ErrConsultantNotFound),
		errors.Is(err, booking.ErrBookingNotFound),
		errors.Is(err, booking.ErrPaymentNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, booking.ErrOutsideAvailability),
		errors.Is(err, booking.ErrInvalidDate),
		errors.Is(err, booking.ErrSelfBooking):
		return badRequest(c, err.Error())
	case errors.Is(err, booking.ErrNotBookingParty):
		return forbidden(c, err.Error())
	case booking.IsConflict(err):
		return conflict(c, err.Error())
	default:
		return internalError(c)
	}
}

type transitionBody struct {
	Note *string `json:"note"`
}

// POST /api/bookings
func (h *BookingHandler) Create(c fiber.Ctx) error {
	actor, found := actorFromLocals(c)
	if !found {
		return unauthorized(c)
	}

	var body struct {
		ConsultantID string  `json:"consultant_id"`
		Date         string  `json:"date"`
		TimeSlot     string  `json:"time_slot"`
		Notes        *string `json:"notes"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if body.ConsultantID == "" || body.Date == "" || body.TimeSlot == "" {
		return badRequest(c, "consultant_id, date and time_slot are required")
	}
	consultantID, err := uuid.Parse(body.ConsultantID)
	if err != nil {
		return badRequest(c, "invalid consultant_id")
	}

	res, err := h.svc.Create(c.Context(), booking.CreateRequest{
		UserID:       actor.ID,
		ConsultantID: consultantID,
		Date:         body.Date,
		TimeSlot:     body.TimeSlot,
		Notes:        body.Notes,
	})
	if err != nil {
		return mapBookingError(c, err)
	}
	return created(c, res)
}

// GET /api/bookings
func (h *BookingHandler) ListMine(c fiber.Ctx) error {
	actor, found := actorFromLocals(c)
	if !found {
		return unauthorized(c)
	}

	req := booking.ListRequest{Date: c.Query("date"), Page: pageFromQuery(c)}
	if s := c.Query("status"); s != "" {
		st := repo.BookingStatus(s)
		if !st.Valid() {
			return badRequest(c, "invalid status")
		}
		req.Status = &st
	}

	list, err := h.svc.ListMine(c.Context(), actor, req)
	if err != nil {
		return mapBookingError(c, err)
	}
	return ok(c, list)
}

// GET /api/bookings/:id
func (h *BookingHandler) Get(c fiber.Ctx) error {
	actor, found := actorFromLocals(c)
	if !found {
		return unauthorized(c)
	}
	id, valid := uuidParam(c, "id")
	if !valid {
		return badRequest(c, "invalid booking id")
	}

	b, err := h.svc.Get(c.Context(), actor, id)
	if err != nil {
		return mapBookingError(c, err)
	}
	return ok(c, b)
}

// PUT /api/bookings/:id/accept
func (h *BookingHandler) Accept(c fiber.Ctx) error {
	actor, found := actorFromLocals(c)
	if !found {
		return unauthorized(c)
	}
	id, valid := uuidParam(c, "id")
	if !valid {
		return badRequest(c, "invalid booking id")
	}

	b, err := h.svc.Accept(c.Context(), actor, id)
	if err != nil {
		return mapBookingError(c, err)
	}
	return ok(c, b)
}

// PUT /api/bookings/:id/reject
func (h *BookingHandler) Reject(c fiber.Ctx) error {
	return h.refund(c, h.svc.Reject)
}

// PUT /api/bookings/:id/cancel
func (h *BookingHandler) Cancel(c fiber.Ctx) error {
	return h.refund(c, h.svc.Cancel)
}

type refundFunc func(ctx context.Context, req booking.TransitionRequest) (*booking.RefundResult, error)

func (h *BookingHandler) refund(c fiber.Ctx, fn refundFunc) error {
	actor, found := actorFromLocals(c)
	if !found {
		return unauthorized(c)
	}
	id, valid := uuidParam(c, "id")
	if !valid {
		return badRequest(c, "invalid booking id")
	}

	// The body is optional; an empty one carries no note.
	var body transitionBody
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&body); err != nil {
			return badRequest(c, "invalid request body")
		}
	}

	res, err := fn(c.Context(), booking.TransitionRequest{BookingID: id, Actor: actor, Note: body.Note})
	if err != nil {
		return mapBookingError(c, err)
	}
	return ok(c, res)
}
