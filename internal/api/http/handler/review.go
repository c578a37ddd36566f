package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/Alijeyrad/consulto_backend/internal/service/review"
)

type ReviewHandler struct {
	svc review.Service
}

func NewReviewHandler(svc review.Service) *ReviewHandler {
	return &ReviewHandler{svc: svc}
}

func mapReviewError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, review.ErrInvalidRating),
		errors.Is(err, review.ErrTextTooLong):
		return badRequest(c, err.Error())
	case errors.Is(err, review.ErrNoBooking):
		return forbidden(c, err.Error())
	case errors.Is(err, review.ErrConsultantNotFound):
		return notFound(c, err.Error())
	default:
		return internalError(c)
	}
}

// POST /api/reviews
func (h *ReviewHandler) Post(c fiber.Ctx) error {
	actor, found := actorFromLocals(c)
	if !found {
		return unauthorized(c)
	}

	var body struct {
		ConsultantID string `json:"consultant_id"`
		Rating       int    `json:"rating"`
		Text         string `json:"text"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	consultantID, err := uuid.Parse(body.ConsultantID)
	if err != nil {
		return badRequest(c, "invalid consultant_id")
	}

	rv, err := h.svc.Post(c.Context(), review.PostRequest{
		UserID:       actor.ID,
		ConsultantID: consultantID,
		Rating:       body.Rating,
		Text:         body.Text,
	})
	if err != nil {
		return mapReviewError(c, err)
	}
	return created(c, rv)
}

// GET /api/consultant/:id/reviews
func (h *ReviewHandler) ListForConsultant(c fiber.Ctx) error {
	id, valid := uuidParam(c, "id")
	if !valid {
		return badRequest(c, "invalid consultant id")
	}

	out, err := h.svc.ListForConsultant(c.Context(), id, pageFromQuery(c))
	if err != nil {
		return mapReviewError(c, err)
	}
	return ok(c, out)
}
