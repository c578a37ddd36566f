package handler

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/consulto_backend/internal/service/user"
)

type UserHandler struct {
	svc user.Service
}

func NewUserHandler(svc user.Service) *UserHandler {
	return &UserHandler{svc: svc}
}

func mapUserError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, user.ErrUserNotFound),
		errors.Is(err, user.ErrConsultantNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, user.ErrNotConsultant):
		return forbidden(c, err.Error())
	case errors.Is(err, user.ErrEncryptionDisabled):
		return unavailable(c, err.Error())
	case user.IsInvalid(err):
		return badRequest(c, err.Error())
	default:
		return internalError(c)
	}
}

// GET /api/users/me
func (h *UserHandler) GetMe(c fiber.Ctx) error {
	actor, found := actorFromLocals(c)
	if !found {
		return unauthorized(c)
	}

	me, err := h.svc.GetMe(c.Context(), actor.ID)
	if err != nil {
		return mapUserError(c, err)
	}
	return ok(c, me)
}

// PATCH /api/users/me
func (h *UserHandler) UpdateMe(c fiber.Ctx) error {
	actor, found := actorFromLocals(c)
	if !found {
		return unauthorized(c)
	}

	var body struct {
		Name  *string `json:"name"`
		Phone *string `json:"phone"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	me, err := h.svc.UpdateProfile(c.Context(), user.UpdateProfileRequest{
		UserID: actor.ID,
		Name:   body.Name,
		Phone:  body.Phone,
	})
	if err != nil {
		return mapUserError(c, err)
	}
	return ok(c, me)
}

// PUT /api/consultant/profile
func (h *UserHandler) UpdateConsultantProfile(c fiber.Ctx) error {
	actor, found := actorFromLocals(c)
	if !found {
		return unauthorized(c)
	}

	var body struct {
		Specialty      *string         `json:"specialty"`
		Qualifications *string         `json:"qualifications"`
		Bio            *string         `json:"bio"`
		Availability   json.RawMessage `json:"availability"`
		BankAccount    *string         `json:"bank_account"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	me, err := h.svc.UpdateConsultantProfile(c.Context(), user.UpdateConsultantProfileRequest{
		UserID:         actor.ID,
		Specialty:      body.Specialty,
		Qualifications: body.Qualifications,
		Bio:            body.Bio,
		Availability:   body.Availability,
		BankAccount:    body.BankAccount,
	})
	if err != nil {
		return mapUserError(c, err)
	}
	return ok(c, me)
}

// GET /api/consultants?specialty=&page=&per_page=
func (h *UserHandler) ListConsultants(c fiber.Ctx) error {
	list, err := h.svc.ListConsultants(c.Context(), user.ListConsultantsRequest{
		Specialty: c.Query("specialty"),
		Page:      pageFromQuery(c),
	})
	if err != nil {
		return mapUserError(c, err)
	}
	return ok(c, list)
}

// GET /api/consultant/:id
func (h *UserHandler) GetConsultant(c fiber.Ctx) error {
	id, valid := uuidParam(c, "id")
	if !valid {
		return badRequest(c, "invalid consultant id")
	}

	u, err := h.svc.GetConsultant(c.Context(), id)
	if err != nil {
		return mapUserError(c, err)
	}
	return ok(c, u)
}

// GET /api/consultant/:id/availability
//
// Without a query it returns the weekly schedule. With ?date=YYYY-MM-DD it
// returns the slots still open on that date.
func (h *UserHandler) GetAvailability(c fiber.Ctx) error {
	id, valid := uuidParam(c, "id")
	if !valid {
		return badRequest(c, "invalid consultant id")
	}

	if date := c.Query("date"); date != "" {
		slots, err := h.svc.OpenSlots(c.Context(), id, date)
		if err != nil {
			return mapUserError(c, err)
		}
		return ok(c, slots)
	}

	sched, err := h.svc.GetAvailability(c.Context(), id)
	if err != nil {
		return mapUserError(c, err)
	}
	return ok(c, sched)
}
