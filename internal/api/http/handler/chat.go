package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/Alijeyrad/consulto_backend/internal/repo"
	"github.com/Alijeyrad/consulto_backend/internal/service/chat"
)

type ChatHandler struct {
	svc chat.Service
}

func NewChatHandler(svc chat.Service) *ChatHandler {
	return &ChatHandler{svc: svc}
}

func mapChatError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, chat.ErrChatNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, chat.ErrChatNotAuthorized):
		return forbidden(c, err.Error())
	case errors.Is(err, chat.ErrChatExists),
		errors.Is(err, chat.ErrChatAlreadyResolved),
		errors.Is(err, chat.ErrChatNotAccepted):
		return conflict(c, err.Error())
	case errors.Is(err, chat.ErrEmptyMessage),
		errors.Is(err, chat.ErrMessageTooLong):
		return badRequest(c, err.Error())
	default:
		return internalError(c)
	}
}

// POST /api/chat/request
func (h *ChatHandler) Open(c fiber.Ctx) error {
	actor, found := actorFromLocals(c)
	if !found {
		return unauthorized(c)
	}

	var body struct {
		ConsultantID   string `json:"consultant_id"`
		BookingID      string `json:"booking_id"`
		InitialMessage string `json:"initial_message"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	consultantID, err := uuid.Parse(body.ConsultantID)
	if err != nil {
		return badRequest(c, "invalid consultant_id")
	}
	bookingID, err := uuid.Parse(body.BookingID)
	if err != nil {
		return badRequest(c, "invalid booking_id")
	}

	res, err := h.svc.Open(c.Context(), chat.OpenRequest{
		UserID:         actor.ID,
		ConsultantID:   consultantID,
		BookingID:      bookingID,
		InitialMessage: body.InitialMessage,
	})
	if err != nil {
		return mapChatError(c, err)
	}
	return created(c, res)
}

// GET /api/chat/requests
func (h *ChatHandler) ListRequests(c fiber.Ctx) error {
	actor, found := actorFromLocals(c)
	if !found {
		return unauthorized(c)
	}

	list, err := h.svc.ListRequests(c.Context(), actor.ID)
	if err != nil {
		return mapChatError(c, err)
	}
	return ok(c, list)
}

// PUT /api/chat/requests/:id
func (h *ChatHandler) Respond(c fiber.Ctx) error {
	actor, found := actorFromLocals(c)
	if !found {
		return unauthorized(c)
	}
	id, valid := uuidParam(c, "id")
	if !valid {
		return badRequest(c, "invalid chat request id")
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	var accept bool
	switch repo.ChatStatus(body.Status) {
	case repo.ChatAccepted:
		accept = true
	case repo.ChatRejected:
	default:
		return badRequest(c, "status must be accepted or rejected")
	}

	cr, err := h.svc.Respond(c.Context(), chat.RespondRequest{ConsultantID: actor.ID, RequestID: id, Accept: accept})
	if err != nil {
		return mapChatError(c, err)
	}
	return ok(c, cr)
}

// POST /api/chat/:chatRequestId/messages
func (h *ChatHandler) PostMessage(c fiber.Ctx) error {
	actor, found := actorFromLocals(c)
	if !found {
		return unauthorized(c)
	}
	id, valid := uuidParam(c, "chatRequestId")
	if !valid {
		return badRequest(c, "invalid chat request id")
	}

	var body struct {
		Text string `json:"text"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	m, err := h.svc.PostMessage(c.Context(), chat.PostRequest{RequestID: id, SenderID: actor.ID, Text: body.Text})
	if err != nil {
		return mapChatError(c, err)
	}
	return created(c, m)
}

// GET /api/chat/:chatRequestId/messages?since=<RFC3339>&limit=<n>
func (h *ChatHandler) ListMessages(c fiber.Ctx) error {
	actor, found := actorFromLocals(c)
	if !found {
		return unauthorized(c)
	}
	id, valid := uuidParam(c, "chatRequestId")
	if !valid {
		return badRequest(c, "invalid chat request id")
	}
	since, valid := optionalTime(c.Query("since"))
	if !valid {
		return badRequest(c, "since must be an RFC 3339 timestamp")
	}
	limit, _ := strconv.Atoi(c.Query("limit"))

	msgs, err := h.svc.ListMessages(c.Context(), chat.ListMessagesRequest{
		RequestID: id,
		ReaderID:  actor.ID,
		Since:     since,
		Limit:     limit,
	})
	if err != nil {
		return mapChatError(c, err)
	}
	return ok(c, msgs)
}
