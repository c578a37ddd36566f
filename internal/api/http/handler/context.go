package handler

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/Alijeyrad/consulto_backend/internal/repo"
	pasetotoken "github.com/Alijeyrad/consulto_backend/pkg/paseto"
)

// actorFromLocals returns the caller set by the auth middleware.
func actorFromLocals(c fiber.Ctx) (repo.Actor, bool) {
	claims, found := pasetotoken.ClaimsFromFiber(c)
	if !found || claims.UserID == uuid.Nil {
		return repo.Actor{}, false
	}
	return repo.Actor{ID: claims.UserID, Role: repo.Role(claims.Role)}, true
}

func uuidParam(c fiber.Ctx, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(name))
	return id, err == nil
}

func optionalUUID(s string) (*uuid.UUID, bool) {
	if s == "" {
		return nil, true
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, false
	}
	return &id, true
}

func optionalTime(s string) (*time.Time, bool) {
	if s == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil, false
	}
	return &t, true
}

func pageFromQuery(c fiber.Ctx) repo.Page {
	page, _ := strconv.Atoi(c.Query("page"))
	perPage, _ := strconv.Atoi(c.Query("per_page"))
	return repo.Page{Page: page, PerPage: perPage}.Normalize()
}
